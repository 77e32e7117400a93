// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package persistence provides storage adapters for fitted trace models so
// a model fitted once can drive many later generation runs. Adapters share
// one small Store interface; payloads are JSON either way.
package persistence

import (
	"context"
	"errors"

	"tracesynth"
)

// Model is the durable result of one fitting pass over an observed trace.
type Model struct {
	Name         string                    `json:"name"`
	BurstTimeout float64                   `json:"burst_timeout"`
	Time         tracesynth.TimeParameters `json:"time"`
	Addr         tracesynth.AddrParameters `json:"addr"`

	// Fit provenance, informational only.
	SourceFile string `json:"source_file,omitempty"`
	NumPackets int    `json:"num_packets,omitempty"`
	NumFlows   int    `json:"num_flows,omitempty"`
}

// ErrNotFound is returned by Load when no model exists under the name.
var ErrNotFound = errors.New("persistence: model not found")

// Store is the minimal API supported by all adapters.
type Store interface {
	// Save persists the model under its name, replacing any previous version.
	Save(ctx context.Context, m *Model) error
	// Load retrieves the model saved under name, or ErrNotFound.
	Load(ctx context.Context, name string) (*Model, error)
}
