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

// Package config loads JSON run configuration for the generation tools.
// Config files are user input, so validation returns errors rather than
// panicking; commands decide how to fail.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"tracesynth"
)

// Config is one generation run: which fitted parameters to use, the burst
// timeout the observed trace was analyzed with, and the PRNG seed.
type Config struct {
	BurstTimeout float64                   `json:"burst_timeout"`
	Seed         int64                     `json:"seed"`
	Time         tracesynth.TimeParameters `json:"time"`
	Addr         tracesynth.AddrParameters `json:"addr"`
}

// Default returns a runnable configuration: one-second windows with mildly
// heavy-tailed on/off periods and a spread of 1 on both cascades.
func Default() Config {
	return Config{
		BurstTimeout: tracesynth.DefaultBurstTimeout,
		Seed:         1,
		Time: tracesynth.TimeParameters{
			AOn:           1.2,
			MOn:           tracesynth.DefaultBurstTimeout,
			AOff:          1.2,
			MOff:          tracesynth.DefaultBurstTimeout,
			TotalDuration: 1.0,
		},
		Addr: tracesynth.AddrParameters{SrcSigma: 1.0, DstSigma: 1.0},
	}
}

// Load reads path over the defaults: absent fields keep their default
// values.
func Load(path string) (Config, error) {
	cfg := Default()
	payload, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Check(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Check validates the configuration without panicking.
func (c Config) Check() error {
	if c.BurstTimeout <= 0 {
		return fmt.Errorf("burst_timeout must be positive, got %v", c.BurstTimeout)
	}
	t := c.Time
	if t.AOn <= 0 || t.MOn <= 0 || t.AOff <= 0 || t.MOff <= 0 {
		return fmt.Errorf("pareto parameters must be positive, got %+v", t)
	}
	if t.MOff >= t.TotalDuration {
		return fmt.Errorf("m_off %v must be below total_duration %v", t.MOff, t.TotalDuration)
	}
	if c.Addr.SrcSigma < 0 || c.Addr.DstSigma < 0 {
		return fmt.Errorf("sigma must be non-negative, got %+v", c.Addr)
	}
	return nil
}
