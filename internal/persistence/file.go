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

package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each model as <dir>/<name>.json, pretty-printed so the
// files double as human-readable fit reports.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persistence: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file a model name maps to.
func (f *FileStore) Path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

// Save writes the model via a temp file and rename so readers never observe
// a partial document.
func (f *FileStore) Save(_ context.Context, m *Model) error {
	if m.Name == "" {
		return fmt.Errorf("persistence: model name must be set")
	}
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal model %q: %w", m.Name, err)
	}
	tmp := f.Path(m.Name) + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("persistence: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.Path(m.Name)); err != nil {
		return fmt.Errorf("persistence: rename %s: %w", tmp, err)
	}
	return nil
}

// Load reads a model by name.
func (f *FileStore) Load(_ context.Context, name string) (*Model, error) {
	payload, err := os.ReadFile(f.Path(name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: read %s: %w", f.Path(name), err)
	}
	var m Model
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal %s: %w", f.Path(name), err)
	}
	return &m, nil
}
