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
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps models as JSON strings under model:<name>.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore returns a store backed by the given client. The client is
// borrowed; the caller owns its lifecycle.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// RedisModelKey is the key layout, public for interoperability with other
// tooling reading the same instance.
func RedisModelKey(name string) string { return fmt.Sprintf("model:%s", name) }

// Save persists the model. Models are tiny, so no TTL is set.
func (r *RedisStore) Save(ctx context.Context, m *Model) error {
	if m.Name == "" {
		return errors.New("persistence: model name must be set")
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("persistence: marshal model %q: %w", m.Name, err)
	}
	if err := r.client.Set(ctx, RedisModelKey(m.Name), payload, 0).Err(); err != nil {
		return fmt.Errorf("persistence: redis set %q: %w", m.Name, err)
	}
	return nil
}

// Load retrieves a model by name.
func (r *RedisStore) Load(ctx context.Context, name string) (*Model, error) {
	payload, err := r.client.Get(ctx, RedisModelKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: redis get %q: %w", name, err)
	}
	var m Model
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal model %q: %w", name, err)
	}
	return &m, nil
}
