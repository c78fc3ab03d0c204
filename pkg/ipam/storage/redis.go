// Copyright 2019-2025 The Liqo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	klog "k8s.io/klog/v2"
)

// DefaultRedisTimeout bounds every redis operation when no timeout is configured.
const DefaultRedisTimeout = 5 * time.Second

// Redis keeps the properties as a JSON document in a single redis key.
type Redis struct {
	client  redis.Cmdable
	key     string
	timeout time.Duration
}

// NewRedis returns a storage backed by the given redis key.
func NewRedis(client redis.Cmdable, key string, timeout time.Duration) *Redis {
	if timeout <= 0 {
		timeout = DefaultRedisTimeout
	}
	return &Redis{client: client, key: key, timeout: timeout}
}

// Load implements Storage.
func (r *Redis) Load(ctx context.Context) (map[string]interface{}, error) {
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payload, err := r.client.Get(opCtx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read redis key %q: %w", r.key, err)
	}
	return decodeJSON(payload)
}

// Save implements Storage.
func (r *Redis) Save(ctx context.Context, props map[string]interface{}) error {
	payload, err := encodeJSON(props)
	if err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(opCtx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write redis key %q: %w", r.key, err)
	}
	klog.V(4).Infof("Pool properties saved to redis key %q", r.key)
	return nil
}

// Delete implements Storage.
func (r *Redis) Delete(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Del(opCtx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete redis key %q: %w", r.key, err)
	}
	return nil
}
