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

// Package storage persists the properties of an IP booking pool.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Load when no properties have been saved yet.
var ErrNotFound = errors.New("pool properties not found")

// Storage persists the properties of a single pool.
type Storage interface {
	// Load returns the saved properties, or ErrNotFound.
	Load(ctx context.Context) (map[string]interface{}, error)
	// Save replaces the saved properties.
	Save(ctx context.Context, props map[string]interface{}) error
	// Delete removes the saved properties. Deleting missing properties is not an error.
	Delete(ctx context.Context) error
}

// Backend is the name of a storage implementation.
type Backend string

const (
	// BackendMemory keeps the properties in memory.
	BackendMemory Backend = "memory"
	// BackendFile keeps the properties in a YAML file.
	BackendFile Backend = "file"
	// BackendRedis keeps the properties in a redis key.
	BackendRedis Backend = "redis"
)

// Options contains the options to configure the storage.
type Options struct {
	Backend Backend
	Path    string

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	Timeout time.Duration
}

// New creates the storage selected by the options.
func New(opts *Options) (Storage, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("a path is required by the %q storage backend", opts.Backend)
		}
		return NewFile(opts.Path), nil
	case BackendRedis:
		if opts.RedisAddress == "" || opts.RedisKey == "" {
			return nil, fmt.Errorf("an address and a key are required by the %q storage backend", opts.Backend)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddress,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		return NewRedis(client, opts.RedisKey, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func encodeJSON(props map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pool properties: %w", err)
	}
	return data, nil
}

func decodeJSON(data []byte) (map[string]interface{}, error) {
	props := map[string]interface{}{}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to decode pool properties: %w", err)
	}
	return props, nil
}
