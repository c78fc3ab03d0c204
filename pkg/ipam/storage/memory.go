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
	"sync"
)

// Memory keeps the properties in memory, encoded, so that callers never share them.
type Memory struct {
	mutex sync.Mutex
	data  []byte
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements Storage.
func (m *Memory) Load(_ context.Context) (map[string]interface{}, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.data == nil {
		return nil, ErrNotFound
	}
	return decodeJSON(m.data)
}

// Save implements Storage.
func (m *Memory) Save(_ context.Context, props map[string]interface{}) error {
	data, err := encodeJSON(props)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.data = data
	return nil
}

// Delete implements Storage.
func (m *Memory) Delete(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data = nil
	return nil
}
