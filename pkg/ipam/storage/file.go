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
	"io/fs"
	"os"
	"path/filepath"

	klog "k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

// File keeps the properties in a YAML document.
type File struct {
	path string
}

// NewFile returns a storage backed by the file at the given path.
func NewFile(path string) *File {
	return &File{path: filepath.Clean(path)}
}

// Load implements Storage.
func (f *File) Load(ctx context.Context) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", f.path, err)
	}

	props := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", f.path, err)
	}
	if props == nil {
		props = map[string]interface{}{}
	}
	return props, nil
}

// Save implements Storage. The document is replaced atomically.
func (f *File) Save(ctx context.Context, props map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to encode pool properties: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			klog.Warningf("Failed to remove temporary file %q: %v", tmp.Name(), err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Join(fmt.Errorf("failed to write %q: %w", tmp.Name(), err), tmp.Close())
	}
	if err := tmp.Sync(); err != nil {
		return errors.Join(fmt.Errorf("failed to sync %q: %w", tmp.Name(), err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", f.path, err)
	}

	klog.V(4).Infof("Pool properties saved to %q", f.path)
	return nil
}

// Delete implements Storage.
func (f *File) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %q: %w", f.path, err)
	}
	return nil
}
