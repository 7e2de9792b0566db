// Package output maps generated namespaces to writable destinations.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Destination receives the artifacts of one namespace.
type Destination interface {
	Namespace() string
	WriteFile(name string, data []byte) error
}

// Factory returns the destination for namespace under root. Namespaces are
// slash separated and relative to root; "" is root itself.
type Factory func(root, namespace string) (Destination, error)

type dir struct {
	namespace string
	path      string
}

// Filesystem creates one directory per namespace under root.
func Filesystem(root, namespace string) (Destination, error) {
	path := filepath.Join(root, filepath.FromSlash(namespace))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", path, err)
	}
	return &dir{namespace: namespace, path: path}, nil
}

func (d *dir) Namespace() string { return d.namespace }

func (d *dir) WriteFile(name string, data []byte) error {
	path := filepath.Join(d.path, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Memory keeps artifacts in memory. The generator stages every run in one
// and tests inspect what was emitted without touching disk.
type Memory struct {
	mu    sync.Mutex
	order []string
	files map[string]*memDir
}

type memDir struct {
	m         *Memory
	namespace string
	order     []string
	data      map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memDir)}
}

// Factory satisfies the Factory signature; root is ignored.
func (m *Memory) Factory(_ string, namespace string) (Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[namespace]
	if !ok {
		d = &memDir{m: m, namespace: namespace, data: make(map[string][]byte)}
		m.files[namespace] = d
		m.order = append(m.order, namespace)
	}
	return d, nil
}

func (d *memDir) Namespace() string { return d.namespace }

func (d *memDir) WriteFile(name string, data []byte) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	if _, ok := d.data[name]; !ok {
		d.order = append(d.order, name)
	}
	d.data[name] = slices.Clone(data)
	return nil
}

// Namespaces lists namespaces in the order they were first requested.
func (m *Memory) Namespaces() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Files lists the files written to namespace in write order.
func (m *Memory) Files(namespace string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[namespace]
	if !ok {
		return nil
	}
	return slices.Clone(d.order)
}

func (m *Memory) File(namespace, name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[namespace]
	if !ok {
		return nil, false
	}
	data, ok := d.data[name]
	return data, ok
}

// Flush copies every staged namespace to factory, calling it once per
// namespace.
func (m *Memory) Flush(root string, factory Factory) error {
	for _, ns := range m.Namespaces() {
		dst, err := factory(root, ns)
		if err != nil {
			return err
		}
		for _, name := range m.Files(ns) {
			data, _ := m.File(ns, name)
			if err := dst.WriteFile(name, data); err != nil {
				return err
			}
		}
	}
	return nil
}
