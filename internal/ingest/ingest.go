// Package ingest provides the capability-based adapter registry used at
// the data-ingestion boundary. Each input format is handled by an
// Adapter that reports whether it supports a raw document and extracts
// the canonical model from it.
package ingest

import (
	"errors"
	"fmt"
	"os"
)

// ErrUnsupportedFormat is returned when no registered adapter supports
// the raw input.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Adapter extracts a canonical model of type T from one input format.
type Adapter[T any] interface {
	// Name identifies the format version the adapter handles.
	Name() string

	// Supports reports whether raw is in the adapter's format.
	Supports(raw []byte) bool

	// Extract converts raw into the canonical model.
	Extract(raw []byte) (T, error)
}

// Registry selects the first adapter that supports an input.
type Registry[T any] struct {
	adapters []Adapter[T]
}

// NewRegistry returns a registry trying adapters in the given order.
func NewRegistry[T any](adapters ...Adapter[T]) *Registry[T] {
	return &Registry[T]{adapters: append([]Adapter[T](nil), adapters...)}
}

// Register adds a to the front of the registry so it takes precedence
// over every adapter registered before it.
func (r *Registry[T]) Register(a Adapter[T]) {
	r.adapters = append([]Adapter[T]{a}, r.adapters...)
}

// Names lists the registered adapter names in selection order.
func (r *Registry[T]) Names() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// Select returns the first adapter supporting raw.
func (r *Registry[T]) Select(raw []byte) (Adapter[T], error) {
	for _, a := range r.adapters {
		if a.Supports(raw) {
			return a, nil
		}
	}
	return nil, ErrUnsupportedFormat
}

// Extract converts raw with the first adapter supporting it.
func (r *Registry[T]) Extract(raw []byte) (T, error) {
	var zero T
	a, err := r.Select(raw)
	if err != nil {
		return zero, err
	}
	v, err := a.Extract(raw)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", a.Name(), err)
	}
	return v, nil
}

// ExtractFile reads path and extracts it.
func (r *Registry[T]) ExtractFile(path string) (T, error) {
	var zero T
	raw, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("reading %q: %w", path, err)
	}
	v, err := r.Extract(raw)
	if err != nil {
		return zero, fmt.Errorf("parsing %q: %w", path, err)
	}
	return v, nil
}
