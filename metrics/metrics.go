// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics is a first-party instrumentation registry: Counter/Gauge/
// Meter/Timer values, each GetOrRegister'd against a Registry. There is
// deliberately no exporter here; callers that want InfluxDB/Prometheus/etc.
// export read the DefaultRegistry themselves.
package metrics

import "sync"

// Enabled controls whether metrics are actually collected. Disabling it
// turns every constructor into a cheap no-op.
var Enabled = true

// Registry holds references to a set of named metrics.
type Registry interface {
	Each(func(string, interface{}))
	Get(string) interface{}
	GetOrRegister(string, func() interface{}) interface{}
	Register(string, interface{}) error
	Unregister(string)
}

// StandardRegistry is the default Registry implementation.
type StandardRegistry struct {
	mu sync.Mutex
	m  map[string]interface{}
}

// NewRegistry constructs a new StandardRegistry.
func NewRegistry() Registry {
	return &StandardRegistry{m: make(map[string]interface{})}
}

func (r *StandardRegistry) Each(f func(string, interface{})) {
	r.mu.Lock()
	snapshot := make(map[string]interface{}, len(r.m))
	for k, v := range r.m {
		snapshot[k] = v
	}
	r.mu.Unlock()
	for k, v := range snapshot {
		f(k, v)
	}
}

func (r *StandardRegistry) Get(name string) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[name]
}

func (r *StandardRegistry) GetOrRegister(name string, newMetric func() interface{}) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.m[name]; ok {
		return v
	}
	v := newMetric()
	r.m[name] = v
	return v
}

func (r *StandardRegistry) Register(name string, v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[name]; ok {
		return errDuplicateMetric(name)
	}
	r.m[name] = v
	return nil
}

func (r *StandardRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, name)
}

type errDuplicateMetric string

func (e errDuplicateMetric) Error() string { return "duplicate metric: " + string(e) }

// DefaultRegistry is the registry every GetOrRegisterX helper falls back to
// when called with a nil Registry.
var DefaultRegistry = NewRegistry()
