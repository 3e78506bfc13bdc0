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

package metrics

import "sync/atomic"

// Gauge holds an int64 value that can be set arbitrarily.
type Gauge interface {
	Update(int64)
	Value() int64
}

// GetOrRegisterGauge returns an existing Gauge or constructs and registers
// a new one.
func GetOrRegisterGauge(name string, r Registry) Gauge {
	if r == nil {
		r = DefaultRegistry
	}
	return r.GetOrRegister(name, func() interface{} { return NewGauge() }).(Gauge)
}

// NewGauge constructs a new StandardGauge, or a NilGauge if metrics are
// globally disabled.
func NewGauge() Gauge {
	if !Enabled {
		return NilGauge{}
	}
	return new(StandardGauge)
}

// NilGauge is a no-op Gauge.
type NilGauge struct{}

func (NilGauge) Update(int64)   {}
func (NilGauge) Value() int64   { return 0 }

// StandardGauge is the default Gauge implementation.
type StandardGauge struct {
	value int64
}

func (g *StandardGauge) Update(v int64) { atomic.StoreInt64(&g.value, v) }
func (g *StandardGauge) Value() int64   { return atomic.LoadInt64(&g.value) }
