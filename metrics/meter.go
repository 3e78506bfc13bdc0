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

import (
	"sync/atomic"
	"time"
)

// Meter counts events and tracks their mean rate.
type Meter interface {
	Mark(int64)
	Count() int64
	RateMean() float64
}

// GetOrRegisterMeter returns an existing Meter or constructs and registers
// a new one.
func GetOrRegisterMeter(name string, r Registry) Meter {
	if r == nil {
		r = DefaultRegistry
	}
	return r.GetOrRegister(name, func() interface{} { return NewMeter() }).(Meter)
}

// NewMeter constructs a new StandardMeter, or a NilMeter if metrics are
// globally disabled.
func NewMeter() Meter {
	if !Enabled {
		return NilMeter{}
	}
	return &StandardMeter{start: time.Now()}
}

// NilMeter is a no-op Meter.
type NilMeter struct{}

func (NilMeter) Mark(int64)         {}
func (NilMeter) Count() int64       { return 0 }
func (NilMeter) RateMean() float64  { return 0 }

// StandardMeter is the default Meter implementation.
type StandardMeter struct {
	count int64
	start time.Time
}

func (m *StandardMeter) Mark(n int64) { atomic.AddInt64(&m.count, n) }
func (m *StandardMeter) Count() int64 { return atomic.LoadInt64(&m.count) }
func (m *StandardMeter) RateMean() float64 {
	elapsed := time.Since(m.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&m.count)) / elapsed
}
