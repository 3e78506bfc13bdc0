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
	"sync"
	"sync/atomic"
	"time"
)

// Timer captures the count and mean duration of events, e.g. block execution.
type Timer interface {
	Time(func())
	UpdateSince(time.Time)
	Update(time.Duration)
	Count() int64
	Mean() float64
}

// GetOrRegisterTimer returns an existing Timer or constructs and registers
// a new one.
func GetOrRegisterTimer(name string, r Registry) Timer {
	if r == nil {
		r = DefaultRegistry
	}
	return r.GetOrRegister(name, func() interface{} { return NewTimer() }).(Timer)
}

// NewTimer constructs a new StandardTimer, or a NilTimer if metrics are
// globally disabled.
func NewTimer() Timer {
	if !Enabled {
		return NilTimer{}
	}
	return new(StandardTimer)
}

// NilTimer is a no-op Timer.
type NilTimer struct{}

func (NilTimer) Time(f func())          { f() }
func (NilTimer) UpdateSince(time.Time)  {}
func (NilTimer) Update(time.Duration)   {}
func (NilTimer) Count() int64           { return 0 }
func (NilTimer) Mean() float64          { return 0 }

// StandardTimer is the default Timer implementation.
type StandardTimer struct {
	mu    sync.Mutex
	count int64
	sum   time.Duration
}

func (t *StandardTimer) Time(f func()) {
	start := time.Now()
	f()
	t.Update(time.Since(start))
}

func (t *StandardTimer) UpdateSince(start time.Time) { t.Update(time.Since(start)) }

func (t *StandardTimer) Update(d time.Duration) {
	atomic.AddInt64(&t.count, 1)
	t.mu.Lock()
	t.sum += d
	t.mu.Unlock()
}

func (t *StandardTimer) Count() int64 { return atomic.LoadInt64(&t.count) }

func (t *StandardTimer) Mean() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return 0
	}
	return float64(t.sum) / float64(t.count)
}
