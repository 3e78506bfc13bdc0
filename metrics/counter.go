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

// Counter holds an int64 value that can be incremented and decremented.
type Counter interface {
	Clear()
	Dec(int64)
	Inc(int64)
	Count() int64
}

// GetOrRegisterCounter returns an existing Counter or constructs and
// registers a new one.
func GetOrRegisterCounter(name string, r Registry) Counter {
	if r == nil {
		r = DefaultRegistry
	}
	return r.GetOrRegister(name, func() interface{} { return NewCounter() }).(Counter)
}

// NewCounter constructs a new StandardCounter, or a NilCounter if metrics
// are globally disabled.
func NewCounter() Counter {
	if !Enabled {
		return NilCounter{}
	}
	return new(StandardCounter)
}

// NilCounter is a no-op Counter.
type NilCounter struct{}

func (NilCounter) Clear()        {}
func (NilCounter) Dec(int64)     {}
func (NilCounter) Inc(int64)     {}
func (NilCounter) Count() int64  { return 0 }

// StandardCounter is the default Counter implementation, backed by an
// atomic int64.
type StandardCounter struct {
	count int64
}

func (c *StandardCounter) Clear()       { atomic.StoreInt64(&c.count, 0) }
func (c *StandardCounter) Dec(i int64)  { atomic.AddInt64(&c.count, -i) }
func (c *StandardCounter) Inc(i int64)  { atomic.AddInt64(&c.count, i) }
func (c *StandardCounter) Count() int64 { return atomic.LoadInt64(&c.count) }
