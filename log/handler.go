// Copyright 2015 The go-ethereum Authors
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

package log

import (
	"io"
	"sync"
)

// A Handler writes a Record somewhere.
type Handler interface {
	Log(r *Record) error
}

// FuncHandler turns a function into a Handler.
type FuncHandler func(r *Record) error

func (h FuncHandler) Log(r *Record) error { return h(r) }

// swapHandler wraps another handler that may be swapped out dynamically at
// runtime in a thread-safe fashion.
type swapHandler struct {
	mu sync.RWMutex
	h  Handler
}

func (h *swapHandler) Log(r *Record) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.h.Log(r)
}

func (h *swapHandler) Swap(newHandler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.h = newHandler
}

func (h *swapHandler) Get() Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.h
}

// StreamHandler writes log records to an io.Writer using the given format.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	h := FuncHandler(func(r *Record) error {
		_, err := wr.Write(fmtr.Format(r))
		return err
	})
	return &syncHandler{h: h}
}

// syncHandler serializes concurrent writers to the same handler.
type syncHandler struct {
	mu sync.Mutex
	h  Handler
}

func (h *syncHandler) Log(r *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.h.Log(r)
}

// LvlFilterHandler returns a Handler that only writes records at lvl or
// above to the wrapped handler.
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		if r.Lvl > maxLvl {
			return nil
		}
		return h.Log(r)
	})
}

// MultiHandler dispatches to a set of Handlers, stopping at the first error.
func MultiHandler(hs ...Handler) Handler {
	return FuncHandler(func(r *Record) error {
		for _, h := range hs {
			if err := h.Log(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// DiscardHandler discards every record; used in tests that don't care about
// log output but still exercise code paths that log.
func DiscardHandler() Handler {
	return FuncHandler(func(r *Record) error { return nil })
}
