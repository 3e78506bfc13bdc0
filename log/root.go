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
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var root = &logger{h: new(swapHandler)}

func init() {
	fdIsTerminal := isatty.IsTerminal(os.Stderr.Fd())
	useColor := terminalSupportsColor(fdIsTerminal)

	var out io.Writer = os.Stderr
	if useColor {
		out = colorable.NewColorableStderr()
	}
	root.SetHandler(StreamHandler(out, TerminalFormat(useColor)))
}

// Root returns the root logger.
func Root() Logger { return root }

// New returns a new logger with the given context, rooted at Root().
func New(ctx ...interface{}) Logger { return root.New(ctx...) }

// SetDefault sets the handler used by the root logger (and, transitively,
// every Logger derived from it that has not been given its own handler).
func SetDefault(h Handler) { root.SetHandler(h) }

func Trace(msg string, ctx ...interface{}) { root.write(msg, LvlTrace, ctx, skipLevel) }
func Debug(msg string, ctx ...interface{}) { root.write(msg, LvlDebug, ctx, skipLevel) }
func Info(msg string, ctx ...interface{})  { root.write(msg, LvlInfo, ctx, skipLevel) }
func Warn(msg string, ctx ...interface{})  { root.write(msg, LvlWarn, ctx, skipLevel) }
func Error(msg string, ctx ...interface{}) { root.write(msg, LvlError, ctx, skipLevel) }
func Crit(msg string, ctx ...interface{}) {
	root.write(msg, LvlCrit, ctx, skipLevel)
	os.Exit(1)
}
