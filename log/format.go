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
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	termColors = map[Lvl]int{
		LvlCrit:  35,
		LvlError: 31,
		LvlWarn:  33,
		LvlInfo:  32,
		LvlDebug: 36,
		LvlTrace: 34,
	}
)

// Format formats a Record into a byte slice suitable for writing to an
// io.Writer.
type Format interface {
	Format(r *Record) []byte
}

// FormatFunc turns a function into a Format.
type FormatFunc func(*Record) []byte

func (f FormatFunc) Format(r *Record) []byte { return f(r) }

// TerminalFormat formats log records optimized for human readability on a
// terminal with color-coded level output. If useColor is false, the same
// layout is written without color codes.
func TerminalFormat(useColor bool) Format {
	return FormatFunc(func(r *Record) []byte {
		var color = 0
		if useColor {
			color = termColors[r.Lvl]
		}
		b := &bytes.Buffer{}
		if color > 0 {
			fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m[%s] %s ", color, r.Lvl.AlignedString(), r.Time.Format("01-02|15:04:05.000"), r.Msg)
		} else {
			fmt.Fprintf(b, "%s[%s] %s ", r.Lvl.AlignedString(), r.Time.Format("01-02|15:04:05.000"), r.Msg)
		}
		logfmt(b, r.Ctx, color)
		return b.Bytes()
	})
}

// LogfmtFormat writes logs in logfmt format, suitable for machine parsing.
func LogfmtFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		b := &bytes.Buffer{}
		fmt.Fprintf(b, "%s=%s %s=%s %s=%q", timeKey, r.Time.Format("2006-01-02T15:04:05-0700"), lvlKey, r.Lvl.String(), msgKey, r.Msg)
		if len(r.Ctx) > 0 {
			b.WriteByte(' ')
		}
		logfmt(b, r.Ctx, 0)
		return b.Bytes()
	})
}

func logfmt(buf *bytes.Buffer, ctx []interface{}, color int) {
	for i := 0; i < len(ctx); i += 2 {
		if i != 0 {
			buf.WriteByte(' ')
		}
		k, ok := ctx[i].(string)
		v := formatLogfmtValue(ctx[i+1])
		if !ok {
			k, v = errorKey, formatLogfmtValue(k)
		}
		if color > 0 {
			fmt.Fprintf(buf, "\x1b[%dm%s\x1b[0m=%s", color, k, v)
		} else {
			fmt.Fprintf(buf, "%s=%s", k, v)
		}
	}
	buf.WriteByte('\n')
}

func formatLogfmtValue(value interface{}) string {
	if value == nil {
		return "nil"
	}
	switch v := value.(type) {
	case time.Time:
		return v.Format("2006-01-02T15:04:05-0700")
	case error:
		return quoteIfNeeded(v.Error())
	case fmt.Stringer:
		return quoteIfNeeded(v.String())
	case string:
		return quoteIfNeeded(v)
	}
	v := fmt.Sprintf("%+v", value)
	return quoteIfNeeded(v)
}

func quoteIfNeeded(s string) string {
	if !strings.ContainsAny(s, " \t\n\"=") {
		return s
	}
	return strconv.Quote(s)
}

// terminalSupportsColor reports whether fd supports ANSI color codes.
func terminalSupportsColor(fdIsTerminal bool) bool {
	return fdIsTerminal
}
