package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerWritesContext(t *testing.T) {
	buf := &bytes.Buffer{}
	l := &logger{h: new(swapHandler)}
	l.SetHandler(StreamHandler(buf, LogfmtFormat()))

	l.Info("peer blacklisted", "id", "peer-1", "reason", "bad header")

	out := buf.String()
	if !strings.Contains(out, "msg=\"peer blacklisted\"") {
		t.Fatalf("expected msg field, got %q", out)
	}
	if !strings.Contains(out, "id=peer-1") {
		t.Fatalf("expected id field, got %q", out)
	}
	if !strings.Contains(out, "reason=\"bad header\"") {
		t.Fatalf("expected quoted reason field, got %q", out)
	}
}

func TestLvlFilterHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	h := LvlFilterHandler(LvlWarn, StreamHandler(buf, LogfmtFormat()))
	l := &logger{h: new(swapHandler)}
	l.SetHandler(h)

	l.Debug("should be filtered")
	l.Warn("should pass")

	if strings.Contains(buf.String(), "should be filtered") {
		t.Fatalf("debug record should have been filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "should pass") {
		t.Fatalf("warn record should have passed: %q", buf.String())
	}
}

func TestLvlFromString(t *testing.T) {
	lvl, err := LvlFromString("warn")
	if err != nil || lvl != LvlWarn {
		t.Fatalf("got (%v, %v), want (LvlWarn, nil)", lvl, err)
	}
	if _, err := LvlFromString("bogus"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
