package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: "debug", Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithOrderID(ctx, "order-1")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-123"`)) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"order_id":"order-1"`)) {
		t.Fatalf("expected order_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: "debug", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	if bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("did not expect stack when warn stack disabled")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" DEBUG "); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", lvl)
	}
}

func TestConsoleFormatIsNotJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: "Console"})
	log.Info(log.WithSessionID(context.Background(), "sess-1"), "cart merged")
	if bytes.HasPrefix(bytes.TrimSpace(buf.Bytes()), []byte("{")) {
		t.Fatalf("expected console output, got %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("cart merged")) {
		t.Fatalf("expected message in console output, got %s", buf.String())
	}
}

func TestDebugRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	info := New(Options{ServiceName: "test", Output: buf})
	if info.DebugEnabled(context.Background()) {
		t.Fatal("debug should be off at info level")
	}
	info.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %s", buf.String())
	}

	verbose := New(Options{ServiceName: "test", Level: "DEBUG", Output: buf})
	ctx := verbose.WithFields(context.Background(), map[string]any{"b": 2, "a": 1})
	if !verbose.DebugEnabled(ctx) {
		t.Fatal("debug should be on")
	}
	verbose.Debug(ctx, "shown")
	if !bytes.Contains(buf.Bytes(), []byte(`"a":1,"b":2`)) {
		t.Fatalf("expected sorted fields, got %s", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	ctx := log.WithOrderID(context.Background(), "order-1")
	log.Error(ctx, "ignored", errors.New("boom"))
	if log.DebugEnabled(ctx) {
		t.Fatal("nop logger must not enable debug")
	}
}
