package tlog

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("debug")
	if err != nil {
		t.Fatalf("New(debug): %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug logger drops debug entries")
	}

	l, err = New("")
	if err != nil {
		t.Fatalf("New(\"\"): %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("default logger keeps info entries")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("default logger drops warnings")
	}

	l, err = New(LevelNone)
	if err != nil {
		t.Fatalf("New(none): %v", err)
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("silent logger keeps errors")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Fatal("New accepted an unknown level")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("Must did not panic on an unknown level")
		}
	}()
	Must("loud")
}
