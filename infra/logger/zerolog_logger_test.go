package logger

import "testing"

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatal("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestSetLevel(t *testing.T) {
	for _, lvl := range []string{"trace", "debug", "info", "warn", "error"} {
		if err := SetLevel(lvl); err != nil {
			t.Errorf("SetLevel(%q): %v", lvl, err)
		}
	}
	if err := SetLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
