package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestTruncate_MultiByteRunes(t *testing.T) {
	// Truncation counts runes, never splitting a multi-byte character.
	if got := Truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("日本語のテキスト", 3); got != "日本語..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("日本語", 3); got != "日本語" {
		t.Errorf("short multi-byte string changed: %q", got)
	}
}
