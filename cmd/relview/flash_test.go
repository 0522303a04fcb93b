package main

import (
	"testing"
)

// TestFlashPhaseCalculation verifies the phase logic for message flashing
func TestFlashPhaseCalculation(t *testing.T) {
	tests := []struct {
		elapsed      int64
		wantInverted bool
		description  string
	}{
		{-5, false, "clock skew - normal"},
		{0, false, "start of flash - normal"},
		{124, false, "end of phase 0 - normal"},
		{125, true, "start of phase 1 - inverted"},
		{249, true, "end of phase 1 - inverted"},
		{250, false, "start of phase 2 - normal"},
		{374, false, "end of phase 2 - normal"},
		{375, true, "start of phase 3 - inverted"},
		{499, true, "end of phase 3 - inverted"},
		{500, false, "after flash period - normal"},
		{1000, false, "long after flash - normal"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := flashInverted(tt.elapsed); got != tt.wantInverted {
				t.Errorf("elapsed=%d: got inverted=%v, want %v", tt.elapsed, got, tt.wantInverted)
			}
		})
	}
}

// TestFlashMessageTypes verifies which message types should flash
func TestFlashMessageTypes(t *testing.T) {
	tests := []struct {
		msgType     MessageType
		shouldFlash bool
		description string
	}{
		{MsgInfo, false, "info messages don't flash"},
		{MsgError, true, "error messages flash"},
		{MsgSuccess, true, "success messages flash"},
		{MsgWarning, true, "warning messages flash"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := shouldFlash(tt.msgType); got != tt.shouldFlash {
				t.Errorf("msgType=%v: got shouldFlash=%v, want %v", tt.msgType, got, tt.shouldFlash)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer message", 10, "a longe..."},
		{"größenordnung", 8, "größe..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	got := wrap("Attention is all you need", 10)
	want := []string{"Attention", "is all you", "need"}
	if len(got) != len(want) {
		t.Fatalf("wrap = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	if got := wrap("abcdefghij", 4); len(got) != 3 || got[2] != "ij" {
		t.Errorf("long word wrap = %q", got)
	}
	if got := wrap("", 4); len(got) != 1 || got[0] != "" {
		t.Errorf("empty wrap = %q", got)
	}
}
