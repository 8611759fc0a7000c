package domain

import (
	"strings"
	"testing"
	"time"
)

func TestMirrorEventKeyDeterministic(t *testing.T) {
	a := MirrorEventKey("101_[CS2204] Networks", "https://lms/mod/assign?id=7", "Lab 3 due")
	b := MirrorEventKey("101_[CS2204] Networks", "https://lms/mod/assign?id=7", "Lab 3 due")
	if a != b {
		t.Fatalf("same inputs produced different keys: %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("key length = %d, want 32", len(a))
	}
	for _, r := range a {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("key contains non-hex rune %q", r)
		}
	}
}

func TestMirrorEventKeySensitivity(t *testing.T) {
	base := MirrorEventKey("scope", "url", "time")
	cases := map[string]string{
		"scope":      MirrorEventKey("other", "url", "time"),
		"url":        MirrorEventKey("scope", "other", "time"),
		"timeString": MirrorEventKey("scope", "url", "other"),
	}
	for field, key := range cases {
		if key == base {
			t.Errorf("changing %s did not change the key", field)
		}
	}
}

func TestMirrorEventKeyIgnoresNothingElse(t *testing.T) {
	// The separator prevents ambiguous concatenations from colliding.
	a := MirrorEventKey("ab", "c", "d")
	b := MirrorEventKey("a", "bc", "d")
	if a == b {
		t.Fatal("shifted field boundaries produced the same key")
	}
}

func TestStudyEventKeyFormat(t *testing.T) {
	day := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	got := StudyEventKey("u1", 42, day, 1)
	want := "study_useru1_deadline42_2026-03-09_1h"
	if got != want {
		t.Fatalf("StudyEventKey = %q, want %q", got, want)
	}
}

func TestStudyEventKeySameDayDifferentHoursDistinct(t *testing.T) {
	day := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	if StudyEventKey("u1", 42, day, 1) == StudyEventKey("u1", 42, day, 2) {
		t.Fatal("block length should be part of the key")
	}
}
