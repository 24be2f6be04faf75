// Package identity includes tests for listing fingerprints.
package identity

import (
	"encoding/base64"
	"testing"
)

// TestGenerateDeterministic ensures repeated calls yield the same fingerprint.
func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	first := Generate("國立台灣大學資訊工程學系", "專任助理教授", "2026-10-12")
	second := Generate("國立台灣大學資訊工程學系", "專任助理教授", "2026-10-12")
	if first != second {
		t.Fatalf("expected deterministic id, got %s vs %s", first, second)
	}
}

// TestGenerateIgnoresPunctuation checks that formatting noise does not change identity.
func TestGenerateIgnoresPunctuation(t *testing.T) {
	t.Parallel()

	a := Generate("XX大學", "徵聘 專任(案)助理教授 1名", "2026-10-12")
	b := Generate("XX大學", "徵聘專任（案）助理教授-1名！", "2026-10-12")
	if a != b {
		t.Fatalf("expected punctuation-insensitive id, got %s vs %s", a, b)
	}
}

// TestGenerateDistinguishesFields verifies every segment contributes.
func TestGenerateDistinguishesFields(t *testing.T) {
	t.Parallel()

	base := Generate("XX大學", "講師", "2026-10-12")
	for name, other := range map[string]string{
		"organization": Generate("YY大學", "講師", "2026-10-12"),
		"title":        Generate("XX大學", "教授", "2026-10-12"),
		"date":         Generate("XX大學", "講師", "2026-10-13"),
	} {
		if other == base {
			t.Fatalf("changing %s did not change the id", name)
		}
	}
}

// TestGenerateEncoding pins the archive-compatible encoding.
func TestGenerateEncoding(t *testing.T) {
	t.Parallel()

	got := Generate("A b", "Post-doc, AI", "2026-01-02")
	raw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := "A b|PostdocAI|2026-01-02"; string(raw) != want {
		t.Fatalf("expected %q, got %q", want, raw)
	}
}

// TestGenerateEmptyInputs accepts empty segments.
func TestGenerateEmptyInputs(t *testing.T) {
	t.Parallel()

	got := Generate("", "", "")
	if want := base64.StdEncoding.EncodeToString([]byte("||")); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
