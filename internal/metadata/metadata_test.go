package metadata_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framereel/internal/metadata"
)

func TestParseRPrintedLines(t *testing.T) {
	input := strings.Join([]string{
		`[1] "accuracy: 0.93"`,
		`[1] "mean_error: 1.5: approx"`,
		``,
		`[1] "frames: 24"`,
		`[1] "ignored: beyond the limit"`,
	}, "\n")

	entries, err := metadata.Parse(strings.NewReader(input), metadata.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := []metadata.Entry{
		{Key: "accuracy", Label: "Accuracy", Value: "0.93"},
		{Key: "mean_error", Label: "Mean Error", Value: "1.5: approx"},
		{Key: "frames", Label: "Frames", Value: "24"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParseHandlesShortAndCRLFLines(t *testing.T) {
	input := "[1] \"k: v\"\r\nab\r\n[1] \"novalue\"\r\n"
	entries, err := metadata.Parse(strings.NewReader(input), metadata.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].Key != "k" || entries[0].Value != "v" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Key != "novalue" || entries[1].Value != "" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := metadata.Load(filepath.Join(t.TempDir(), "result.txt"), metadata.DefaultOptions())
	if !errors.Is(err, metadata.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.txt")
	if err := os.WriteFile(path, []byte(`[1] "score: 7"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := metadata.Load(path, metadata.Options{MaxLines: 1, StripPrefix: 5, StripSuffix: 1})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != "7" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"mean_error":   "Mean Error",
		"p-value":      "P Value",
		"":             "",
		"already Nice": "Already Nice",
	}
	for in, want := range tests {
		if got := metadata.Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}
