package frames_test

import (
	"slices"
	"testing"

	"framereel/internal/frames"
)

func TestCompareNaturalOrdersDigitRunsNumerically(t *testing.T) {
	names := []string{
		"frame_10.png",
		"frame_2.png",
		"frame_1.png",
		"frame_01.png",
		"frame_000.png",
		"a.png",
		"frame_2b.png",
		"frame_2a.png",
	}
	slices.SortFunc(names, frames.CompareNatural)
	want := []string{
		"a.png",
		"frame_000.png",
		"frame_01.png",
		"frame_1.png",
		"frame_2.png",
		"frame_2a.png",
		"frame_2b.png",
		"frame_10.png",
	}
	if !slices.Equal(names, want) {
		t.Fatalf("unexpected order:\n got %v\nwant %v", names, want)
	}
}

func TestCompareNaturalIsAntisymmetric(t *testing.T) {
	pairs := [][2]string{
		{"frame_1.png", "frame_01.png"},
		{"1", "a"},
		{"x9", "x10"},
		{"img", "img1"},
		{"same", "same"},
	}
	for _, p := range pairs {
		ab := frames.CompareNatural(p[0], p[1])
		ba := frames.CompareNatural(p[1], p[0])
		if ab != -ba {
			t.Errorf("CompareNatural(%q,%q)=%d but reverse=%d", p[0], p[1], ab, ba)
		}
		if p[0] == p[1] && ab != 0 {
			t.Errorf("expected equal strings to compare 0, got %d", ab)
		}
	}
}
