package fuzzy

import (
	"reflect"
	"testing"
)

func TestFindChoicesRawExactTerms(t *testing.T) {
	vocab := []string{"kale", "beans", "maize", "and", "bananas"}

	got := FindChoicesRaw("kale.&-+beans and maize", vocab)

	want := []string{"beans", "kale", "maize"}
	if !reflect.DeepEqual(got.Choices, want) {
		t.Errorf("Choices = %v, want %v", got.Choices, want)
	}
	if got.Unmatched != 0 {
		t.Errorf("Unmatched = %d, want 0", got.Unmatched)
	}
}

func TestFindChoicesRawNearMisses(t *testing.T) {
	vocab := []string{"maize", "beans", "sorghum"}

	tests := []struct {
		name    string
		text    string
		choices []string
	}{
		{"typo single", "maze", []string{"maize"}},
		{"typo in list", "maze, beens", []string{"beans", "maize"}},
		{"swapped letters", "miaze and baens", []string{"beans", "maize"}},
		{"case and spacing", "  MAIZE and Beans ", []string{"beans", "maize"}},
		{"comma separated", "sorghum,maize", []string{"maize", "sorghum"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindChoicesRaw(tt.text, vocab)
			if !reflect.DeepEqual(got.Choices, tt.choices) {
				t.Errorf("FindChoicesRaw(%q).Choices = %v, want %v", tt.text, got.Choices, tt.choices)
			}
		})
	}
}

func TestFindChoicesRawUnmatchedCount(t *testing.T) {
	vocab := []string{"maize"}

	got := FindChoicesRaw("maize and zzzz", vocab)

	if !reflect.DeepEqual(got.Choices, []string{"maize"}) {
		t.Fatalf("Choices = %v, want [maize]", got.Choices)
	}
	// "zzzz" is 4 unexplained non-space characters.
	if got.Unmatched != 4 {
		t.Errorf("Unmatched = %d, want 4", got.Unmatched)
	}
}

func TestFindChoicesRawNoMatches(t *testing.T) {
	got := FindChoicesRaw("qwerty", []string{"maize", "beans"})

	if len(got.Choices) != 0 {
		t.Errorf("Choices = %v, want none", got.Choices)
	}
	if got.Unmatched != 6 {
		t.Errorf("Unmatched = %d, want 6", got.Unmatched)
	}
}

func TestFindChoicesRawMultiWordTerm(t *testing.T) {
	vocab := []string{"sweet potato", "potato", "maize"}

	got := FindChoicesRaw("sweet potato and maize", vocab)

	want := []string{"maize", "sweet potato"}
	if !reflect.DeepEqual(got.Choices, want) {
		t.Errorf("Choices = %v, want %v", got.Choices, want)
	}
	if got.Unmatched != 0 {
		t.Errorf("Unmatched = %d, want 0", got.Unmatched)
	}
}

func TestFindChoicesRawDeduplicates(t *testing.T) {
	got := FindChoicesRaw("maize, maize, maize", []string{"maize"})

	if !reflect.DeepEqual(got.Choices, []string{"maize"}) {
		t.Errorf("Choices = %v, want [maize]", got.Choices)
	}
}

func TestRatio(t *testing.T) {
	if r := Ratio("maize", "maize"); r != 1 {
		t.Errorf("Ratio(identical) = %v, want 1", r)
	}
	if r := Ratio("maize", "qwxyz"); r > 0.5 {
		t.Errorf("Ratio(dissimilar) = %v, want <= 0.5", r)
	}
	if r := Ratio(" Maize ", "maize"); r != 1 {
		t.Errorf("Ratio should normalise case/space, got %v", r)
	}
	// A single swapped-letter typo must stay above the match cutoff.
	if r := Ratio("gaots", "goats"); r < DefaultCutoff {
		t.Errorf("Ratio(swapped letters) = %v, want >= %v", r, DefaultCutoff)
	}
}
