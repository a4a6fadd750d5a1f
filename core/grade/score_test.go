package grade

import "testing"

func TestFinalScore(t *testing.T) {
	tests := []struct {
		errors int
		want   int
	}{
		{errors: 0, want: 90},
		{errors: 6, want: 84},
		{errors: 89, want: 1},
		{errors: 90, want: 0},
		{errors: 91, want: 0},
		{errors: 1000, want: 0},
	}
	for _, tt := range tests {
		if got := FinalScore(tt.errors); got != tt.want {
			t.Errorf("FinalScore(%d) = %d, want %d", tt.errors, got, tt.want)
		}
	}
}

func TestPredicateFor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{score: 90, want: "A"},
		{score: 86, want: "A"},
		{score: 85, want: "AB"},
		{score: 76, want: "AB"},
		{score: 75, want: "B"},
		{score: 66, want: "B"},
		{score: 65, want: "BC"},
		{score: 61, want: "BC"},
		{score: 60, want: "C"},
		{score: 56, want: "C"},
		{score: 55, want: "D"},
		{score: 41, want: "D"},
		{score: 40, want: "E"},
		{score: 0, want: "E"},
	}
	for _, tt := range tests {
		if got := PredicateFor(tt.score); got != tt.want {
			t.Errorf("PredicateFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestCalculate(t *testing.T) {
	score, predicate := Calculate(3 + 2 + 1)
	if score != 84 || predicate != "AB" {
		t.Errorf("Calculate(6) = (%d, %q), want (84, \"AB\")", score, predicate)
	}
}
