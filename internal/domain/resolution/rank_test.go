package resolution_test

import (
	"testing"

	"github.com/felixgeelhaar/crewsched/internal/domain/resolution"
)

func cost(v float64) *float64 { return &v }

func TestRank(t *testing.T) {
	input := []resolution.Suggestion{
		{Type: "d", Confidence: 70, Impact: resolution.ImpactLow},
		{Type: "a", Confidence: 90, Impact: resolution.ImpactHigh},
		{Type: "b", Confidence: 90, Impact: resolution.ImpactLow},
		{Type: "c", Confidence: 70, Impact: resolution.ImpactLow, AutoApplicable: true},
	}

	ranked := resolution.Rank(input)
	want := []resolution.Type{"b", "a", "c", "d"}
	for i, typ := range want {
		if ranked[i].Type != typ {
			t.Errorf("rank %d = %s, want %s", i, ranked[i].Type, typ)
		}
	}

	// Input order is preserved.
	if input[0].Type != "d" {
		t.Error("Rank mutated its input")
	}
}

func TestRank_CostTieBreak(t *testing.T) {
	input := []resolution.Suggestion{
		{Type: "expensive", Confidence: 50, Impact: resolution.ImpactMedium, EstimatedCost: cost(5000)},
		{Type: "cheap", Confidence: 50, Impact: resolution.ImpactMedium, EstimatedCost: cost(800)},
	}
	ranked := resolution.Rank(input)
	if ranked[0].Type != "cheap" {
		t.Errorf("rank 0 = %s, want cheap", ranked[0].Type)
	}
}

func TestRank_Deterministic(t *testing.T) {
	input := []resolution.Suggestion{
		{Type: "x", Confidence: 60, Impact: resolution.ImpactLow},
		{Type: "y", Confidence: 60, Impact: resolution.ImpactLow},
		{Type: "z", Confidence: 60, Impact: resolution.ImpactLow},
	}
	first := resolution.Rank(input)
	for i := 0; i < 10; i++ {
		again := resolution.Rank(input)
		for j := range first {
			if again[j].Type != first[j].Type {
				t.Fatalf("run %d reordered equal suggestions: %v", i, again)
			}
		}
	}
}
