package services

import (
	"fmt"
	"strings"
	"testing"
)

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%03d", i)
	}
	return ids
}

func TestPlanBatches_Sizes(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{"empty input", 0, 50, nil},
		{"single id", 1, 50, []int{1}},
		{"exact multiple", 100, 50, []int{50, 50}},
		{"remainder", 120, 50, []int{50, 50, 20}},
		{"one over", 51, 50, []int{50, 1}},
		{"small batch size", 7, 3, []int{3, 3, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			batches := PlanBatches(makeIDs(tc.n), tc.size)
			if len(batches) != len(tc.sizes) {
				t.Fatalf("expected %d batches, got %d", len(tc.sizes), len(batches))
			}
			for i, b := range batches {
				got := len(strings.Split(b, ","))
				if got != tc.sizes[i] {
					t.Fatalf("batch %d: expected %d ids, got %d", i, tc.sizes[i], got)
				}
				if got > tc.size {
					t.Fatalf("batch %d exceeds size %d", i, tc.size)
				}
			}
		})
	}
}

func TestPlanBatches_ConcatenationPreservesSequence(t *testing.T) {
	for _, n := range []int{1, 49, 50, 51, 99, 100, 101, 250} {
		ids := makeIDs(n)
		// duplicates must survive untouched
		ids[n/2] = ids[0]

		batches := PlanBatches(ids, MaxBatchSize)

		var rebuilt []string
		for _, b := range batches {
			rebuilt = append(rebuilt, strings.Split(b, ",")...)
		}
		if len(rebuilt) != len(ids) {
			t.Fatalf("n=%d: expected %d ids after concatenation, got %d", n, len(ids), len(rebuilt))
		}
		for i := range ids {
			if rebuilt[i] != ids[i] {
				t.Fatalf("n=%d: position %d expected %q, got %q", n, i, ids[i], rebuilt[i])
			}
		}
	}
}

func TestPlanBatches_NoTrailingSeparator(t *testing.T) {
	batches := PlanBatches([]string{"a", "b", "c"}, 2)
	if batches[0] != "a,b" || batches[1] != "c" {
		t.Fatalf("unexpected batches %q", batches)
	}
}

func TestPlanBatches_NonPositiveSizeUsesDefault(t *testing.T) {
	batches := PlanBatches(makeIDs(120), 0)
	if len(batches) != 3 {
		t.Fatalf("expected default batch size to yield 3 batches, got %d", len(batches))
	}
}
