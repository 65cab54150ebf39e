package services

import "strings"

// MaxBatchSize is the number of ids videos.list accepts in one call.
const MaxBatchSize = 50

// PlanBatches splits ids into comma-joined groups of at most size ids,
// preserving order. It returns no batches for an empty input.
func PlanBatches(ids []string, size int) []string {
	if size <= 0 {
		size = MaxBatchSize
	}

	batches := make([]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, strings.Join(ids[start:end], ","))
	}
	return batches
}
