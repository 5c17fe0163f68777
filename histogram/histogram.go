// Package histogram counts observations per bin.
package histogram

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type Histogram[K cmp.Ordered] map[K]int

func New[K cmp.Ordered]() Histogram[K] {
	return make(Histogram[K])
}

func (h Histogram[K]) Add(obs K) {
	h[obs]++
}

func (h Histogram[K]) Total() (n int) {
	for _, count := range h {
		n += count
	}
	return
}

// Bins returns the bins in ascending order.
func (h Histogram[K]) Bins() []K {
	bins := make([]K, 0, len(h))
	for bin := range h {
		bins = append(bins, bin)
	}
	slices.Sort(bins)
	return bins
}

func (h Histogram[K]) String() string {
	var sb strings.Builder
	for i, bin := range h.Bins() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%v: %d", bin, h[bin])
	}
	return sb.String()
}
