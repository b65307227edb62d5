//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package sampler

import (
	"math/rand"
	"sort"
)

// Histogram bins segment lengths into nbuckets buckets of bucketSize bases.
// With the default bucket size of one base the drawn lengths reproduce the
// observed lengths exactly. After freeze, draws are read-only so one
// histogram can serve concurrent trials.
type Histogram struct {
	bucketSize int
	counts     []int
	cum        []int
	total      int
}

func NewHistogram(bucketSize, nbuckets int) *Histogram {
	if bucketSize < 1 {
		bucketSize = 1
	}
	if nbuckets < 1 {
		nbuckets = 1
	}
	return &Histogram{bucketSize: bucketSize, counts: make([]int, nbuckets)}
}

// Add records one segment length. Lengths beyond the last bucket are
// clamped into it.
func (h *Histogram) Add(length int) {
	b := length / h.bucketSize
	if b >= len(h.counts) {
		b = len(h.counts) - 1
	}
	h.counts[b]++
	h.total++
	h.cum = nil
}

// freeze builds the cumulative bucket array. Must run after the last Add
// and before the first Draw.
func (h *Histogram) freeze() {
	h.cum = make([]int, len(h.counts))
	c := 0
	for i, n := range h.counts {
		c += n
		h.cum[i] = c
	}
}

// Total returns the number of recorded lengths.
func (h *Histogram) Total() int {
	return h.total
}

// Draw samples one length from the recorded distribution. A zero-length
// bucket yields one base so a draw always covers something. The histogram
// must be frozen; Draw never mutates it.
func (h *Histogram) Draw(r *rand.Rand) int {
	if h.total == 0 {
		return 0
	}
	n := r.Intn(h.total)
	b := sort.SearchInts(h.cum, n+1)
	length := b * h.bucketSize
	if length < 1 {
		length = 1
	}
	return length
}
