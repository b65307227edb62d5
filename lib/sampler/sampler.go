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

	"git.sr.ht/~vejnar/EnrichAbacus/lib/intervals"
)

// maxStall bounds the number of consecutive draws without coverage gain
// before a trial gives up on a workspace cell. Placements can stop
// advancing when the remaining free workspace is fragmented below the
// shortest drawn length; ending the trial there is policy, not an error.
const maxStall = 1000

// Annotator places random segments in a workspace, reproducing the length
// distribution of the observed segments. Placement is uniform over the
// workspace and independent of the observed positions.
type Annotator struct {
	BucketSize int
	NBuckets   int
}

func NewAnnotator(bucketSize, nbuckets int) *Annotator {
	return &Annotator{BucketSize: bucketSize, NBuckets: nbuckets}
}

// Histogram bins the lengths of an observed segment set. Each track keeps
// its own histogram; histograms are never shared across tracks.
func (a *Annotator) Histogram(segments *intervals.Set) *Histogram {
	h := NewHistogram(a.BucketSize, a.NBuckets)
	for _, l := range segments.Chroms {
		for _, iv := range l {
			h.Add(iv.Length())
		}
	}
	h.freeze()
	return h
}

// Sample draws one randomized segment set covering target bases of the
// workspace. Lengths come from the histogram, positions are drawn uniformly
// over the workspace; a placement crossing the end of its workspace
// interval is rejected and redrawn. Overlapping placements are merged so
// covered bases count once. When the workspace is smaller than the target,
// the target is clamped to capacity and the last drawn length truncated;
// the sampled total therefore never exceeds workspace capacity.
func (a *Annotator) Sample(r *rand.Rand, hist *Histogram, target int, workspace *intervals.Set) *intervals.Set {
	sampled := intervals.NewSet()
	m := newOffsetMapper(workspace)
	if m.total == 0 || hist.Total() == 0 {
		return sampled
	}
	if target > m.total {
		target = m.total
	}
	covered := 0
	stall := 0
	for covered < target && stall < maxStall {
		length := hist.Draw(r)
		if remaining := target - covered; length > remaining {
			length = remaining
		}
		chrom, iv, pos := m.Map(r.Intn(m.total))
		if pos+length > iv.End {
			stall++
			continue
		}
		if gained := sampled.Insert(chrom, intervals.Interval{Start: pos, End: pos + length}); gained > 0 {
			covered += gained
			stall = 0
		} else {
			stall++
		}
	}
	return sampled
}
