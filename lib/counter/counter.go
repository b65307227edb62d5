//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package counter

import (
	"fmt"

	"github.com/biogo/store/interval"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/intervals"
)

// Mode selects the overlap statistic reduced from a segment/annotation pair.
type Mode int

const (
	// NucleotideOverlap counts the bases shared by segments and
	// annotations, each base at most once.
	NucleotideOverlap Mode = iota
	// NucleotideDensity is the nucleotide overlap normalized by the total
	// segment length.
	NucleotideDensity
	// SegmentOverlap counts the segments touching at least one annotation
	// interval, regardless of overlap length.
	SegmentOverlap
)

// ConfigurationError reports a request for an unknown counter mode.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// ParseMode resolves a counter name from the command line.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "nucleotide-overlap":
		return NucleotideOverlap, nil
	case "nucleotide-density":
		return NucleotideDensity, nil
	case "segment-overlap":
		return SegmentOverlap, nil
	}
	return 0, &ConfigurationError{Msg: fmt.Sprintf("unknown counter %q", name)}
}

func (m Mode) String() string {
	switch m {
	case NucleotideOverlap:
		return "nucleotide-overlap"
	case NucleotideDensity:
		return "nucleotide-density"
	case SegmentOverlap:
		return "segment-overlap"
	}
	return "unknown"
}

// Counter reduces a segment set against one fixed annotation set. The
// annotation trees are built once and shared read-only across trials.
type Counter struct {
	mode  Mode
	ann   *intervals.Set
	trees map[string]*interval.IntTree
}

// New builds a counter for one annotation set. The set must be normalized.
func New(mode Mode, annotations *intervals.Set) (*Counter, error) {
	c := &Counter{mode: mode, ann: annotations}
	if annotations == nil {
		c.ann = intervals.NewSet()
	}
	if mode == SegmentOverlap {
		trees, err := c.ann.Trees()
		if err != nil {
			return nil, err
		}
		c.trees = trees
	}
	return c, nil
}

// Tally sums per-cell counts of one statistic into a single scalar. Cells
// partition the workspace, so nucleotide and segment counts add up
// directly; the density fraction instead accumulates shared bases and
// segment lengths separately and divides once, staying within [0,1]
// across cells.
type Tally struct {
	mode    Mode
	count   float64
	overlap int
	length  int
}

func NewTally(mode Mode) *Tally {
	return &Tally{mode: mode}
}

// Add folds the count of one workspace cell into the tally. The counter
// must use the tally's mode.
func (t *Tally) Add(c *Counter, segments *intervals.Set) {
	if t.mode == NucleotideDensity {
		t.overlap += segments.OverlapSum(c.ann)
		t.length += segments.Sum()
		return
	}
	t.count += c.Count(segments)
}

// Value reduces the tally to the scalar of its mode.
func (t *Tally) Value() float64 {
	if t.mode == NucleotideDensity {
		if t.length == 0 {
			return 0
		}
		return float64(t.overlap) / float64(t.length)
	}
	return t.count
}

// Count reduces a normalized segment set to the scalar of the counter mode.
func (c *Counter) Count(segments *intervals.Set) float64 {
	switch c.mode {
	case NucleotideOverlap:
		return float64(segments.OverlapSum(c.ann))
	case NucleotideDensity:
		sum := segments.Sum()
		if sum == 0 {
			return 0
		}
		return float64(segments.OverlapSum(c.ann)) / float64(sum)
	case SegmentOverlap:
		n := 0
		for chrom, l := range segments.Chroms {
			t, ok := c.trees[chrom]
			if !ok {
				continue
			}
			for _, iv := range l {
				if len(t.Get(intervals.IntInterval{Start: iv.Start, End: iv.End})) > 0 {
					n++
				}
			}
		}
		return float64(n)
	}
	return 0
}
