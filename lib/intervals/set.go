//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package intervals

import (
	"fmt"
	"io"
	"sort"
)

// Set holds the intervals of one track across chromosomes.
type Set struct {
	Chroms map[string]List
}

func NewSet() *Set {
	return &Set{Chroms: make(map[string]List)}
}

// Add appends an interval without normalizing.
func (s *Set) Add(chrom string, start, end int) {
	s.Chroms[chrom] = append(s.Chroms[chrom], Interval{start, end})
}

// Insert merges an interval into the normalized set and returns the number
// of newly covered bases.
func (s *Set) Insert(chrom string, iv Interval) int {
	l, gained := s.Chroms[chrom].Insert(iv)
	s.Chroms[chrom] = l
	return gained
}

// Normalize sorts and merges the intervals of every chromosome.
func (s *Set) Normalize() {
	for chrom, l := range s.Chroms {
		s.Chroms[chrom] = l.Normalize()
	}
}

func (s *Set) Clone() *Set {
	out := NewSet()
	for chrom, l := range s.Chroms {
		cl := make(List, len(l))
		copy(cl, l)
		out.Chroms[chrom] = cl
	}
	return out
}

// Sum returns the total number of bases covered by the set.
func (s *Set) Sum() (sum int) {
	for _, l := range s.Chroms {
		sum += l.Sum()
	}
	return
}

// Count returns the number of intervals in the set.
func (s *Set) Count() (n int) {
	for _, l := range s.Chroms {
		n += len(l)
	}
	return
}

func (s *Set) IsEmpty() bool {
	return s.Count() == 0
}

// ChromNames returns the sorted chromosome names of the set.
func (s *Set) ChromNames() []string {
	names := make([]string, 0, len(s.Chroms))
	for chrom := range s.Chroms {
		names = append(names, chrom)
	}
	sort.Strings(names)
	return names
}

// Intersect returns a new set with every interval cut down to its
// intersection with the reference set. Both sets must be normalized.
// Intervals without any overlap are dropped.
func (s *Set) Intersect(ref *Set) *Set {
	out := NewSet()
	for chrom, l := range s.Chroms {
		rl, ok := ref.Chroms[chrom]
		if !ok {
			continue
		}
		if cut := l.Intersect(rl); len(cut) > 0 {
			out.Chroms[chrom] = cut
		}
	}
	return out
}

// OverlapSum returns the number of bases shared with another normalized set.
func (s *Set) OverlapSum(o *Set) (sum int) {
	for chrom, l := range s.Chroms {
		if ol, ok := o.Chroms[chrom]; ok {
			sum += l.OverlapSum(ol)
		}
	}
	return
}

// Union merges all intervals of another set into this one.
func (s *Set) Union(o *Set) {
	for chrom, l := range o.Chroms {
		s.Chroms[chrom] = append(s.Chroms[chrom], l...)
	}
	s.Normalize()
}

// WriteBed writes the set in 3-column BED format, chromosomes sorted.
func (s *Set) WriteBed(w io.Writer) error {
	for _, chrom := range s.ChromNames() {
		for _, iv := range s.Chroms[chrom] {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%d\n", chrom, iv.Start, iv.End); err != nil {
				return err
			}
		}
	}
	return nil
}
