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
	"sort"
)

// Interval is a half-open genomic interval [Start,End) with 0-based coordinates.
type Interval struct {
	Start, End int
}

// Length returns the number of bases covered by the interval.
func (iv Interval) Length() int {
	return iv.End - iv.Start
}

// Overlaps reports whether two half-open intervals share at least one base.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.End > o.Start && iv.Start < o.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.End)
}

// List holds the intervals of a single chromosome. After Normalize the list
// is sorted by start and contains no overlapping or touching intervals.
type List []Interval

func (l List) Len() int      { return len(l) }
func (l List) Swap(i, j int) { l[i], l[j] = l[j], l[i] }
func (l List) Less(i, j int) bool {
	if l[i].Start != l[j].Start {
		return l[i].Start < l[j].Start
	}
	return l[i].End < l[j].End
}

// Sum returns the total number of bases covered by the list.
func (l List) Sum() (sum int) {
	for _, iv := range l {
		sum += iv.Length()
	}
	return
}

// Normalize sorts the list and merges overlapping or touching intervals.
// Normalizing an already normalized list returns an equal list.
func (l List) Normalize() List {
	if len(l) == 0 {
		return nil
	}
	sorted := make(List, len(l))
	copy(sorted, l)
	sort.Sort(sorted)
	out := make(List, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
		} else {
			out = append(out, cur)
			cur = iv
		}
	}
	return append(out, cur)
}

// Intersect returns the intersection of two normalized lists.
func (l List) Intersect(o List) List {
	var out List
	i, j := 0, 0
	for i < len(l) && j < len(o) {
		start := l[i].Start
		if o[j].Start > start {
			start = o[j].Start
		}
		end := l[i].End
		if o[j].End < end {
			end = o[j].End
		}
		if start < end {
			out = append(out, Interval{start, end})
		}
		if l[i].End < o[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

// OverlapSum returns the number of bases shared by two normalized lists.
func (l List) OverlapSum(o List) (sum int) {
	i, j := 0, 0
	for i < len(l) && j < len(o) {
		start := l[i].Start
		if o[j].Start > start {
			start = o[j].Start
		}
		end := l[i].End
		if o[j].End < end {
			end = o[j].End
		}
		if start < end {
			sum += end - start
		}
		if l[i].End < o[j].End {
			i++
		} else {
			j++
		}
	}
	return
}

// Insert adds an interval into a normalized list, merging it with any
// interval it overlaps or touches. It returns the updated list and the
// number of bases of iv that were not already covered.
func (l List) Insert(iv Interval) (List, int) {
	i := sort.Search(len(l), func(k int) bool { return l[k].End >= iv.Start })
	j := sort.Search(len(l), func(k int) bool { return l[k].Start > iv.End })
	if i == j {
		out := make(List, 0, len(l)+1)
		out = append(out, l[:i]...)
		out = append(out, iv)
		out = append(out, l[i:]...)
		return out, iv.Length()
	}
	merged := iv
	covered := 0
	for k := i; k < j; k++ {
		if l[k].Start < merged.Start {
			merged.Start = l[k].Start
		}
		if l[k].End > merged.End {
			merged.End = l[k].End
		}
		start := l[k].Start
		if iv.Start > start {
			start = iv.Start
		}
		end := l[k].End
		if iv.End < end {
			end = iv.End
		}
		if start < end {
			covered += end - start
		}
	}
	out := make(List, 0, len(l)-(j-i)+1)
	out = append(out, l[:i]...)
	out = append(out, merged)
	out = append(out, l[j:]...)
	return out, iv.Length() - covered
}
