//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package sampler

import (
	"sort"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/intervals"
)

// offsetMapper translates an offset within the cumulative workspace length
// into a genomic coordinate, so positions can be drawn uniformly over the
// workspace regardless of how it is fragmented.
type offsetMapper struct {
	chroms []string
	ivs    intervals.List
	cum    []int
	total  int
}

func newOffsetMapper(workspace *intervals.Set) *offsetMapper {
	m := &offsetMapper{}
	for _, chrom := range workspace.ChromNames() {
		for _, iv := range workspace.Chroms[chrom] {
			m.chroms = append(m.chroms, chrom)
			m.ivs = append(m.ivs, iv)
			m.total += iv.Length()
			m.cum = append(m.cum, m.total)
		}
	}
	return m
}

// Map returns the workspace interval containing the offset and the genomic
// position the offset maps to. The offset must be in [0,total).
func (m *offsetMapper) Map(offset int) (chrom string, iv intervals.Interval, pos int) {
	i := sort.SearchInts(m.cum, offset+1)
	prev := 0
	if i > 0 {
		prev = m.cum[i-1]
	}
	return m.chroms[i], m.ivs[i], m.ivs[i].Start + (offset - prev)
}
