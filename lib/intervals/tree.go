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

	"github.com/biogo/store/interval"
)

// IntInterval adapts an Interval to the biogo interval tree interface.
type IntInterval struct {
	Start, End int
	UID        uintptr
}

func (i IntInterval) Overlap(b interval.IntRange) bool {
	// Half-open interval indexing.
	return i.End > b.Start && i.Start < b.End
}

func (i IntInterval) ID() uintptr {
	return i.UID
}

func (i IntInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

func (i IntInterval) String() string {
	return fmt.Sprintf("[%d,%d)#%d", i.Start, i.End, i.UID)
}

// Trees builds one interval tree per chromosome from the set.
func (s *Set) Trees() (map[string]*interval.IntTree, error) {
	trees := make(map[string]*interval.IntTree)
	var uid uintptr
	for chrom, l := range s.Chroms {
		t := &interval.IntTree{}
		for _, iv := range l {
			if err := t.Insert(IntInterval{Start: iv.Start, End: iv.End, UID: uid}, true); err != nil {
				return nil, err
			}
			uid++
		}
		t.AdjustRanges()
		trees[chrom] = t
	}
	return trees, nil
}
