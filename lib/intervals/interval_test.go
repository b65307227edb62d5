//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package intervals

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestListNormalize(t *testing.T) {
	c := qt.New(t)
	l := List{{10, 20}, {5, 8}, {18, 25}, {8, 10}}
	n := l.Normalize()
	c.Assert(n, qt.DeepEquals, List{{5, 25}})
	c.Assert(n.Normalize(), qt.DeepEquals, n)
	c.Assert(n.Sum(), qt.Equals, 20)
	c.Assert(List{}.Normalize(), qt.HasLen, 0)
}

func TestListIntersect(t *testing.T) {
	c := qt.New(t)
	a := List{{0, 10}, {20, 30}, {40, 50}}
	b := List{{5, 25}, {45, 60}}
	c.Assert(a.Intersect(b), qt.DeepEquals, List{{5, 10}, {20, 25}, {45, 50}})
	c.Assert(a.OverlapSum(b), qt.Equals, 15)
	c.Assert(b.OverlapSum(a), qt.Equals, 15)
	c.Assert(a.Intersect(List{{60, 70}}), qt.HasLen, 0)
}

func TestListInsert(t *testing.T) {
	c := qt.New(t)
	l := List{{10, 20}, {30, 40}}

	// Bridging two intervals only gains the uncovered middle.
	out, gained := l.Insert(Interval{15, 35})
	c.Assert(out, qt.DeepEquals, List{{10, 40}})
	c.Assert(gained, qt.Equals, 10)

	// Disjoint insert gains its full length.
	out, gained = out.Insert(Interval{50, 60})
	c.Assert(out, qt.DeepEquals, List{{10, 40}, {50, 60}})
	c.Assert(gained, qt.Equals, 10)

	// Touching intervals merge.
	out, gained = out.Insert(Interval{40, 50})
	c.Assert(out, qt.DeepEquals, List{{10, 60}})
	c.Assert(gained, qt.Equals, 10)

	// Fully covered insert gains nothing.
	out, gained = out.Insert(Interval{15, 25})
	c.Assert(out, qt.DeepEquals, List{{10, 60}})
	c.Assert(gained, qt.Equals, 0)
}

func TestSetOperations(t *testing.T) {
	c := qt.New(t)
	s := NewSet()
	s.Add("chr2", 100, 200)
	s.Add("chr1", 0, 50)
	s.Add("chr1", 40, 80)
	s.Normalize()
	c.Assert(s.ChromNames(), qt.DeepEquals, []string{"chr1", "chr2"})
	c.Assert(s.Sum(), qt.Equals, 180)
	c.Assert(s.Count(), qt.Equals, 2)

	ref := NewSet()
	ref.Add("chr1", 20, 60)
	ref.Normalize()
	cut := s.Intersect(ref)
	c.Assert(cut.Chroms["chr1"], qt.DeepEquals, List{{20, 60}})
	c.Assert(cut.Count(), qt.Equals, 1)
	c.Assert(s.OverlapSum(ref), qt.Equals, 40)

	u := s.Clone()
	u.Union(ref)
	c.Assert(u.Sum(), qt.Equals, s.Sum())
	c.Assert(s.Sum(), qt.Equals, 180)
}
