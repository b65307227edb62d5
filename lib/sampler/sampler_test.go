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
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/intervals"
)

func TestHistogramDraw(t *testing.T) {
	c := qt.New(t)
	h := NewHistogram(10, 100)
	h.Add(25)
	h.freeze()
	c.Assert(h.Total(), qt.Equals, 1)
	r := rand.New(rand.NewSource(1))
	// Bucketed lengths come back as multiples of the bucket size.
	c.Assert(h.Draw(r), qt.Equals, 20)

	// Zero-length bucket yields one base.
	h = NewHistogram(10, 100)
	h.Add(3)
	h.freeze()
	c.Assert(h.Draw(r), qt.Equals, 1)

	// Lengths beyond the last bucket are clamped into it.
	h = NewHistogram(1, 10)
	h.Add(500)
	h.freeze()
	c.Assert(h.Draw(r), qt.Equals, 9)
}

func TestSampleCoversTarget(t *testing.T) {
	c := qt.New(t)
	ws := intervals.NewSet()
	ws.Add("chr1", 0, 600)
	ws.Add("chr2", 0, 400)
	ws.Normalize()
	segs := intervals.NewSet()
	segs.Add("chr1", 100, 200)
	segs.Add("chr1", 300, 350)
	segs.Normalize()

	a := NewAnnotator(1, 1000)
	hist := a.Histogram(segs)
	r := rand.New(rand.NewSource(1))
	sampled := a.Sample(r, hist, segs.Sum(), ws)
	c.Assert(sampled.Sum(), qt.Equals, 150)
	// Every sampled base lies within the workspace.
	c.Assert(ws.OverlapSum(sampled), qt.Equals, sampled.Sum())
}

func TestSampleClampsToCapacity(t *testing.T) {
	c := qt.New(t)
	ws := intervals.NewSet()
	ws.Add("chr1", 0, 100)
	ws.Normalize()
	segs := intervals.NewSet()
	segs.Add("chr1", 0, 60)
	segs.Normalize()

	a := NewAnnotator(1, 1000)
	hist := a.Histogram(segs)
	r := rand.New(rand.NewSource(7))
	sampled := a.Sample(r, hist, 500, ws)
	c.Assert(sampled.Sum(), qt.Equals, 100)
}

func TestSampleReproducible(t *testing.T) {
	c := qt.New(t)
	ws := intervals.NewSet()
	ws.Add("chr1", 0, 10000)
	ws.Normalize()
	segs := intervals.NewSet()
	segs.Add("chr1", 100, 400)
	segs.Normalize()

	a := NewAnnotator(1, 1000)
	hist := a.Histogram(segs)
	s1 := a.Sample(rand.New(rand.NewSource(42)), hist, segs.Sum(), ws)
	s2 := a.Sample(rand.New(rand.NewSource(42)), hist, segs.Sum(), ws)
	c.Assert(s1.Chroms, qt.DeepEquals, s2.Chroms)
}

func TestSampleSharedHistogram(t *testing.T) {
	c := qt.New(t)
	ws := intervals.NewSet()
	ws.Add("chr1", 0, 10000)
	ws.Normalize()
	segs := intervals.NewSet()
	segs.Add("chr1", 100, 200)
	segs.Add("chr1", 300, 350)
	segs.Normalize()

	// One histogram serves concurrent trials read-only.
	a := NewAnnotator(1, 1000)
	hist := a.Histogram(segs)
	var wg sync.WaitGroup
	sampled := make([]*intervals.Set, 8)
	for i := range sampled {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			sampled[i] = a.Sample(rand.New(rand.NewSource(int64(i))), hist, segs.Sum(), ws)
		}()
	}
	wg.Wait()
	for _, s := range sampled {
		c.Assert(s.Sum(), qt.Equals, 150)
		c.Assert(ws.OverlapSum(s), qt.Equals, 150)
	}
}

func TestSampleEmpty(t *testing.T) {
	c := qt.New(t)
	a := NewAnnotator(1, 1000)
	ws := intervals.NewSet()
	ws.Add("chr1", 0, 100)
	ws.Normalize()
	r := rand.New(rand.NewSource(1))

	// Empty histogram.
	c.Assert(a.Sample(r, NewHistogram(1, 10), 50, ws).Sum(), qt.Equals, 0)

	// Empty workspace.
	segs := intervals.NewSet()
	segs.Add("chr1", 0, 10)
	segs.Normalize()
	c.Assert(a.Sample(r, a.Histogram(segs), 10, intervals.NewSet()).Sum(), qt.Equals, 0)
}
