//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package enrich

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/cache"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/counter"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/intervals"
)

func testCollections(c *qt.C) (segments, annotations, workspaces *intervals.Collection) {
	segments = intervals.NewCollection("segments")
	for start := 150; start < 250; start += 20 {
		segments.Track("segs").Add("chr1", start, start+10)
	}
	segments.Normalize()

	annotations = intervals.NewCollection("annotations")
	annotations.Track("ann").Add("chr1", 150, 250)
	annotations.Normalize()

	workspaces = intervals.NewCollection("workspaces")
	workspaces.Track("ws").Add("chr1", 0, 1000)
	workspaces.Normalize()
	workspaces.Collapse()
	c.Assert(workspaces.Restrict(intervals.Collapsed), qt.IsNil)
	return
}

func testOptions() Options {
	return Options{
		NumSamples: 200,
		Seed:       42,
		BucketSize: 1,
		NBuckets:   1000,
		Counter:    counter.NucleotideOverlap,
		NumWorker:  2,
	}
}

func TestRunEnrichment(t *testing.T) {
	c := qt.New(t)
	segments, annotations, workspaces := testCollections(c)
	results, err := Run(segments, annotations, workspaces, testOptions())
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.HasLen, 1)

	r := results[0]
	c.Assert(r.Track, qt.Equals, "segs")
	c.Assert(r.Annotation, qt.Equals, "ann")
	c.Assert(r.Observed, qt.Equals, 50.0)
	c.Assert(r.Samples, qt.HasLen, 200)
	// Five 10-base segments packed into a 100-base annotation of a 1000-base
	// workspace are strongly enriched.
	c.Assert(r.Fold > 1, qt.IsTrue)
	c.Assert(r.PValue < 0.05, qt.IsTrue)
	for _, s := range r.Samples {
		c.Assert(s <= 50.0, qt.IsTrue)
	}
}

func TestRunReproducibleAcrossWorkers(t *testing.T) {
	c := qt.New(t)
	segments, annotations, workspaces := testCollections(c)
	opts := testOptions()
	opts.NumWorker = 1
	a, err := Run(segments, annotations, workspaces, opts)
	c.Assert(err, qt.IsNil)
	opts.NumWorker = 4
	b, err := Run(segments, annotations, workspaces, opts)
	c.Assert(err, qt.IsNil)
	c.Assert(a, qt.HasLen, 1)
	c.Assert(a[0].Samples, qt.DeepEquals, b[0].Samples)
	c.Assert(a[0].PValue, qt.Equals, b[0].PValue)
}

func TestRunIsochores(t *testing.T) {
	c := qt.New(t)
	segments, annotations, workspaces := testCollections(c)
	iso := intervals.NewCollection("isochores")
	iso.Track("G1").Add("chr1", 0, 500)
	iso.Track("G2").Add("chr1", 500, 1000)
	iso.Normalize()
	c.Assert(workspaces.ToIsochores(iso), qt.IsNil)
	c.Assert(annotations.ToIsochores(iso), qt.IsNil)
	c.Assert(segments.ToIsochores(iso), qt.IsNil)

	results, err := Run(segments, annotations, workspaces, testOptions())
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.HasLen, 1)
	c.Assert(results[0].Track, qt.Equals, "segs")
	c.Assert(results[0].Observed, qt.Equals, 50.0)
	c.Assert(results[0].Samples, qt.HasLen, 200)
}

func TestRunDensityIsochores(t *testing.T) {
	c := qt.New(t)
	// One segment per isochore cell, each fully inside the annotation: the
	// observed density is one fraction over all cells, bounded by one.
	segments := intervals.NewCollection("segments")
	segments.Track("segs").Add("chr1", 100, 110)
	segments.Track("segs").Add("chr1", 600, 610)
	segments.Normalize()
	annotations := intervals.NewCollection("annotations")
	annotations.Track("ann").Add("chr1", 50, 250)
	annotations.Track("ann").Add("chr1", 550, 750)
	annotations.Normalize()
	workspaces := intervals.NewCollection("workspaces")
	workspaces.Track("ws").Add("chr1", 0, 1000)
	workspaces.Normalize()
	workspaces.Collapse()
	c.Assert(workspaces.Restrict(intervals.Collapsed), qt.IsNil)

	iso := intervals.NewCollection("isochores")
	iso.Track("G1").Add("chr1", 0, 500)
	iso.Track("G2").Add("chr1", 500, 1000)
	iso.Normalize()
	c.Assert(workspaces.ToIsochores(iso), qt.IsNil)
	c.Assert(annotations.ToIsochores(iso), qt.IsNil)
	c.Assert(segments.ToIsochores(iso), qt.IsNil)

	opts := testOptions()
	opts.Counter = counter.NucleotideDensity
	results, err := Run(segments, annotations, workspaces, opts)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.HasLen, 1)
	c.Assert(results[0].Observed, qt.Equals, 1.0)
	for _, s := range results[0].Samples {
		c.Assert(s >= 0.0, qt.IsTrue)
		c.Assert(s <= 1.0, qt.IsTrue)
	}
}

func TestRunCached(t *testing.T) {
	c := qt.New(t)
	segments, annotations, workspaces := testCollections(c)
	opts := testOptions()
	store, err := cache.NewStore(c.TempDir(), opts.Seed)
	c.Assert(err, qt.IsNil)
	opts.Cache = store

	a, err := Run(segments, annotations, workspaces, opts)
	c.Assert(err, qt.IsNil)
	// Second run replays the cached samples.
	b, err := Run(segments, annotations, workspaces, opts)
	c.Assert(err, qt.IsNil)
	c.Assert(a[0].Samples, qt.DeepEquals, b[0].Samples)
}

func TestRunEmptyInputs(t *testing.T) {
	c := qt.New(t)
	segments, annotations, workspaces := testCollections(c)
	var ierr *intervals.InputError

	_, err := Run(intervals.NewCollection("segments"), annotations, workspaces, testOptions())
	c.Assert(err, qt.ErrorAs, &ierr)
	_, err = Run(segments, intervals.NewCollection("annotations"), workspaces, testOptions())
	c.Assert(err, qt.ErrorAs, &ierr)
	_, err = Run(segments, annotations, intervals.NewCollection("workspaces"), testOptions())
	c.Assert(err, qt.ErrorAs, &ierr)
}
