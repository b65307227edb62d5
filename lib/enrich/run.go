//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package enrich

import (
	"bufio"
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gopkg.in/fatih/set.v0"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/cache"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/counter"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/intervals"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/sampler"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/stats"
)

// Options drives one enrichment run.
type Options struct {
	NumSamples     int
	Seed           int64
	BucketSize     int
	NBuckets       int
	Counter        counter.Mode
	NumWorker      int
	Cache          *cache.Store
	SamplesPattern string
	Verbose        bool
	TimeStart      time.Time
}

// Run tests every segment track against every annotation track. Per trial,
// each workspace cell of a segment track is sampled once and the sampled
// placements are counted against all annotations, so annotations of the
// same track share samples. Inputs must be normalized and, when isochores
// are used, stratified the same way; they are read-only during the run.
func Run(segments, annotations, workspaces *intervals.Collection, opts Options) ([]*stats.Result, error) {
	if segments.Sum() == 0 {
		return nil, &intervals.InputError{Msg: "no segments within the workspace"}
	}
	if annotations.Len() == 0 {
		return nil, &intervals.InputError{Msg: "no annotations"}
	}
	if workspaces.Sum() == 0 {
		return nil, &intervals.InputError{Msg: "empty workspace"}
	}
	if opts.NumWorker < 1 {
		opts.NumWorker = 1
	}

	// Workspace cells, one empty cell when not stratified.
	cellSet := set.New(set.NonThreadSafe)
	for _, key := range workspaces.TrackNames() {
		_, cell := intervals.SplitKey(key)
		cellSet.Add(cell)
	}
	cells := set.StringSlice(cellSet)
	sort.Strings(cells)

	// Annotation counters, built once and shared read-only across trials.
	annTracks := annotations.BaseTracks()
	counters := make(map[string]map[string]*counter.Counter, len(annTracks))
	for _, at := range annTracks {
		counters[at] = make(map[string]*counter.Counter, len(cells))
		for _, cell := range cells {
			c, err := counter.New(opts.Counter, annotations.Tracks[intervals.JoinKey(at, cell)])
			if err != nil {
				return nil, err
			}
			counters[at][cell] = c
		}
	}

	annotator := sampler.NewAnnotator(opts.BucketSize, opts.NBuckets)
	var results []*stats.Result
	for _, st := range segments.BaseTracks() {
		if opts.Verbose {
			fmt.Printf("%.1fmin - Sampling track %s (%d trials)\n", time.Since(opts.TimeStart).Minutes(), st, opts.NumSamples)
		}
		// Per-cell observed segments, targets and length histograms.
		cellSegs := make(map[string]*intervals.Set, len(cells))
		cellTargets := make(map[string]int, len(cells))
		cellHists := make(map[string]*sampler.Histogram, len(cells))
		cellWork := make(map[string]*intervals.Set, len(cells))
		for _, cell := range cells {
			ws, ok := workspaces.Tracks[intervals.JoinKey(intervals.Collapsed, cell)]
			if !ok || ws.IsEmpty() {
				continue
			}
			segs, ok := segments.Tracks[intervals.JoinKey(st, cell)]
			if !ok || segs.IsEmpty() {
				continue
			}
			cellWork[cell] = ws
			cellSegs[cell] = segs
			cellTargets[cell] = segs.Sum()
			cellHists[cell] = annotator.Histogram(segs)
		}

		observed := make(map[string]float64, len(annTracks))
		counts := make(map[string][]float64, len(annTracks))
		for _, at := range annTracks {
			counts[at] = make([]float64, opts.NumSamples)
			tally := counter.NewTally(opts.Counter)
			for cell, segs := range cellSegs {
				tally.Add(counters[at][cell], segs)
			}
			observed[at] = tally.Value()
		}

		// Trial fan-out: every worker owns its trial index, so the count
		// slots need no locking.
		g, gctx := errgroup.WithContext(context.Background())
		chTrial := make(chan int)
		g.Go(func() error {
			defer close(chTrial)
			for t := 0; t < opts.NumSamples; t++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case chTrial <- t:
				}
			}
			return nil
		})
		st := st
		for i := 0; i < opts.NumWorker; i++ {
			g.Go(func() error {
				for t := range chTrial {
					rng := rand.New(rand.NewSource(trialSeed(opts.Seed, st, t)))
					tallies := make(map[string]*counter.Tally, len(annTracks))
					for _, at := range annTracks {
						tallies[at] = counter.NewTally(opts.Counter)
					}
					for _, cell := range cells {
						hist, ok := cellHists[cell]
						if !ok {
							continue
						}
						cellKey := intervals.JoinKey(st, cell)
						sampled, err := sampleTrial(annotator, rng, hist, cellTargets[cell], cellWork[cell], cellKey, t, opts)
						if err != nil {
							return err
						}
						for _, at := range annTracks {
							tallies[at].Add(counters[at][cell], sampled)
						}
					}
					for _, at := range annTracks {
						counts[at][t] = tallies[at].Value()
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, at := range annTracks {
			results = append(results, stats.NewResult(st, at, observed[at], counts[at]))
		}
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Track != results[b].Track {
			return results[a].Track < results[b].Track
		}
		return results[a].Annotation < results[b].Annotation
	})
	return results, nil
}

// sampleTrial produces the randomized placement of one (cell, trial) unit,
// going through the sample cache when one is configured.
func sampleTrial(annotator *sampler.Annotator, rng *rand.Rand, hist *sampler.Histogram, target int, workspace *intervals.Set, cellKey string, trial int, opts Options) (*intervals.Set, error) {
	if opts.Cache != nil {
		if sampled, ok, err := opts.Cache.Get(cellKey, trial); err != nil {
			return nil, err
		} else if ok {
			return sampled, nil
		}
	}
	sampled := annotator.Sample(rng, hist, target, workspace)
	if opts.Cache != nil {
		if err := opts.Cache.Put(cellKey, trial, sampled); err != nil {
			return nil, err
		}
	}
	if opts.SamplesPattern != "" {
		if err := writeSample(opts.SamplesPattern, cellKey, trial, sampled); err != nil {
			return nil, err
		}
	}
	return sampled, nil
}

// writeSample persists one sampled set as BED, substituting the
// track-trial key for %s in the pattern.
func writeSample(pattern, cellKey string, trial int, sampled *intervals.Set) error {
	key := fmt.Sprintf("%s_%06d", strings.ReplaceAll(cellKey, "/", "."), trial)
	f, err := os.Create(strings.ReplaceAll(pattern, "%s", key))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := sampled.WriteBed(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// trialSeed derives the random stream of one (track, trial) unit from the
// run seed. Streams differ across tracks so length histograms and
// placements never share randomness, and depend only on track name and
// trial index so parallel execution stays reproducible.
func trialSeed(seed int64, track string, trial int) int64 {
	h := fnv.New64a()
	h.Write([]byte(track))
	return (seed ^ int64(h.Sum64())) + int64(trial)*0x9E3779B9
}
