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
	"strings"

	"github.com/biogo/store/interval"
)

// Collapsed names the pseudo-track synthesized by Collapse.
const Collapsed = "collapsed"

// isochoreSep separates the track name from the isochore cell in the keys
// produced by ToIsochores.
const isochoreSep = "/"

// JoinKey builds the composite track key of a stratified collection.
func JoinKey(track, cell string) string {
	if cell == "" {
		return track
	}
	return track + isochoreSep + cell
}

// SplitKey splits a composite track key into track name and isochore cell.
func SplitKey(key string) (track, cell string) {
	if i := strings.Index(key, isochoreSep); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

// Collection maps track names to interval sets. A collection is loaded once,
// transformed through Normalize/Collapse/Restrict/Filter/ToIsochores and
// read-only afterwards.
type Collection struct {
	Name   string
	Tracks map[string]*Set
	// Isochores holds the cell names once ToIsochores re-keyed the tracks.
	Isochores []string
}

func NewCollection(name string) *Collection {
	return &Collection{Name: name, Tracks: make(map[string]*Set)}
}

// Load parses one or more BED files into the collection. Multiple files may
// contribute records to the same named track.
func (c *Collection) Load(paths []string) error {
	for _, path := range paths {
		err := readBed(path, func(track, chrom string, start, end int) {
			c.Track(track).Add(chrom, start, end)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Track returns the named set, creating it if needed.
func (c *Collection) Track(name string) *Set {
	s, ok := c.Tracks[name]
	if !ok {
		s = NewSet()
		c.Tracks[name] = s
	}
	return s
}

func (c *Collection) Len() int {
	return len(c.Tracks)
}

// TrackNames returns the sorted track keys of the collection.
func (c *Collection) TrackNames() []string {
	names := make([]string, 0, len(c.Tracks))
	for name := range c.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BaseTracks returns the sorted track names with isochore cells folded away.
func (c *Collection) BaseTracks() []string {
	if c.Isochores == nil {
		return c.TrackNames()
	}
	seen := make(map[string]bool)
	var names []string
	for key := range c.Tracks {
		track, _ := SplitKey(key)
		if !seen[track] {
			seen[track] = true
			names = append(names, track)
		}
	}
	sort.Strings(names)
	return names
}

// Normalize sorts and merges every track. Idempotent.
func (c *Collection) Normalize() {
	for _, s := range c.Tracks {
		s.Normalize()
	}
}

// Collapse synthesizes a track holding the union of all tracks. Used to
// build one merged workspace from multiple workspace tracks.
func (c *Collection) Collapse() {
	union := NewSet()
	for name, s := range c.Tracks {
		if name == Collapsed {
			continue
		}
		union.Union(s)
	}
	c.Tracks[Collapsed] = union
}

// Restrict discards all tracks except the named one.
func (c *Collection) Restrict(name string) error {
	s, ok := c.Tracks[name]
	if !ok {
		return &InputError{Msg: fmt.Sprintf("%s: no track named %q", c.Name, name)}
	}
	c.Tracks = map[string]*Set{name: s}
	return nil
}

// Filter intersects every track with the reference set, dropping intervals
// without overlap. Used to prune segments and annotations to the workspace.
func (c *Collection) Filter(ref *Set) {
	for name, s := range c.Tracks {
		c.Tracks[name] = s.Intersect(ref)
	}
}

// Sum returns the total base count over all tracks.
func (c *Collection) Sum() (sum int) {
	for _, s := range c.Tracks {
		sum += s.Sum()
	}
	return
}

// CountsPerTrack returns the number of intervals of every track.
func (c *Collection) CountsPerTrack() map[string]int {
	counts := make(map[string]int, len(c.Tracks))
	for name, s := range c.Tracks {
		counts[name] = s.Count()
	}
	return counts
}

// ToIsochores re-keys every track by isochore cell: intervals are cut down
// to the cell they fall in, intervals crossing a cell boundary are split.
// The isochore cells of all tracks of iso must be disjoint.
func (c *Collection) ToIsochores(iso *Collection) error {
	if err := iso.checkDisjoint(); err != nil {
		return err
	}
	cells := iso.TrackNames()
	tracks := make(map[string]*Set, len(c.Tracks)*len(cells))
	for name, s := range c.Tracks {
		for _, cell := range cells {
			if cut := s.Intersect(iso.Tracks[cell]); !cut.IsEmpty() {
				tracks[JoinKey(name, cell)] = cut
			}
		}
	}
	c.Tracks = tracks
	c.Isochores = cells
	return nil
}

// checkDisjoint verifies that no two isochore intervals overlap, within or
// across tracks.
func (c *Collection) checkDisjoint() error {
	trees := make(map[string]*interval.IntTree)
	var uid uintptr
	for _, name := range c.TrackNames() {
		for chrom, l := range c.Tracks[name].Chroms {
			t, ok := trees[chrom]
			if !ok {
				t = &interval.IntTree{}
				trees[chrom] = t
			}
			for _, iv := range l {
				q := IntInterval{Start: iv.Start, End: iv.End, UID: uid}
				if hits := t.Get(q); len(hits) > 0 {
					return &ConsistencyError{Msg: fmt.Sprintf("%s: overlapping isochores on %s at %s (track %q)", c.Name, chrom, iv, name)}
				}
				if err := t.Insert(q, false); err != nil {
					return err
				}
				uid++
			}
		}
	}
	return nil
}

// WriteStats writes a per-track table of interval counts and covered bases.
func (c *Collection) WriteStats(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "track\tnsegments\tsum\n"); err != nil {
		return err
	}
	for _, name := range c.TrackNames() {
		s := c.Tracks[name]
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\n", name, s.Count(), s.Sum()); err != nil {
			return err
		}
	}
	return nil
}

// OverlapStats writes per-track overlap of the collection with a segment
// set: shared bases and the density relative to the track size.
func (c *Collection) OverlapStats(w io.Writer, segments *Set) error {
	if _, err := fmt.Fprintf(w, "track\toverlap\tsum\tdensity\n"); err != nil {
		return err
	}
	for _, name := range c.TrackNames() {
		s := c.Tracks[name]
		overlap := s.OverlapSum(segments)
		density := 0.0
		if sum := s.Sum(); sum > 0 {
			density = float64(overlap) / float64(sum)
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%f\n", name, overlap, s.Sum(), density); err != nil {
			return err
		}
	}
	return nil
}
