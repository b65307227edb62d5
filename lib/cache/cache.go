//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pierrec/lz4"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/intervals"
)

var keyUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Store keeps sampled segment sets on disk as lz4-compressed BED files,
// keyed by track, trial index and seed. A cache hit replaces resampling and
// yields identical statistics.
type Store struct {
	dir  string
	seed int64
}

func NewStore(dir string, seed int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, seed: seed}, nil
}

func (s *Store) path(track string, trial int) string {
	name := fmt.Sprintf("%s_%d_%06d.bed.lz4", keyUnsafe.ReplaceAllString(track, "_"), s.seed, trial)
	return filepath.Join(s.dir, name)
}

// Get loads a cached sample, reporting whether it was present.
func (s *Store) Get(track string, trial int) (*intervals.Set, bool, error) {
	f, err := os.Open(s.path(track, trial))
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	defer f.Close()
	set, err := intervals.ReadSet(lz4.NewReader(f), s.path(track, trial))
	if err != nil {
		return nil, false, err
	}
	return set, true, nil
}

// Put stores one sampled set.
func (s *Store) Put(track string, trial int, set *intervals.Set) error {
	f, err := os.Create(s.path(track, trial))
	if err != nil {
		return err
	}
	writer := lz4.NewWriter(f)
	if err := set.WriteBed(writer); err != nil {
		f.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
