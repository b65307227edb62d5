//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package intervals

import (
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// ReadBAM loads the aligned reads of a BAM file as one segment track named
// after the file. Unmapped, secondary and supplementary alignments are
// skipped. The reference span of a read includes deletions and skips, as
// given by its CIGAR.
func (c *Collection) ReadBAM(path string, nWorker int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	br, err := bam.NewReader(f, nWorker)
	if err != nil {
		return err
	}
	defer br.Close()

	track := c.Track(trackBaseName(path))
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		if rec.Flags&(sam.Unmapped|sam.Secondary|sam.Supplementary) != 0 {
			continue
		}
		if end := rec.End(); end > rec.Pos {
			track.Add(rec.Ref.Name(), rec.Pos, end)
		}
	}
	return nil
}
