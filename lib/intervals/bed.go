//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package intervals

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// openBed opens a BED file, transparently decompressing ".gz" files.
func openBed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		g, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &gzipFile{g, f}, nil
	}
	return f, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	if err := g.Reader.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// trackBaseName derives the fallback track name of a BED file without name
// column: the file basename stripped of .bed/.gz suffixes.
func trackBaseName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".bed")
	name = strings.TrimSuffix(name, ".bam")
	return name
}

// readBed parses one BED file and hands every record to add. Records with a
// name column (4 columns or more) belong to the track named by that column,
// 3-column records to the track named after the file.
func readBed(path string, add func(track, chrom string, start, end int)) error {
	r, err := openBed(path)
	if err != nil {
		return err
	}
	defer r.Close()

	fallback := trackBaseName(path)
	nline := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		nline++
		line := scanner.Text()
		if len(line) == 0 || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return &FormatError{Path: path, Line: nline, Msg: "BED record requires at least 3 columns"}
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return &FormatError{Path: path, Line: nline, Msg: "invalid start coordinate " + strconv.Quote(fields[1])}
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return &FormatError{Path: path, Line: nline, Msg: "invalid end coordinate " + strconv.Quote(fields[2])}
		}
		if start < 0 || start >= end {
			return &FormatError{Path: path, Line: nline, Msg: "invalid interval [" + fields[1] + "," + fields[2] + ")"}
		}
		track := fallback
		if len(fields) >= 4 {
			track = fields[3]
		}
		add(track, fields[0], start, end)
	}
	return scanner.Err()
}

// ReadSet parses 3-column BED records from a reader into a single set.
// Used for sample files where the track is known from context.
func ReadSet(r io.Reader, label string) (*Set, error) {
	s := NewSet()
	nline := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		nline++
		line := scanner.Text()
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, &FormatError{Path: label, Line: nline, Msg: "BED record requires at least 3 columns"}
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, &FormatError{Path: label, Line: nline, Msg: "invalid start coordinate"}
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, &FormatError{Path: label, Line: nline, Msg: "invalid end coordinate"}
		}
		s.Add(fields[0], start, end)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	s.Normalize()
	return s, nil
}
