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
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/stats"
)

// WriteCounts persists raw counts, one row per pair with the observed
// scalar and the comma-joined sampled distribution, so a run can restart
// from counts without resampling.
func WriteCounts(w io.Writer, results []*stats.Result) error {
	if _, err := fmt.Fprintf(w, "track\tannotation\tobserved\tsamples\n"); err != nil {
		return err
	}
	for _, r := range results {
		samples := make([]string, len(r.Samples))
		for i, s := range r.Samples {
			samples[i] = strconv.FormatFloat(s, 'g', -1, 64)
		}
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Track, r.Annotation,
			strconv.FormatFloat(r.Observed, 'g', -1, 64), strings.Join(samples, ","))
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadCounts loads a counts table and rebuilds the per-pair statistics.
func ReadCounts(path string) ([]*stats.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var results []*stats.Result
	nline := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		nline++
		line := scanner.Text()
		if len(line) == 0 || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("%s:%d: counts row requires 4 columns", path, nline)
		}
		observed, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid observed count: %v", path, nline, err)
		}
		var samples []float64
		if fields[3] != "" {
			for _, raw := range strings.Split(fields[3], ",") {
				s, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: invalid sample count: %v", path, nline, err)
				}
				samples = append(samples, s)
			}
		}
		results = append(results, stats.NewResult(fields[0], fields[1], observed, samples))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
