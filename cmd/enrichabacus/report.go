//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/fatih/set.v0"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/stats"
)

var resultHeader = []string{"track", "annotation", "observed", "expected", "CI95low", "CI95high", "stddev", "fold", "pvalue", "qvalue"}

func writeResults(w io.Writer, results []*stats.Result, order string) error {
	sorted := make([]*stats.Result, len(results))
	copy(sorted, results)
	byPair := func(a, b *stats.Result) bool {
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		return a.Annotation < b.Annotation
	}
	switch order {
	case "track", "annotation":
		sort.SliceStable(sorted, func(i, j int) bool { return byPair(sorted[i], sorted[j]) })
	case "fold":
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Fold < sorted[j].Fold })
	case "pvalue":
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PValue < sorted[j].PValue })
	case "qvalue":
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].QValue < sorted[j].QValue })
	default:
		return &stats.ConfigurationError{Msg: fmt.Sprintf("unknown output order %q", order)}
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, strings.Join(resultHeader, "\t")); err != nil {
		return err
	}
	for _, r := range sorted {
		_, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.5e\t%.5e\n",
			r.Track, r.Annotation,
			strconv.FormatFloat(r.Observed, 'g', -1, 64),
			r.Expected, r.CILow, r.CIHigh, r.StdDev, r.Fold, r.PValue, r.QValue)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readResults reloads a result table written by writeResults, for example to
// recompute q-values over the merged tables of several runs. The sampled
// distributions are gone, so empirical p-values are kept as written.
func readResults(path string) ([]*stats.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var results []*stats.Result
	nline := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		nline++
		line := scanner.Text()
		if len(line) == 0 || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(resultHeader) {
			return nil, fmt.Errorf("%s:%d: result row requires %d columns", path, nline, len(resultHeader))
		}
		r := &stats.Result{Track: fields[0], Annotation: fields[1]}
		for i, dst := range []*float64{&r.Observed, &r.Expected, &r.CILow, &r.CIHigh, &r.StdDev, &r.Fold, &r.PValue, &r.QValue} {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+2]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid %s: %v", path, nline, resultHeader[i+2], err)
			}
			*dst = v
		}
		results = append(results, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeReport(pathReport string, results []*stats.Result, numSamples int, seed int64) error {
	trackSet := set.New(set.NonThreadSafe)
	annotationSet := set.New(set.NonThreadSafe)
	nSignificant := 0
	for _, r := range results {
		trackSet.Add(r.Track)
		annotationSet.Add(r.Annotation)
		if r.QValue < 0.05 {
			nSignificant++
		}
	}
	countReport := map[string]int64{
		"num_pairs":       int64(len(results)),
		"num_tracks":      int64(trackSet.Size()),
		"num_annotations": int64(annotationSet.Size()),
		"num_samples":     int64(numSamples),
		"num_qvalue_0.05": int64(nSignificant),
		"seed":            seed,
	}
	report, err := json.MarshalIndent(countReport, "", "  ")
	if err != nil {
		return err
	}
	if pathReport != "-" {
		f, err := os.Create(pathReport)
		if err != nil {
			return err
		}
		if _, err := f.Write(report); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	fmt.Println(string(report))
	return nil
}
