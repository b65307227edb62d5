//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"git.sr.ht/~vejnar/EnrichAbacus/lib/cache"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/counter"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/enrich"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/intervals"
	"git.sr.ht/~vejnar/EnrichAbacus/lib/stats"
)

var version = "DEV"

func splitPaths(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func main() {
	// Arguments: General
	var pathReport, pathOutput string
	var nWorker, verboseLevel int
	var seed int64
	var verbose, printVersion bool
	flag.StringVar(&pathReport, "path_report", "", "Write JSON report to path (stdout with -)")
	flag.StringVar(&pathOutput, "path_output", "-", "Write result table to path (stdout with -)")
	flag.IntVar(&nWorker, "num_worker", 1, "Number of worker(s)")
	flag.IntVar(&verboseLevel, "verbose_level", 0, "Verbose level")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 seeds from current time)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose")
	flag.BoolVar(&printVersion, "version", false, "Print version and quit")
	// Arguments: Input
	var segmentFilesRaw, annotationFilesRaw, workspaceFilesRaw, isochoreFilesRaw, segmentBAMsRaw string
	flag.StringVar(&segmentFilesRaw, "segment_file", "", "Path to segment BED file(s) (comma separated)")
	flag.StringVar(&annotationFilesRaw, "annotation_file", "", "Path to annotation BED file(s) (comma separated)")
	flag.StringVar(&workspaceFilesRaw, "workspace_file", "", "Path to workspace BED file(s) (comma separated)")
	flag.StringVar(&isochoreFilesRaw, "isochore_file", "", "Path to isochore BED file(s) (comma separated)")
	flag.StringVar(&segmentBAMsRaw, "segment_bam", "", "Path to BAM file(s) to load as segment track(s) (comma separated)")
	// Arguments: Sampling
	var numSamples, bucketSize, nbuckets int
	var sampleCacheDir, outputSamplesPattern string
	flag.IntVar(&numSamples, "num_samples", 1000, "Number of random samples to compute")
	flag.IntVar(&bucketSize, "bucket_size", 1, "Size of a bin for histogram of segment lengths")
	flag.IntVar(&nbuckets, "nbuckets", 100000, "Number of bins for histogram of segment lengths")
	flag.StringVar(&sampleCacheDir, "sample_cache", "", "Directory for caching samples")
	flag.StringVar(&outputSamplesPattern, "output_samples_pattern", "", "Output pattern for samples in BED format (%s is replaced by the track-trial key)")
	// Arguments: Statistics
	var counterRaw, pvalueMethod, qvalueMethod, pi0Method string
	var qvalueLambda float64
	flag.StringVar(&counterRaw, "counter", "nucleotide-overlap", "Quantity to test: 'nucleotide-overlap', 'nucleotide-density' or 'segment-overlap'")
	flag.StringVar(&pvalueMethod, "pvalue_method", "empirical", "Type of pvalue reported: 'empirical' or 'norm'")
	flag.StringVar(&qvalueMethod, "qvalue_method", "storey", "Method for multiple testing correction: 'storey'")
	flag.Float64Var(&qvalueLambda, "qvalue_lambda", 0., "FDR computation: fixed lambda (0 scans the default grid)")
	flag.StringVar(&pi0Method, "qvalue_pi0_method", "smoother", "FDR computation: method for estimating pi0: 'smoother' or 'bootstrap'")
	// Arguments: Re-entry
	var countsFile, resultsFile, outputCountsFile string
	flag.StringVar(&countsFile, "counts_file", "", "Start processing from counts - no segments required")
	flag.StringVar(&resultsFile, "results_file", "", "Start processing from results - no segments required")
	flag.StringVar(&outputCountsFile, "output_counts_file", "", "Output counts to path")
	// Arguments: Output
	var outputOrder, outputStatsRaw, outputPrefix string
	flag.StringVar(&outputOrder, "output_order", "fold", "Order results in output: 'track', 'annotation', 'fold', 'pvalue' or 'qvalue'")
	flag.StringVar(&outputStatsRaw, "output_stats", "", "Interval stats section(s) to write: 'all', 'segments', 'annotations', 'workspaces', 'isochores', 'overlap' (comma separated)")
	flag.StringVar(&outputPrefix, "output_prefix", "enrichabacus_", "Path prefix for stats output files")
	// Arguments: Parse
	flag.Parse()

	// Version
	if printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Verbose
	if verbose && verboseLevel == 0 {
		verboseLevel = 1
	}

	// Max CPU
	runtime.GOMAXPROCS(nWorker * 2)

	// Time start
	timeStart := time.Now()

	// Seed
	if seed == 0 {
		seed = timeStart.UnixNano()
	}

	// Counter
	counterMode, err := counter.ParseMode(counterRaw)
	if err != nil {
		log.Fatal(err)
	}

	var results []*stats.Result
	switch {
	case resultsFile != "":
		if verboseLevel > 0 {
			fmt.Printf("%.1fmin - Reading results from %s\n", time.Since(timeStart).Minutes(), resultsFile)
		}
		results, err = readResults(resultsFile)
	case countsFile != "":
		if verboseLevel > 0 {
			fmt.Printf("%.1fmin - Reading counts from %s\n", time.Since(timeStart).Minutes(), countsFile)
		}
		results, err = enrich.ReadCounts(countsFile)
	default:
		results, err = fromSegments(segmentsOptions{
			segmentFiles:         splitPaths(segmentFilesRaw),
			segmentBAMs:          splitPaths(segmentBAMsRaw),
			annotationFiles:      splitPaths(annotationFilesRaw),
			workspaceFiles:       splitPaths(workspaceFilesRaw),
			isochoreFiles:        splitPaths(isochoreFilesRaw),
			outputStats:          splitPaths(outputStatsRaw),
			outputPrefix:         outputPrefix,
			sampleCacheDir:       sampleCacheDir,
			outputSamplesPattern: outputSamplesPattern,
			numSamples:           numSamples,
			bucketSize:           bucketSize,
			nbuckets:             nbuckets,
			counterMode:          counterMode,
			nWorker:              nWorker,
			seed:                 seed,
			verboseLevel:         verboseLevel,
			timeStart:            timeStart,
		})
	}
	if err != nil {
		log.Fatal(err)
	}
	if len(results) == 0 {
		log.Fatal("no results to report")
	}

	// Update p-values. Empirical p-values are computed with the sampled
	// distributions, so only the norm method applies to a reloaded result
	// table.
	if pvalueMethod != stats.PValueEmpirical {
		if verboseLevel > 0 {
			fmt.Printf("%.1fmin - Updating p-values to %s\n", time.Since(timeStart).Minutes(), pvalueMethod)
		}
		for _, r := range results {
			if err := r.UpdatePValue(pvalueMethod); err != nil {
				log.Fatal(err)
			}
		}
	}

	// Compute global FDR
	if verboseLevel > 0 {
		fmt.Printf("%.1fmin - Computing FDR statistics\n", time.Since(timeStart).Minutes())
	}
	err = stats.UpdateQValues(results, stats.QValueOptions{
		Method:    qvalueMethod,
		Pi0Method: pi0Method,
		Lambda:    qvalueLambda,
		Seed:      seed,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Output: Counts
	if outputCountsFile != "" {
		f, err := os.Create(outputCountsFile)
		if err != nil {
			log.Fatal(err)
		}
		if err := enrich.WriteCounts(f, results); err != nil {
			log.Fatal(err)
		}
		f.Close()
	}

	// Output: Result table
	out := os.Stdout
	if pathOutput != "-" {
		if out, err = os.Create(pathOutput); err != nil {
			log.Fatal(err)
		}
		defer out.Close()
	}
	if err := writeResults(out, results, outputOrder); err != nil {
		log.Fatal(err)
	}

	// Output: Report
	if pathReport != "" {
		if err := writeReport(pathReport, results, numSamples, seed); err != nil {
			log.Fatal(err)
		}
	}

	// Verbose
	if verboseLevel > 0 {
		fmt.Printf("%.1fmin - Done %d pair(s)\n", time.Since(timeStart).Minutes(), len(results))
	}
}

type segmentsOptions struct {
	segmentFiles         []string
	segmentBAMs          []string
	annotationFiles      []string
	workspaceFiles       []string
	isochoreFiles        []string
	outputStats          []string
	outputPrefix         string
	sampleCacheDir       string
	outputSamplesPattern string
	numSamples           int
	bucketSize           int
	nbuckets             int
	counterMode          counter.Mode
	nWorker              int
	seed                 int64
	verboseLevel         int
	timeStart            time.Time
}

// fromSegments runs the full pipeline from interval files. This is the most
// common use case.
func fromSegments(opts segmentsOptions) ([]*stats.Result, error) {
	// Check arguments
	if len(opts.segmentFiles) == 0 && len(opts.segmentBAMs) == 0 {
		return nil, &intervals.InputError{Msg: "please specify at least one segment file"}
	}
	if len(opts.annotationFiles) == 0 {
		return nil, &intervals.InputError{Msg: "please specify at least one annotation file"}
	}
	if len(opts.workspaceFiles) == 0 {
		return nil, &intervals.InputError{Msg: "please specify at least one workspace file"}
	}

	dumpStats := func(c *intervals.Collection, section string) error {
		if !statsRequested(opts.outputStats, section) {
			return nil
		}
		f, err := os.Create(opts.outputPrefix + section + ".tsv")
		if err != nil {
			return err
		}
		if err := c.WriteStats(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	readList := func(label string, paths []string) (*intervals.Collection, error) {
		c := intervals.NewCollection(label)
		if opts.verboseLevel > 0 {
			fmt.Printf("%.1fmin - %s: reading tracks from %d file(s)\n", time.Since(opts.timeStart).Minutes(), label, len(paths))
		}
		if err := c.Load(paths); err != nil {
			return nil, err
		}
		if opts.verboseLevel > 0 {
			fmt.Printf("%.1fmin - %s: read %d track(s)\n", time.Since(opts.timeStart).Minutes(), label, c.Len())
		}
		if err := dumpStats(c, "stats_"+label+"_raw"); err != nil {
			return nil, err
		}
		c.Normalize()
		return c, dumpStats(c, "stats_"+label+"_normed")
	}

	segments, err := readList("segments", opts.segmentFiles)
	if err != nil {
		return nil, err
	}
	for _, path := range opts.segmentBAMs {
		if opts.verboseLevel > 0 {
			fmt.Printf("%.1fmin - segments: reading alignments from %s\n", time.Since(opts.timeStart).Minutes(), path)
		}
		if err := segments.ReadBAM(path, opts.nWorker); err != nil {
			return nil, err
		}
	}
	segments.Normalize()
	annotations, err := readList("annotations", opts.annotationFiles)
	if err != nil {
		return nil, err
	}
	workspaces, err := readList("workspaces", opts.workspaceFiles)
	if err != nil {
		return nil, err
	}

	// Merge workspaces into a single workspace and discard the others
	if opts.verboseLevel > 0 {
		fmt.Printf("%.1fmin - Collapsing workspaces\n", time.Since(opts.timeStart).Minutes())
	}
	workspaces.Collapse()
	if err := dumpStats(workspaces, "stats_workspaces_collapsed"); err != nil {
		return nil, err
	}
	if err := workspaces.Restrict(intervals.Collapsed); err != nil {
		return nil, err
	}

	// Build isochores or intersect segments/annotations with the workspace
	if len(opts.isochoreFiles) > 0 {
		isochores, err := readList("isochores", opts.isochoreFiles)
		if err != nil {
			return nil, err
		}
		if opts.verboseLevel > 0 {
			fmt.Printf("%.1fmin - Adding isochores to workspace\n", time.Since(opts.timeStart).Minutes())
		}
		if err := workspaces.ToIsochores(isochores); err != nil {
			return nil, err
		}
		if err := annotations.ToIsochores(isochores); err != nil {
			return nil, err
		}
		if err := segments.ToIsochores(isochores); err != nil {
			return nil, err
		}
		if workspaces.Sum() == 0 {
			return nil, &intervals.InputError{Msg: "isochores and workspaces do not overlap"}
		}
		if annotations.Sum() == 0 {
			return nil, &intervals.InputError{Msg: "isochores and annotations do not overlap"}
		}
		if segments.Sum() == 0 {
			return nil, &intervals.InputError{Msg: "isochores and segments do not overlap"}
		}
		for c, section := range map[*intervals.Collection]string{workspaces: "stats_workspaces_isochores", annotations: "stats_annotations_isochores", segments: "stats_segments_isochores"} {
			if err := dumpStats(c, section); err != nil {
				return nil, err
			}
		}
	} else {
		workspace := workspaces.Tracks[intervals.Collapsed]
		annotations.Filter(workspace)
		segments.Filter(workspace)
		if err := dumpStats(annotations, "stats_annotations_pruned"); err != nil {
			return nil, err
		}
		if err := dumpStats(segments, "stats_segments_pruned"); err != nil {
			return nil, err
		}
	}

	// Per-track overlap with the workspace
	if statsRequested(opts.outputStats, "overlap") {
		for _, track := range segments.TrackNames() {
			f, err := os.Create(opts.outputPrefix + "overlap_" + strings.ReplaceAll(track, "/", ".") + ".tsv")
			if err != nil {
				return nil, err
			}
			if err := workspaces.OverlapStats(f, segments.Tracks[track]); err != nil {
				f.Close()
				return nil, err
			}
			f.Close()
		}
	}

	// Sample cache
	var store *cache.Store
	if opts.sampleCacheDir != "" {
		if store, err = cache.NewStore(opts.sampleCacheDir, opts.seed); err != nil {
			return nil, err
		}
	}

	return enrich.Run(segments, annotations, workspaces, enrich.Options{
		NumSamples:     opts.numSamples,
		Seed:           opts.seed,
		BucketSize:     opts.bucketSize,
		NBuckets:       opts.nbuckets,
		Counter:        opts.counterMode,
		NumWorker:      opts.nWorker,
		Cache:          store,
		SamplesPattern: opts.outputSamplesPattern,
		Verbose:        opts.verboseLevel > 0,
		TimeStart:      opts.timeStart,
	})
}

func statsRequested(sections []string, section string) bool {
	for _, s := range sections {
		if s == "all" || strings.Contains(section, s) {
			return true
		}
	}
	return false
}
