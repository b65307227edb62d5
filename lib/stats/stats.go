//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package stats

import (
	"fmt"
	"math"
	"sort"
)

// P-value methods.
const (
	PValueEmpirical = "empirical"
	PValueNorm      = "norm"
)

// ConfigurationError reports a request for an unknown statistic method.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// Result holds the enrichment statistics of one segment/annotation track
// pair. QValue is back-filled once over the complete result set.
type Result struct {
	Track      string
	Annotation string
	Observed   float64
	Expected   float64
	CILow      float64
	CIHigh     float64
	StdDev     float64
	Fold       float64
	PValue     float64
	QValue     float64
	// Samples keeps the resampled statistic distribution for p-value
	// updates and counts output. Empty when the result was loaded from a
	// result table.
	Samples []float64
}

// NewResult computes expected value, sample standard deviation, empirical
// 95% confidence bounds and fold enrichment from the observed scalar and
// the resampled distribution, and sets the empirical p-value.
func NewResult(track, annotation string, observed float64, samples []float64) *Result {
	r := &Result{Track: track, Annotation: annotation, Observed: observed, Samples: samples}
	n := len(samples)
	if n == 0 {
		r.Fold = 1
		r.PValue = 1
		r.QValue = 1
		return r
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	r.Expected = sum / float64(n)
	if n > 1 {
		ss := 0.0
		for _, s := range samples {
			d := s - r.Expected
			ss += d * d
		}
		r.StdDev = math.Sqrt(ss / float64(n-1))
	}
	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)
	// Closest available order statistics when n is small.
	lo := int(0.025 * float64(n))
	hi := int(0.975 * float64(n))
	if hi >= n {
		hi = n - 1
	}
	r.CILow = sorted[lo]
	r.CIHigh = sorted[hi]
	if r.Expected == 0 {
		if r.Observed == 0 {
			r.Fold = 1
		} else {
			r.Fold = math.Inf(1)
		}
	} else {
		r.Fold = r.Observed / r.Expected
	}
	r.UpdatePValue(PValueEmpirical)
	return r
}

// UpdatePValue recomputes the p-value with the requested method. The
// empirical method counts samples at least as extreme as the observed value
// in the direction away from the expectation, with +1 smoothing so a finite
// sample never yields zero. The norm method uses the normal CDF on the
// sampled moments instead.
func (r *Result) UpdatePValue(method string) error {
	n := len(r.Samples)
	// Degenerate distributions get boundary values instead of an error.
	if r.Expected == 0 {
		if r.Observed == 0 {
			r.PValue = 1
		} else {
			r.PValue = 1 / float64(n+1)
		}
		return nil
	}
	switch method {
	case PValueEmpirical:
		if n == 0 {
			return &ConfigurationError{Msg: "empirical p-values require a sampled distribution"}
		}
		extreme := 0
		if r.Observed >= r.Expected {
			for _, s := range r.Samples {
				if s >= r.Observed {
					extreme++
				}
			}
		} else {
			for _, s := range r.Samples {
				if s <= r.Observed {
					extreme++
				}
			}
		}
		r.PValue = float64(extreme+1) / float64(n+1)
	case PValueNorm:
		if r.StdDev == 0 {
			if r.Observed == r.Expected {
				r.PValue = 1
			} else {
				r.PValue = 1 / float64(n+1)
			}
			return nil
		}
		z := (r.Observed - r.Expected) / r.StdDev
		if z >= 0 {
			r.PValue = 0.5 * math.Erfc(z/math.Sqrt2)
		} else {
			r.PValue = 0.5 * math.Erfc(-z/math.Sqrt2)
		}
	default:
		return &ConfigurationError{Msg: fmt.Sprintf("unknown pvalue method %q", method)}
	}
	return nil
}
