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
	"math/rand"
	"sort"
)

// Q-value methods.
const (
	QValueStorey = "storey"

	Pi0Smoother  = "smoother"
	Pi0Bootstrap = "bootstrap"
)

const bootstrapRounds = 100

// QValueOptions selects the false-discovery-rate correction. A Lambda > 0
// fixes the tuning point instead of scanning the default grid. Seed drives
// the bootstrap pi0 estimate, keeping q-value recomputation bit-identical
// for a fixed p-value ordering.
type QValueOptions struct {
	Method    string
	Pi0Method string
	Lambda    float64
	Seed      int64
}

// UpdateQValues back-fills the q-value of every result. It runs once over
// the complete result set since the correction is global.
func UpdateQValues(results []*Result, opts QValueOptions) error {
	if len(results) == 0 {
		return nil
	}
	if opts.Method != QValueStorey {
		return &ConfigurationError{Msg: fmt.Sprintf("unknown qvalue method %q", opts.Method)}
	}
	pvalues := make([]float64, len(results))
	for i, r := range results {
		pvalues[i] = r.PValue
	}
	qvalues, err := storeyQValues(pvalues, opts)
	if err != nil {
		return err
	}
	for i, r := range results {
		r.QValue = qvalues[i]
	}
	return nil
}

// storeyQValues implements Storey's step-up procedure: estimate the null
// proportion pi0, then assign q-values that are monotonic non-decreasing in
// p-value order.
func storeyQValues(pvalues []float64, opts QValueOptions) ([]float64, error) {
	m := len(pvalues)
	pi0, err := estimatePi0(pvalues, opts)
	if err != nil {
		return nil, err
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return pvalues[order[a]] < pvalues[order[b]] })

	qvalues := make([]float64, m)
	prev := math.Min(pi0*pvalues[order[m-1]], 1)
	qvalues[order[m-1]] = prev
	for i := m - 2; i >= 0; i-- {
		q := pi0 * pvalues[order[i]] * float64(m) / float64(i+1)
		if q > prev {
			q = prev
		}
		if q > 1 {
			q = 1
		}
		qvalues[order[i]] = q
		prev = q
	}
	return qvalues, nil
}

// estimatePi0 estimates the proportion of true-null hypotheses. With a
// fixed lambda the plug-in estimate is used directly; otherwise the grid
// 0.05..0.95 is scanned with either a cubic least-squares smoother
// evaluated at the largest lambda or a bootstrap mean-squared-error
// minimizer. Infeasible estimates fall back to pi0 = 1.
func estimatePi0(pvalues []float64, opts QValueOptions) (float64, error) {
	m := len(pvalues)
	if opts.Lambda > 0 {
		if opts.Lambda >= 1 {
			return 0, &ConfigurationError{Msg: fmt.Sprintf("qvalue lambda %g outside [0,1)", opts.Lambda)}
		}
		return clampPi0(pi0At(pvalues, opts.Lambda)), nil
	}

	var lambdas []float64
	for l := 0.05; l < 0.96; l += 0.05 {
		lambdas = append(lambdas, l)
	}
	pi0s := make([]float64, len(lambdas))
	for i, l := range lambdas {
		pi0s[i] = pi0At(pvalues, l)
	}

	switch opts.Pi0Method {
	case Pi0Smoother:
		return clampPi0(cubicFitAt(lambdas, pi0s, lambdas[len(lambdas)-1])), nil
	case Pi0Bootstrap:
		rng := rand.New(rand.NewSource(opts.Seed))
		minPi0 := pi0s[0]
		for _, p := range pi0s[1:] {
			if p < minPi0 {
				minPi0 = p
			}
		}
		mse := make([]float64, len(lambdas))
		resampled := make([]float64, m)
		for b := 0; b < bootstrapRounds; b++ {
			for i := range resampled {
				resampled[i] = pvalues[rng.Intn(m)]
			}
			for i, l := range lambdas {
				d := pi0At(resampled, l) - minPi0
				mse[i] += d * d
			}
		}
		best := 0
		for i := 1; i < len(mse); i++ {
			if mse[i] < mse[best] {
				best = i
			}
		}
		return clampPi0(pi0s[best]), nil
	}
	return 0, &ConfigurationError{Msg: fmt.Sprintf("unknown pi0 method %q", opts.Pi0Method)}
}

// pi0At is the plug-in estimate #{p > lambda} / (m * (1 - lambda)).
func pi0At(pvalues []float64, lambda float64) float64 {
	n := 0
	for _, p := range pvalues {
		if p > lambda {
			n++
		}
	}
	return float64(n) / (float64(len(pvalues)) * (1 - lambda))
}

func clampPi0(pi0 float64) float64 {
	// Degenerate estimates (all-significant input) fall back to 1.
	if !(pi0 > 0) || pi0 > 1 {
		return 1
	}
	return pi0
}

// cubicFitAt fits y = c0 + c1 x + c2 x^2 + c3 x^3 by least squares and
// evaluates the fit at x0.
func cubicFitAt(xs, ys []float64, x0 float64) float64 {
	var s [7]float64
	var t [4]float64
	for i, x := range xs {
		p := 1.0
		for k := 0; k < 7; k++ {
			s[k] += p
			if k < 4 {
				t[k] += ys[i] * p
			}
			p *= x
		}
	}
	var a [4][5]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i][j] = s[i+j]
		}
		a[i][4] = t[i]
	}
	// Gaussian elimination with partial pivoting.
	for col := 0; col < 4; col++ {
		pivot := col
		for row := col + 1; row < 4; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		if a[col][col] == 0 {
			return math.NaN()
		}
		for row := col + 1; row < 4; row++ {
			f := a[row][col] / a[col][col]
			for j := col; j < 5; j++ {
				a[row][j] -= f * a[col][j]
			}
		}
	}
	var c [4]float64
	for i := 3; i >= 0; i-- {
		c[i] = a[i][4]
		for j := i + 1; j < 4; j++ {
			c[i] -= a[i][j] * c[j]
		}
		c[i] /= a[i][i]
	}
	return c[0] + c[1]*x0 + c[2]*x0*x0 + c[3]*x0*x0*x0
}
