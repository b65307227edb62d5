//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package stats

import (
	"math"
	"sort"
	"testing"

	qt "github.com/frankban/quicktest"
)

func resultsWithPValues(pvalues []float64) []*Result {
	results := make([]*Result, len(pvalues))
	for i, p := range pvalues {
		results[i] = &Result{Track: "segs", Annotation: "ann", PValue: p}
	}
	return results
}

func TestQValuesFixedLambda(t *testing.T) {
	c := qt.New(t)
	results := resultsWithPValues([]float64{0.01, 0.02, 0.03, 0.9})
	err := UpdateQValues(results, QValueOptions{Method: QValueStorey, Lambda: 0.5})
	c.Assert(err, qt.IsNil)
	// pi0 = #{p > 0.5} / (m * 0.5) = 0.5
	c.Assert(results[3].QValue, qt.Equals, 0.45)
	for _, r := range results[:3] {
		c.Assert(math.Abs(r.QValue-0.02) < 1e-12, qt.IsTrue)
	}
}

func TestQValuesMonotonic(t *testing.T) {
	c := qt.New(t)
	pvalues := []float64{0.001, 0.2, 0.04, 0.9, 0.5, 0.03, 0.8, 0.6, 0.7, 0.15}
	results := resultsWithPValues(pvalues)
	err := UpdateQValues(results, QValueOptions{Method: QValueStorey, Pi0Method: Pi0Smoother})
	c.Assert(err, qt.IsNil)

	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return pvalues[order[a]] < pvalues[order[b]] })
	prev := 0.0
	for _, i := range order {
		q := results[i].QValue
		c.Assert(q >= prev, qt.IsTrue)
		c.Assert(q <= 1.0, qt.IsTrue)
		prev = q
	}
}

func TestQValuesBootstrapReproducible(t *testing.T) {
	c := qt.New(t)
	pvalues := []float64{0.001, 0.2, 0.04, 0.9, 0.5, 0.03, 0.8, 0.6, 0.7, 0.15}
	a := resultsWithPValues(pvalues)
	b := resultsWithPValues(pvalues)
	opts := QValueOptions{Method: QValueStorey, Pi0Method: Pi0Bootstrap, Seed: 42}
	c.Assert(UpdateQValues(a, opts), qt.IsNil)
	c.Assert(UpdateQValues(b, opts), qt.IsNil)
	for i := range a {
		c.Assert(a[i].QValue, qt.Equals, b[i].QValue)
	}
}

func TestQValuesErrors(t *testing.T) {
	c := qt.New(t)
	var cerr *ConfigurationError
	results := resultsWithPValues([]float64{0.1, 0.2})
	c.Assert(UpdateQValues(results, QValueOptions{Method: "bh"}), qt.ErrorAs, &cerr)
	c.Assert(UpdateQValues(results, QValueOptions{Method: QValueStorey, Lambda: 1.5}), qt.ErrorAs, &cerr)
	c.Assert(UpdateQValues(results, QValueOptions{Method: QValueStorey, Pi0Method: "mean"}), qt.ErrorAs, &cerr)
	c.Assert(UpdateQValues(nil, QValueOptions{Method: "bh"}), qt.IsNil)
}

func TestPi0Clamp(t *testing.T) {
	c := qt.New(t)
	// All-significant p-values give an infeasible estimate, pi0 falls back
	// to one and the correction reduces to Benjamini-Hochberg.
	results := resultsWithPValues([]float64{0.0001, 0.0002, 0.0003})
	err := UpdateQValues(results, QValueOptions{Method: QValueStorey, Lambda: 0.5})
	c.Assert(err, qt.IsNil)
	c.Assert(math.Abs(results[0].QValue-0.0003) < 1e-12, qt.IsTrue)
	c.Assert(math.Abs(results[2].QValue-0.0003) < 1e-12, qt.IsTrue)
}
