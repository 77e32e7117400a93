// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracesynth

import "math"

// SlopeFitter is an online ordinary-least-squares slope estimator over a
// stream of (x, y) points, using Welford-style covariance updates. It is a
// plain value type: copying a SlopeFitter forks the accumulated state, which
// the address cascade relies on to carry one fit down both subtrees of a
// split.
type SlopeFitter struct {
	count int64
	mx    float64
	my    float64
	c     float64 // co-moment sum
	v     float64 // x second moment sum
}

// AddPoint folds one (x, y) observation into the running fit.
func (s *SlopeFitter) AddPoint(x, y float64) {
	s.count++
	dx := x - s.mx
	s.mx += dx / float64(s.count)
	s.my += (y - s.my) / float64(s.count)
	s.c += dx * (y - s.my)
	s.v += dx * (x - s.mx)
}

// Fit returns the least-squares slope of the points seen so far. The result
// is undefined until at least two distinct x-values have been added; callers
// must not invoke it in that state.
func (s *SlopeFitter) Fit() float64 { return s.c / s.v }

// Count returns the number of points folded in.
func (s *SlopeFitter) Count() int64 { return s.count }

// Welford is a running mean / second-central-moment accumulator. It backs
// both the logit-normal spread fit and the Pareto shape MLE, which only ever
// need a single streaming pass.
type Welford struct {
	count int64
	mean  float64
	m2    float64
}

// Add folds one sample in.
func (w *Welford) Add(x float64) {
	w.count++
	d := x - w.mean
	w.mean += d / float64(w.count)
	w.m2 += d * (x - w.mean)
}

// Count returns the number of samples seen.
func (w *Welford) Count() int64 { return w.count }

// Mean returns the running mean (zero before any sample).
func (w *Welford) Mean() float64 { return w.mean }

// SampleStdDev returns the Bessel-corrected standard deviation
// sqrt(M2/(count-1)). NaN with fewer than two samples.
func (w *Welford) SampleStdDev() float64 {
	if w.count < 2 {
		return math.NaN()
	}
	return math.Sqrt(w.m2 / float64(w.count-1))
}
