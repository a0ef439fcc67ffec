// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package similarity provides the numeric primitives used by the frame
// selector and the product ranker: cosine similarity between embedding
// vectors and vector normalization. Embeddings arrive as []float32 from
// the Vertex AI embedding models; all arithmetic is done in float64.
package similarity

import "math"

// Cosine returns the cosine similarity between two vectors. A length
// mismatch, an empty vector, or a zero-magnitude vector yields 0 — the
// callers treat "no usable signal" and "orthogonal" the same way.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize scales the vector to unit length in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	inv := 1.0 / math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Clamp01 bounds a score to [0,1]. Cosine similarity of real embeddings
// can dip slightly negative; the pipeline reports component scores in
// the unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}

// Round3 rounds to three decimal places, the precision attached to every
// candidate score in API responses.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
