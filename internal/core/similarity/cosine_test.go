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

package similarity

import (
	"math"
	"testing"

	"github.com/zeebo/assert"
)

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float32{0.3, 0.4, 0.5}
	got := Cosine(v, v)
	assert.True(t, math.Abs(got-1.0) < 1e-6)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.True(t, math.Abs(Cosine(a, b)) < 1e-6)
}

func TestCosineOppositeVectors(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	assert.True(t, math.Abs(Cosine(a, b)+1.0) < 1e-6)
}

func TestCosineDegenerateInputs(t *testing.T) {
	// Mismatched lengths and zero vectors must not panic or divide by zero.
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.True(t, math.Abs(float64(v[0])-0.6) < 1e-6)
	assert.True(t, math.Abs(float64(v[1])-0.8) < 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, float32(0), zero[0])
	assert.Equal(t, float32(0), zero[1])
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.42, Clamp01(0.42))
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.123, Round3(0.12345))
	assert.Equal(t, 0.124, Round3(0.1236))
}
