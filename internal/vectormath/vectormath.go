// Package vectormath implements the small set of numeric primitives the
// rest of the search pipeline is built on: dot product, squared norm,
// cosine similarity, averaging, and L2 normalization. Dot products and
// squared norms (and so cosine similarity) are delegated to
// github.com/viterin/vek, which dispatches to SIMD instructions when the
// host CPU supports them and falls back to a pure Go implementation
// otherwise. Averaging and the division step of normalization are plain
// scalar Go loops and do not use SIMD.
package vectormath

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Dot returns the dot product of a and b. Mismatched lengths return 0.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, b)
}

// SqNorm returns the squared L2 norm (sum of squares) of a.
func SqNorm(a []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, a)
}

// Cosine returns the cosine similarity of a and b. It returns 0 when
// either vector has zero magnitude, when the lengths differ, or when
// either vector is empty.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	na := SqNorm(a)
	nb := SqNorm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	d := Dot(a, b)
	return d / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
}

// Average returns the element-wise mean of vs. All vectors must share the
// same length; Average returns nil if vs is empty and panics if lengths
// disagree, since callers are expected to validate shape before averaging.
func Average(vs [][]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	dims := len(vs[0])
	out := make([]float32, dims)
	for _, v := range vs {
		if len(v) != dims {
			panic("vectormath: Average called with mismatched vector lengths")
		}
		for i, x := range v {
			out[i] += x
		}
	}
	inv := 1.0 / float32(len(vs))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// Normalize returns a unit-length copy of a. If a has zero magnitude it is
// returned unchanged (copied), matching the degenerate no-token case where
// a zero vector is a legitimate embedding.
func Normalize(a []float32) []float32 {
	out := make([]float32, len(a))
	copy(out, a)
	sq := SqNorm(a)
	if sq == 0 {
		return out
	}
	mag := float32(math.Sqrt(float64(sq)))
	for i := range out {
		out[i] /= mag
	}
	return out
}

// Magnitude returns the L2 norm (not squared) of a.
func Magnitude(a []float32) float32 {
	return float32(math.Sqrt(float64(SqNorm(a))))
}
