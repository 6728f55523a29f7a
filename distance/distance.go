package distance

import "math"

// Dot calculates the dot product of two vectors. Vectors of different
// lengths are compared over their shared prefix.
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the L2 norm (magnitude) of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
//
// If either vector has zero magnitude the result is 0, never NaN. Vectors
// of different lengths are compared over their shared prefix, with the norm
// taken over the same prefix so the result stays within [-1, 1].
func Cosine(a, b []float64) float64 {
	n := min(len(a), len(b))
	a, b = a[:n], b[:n]

	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}
