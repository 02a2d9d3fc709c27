// Package stats provides order statistics and moments over evacuation outcomes.
//
// Median and Percentile use quickselect on a private copy of the data, so callers'
// slices are never reordered and no full sort is performed. Every function panics on
// empty input: an empty sample means nobody evacuated, which must not be reported as zero.
package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Number is the set of element types accepted by this package.
type Number interface {
	int | int64 | float64
}

// Float64s converts data to a new []float64.
func Float64s[T Number](data []T) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

func mustNotBeEmpty(op string, n int) {
	if n == 0 {
		panic(fmt.Sprintf("%s: data must not be empty", op))
	}
}

// Mean returns the arithmetic mean.
func Mean[T Number](data []T) float64 {
	mustNotBeEmpty("Mean", len(data))
	return stat.Mean(Float64s(data), nil)
}

// Variance returns the unbiased sample variance; zero for a single element.
func Variance[T Number](data []T) float64 {
	mustNotBeEmpty("Variance", len(data))
	if len(data) == 1 {
		return 0
	}
	return stat.Variance(Float64s(data), nil)
}

// StdDev returns the sample standard deviation; zero for a single element.
func StdDev[T Number](data []T) float64 {
	mustNotBeEmpty("StdDev", len(data))
	if len(data) == 1 {
		return 0
	}
	return stat.StdDev(Float64s(data), nil)
}

// Min returns the smallest element.
func Min[T Number](data []T) T {
	mustNotBeEmpty("Min", len(data))
	m := data[0]
	for _, v := range data[1:] {
		m = min(m, v)
	}
	return m
}

// Max returns the largest element.
func Max[T Number](data []T) T {
	mustNotBeEmpty("Max", len(data))
	m := data[0]
	for _, v := range data[1:] {
		m = max(m, v)
	}
	return m
}

// Median returns the 50th percentile.
func Median[T Number](data []T) float64 {
	mustNotBeEmpty("Median", len(data))
	return Percentile(data, 50)
}

// Percentile returns the p-th percentile (p in [0, 100]) with linear interpolation between
// the two order statistics bracketing rank p*(n-1)/100. p=0 and p=100 return min and max.
func Percentile[T Number](data []T, p float64) float64 {
	mustNotBeEmpty("Percentile", len(data))
	if !(p >= 0 && p <= 100) {
		panic(fmt.Sprintf("Percentile: p must be in [0, 100], got %v", p))
	}
	work := Float64s(data)
	n := len(work)
	switch p {
	case 0:
		return Select(work, 0)
	case 100:
		return Select(work, n-1)
	}
	rank := p * float64(n-1) / 100
	lower := int(rank)
	frac := rank - float64(lower)
	lowerVal := Select(work, lower)
	if frac == 0 || lower+1 >= n {
		return lowerVal
	}
	upperVal := Select(work, lower+1)
	return lowerVal + frac*(upperVal-lowerVal)
}

// Select returns the k-th smallest element (0-based) of data, partially reordering data in place.
// It is a Hoare-partition quickselect with a median-of-three pivot: expected O(n).
func Select(data []float64, k int) float64 {
	if k < 0 || k >= len(data) {
		panic(fmt.Sprintf("Select: k=%d out of range for %d elements", k, len(data)))
	}
	left, right := 0, len(data)-1
	for {
		if right <= left+1 {
			// one or two elements remain
			if right == left+1 && data[right] < data[left] {
				data[left], data[right] = data[right], data[left]
			}
			return data[k]
		}

		// Median of left, mid and right becomes the pivot at left+1, with
		// data[left] <= pivot <= data[right] acting as sentinels for the scans.
		mid := (left + right) / 2
		data[mid], data[left+1] = data[left+1], data[mid]
		if data[left] > data[right] {
			data[left], data[right] = data[right], data[left]
		}
		if data[left+1] > data[right] {
			data[left+1], data[right] = data[right], data[left+1]
		}
		if data[left] > data[left+1] {
			data[left], data[left+1] = data[left+1], data[left]
		}

		i, j := left+1, right
		pivot := data[left+1]
		for {
			for i++; data[i] < pivot; i++ {
			}
			for j--; data[j] > pivot; j-- {
			}
			if j < i {
				break
			}
			data[i], data[j] = data[j], data[i]
		}
		data[left+1] = data[j]
		data[j] = pivot

		if j >= k {
			right = j - 1
		}
		if j <= k {
			left = i
		}
	}
}
