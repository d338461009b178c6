package analysis

import (
	"image"
	"math"
	"math/bits"
	"sort"

	"github.com/nfnt/resize"
)

// Fingerprint parameters. The frame is shrunk to a 32x32 grid, run
// through a 2D DCT, and the 8x8 low-frequency block is thresholded
// against its median into a 64-bit hash.
const (
	hashGrid = 32
	hashLowF = 8
	// HashBits is the fingerprint length in bits.
	HashBits = hashLowF * hashLowF
)

// Fingerprint computes a DCT-based perceptual hash of an image. Images
// that look alike hash to values within a small Hamming distance even
// across mild scaling, compression, and brightness shifts.
func Fingerprint(img image.Image) uint64 {
	small := resize.Resize(hashGrid, hashGrid, img, resize.Bilinear)

	var grid [hashGrid][hashGrid]float64
	for y := 0; y < hashGrid; y++ {
		for x := 0; x < hashGrid; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			// Rec. 601 luma; inputs are usually already gray.
			grid[y][x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
		}
	}

	freq := dct2d(grid)

	// Low-frequency block, DC term included. The median split makes
	// the hash invariant to overall brightness.
	coeffs := make([]float64, 0, HashBits)
	for y := 0; y < hashLowF; y++ {
		for x := 0; x < hashLowF; x++ {
			coeffs = append(coeffs, freq[y][x])
		}
	}
	med := median(coeffs)

	var hash uint64
	i := 0
	for y := 0; y < hashLowF; y++ {
		for x := 0; x < hashLowF; x++ {
			if freq[y][x] > med {
				hash |= 1 << uint(i)
			}
			i++
		}
	}
	return hash
}

// HammingDistance counts differing bits between two fingerprints.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// SimilarFingerprints reports whether two fingerprint sets describe
// visually similar footage: more than half of the cross pairs land
// within the Hamming threshold.
func SimilarFingerprints(a, b []uint64, threshold int) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	close, total := 0, 0
	for _, ha := range a {
		for _, hb := range b {
			total++
			if HammingDistance(ha, hb) <= threshold {
				close++
			}
		}
	}
	return float64(close)/float64(total) > 0.5
}

// dct2d applies a type-II DCT to rows then columns.
func dct2d(grid [hashGrid][hashGrid]float64) [hashGrid][hashGrid]float64 {
	var tmp, out [hashGrid][hashGrid]float64
	for y := 0; y < hashGrid; y++ {
		tmp[y] = dct1d(grid[y])
	}
	for x := 0; x < hashGrid; x++ {
		var col [hashGrid]float64
		for y := 0; y < hashGrid; y++ {
			col[y] = tmp[y][x]
		}
		col = dct1d(col)
		for y := 0; y < hashGrid; y++ {
			out[y][x] = col[y]
		}
	}
	return out
}

func dct1d(in [hashGrid]float64) [hashGrid]float64 {
	var out [hashGrid]float64
	n := float64(hashGrid)
	for k := 0; k < hashGrid; k++ {
		var sum float64
		for i := 0; i < hashGrid; i++ {
			sum += in[i] * math.Cos(math.Pi/n*(float64(i)+0.5)*float64(k))
		}
		out[k] = sum
	}
	return out
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
