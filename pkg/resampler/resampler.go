// Package resampler converts impulse responses between sample rates using
// windowed sinc interpolation.
package resampler

import (
	"errors"
	"fmt"
	"math"
)

// Sinc kernel quality bounds, in lobes per side.
const (
	MinLobes     = 4
	DefaultLobes = 16
	MaxLobes     = 64
)

// Errors.
var (
	ErrBadRate = errors.New("resampler: sample rates must be positive")
)

// Resampler performs sample rate conversion with a Blackman-windowed sinc
// kernel. The zero value is not usable; construct with New or NewWithQuality.
type Resampler struct {
	lobes int
}

// New returns a Resampler with the default kernel quality.
func New() *Resampler {
	return &Resampler{lobes: DefaultLobes}
}

// NewWithQuality returns a Resampler with the given number of sinc lobes per
// side, clamped to [MinLobes, MaxLobes]. More lobes trade speed for a sharper
// transition band.
func NewWithQuality(lobes int) *Resampler {
	if lobes < MinLobes {
		lobes = MinLobes
	}

	if lobes > MaxLobes {
		lobes = MaxLobes
	}

	return &Resampler{lobes: lobes}
}

// Resample converts samples from srcRate to dstRate. Equal rates return a
// copy. When downsampling, the kernel passband narrows to the destination
// Nyquist frequency to suppress aliasing.
func (r *Resampler) Resample(samples []float32, srcRate, dstRate float64) ([]float32, error) {
	if !(srcRate > 0) || !(dstRate > 0) {
		return nil, fmt.Errorf("%w: %g Hz to %g Hz", ErrBadRate, srcRate, dstRate)
	}

	if len(samples) == 0 {
		return []float32{}, nil
	}

	if srcRate == dstRate {
		out := make([]float32, len(samples))
		copy(out, samples)

		return out, nil
	}

	ratio := dstRate / srcRate

	cutoff := 1.0
	if ratio < 1 {
		cutoff = ratio
	}

	radius := float64(r.lobes) / cutoff
	out := make([]float32, OutputLength(len(samples), srcRate, dstRate))

	for i := range out {
		center := float64(i) / ratio

		lo := int(math.Floor(center - radius))
		hi := int(math.Ceil(center + radius))

		if lo < 0 {
			lo = 0
		}

		if hi > len(samples)-1 {
			hi = len(samples) - 1
		}

		var sum, norm float64

		for j := lo; j <= hi; j++ {
			d := center - float64(j)
			w := sinc(d*cutoff) * blackman(d/radius)

			sum += float64(samples[j]) * w
			norm += w
		}

		// Kernel weights cancel near truncated edges; leave those samples
		// silent rather than dividing by a vanishing norm.
		if norm > 0 {
			out[i] = float32(sum / norm)
		}
	}

	return out, nil
}

// ResampleAll converts every channel from srcRate to dstRate.
func (r *Resampler) ResampleAll(channels [][]float32, srcRate, dstRate float64) ([][]float32, error) {
	out := make([][]float32, len(channels))

	for ch := range channels {
		converted, err := r.Resample(channels[ch], srcRate, dstRate)
		if err != nil {
			return nil, err
		}

		out[ch] = converted
	}

	return out, nil
}

// OutputLength returns the sample count produced by converting n samples
// from srcRate to dstRate.
func OutputLength(n int, srcRate, dstRate float64) int {
	if n == 0 {
		return 0
	}

	return int(math.Round(float64(n) * dstRate / srcRate))
}

// sinc computes sin(pi x)/(pi x), with sinc(0) = 1.
func sinc(x float64) float64 {
	if math.Abs(x) < 1e-10 {
		return 1
	}

	px := math.Pi * x

	return math.Sin(px) / px
}

// blackman evaluates the Blackman window over [-1, 1], zero outside.
func blackman(x float64) float64 {
	if x < -1 || x > 1 {
		return 0
	}

	t := (x + 1) / 2

	return 0.42 - 0.5*math.Cos(2*math.Pi*t) + 0.08*math.Cos(4*math.Pi*t)
}
