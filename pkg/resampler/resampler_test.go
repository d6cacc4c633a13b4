package resampler

import (
	"errors"
	"math"
	"testing"
)

func TestResampleIdentityRate(t *testing.T) {
	t.Parallel()

	r := New()
	input := []float32{1, -0.5, 0.25, 0, 0.75, -1}

	out, err := r.Resample(input, 48000, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != len(input) {
		t.Fatalf("expected length %d, got %d", len(input), len(out))
	}

	for i := range input {
		if out[i] != input[i] {
			t.Errorf("at index %d: got %v, want %v", i, out[i], input[i])
		}
	}

	out[0] = 9
	if input[0] == 9 {
		t.Error("identity conversion must copy, not alias, the input")
	}
}

func TestResampleEmptyInput(t *testing.T) {
	t.Parallel()

	out, err := New().Resample([]float32{}, 96000, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 0 {
		t.Errorf("expected empty output, got %d samples", len(out))
	}
}

func TestResampleBadRates(t *testing.T) {
	t.Parallel()

	r := New()
	input := []float32{1, 2, 3}

	cases := [][2]float64{
		{0, 48000},
		{48000, 0},
		{-44100, 48000},
		{math.NaN(), 48000},
	}

	for _, rates := range cases {
		if _, err := r.Resample(input, rates[0], rates[1]); !errors.Is(err, ErrBadRate) {
			t.Errorf("rates (%g, %g): got %v, want ErrBadRate", rates[0], rates[1], err)
		}
	}
}

func TestResampleDownsampleLength(t *testing.T) {
	t.Parallel()

	input := sineWave(2048, 4)

	out, err := New().Resample(input, 96000, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := OutputLength(len(input), 96000, 48000); len(out) != want {
		t.Errorf("expected %d samples, got %d", want, len(out))
	}
}

func TestResampleUpsampleLength(t *testing.T) {
	t.Parallel()

	input := sineWave(512, 2)

	out, err := New().Resample(input, 44100, 88200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := OutputLength(len(input), 44100, 88200); len(out) != want {
		t.Errorf("expected %d samples, got %d", want, len(out))
	}
}

func TestResamplePreservesTone(t *testing.T) {
	t.Parallel()

	// A 100 Hz tone sits far below Nyquist at both rates, so the number of
	// zero crossings per unit time must survive the conversion.
	const (
		srcRate   = 88200.0
		dstRate   = 48000.0
		frequency = 100.0
		duration  = 0.1
	)

	n := int(srcRate * duration)
	input := make([]float32, n)

	for i := range input {
		input[i] = float32(math.Sin(2 * math.Pi * frequency * float64(i) / srcRate))
	}

	out, err := New().Resample(input, srcRate, dstRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := int(2 * frequency * duration)
	got := zeroCrossings(out)

	tolerance := want / 5
	if tolerance < 2 {
		tolerance = 2
	}

	if got < want-tolerance || got > want+tolerance {
		t.Errorf("expected ~%d zero crossings, got %d", want, got)
	}
}

func TestResamplePreservesEnergy(t *testing.T) {
	t.Parallel()

	input := sineWave(2048, 1)
	for i := range input {
		input[i] *= 0.5
	}

	out, err := New().Resample(input, 88200, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ratio := rms(out) / rms(input)
	if ratio < 0.5 || ratio > 1.5 {
		t.Errorf("energy not preserved: RMS ratio %f", ratio)
	}
}

func TestResampleAll(t *testing.T) {
	t.Parallel()

	channels := [][]float32{
		sineWave(512, 1),
		sineWave(512, 3),
	}

	out, err := New().ResampleAll(channels, 88200, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(out))
	}

	want := OutputLength(512, 88200, 48000)
	for ch := range out {
		if len(out[ch]) != want {
			t.Errorf("channel %d: expected %d samples, got %d", ch, want, len(out[ch]))
		}
	}
}

func TestResampleAllEmpty(t *testing.T) {
	t.Parallel()

	out, err := New().ResampleAll(nil, 48000, 44100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 0 {
		t.Errorf("expected no channels, got %d", len(out))
	}
}

func TestOutputLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n        int
		srcRate  float64
		dstRate  float64
		expected int
	}{
		{1000, 48000, 48000, 1000},
		{1000, 96000, 48000, 500},
		{1000, 44100, 88200, 2000},
		{8820, 88200, 48000, 4800},
		{0, 48000, 44100, 0},
		{100, 44100, 48000, 109},
	}

	for _, tt := range tests {
		got := OutputLength(tt.n, tt.srcRate, tt.dstRate)
		if got != tt.expected {
			t.Errorf("OutputLength(%d, %g, %g) = %d, want %d",
				tt.n, tt.srcRate, tt.dstRate, got, tt.expected)
		}
	}
}

func TestNewWithQualityClamps(t *testing.T) {
	t.Parallel()

	if r := NewWithQuality(0); r.lobes != MinLobes {
		t.Errorf("quality 0: got %d lobes, want %d", r.lobes, MinLobes)
	}

	if r := NewWithQuality(1000); r.lobes != MaxLobes {
		t.Errorf("quality 1000: got %d lobes, want %d", r.lobes, MaxLobes)
	}

	if r := NewWithQuality(8); r.lobes != 8 {
		t.Errorf("quality 8: got %d lobes, want 8", r.lobes)
	}
}

// sineWave returns n samples of a sine with the given number of full cycles.
func sineWave(n, cycles int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * float64(cycles) * float64(i) / float64(n)))
	}

	return out
}

func zeroCrossings(samples []float32) int {
	crossings := 0

	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}

	return crossings
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
