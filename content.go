package daff

import "github.com/MeKo-Tech/godaff/pkg/quant"

// view ties a content accessor to the generation of the open file it was
// created from. Closing or reopening the Reader stales the view, and every
// method checks that before touching data.
type view struct {
	r   *Reader
	gen uint64
}

// state resolves the file state, or ErrNotOpen when the view is stale.
func (v view) state() (*fileState, error) {
	return v.r.stateAt(v.gen)
}

// decodeBlock reads one (record, channel) block and dequantizes it into a
// fresh slice.
func (v view) decodeBlock(record, channel int) ([]float32, error) {
	st, err := v.state()
	if err != nil {
		return nil, err
	}

	raw, err := st.readBlock(record, channel)
	if err != nil {
		return nil, err
	}

	return quant.Decode(st.quantization, raw), nil
}

// NearestNeighbour returns the index of the record whose direction is
// closest to the query direction (phi, theta) in radians.
func (v view) NearestNeighbour(phi, theta float64) (int, error) {
	st, err := v.state()
	if err != nil {
		return 0, err
	}

	return st.grid.nearestNeighbour(phi, theta), nil
}

// RecordCoords returns the stored direction of a record in radians.
func (v view) RecordCoords(index int) (alpha, beta float64, err error) {
	st, err := v.state()
	if err != nil {
		return 0, 0, err
	}

	return st.grid.recordCoords(index)
}

// ContentIR gives access to time-domain impulse response records.
type ContentIR struct {
	view
}

// FilterLength returns the number of samples per record and channel, or 0
// when the view is stale.
func (c *ContentIR) FilterLength() int {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return st.filterLength
}

// Samplerate returns the sampling rate in Hz, or 0 when the view is stale.
func (c *ContentIR) Samplerate() float64 {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return st.samplerate
}

// FilterCoeffs returns the impulse response of one record and channel as a
// fresh slice of filter coefficients.
func (c *ContentIR) FilterCoeffs(record, channel int) ([]float32, error) {
	return c.decodeBlock(record, channel)
}

// ContentMS gives access to magnitude spectrum records.
type ContentMS struct {
	view
}

// NumFrequencies returns the number of frequency support points, or 0 when
// the view is stale.
func (c *ContentMS) NumFrequencies() int {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return len(st.frequencies)
}

// Frequencies returns a copy of the frequency support points in Hz.
func (c *ContentMS) Frequencies() []float32 {
	st, err := c.state()
	if err != nil {
		return nil
	}

	freqs := make([]float32, len(st.frequencies))
	copy(freqs, st.frequencies)

	return freqs
}

// Magnitudes returns the magnitude spectrum of one record and channel, one
// value per frequency support point.
func (c *ContentMS) Magnitudes(record, channel int) ([]float32, error) {
	return c.decodeBlock(record, channel)
}

// ContentPS gives access to phase spectrum records.
type ContentPS struct {
	view
}

// NumFrequencies returns the number of frequency support points, or 0 when
// the view is stale.
func (c *ContentPS) NumFrequencies() int {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return len(st.frequencies)
}

// Frequencies returns a copy of the frequency support points in Hz.
func (c *ContentPS) Frequencies() []float32 {
	st, err := c.state()
	if err != nil {
		return nil
	}

	freqs := make([]float32, len(st.frequencies))
	copy(freqs, st.frequencies)

	return freqs
}

// Phases returns the phase spectrum of one record and channel in radians,
// one value per frequency support point.
func (c *ContentPS) Phases(record, channel int) ([]float32, error) {
	return c.decodeBlock(record, channel)
}

// ContentMPS gives access to combined magnitude-phase spectrum records.
type ContentMPS struct {
	view
}

// NumFrequencies returns the number of frequency support points, or 0 when
// the view is stale.
func (c *ContentMPS) NumFrequencies() int {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return len(st.frequencies)
}

// Frequencies returns a copy of the frequency support points in Hz.
func (c *ContentMPS) Frequencies() []float32 {
	st, err := c.state()
	if err != nil {
		return nil
	}

	freqs := make([]float32, len(st.frequencies))
	copy(freqs, st.frequencies)

	return freqs
}

// MagnitudesPhases returns the magnitude and phase spectra of one record and
// channel as two fresh slices, one value each per frequency support point.
// Phases are in radians.
func (c *ContentMPS) MagnitudesPhases(record, channel int) (magnitudes, phases []float32, err error) {
	values, err := c.decodeBlock(record, channel)
	if err != nil {
		return nil, nil, err
	}

	// Stored as interleaved (magnitude, phase) pairs.
	n := len(values) / 2
	magnitudes = make([]float32, n)
	phases = make([]float32, n)

	for i := 0; i < n; i++ {
		magnitudes[i] = values[2*i]
		phases[i] = values[2*i+1]
	}

	return magnitudes, phases, nil
}

// ContentDFT gives access to discrete Fourier spectrum records.
type ContentDFT struct {
	view
}

// NumDFTCoeffs returns the number of stored complex coefficients per record
// and channel, or 0 when the view is stale.
func (c *ContentDFT) NumDFTCoeffs() int {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return st.numDFTCoeffs
}

// TransformSize returns the DFT transform length, or 0 when the view is
// stale.
func (c *ContentDFT) TransformSize() int {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return st.transformSize
}

// IsSymmetric reports whether only the non-redundant half of a
// conjugate-symmetric spectrum is stored.
func (c *ContentDFT) IsSymmetric() bool {
	st, err := c.state()
	if err != nil {
		return false
	}

	return st.symmetric
}

// Samplerate returns the sampling rate in Hz, or 0 when the view is stale.
func (c *ContentDFT) Samplerate() float64 {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return st.samplerate
}

// FrequencyBandwidth returns the width of one DFT bin in Hz: samplerate
// divided by transform size.
func (c *ContentDFT) FrequencyBandwidth() float64 {
	st, err := c.state()
	if err != nil {
		return 0
	}

	return st.samplerate / float64(st.transformSize)
}

// DFTCoeffs returns the stored coefficients of one record and channel as a
// fresh slice of interleaved (real, imaginary) pairs.
func (c *ContentDFT) DFTCoeffs(record, channel int) ([]float32, error) {
	return c.decodeBlock(record, channel)
}

// FullSpectrum returns all transform-size coefficients of one record and
// channel as interleaved (real, imaginary) pairs. For symmetric content the
// redundant upper half is reconstructed by conjugate mirroring.
func (c *ContentDFT) FullSpectrum(record, channel int) ([]float32, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}

	stored, err := c.decodeBlock(record, channel)
	if err != nil {
		return nil, err
	}

	if !st.symmetric {
		return stored, nil
	}

	full := make([]float32, 2*st.transformSize)
	copy(full, stored)

	// X[N-k] = conj(X[k]). DC and, for even sizes, the Nyquist bin are
	// stored exactly once and not mirrored.
	for k := st.numDFTCoeffs; k < st.transformSize; k++ {
		m := st.transformSize - k
		full[2*k] = stored[2*m]
		full[2*k+1] = -stored[2*m+1]
	}

	return full, nil
}
