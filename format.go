package daff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/MeKo-Tech/godaff/pkg/quant"
	"github.com/MeKo-Tech/godaff/pkg/sphere"
)

// fileState holds everything parsed from one open container plus the byte
// source for lazy record reads. It is immutable after parseFile returns, so
// concurrent readers may share it.
type fileState struct {
	src  io.ReaderAt
	size int64

	closer io.Closer // set when the Reader owns the source
	name   string    // file path when opened by name

	version      uint16
	contentType  ContentType
	quantization quant.Kind

	channelCount int
	recordCount  int
	alphaPoints  int
	betaPoints   int

	alphaResolution float64
	betaResolution  float64
	alphaStart      float64
	alphaEnd        float64
	betaStart       float64
	betaEnd         float64

	channelLabels []string

	// Content parameters; which are meaningful depends on contentType.
	filterLength  int       // IR: samples per record and channel
	samplerate    float64   // IR, DFT: sampling rate in Hz
	frequencies   []float32 // MS, PS, MPS: frequency support points in Hz
	numDFTCoeffs  int       // DFT: stored complex coefficients
	transformSize int       // DFT: transform length
	symmetric     bool      // DFT: only the non-redundant half is stored

	orientation    sphere.Orientation
	hasOrientation bool

	metadata *metadataTable
	grid     *grid

	dataOffset int64 // absolute offset of the first record block
	blockSize  int   // bytes per (record, channel) block
}

// valuesPerBlock returns the number of samples in one (record, channel)
// block.
func (st *fileState) valuesPerBlock() int {
	switch st.contentType {
	case ContentTypeIR:
		return st.filterLength
	case ContentTypeMS, ContentTypePS:
		return len(st.frequencies)
	case ContentTypeMPS:
		return 2 * len(st.frequencies) // interleaved (magnitude, phase)
	case ContentTypeDFT:
		return 2 * st.numDFTCoeffs // interleaved (real, imaginary)
	default:
		panic("daff: invalid content type")
	}
}

// readBlock fetches the raw bytes of one (record, channel) block.
func (st *fileState) readBlock(record, channel int) ([]byte, error) {
	if record < 0 || record >= st.recordCount {
		return nil, fmt.Errorf("%w: record %d of %d", ErrIndexOutOfRange, record, st.recordCount)
	}

	if channel < 0 || channel >= st.channelCount {
		return nil, fmt.Errorf("%w: channel %d of %d", ErrIndexOutOfRange, channel, st.channelCount)
	}

	block := int64(record)*int64(st.channelCount) + int64(channel)
	buf := make([]byte, st.blockSize)

	if _, err := st.src.ReadAt(buf, st.dataOffset+block*int64(st.blockSize)); err != nil {
		return nil, wrapReadErr(err)
	}

	return buf, nil
}

// wrapReadErr classifies a failed source read: running out of bytes means the
// container is truncated, anything else is an I/O failure.
func wrapReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}

	return fmt.Errorf("%w: %w", ErrRead, err)
}

// parser decodes the front matter of a container: file header, properties,
// orientation, metadata, grid, and the location of the data chunk. Record
// payloads are read lazily afterwards via fileState.readBlock.
type parser struct {
	r *io.SectionReader
}

// parseFile reads and validates a complete container from src. The returned
// state keeps src for lazy record access but does not own it.
func parseFile(src io.ReaderAt, size int64) (*fileState, error) {
	p := &parser{r: io.NewSectionReader(src, 0, size)}
	st := &fileState{src: src, size: size}

	if err := p.readFileHeader(st); err != nil {
		return nil, err
	}

	if err := p.readProperties(st); err != nil {
		return nil, err
	}

	// The orientation chunk is optional; when it is absent the metadata
	// chunk follows the properties directly.
	id, err := p.readChunkID()
	if err != nil {
		return nil, err
	}

	if id == ChunkTypeOrientation {
		if err := p.readOrientationBody(st); err != nil {
			return nil, err
		}

		if id, err = p.readChunkID(); err != nil {
			return nil, err
		}
	}

	if id != ChunkTypeMetadata {
		return nil, fmt.Errorf("%w: expected %q chunk, got %q", ErrInvalidChunk, ChunkTypeMetadata, id)
	}

	if err := p.readMetadataBody(st); err != nil {
		return nil, err
	}

	if err := p.readGrid(st); err != nil {
		return nil, err
	}

	if err := p.locateData(st); err != nil {
		return nil, err
	}

	return st, nil
}

// readFileHeader reads and validates the fixed-size file header.
func (p *parser) readFileHeader(st *fileState) error {
	// Magic number.
	magic := make([]byte, 4)
	if _, err := io.ReadFull(p.r, magic); err != nil {
		return wrapReadErr(err)
	}

	if string(magic) != MagicNumber {
		return ErrInvalidMagic
	}

	// Version.
	version, err := p.readUint16()
	if err != nil {
		return err
	}

	if version != CurrentVersion {
		return fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, version, CurrentVersion)
	}

	st.version = version

	// Content type code.
	content, err := p.readUint16()
	if err != nil {
		return err
	}

	st.contentType = ContentType(content)
	if !st.contentType.Valid() {
		return fmt.Errorf("%w: unknown content type code %d", ErrCorruptedData, content)
	}

	// Quantization code.
	q, err := p.readUint16()
	if err != nil {
		return err
	}

	st.quantization = quant.Kind(q)
	if !st.quantization.Valid() {
		return fmt.Errorf("%w: unknown quantization code %d", ErrCorruptedData, q)
	}

	// Reserved field, ignored.
	if _, err := p.readUint32(); err != nil {
		return err
	}

	return nil
}

// readProperties reads the properties chunk: channel and record counts, grid
// layout, angular ranges, content parameters, and channel labels.
func (p *parser) readProperties(st *fileState) error {
	size, err := p.expectChunk(ChunkTypeProperties)
	if err != nil {
		return err
	}

	start := p.pos()

	// Channel and record counts.
	channels, err := p.readUint32()
	if err != nil {
		return err
	}

	if channels == 0 {
		return fmt.Errorf("%w: channel count must be at least 1", ErrCorruptedData)
	}

	st.channelCount = int(channels)

	records, err := p.readUint32()
	if err != nil {
		return err
	}

	if records == 0 {
		return fmt.Errorf("%w: record count must be at least 1", ErrCorruptedData)
	}

	st.recordCount = int(records)

	// Grid layout.
	alphaPoints, err := p.readUint32()
	if err != nil {
		return err
	}

	betaPoints, err := p.readUint32()
	if err != nil {
		return err
	}

	st.alphaPoints = int(alphaPoints)
	st.betaPoints = int(betaPoints)

	// Angular resolutions and ranges, in radians.
	if st.alphaResolution, err = p.readFloat64(); err != nil {
		return err
	}

	if st.betaResolution, err = p.readFloat64(); err != nil {
		return err
	}

	if st.alphaStart, err = p.readFloat64(); err != nil {
		return err
	}

	if st.alphaEnd, err = p.readFloat64(); err != nil {
		return err
	}

	if st.betaStart, err = p.readFloat64(); err != nil {
		return err
	}

	if st.betaEnd, err = p.readFloat64(); err != nil {
		return err
	}

	if err := st.validateRanges(); err != nil {
		return err
	}

	// Content parameters.
	if err := p.readContentParams(st); err != nil {
		return err
	}

	// Channel labels, one length-prefixed string per channel.
	if int64(st.channelCount)*2 > p.remaining() {
		return fmt.Errorf("%w: channel count %d exceeds remaining data", ErrCorruptedData, st.channelCount)
	}

	st.channelLabels = make([]string, st.channelCount)
	for i := range st.channelLabels {
		label, err := p.readString()
		if err != nil {
			return err
		}

		st.channelLabels[i] = label
	}

	if consumed := uint64(p.pos() - start); consumed != size {
		return fmt.Errorf("%w: properties chunk declares %d bytes, holds %d", ErrInvalidChunk, size, consumed)
	}

	st.blockSize = st.valuesPerBlock() * st.quantization.SampleSize()
	if int64(st.blockSize) > st.size {
		return fmt.Errorf("%w: record block size %d exceeds file size", ErrCorruptedData, st.blockSize)
	}

	return nil
}

// validateRanges checks the angular bounds of the properties chunk. Alpha is
// azimuth in [0, 2pi], beta elevation in [-pi/2, +pi/2], start at or below
// end.
func (st *fileState) validateRanges() error {
	if !withinRange(st.alphaResolution, 0, 2*math.Pi) || !withinRange(st.betaResolution, 0, math.Pi) {
		return fmt.Errorf("%w: invalid angular resolution %g x %g", ErrCorruptedData, st.alphaResolution, st.betaResolution)
	}

	if !withinRange(st.alphaStart, 0, 2*math.Pi) || !withinRange(st.alphaEnd, 0, 2*math.Pi) || st.alphaStart > st.alphaEnd {
		return fmt.Errorf("%w: invalid alpha range [%g, %g]", ErrCorruptedData, st.alphaStart, st.alphaEnd)
	}

	if !withinRange(st.betaStart, -math.Pi/2, math.Pi/2) || !withinRange(st.betaEnd, -math.Pi/2, math.Pi/2) || st.betaStart > st.betaEnd {
		return fmt.Errorf("%w: invalid beta range [%g, %g]", ErrCorruptedData, st.betaStart, st.betaEnd)
	}

	return nil
}

// readContentParams reads the content-type specific parameter block of the
// properties chunk.
func (p *parser) readContentParams(st *fileState) error {
	switch st.contentType {
	case ContentTypeIR:
		return p.readIRParams(st)
	case ContentTypeMS, ContentTypePS, ContentTypeMPS:
		return p.readSpectrumParams(st)
	case ContentTypeDFT:
		return p.readDFTParams(st)
	default:
		panic("daff: invalid content type")
	}
}

// readIRParams reads filter length and samplerate.
func (p *parser) readIRParams(st *fileState) error {
	length, err := p.readUint32()
	if err != nil {
		return err
	}

	if length == 0 {
		return fmt.Errorf("%w: filter length must be at least 1", ErrCorruptedData)
	}

	st.filterLength = int(length)

	if st.samplerate, err = p.readFloat64(); err != nil {
		return err
	}

	if st.samplerate <= 0 || !finite(st.samplerate) {
		return fmt.Errorf("%w: samplerate %g must be positive", ErrCorruptedData, st.samplerate)
	}

	return nil
}

// readSpectrumParams reads the frequency axis shared by the MS, PS, and MPS
// content types.
func (p *parser) readSpectrumParams(st *fileState) error {
	count, err := p.readUint32()
	if err != nil {
		return err
	}

	if count == 0 {
		return fmt.Errorf("%w: frequency count must be at least 1", ErrCorruptedData)
	}

	if int64(count)*4 > p.remaining() {
		return fmt.Errorf("%w: frequency count %d exceeds remaining data", ErrCorruptedData, count)
	}

	// Support points in Hz, strictly ascending.
	st.frequencies = make([]float32, count)
	for i := range st.frequencies {
		f, err := p.readFloat32()
		if err != nil {
			return err
		}

		if f < 0 || !finite(float64(f)) {
			return fmt.Errorf("%w: invalid frequency support point %g", ErrCorruptedData, f)
		}

		if i > 0 && f <= st.frequencies[i-1] {
			return fmt.Errorf("%w: frequency support points must be strictly ascending", ErrCorruptedData)
		}

		st.frequencies[i] = f
	}

	return nil
}

// readDFTParams reads coefficient count, transform size, and samplerate.
func (p *parser) readDFTParams(st *fileState) error {
	coeffs, err := p.readUint32()
	if err != nil {
		return err
	}

	transform, err := p.readUint32()
	if err != nil {
		return err
	}

	if coeffs == 0 || transform == 0 {
		return fmt.Errorf("%w: DFT sizes must be at least 1", ErrCorruptedData)
	}

	st.numDFTCoeffs = int(coeffs)
	st.transformSize = int(transform)

	// Either the full spectrum is stored, or just the non-redundant half of
	// a conjugate-symmetric one.
	switch st.numDFTCoeffs {
	case st.transformSize:
	case st.transformSize/2 + 1:
		st.symmetric = true
	default:
		return fmt.Errorf("%w: %d DFT coefficients do not match transform size %d", ErrCorruptedData, coeffs, transform)
	}

	if st.samplerate, err = p.readFloat64(); err != nil {
		return err
	}

	if st.samplerate <= 0 || !finite(st.samplerate) {
		return fmt.Errorf("%w: samplerate %g must be positive", ErrCorruptedData, st.samplerate)
	}

	return nil
}

// readOrientationBody reads the orientation chunk after its ID has been
// consumed: yaw, pitch, roll in degrees.
func (p *parser) readOrientationBody(st *fileState) error {
	size, err := p.chunkSize()
	if err != nil {
		return err
	}

	if size != 24 {
		return fmt.Errorf("%w: orientation chunk declares %d bytes, expected 24", ErrInvalidChunk, size)
	}

	if st.orientation.Yaw, err = p.readFloat64(); err != nil {
		return err
	}

	if st.orientation.Pitch, err = p.readFloat64(); err != nil {
		return err
	}

	if st.orientation.Roll, err = p.readFloat64(); err != nil {
		return err
	}

	if !finite(st.orientation.Yaw) || !finite(st.orientation.Pitch) || !finite(st.orientation.Roll) {
		return fmt.Errorf("%w: orientation angles must be finite", ErrCorruptedData)
	}

	st.hasOrientation = true

	return nil
}

// readMetadataBody reads the metadata chunk after its ID has been consumed.
func (p *parser) readMetadataBody(st *fileState) error {
	size, err := p.chunkSize()
	if err != nil {
		return err
	}

	start := p.pos()

	count, err := p.readUint32()
	if err != nil {
		return err
	}

	// The smallest possible entry (empty key, boolean value) is 4 bytes.
	if int64(count)*4 > p.remaining() {
		return fmt.Errorf("%w: metadata entry count %d exceeds remaining data", ErrCorruptedData, count)
	}

	st.metadata = newMetadataTable()

	for i := uint32(0); i < count; i++ {
		if err := p.readMetadataEntry(st.metadata); err != nil {
			return err
		}
	}

	if consumed := uint64(p.pos() - start); consumed != size {
		return fmt.Errorf("%w: metadata chunk declares %d bytes, holds %d", ErrInvalidChunk, size, consumed)
	}

	return nil
}

// readMetadataEntry reads one key plus its typed value.
func (p *parser) readMetadataEntry(table *metadataTable) error {
	key, err := p.readString()
	if err != nil {
		return err
	}

	tag, err := p.readUint8()
	if err != nil {
		return err
	}

	var value metadataValue

	switch tag {
	case metadataTagBool:
		b, err := p.readUint8()
		if err != nil {
			return err
		}

		value = metadataValue{kind: metadataBool, b: b != 0}
	case metadataTagInt:
		i, err := p.readInt64()
		if err != nil {
			return err
		}

		value = metadataValue{kind: metadataInt, i: i}
	case metadataTagFloat:
		f, err := p.readFloat64()
		if err != nil {
			return err
		}

		value = metadataValue{kind: metadataFloat, f: f}
	case metadataTagString:
		s, err := p.readString()
		if err != nil {
			return err
		}

		value = metadataValue{kind: metadataString, s: s}
	default:
		return fmt.Errorf("%w: unknown metadata value tag %d for key %q", ErrCorruptedData, tag, key)
	}

	return table.add(key, value)
}

// readGrid reads the grid chunk holding one (alpha, beta) direction per
// record, in radians.
func (p *parser) readGrid(st *fileState) error {
	size, err := p.expectChunk(ChunkTypeGrid)
	if err != nil {
		return err
	}

	if want := uint64(st.recordCount) * 16; size != want {
		return fmt.Errorf("%w: grid chunk declares %d bytes, expected %d", ErrInvalidChunk, size, want)
	}

	coords := make([]gridCoord, st.recordCount)
	for i := range coords {
		alpha, err := p.readFloat64()
		if err != nil {
			return err
		}

		beta, err := p.readFloat64()
		if err != nil {
			return err
		}

		if !(alpha >= 0 && alpha < 2*math.Pi) {
			return fmt.Errorf("%w: record %d alpha %g out of [0, 2pi)", ErrCorruptedData, i, alpha)
		}

		if !withinRange(beta, -math.Pi/2, math.Pi/2) {
			return fmt.Errorf("%w: record %d beta %g out of [-pi/2, pi/2]", ErrCorruptedData, i, beta)
		}

		coords[i] = gridCoord{alpha: alpha, beta: beta}
	}

	st.grid = newGrid(coords, st.orientation)

	return nil
}

// locateData consumes the data chunk header, validates the payload size, and
// records where record blocks start. Block bytes are not read here.
func (p *parser) locateData(st *fileState) error {
	size, err := p.expectChunk(ChunkTypeData)
	if err != nil {
		return err
	}

	need := int64(st.recordCount) * int64(st.channelCount) * int64(st.blockSize)
	if size != uint64(need) {
		return fmt.Errorf("%w: data chunk declares %d bytes, expected %d", ErrInvalidChunk, size, need)
	}

	st.dataOffset = p.pos()

	if st.dataOffset+need != st.size {
		return fmt.Errorf("%w: %d trailing bytes after data chunk", ErrInvalidChunk, st.size-st.dataOffset-need)
	}

	return nil
}

// pos returns the current offset from the start of the source.
func (p *parser) pos() int64 {
	off, _ := p.r.Seek(0, io.SeekCurrent)
	return off
}

// remaining returns how many bytes are left in the source.
func (p *parser) remaining() int64 {
	return p.r.Size() - p.pos()
}

// readChunkID reads a four-byte chunk identifier.
func (p *parser) readChunkID() (string, error) {
	id := make([]byte, 4)
	if _, err := io.ReadFull(p.r, id); err != nil {
		return "", wrapReadErr(err)
	}

	return string(id), nil
}

// chunkSize reads a chunk size field and checks it fits the remaining bytes.
func (p *parser) chunkSize() (uint64, error) {
	size, err := p.readUint64()
	if err != nil {
		return 0, err
	}

	if remaining := p.remaining(); size > uint64(remaining) {
		return 0, fmt.Errorf("%w: chunk size %d exceeds remaining %d bytes", ErrCorruptedData, size, remaining)
	}

	return size, nil
}

// expectChunk consumes a chunk header and checks the chunk type.
func (p *parser) expectChunk(id string) (uint64, error) {
	got, err := p.readChunkID()
	if err != nil {
		return 0, err
	}

	if got != id {
		return 0, fmt.Errorf("%w: expected %q chunk, got %q", ErrInvalidChunk, id, got)
	}

	return p.chunkSize()
}

func (p *parser) readUint8() (uint8, error) {
	var v uint8
	if err := binary.Read(p.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapReadErr(err)
	}

	return v, nil
}

func (p *parser) readUint16() (uint16, error) {
	var v uint16
	if err := binary.Read(p.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapReadErr(err)
	}

	return v, nil
}

func (p *parser) readUint32() (uint32, error) {
	var v uint32
	if err := binary.Read(p.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapReadErr(err)
	}

	return v, nil
}

func (p *parser) readUint64() (uint64, error) {
	var v uint64
	if err := binary.Read(p.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapReadErr(err)
	}

	return v, nil
}

func (p *parser) readInt64() (int64, error) {
	var v int64
	if err := binary.Read(p.r, binary.LittleEndian, &v); err != nil {
		return 0, wrapReadErr(err)
	}

	return v, nil
}

// readFloat32 reads a little-endian IEEE 754 single-precision value.
func (p *parser) readFloat32() (float32, error) {
	bits, err := p.readUint32()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(bits), nil
}

// readFloat64 reads a little-endian IEEE 754 double-precision value.
func (p *parser) readFloat64() (float64, error) {
	bits, err := p.readUint64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(bits), nil
}

// readString reads a length-prefixed UTF-8 string.
func (p *parser) readString() (string, error) {
	length, err := p.readUint16()
	if err != nil {
		return "", err
	}

	if length == 0 {
		return "", nil
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(p.r, data); err != nil {
		return "", wrapReadErr(err)
	}

	return string(data), nil
}

// withinRange reports lo <= v <= hi. NaN fails.
func withinRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
