// Package dafftest builds DAFF containers in memory so reader tests can work
// against well-formed, or deliberately malformed, byte images without fixture
// files on disk.
package dafftest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/MeKo-Tech/godaff"
	"github.com/MeKo-Tech/godaff/pkg/quant"
)

// Metadata value type tags as stored on disk.
const (
	TagBool   uint8 = 0
	TagInt    uint8 = 1
	TagFloat  uint8 = 2
	TagString uint8 = 3
)

// MetadataEntry is one typed key/value pair for the metadata chunk.
type MetadataEntry struct {
	Key    string
	Tag    uint8
	Bool   bool
	Int    int64
	Float  float64
	String string
}

func BoolEntry(key string, v bool) MetadataEntry {
	return MetadataEntry{Key: key, Tag: TagBool, Bool: v}
}

func IntEntry(key string, v int64) MetadataEntry {
	return MetadataEntry{Key: key, Tag: TagInt, Int: v}
}

func FloatEntry(key string, v float64) MetadataEntry {
	return MetadataEntry{Key: key, Tag: TagFloat, Float: v}
}

func StringEntry(key, v string) MetadataEntry {
	return MetadataEntry{Key: key, Tag: TagString, String: v}
}

// File describes one container to build. Fields map one to one onto the
// header, properties, orientation, metadata, grid, and data chunks; Bytes
// serializes them without validation so tests can produce malformed images.
type File struct {
	Version      uint16 // 0 means CurrentVersion
	ContentType  daff.ContentType
	Quantization quant.Kind

	Channels    int
	AlphaPoints int
	BetaPoints  int

	AlphaResolution float64
	BetaResolution  float64
	AlphaStart      float64
	AlphaEnd        float64
	BetaStart       float64
	BetaEnd         float64

	ChannelLabels []string // missing entries become empty labels

	// Content parameters; fill the ones the content type needs.
	FilterLength  int
	Samplerate    float64
	Frequencies   []float32
	NumDFTCoeffs  int
	TransformSize int

	// Orientation angles in degrees.
	HasOrientation bool
	Yaw            float64
	Pitch          float64
	Roll           float64

	Metadata []MetadataEntry

	Coords  [][2]float64  // (alpha, beta) per record, radians
	Records [][][]float32 // [record][channel][sample]; nil synthesizes SampleValue data
}

// NewIRFile returns an impulse response container with records laid out as
// an equatorial ring.
func NewIRFile(records, channels, filterLength int) *File {
	f := &File{
		ContentType:  daff.ContentTypeIR,
		Quantization: quant.Float32,
		Channels:     channels,
		FilterLength: filterLength,
		Samplerate:   44100,
	}
	f.EquatorRing(records)

	return f
}

// NewMSFile returns a magnitude spectrum container with records laid out as
// an equatorial ring.
func NewMSFile(records, channels int, frequencies []float32) *File {
	f := &File{
		ContentType:  daff.ContentTypeMS,
		Quantization: quant.Float32,
		Channels:     channels,
		Frequencies:  frequencies,
	}
	f.EquatorRing(records)

	return f
}

// NewPSFile returns a phase spectrum container with records laid out as an
// equatorial ring.
func NewPSFile(records, channels int, frequencies []float32) *File {
	f := NewMSFile(records, channels, frequencies)
	f.ContentType = daff.ContentTypePS

	return f
}

// NewMPSFile returns a magnitude-phase spectrum container with records laid
// out as an equatorial ring.
func NewMPSFile(records, channels int, frequencies []float32) *File {
	f := NewMSFile(records, channels, frequencies)
	f.ContentType = daff.ContentTypeMPS

	return f
}

// NewDFTFile returns a DFT spectrum container with records laid out as an
// equatorial ring. Choosing coeffs == transformSize/2+1 (and not equal to
// transformSize) yields a symmetric container.
func NewDFTFile(records, channels, coeffs, transformSize int) *File {
	f := &File{
		ContentType:   daff.ContentTypeDFT,
		Quantization:  quant.Float32,
		Channels:      channels,
		NumDFTCoeffs:  coeffs,
		TransformSize: transformSize,
		Samplerate:    44100,
	}
	f.EquatorRing(records)

	return f
}

// EquatorRing lays the records out as a full ring on the equator: record k
// sits at azimuth 2*pi*k/n radians, elevation 0.
func (f *File) EquatorRing(n int) {
	f.AlphaPoints = n
	f.BetaPoints = 1
	f.AlphaResolution = 2 * math.Pi / float64(n)
	f.BetaResolution = 0
	f.AlphaStart, f.AlphaEnd = 0, 2*math.Pi
	f.BetaStart, f.BetaEnd = 0, 0

	f.Coords = make([][2]float64, n)
	for k := range f.Coords {
		f.Coords[k] = [2]float64{float64(k) * 2 * math.Pi / float64(n), 0}
	}
}

// SampleValue is the deterministic fill value for sample i of one record and
// channel. Values lie on a 1/128 lattice inside [-1, 1) so every
// quantization kind stores them exactly.
func SampleValue(record, channel, i int) float32 {
	k := (record*31+channel*17+i*3)%256 - 128
	return float32(k) / 128
}

// Bytes serializes the container.
func (f *File) Bytes() []byte {
	records := f.Records
	if records == nil {
		records = f.fillRecords()
	}

	b := &builder{}

	// File header.
	b.raw([]byte(daff.MagicNumber))

	version := f.Version
	if version == 0 {
		version = daff.CurrentVersion
	}

	b.u16(version)
	b.u16(uint16(f.ContentType))
	b.u16(uint16(f.Quantization))
	b.u32(0) // reserved

	// Properties chunk.
	prop := &builder{}
	prop.u32(uint32(f.Channels))
	prop.u32(uint32(len(f.Coords)))
	prop.u32(uint32(f.AlphaPoints))
	prop.u32(uint32(f.BetaPoints))
	prop.f64(f.AlphaResolution)
	prop.f64(f.BetaResolution)
	prop.f64(f.AlphaStart)
	prop.f64(f.AlphaEnd)
	prop.f64(f.BetaStart)
	prop.f64(f.BetaEnd)
	f.contentParams(prop)

	for i := 0; i < f.Channels; i++ {
		label := ""
		if i < len(f.ChannelLabels) {
			label = f.ChannelLabels[i]
		}

		prop.str(label)
	}

	b.chunk(daff.ChunkTypeProperties, prop.bytes())

	// Orientation chunk, optional.
	if f.HasOrientation {
		ornt := &builder{}
		ornt.f64(f.Yaw)
		ornt.f64(f.Pitch)
		ornt.f64(f.Roll)
		b.chunk(daff.ChunkTypeOrientation, ornt.bytes())
	}

	// Metadata chunk.
	meta := &builder{}
	meta.u32(uint32(len(f.Metadata)))

	for _, entry := range f.Metadata {
		meta.str(entry.Key)
		meta.u8(entry.Tag)

		switch entry.Tag {
		case TagBool:
			var v uint8
			if entry.Bool {
				v = 1
			}

			meta.u8(v)
		case TagInt:
			meta.u64(uint64(entry.Int))
		case TagFloat:
			meta.f64(entry.Float)
		case TagString:
			meta.str(entry.String)
		}
	}

	b.chunk(daff.ChunkTypeMetadata, meta.bytes())

	// Grid chunk.
	grid := &builder{}
	for _, c := range f.Coords {
		grid.f64(c[0])
		grid.f64(c[1])
	}

	b.chunk(daff.ChunkTypeGrid, grid.bytes())

	// Data chunk, record blocks in record-major order.
	data := &builder{}
	for _, record := range records {
		for _, channel := range record {
			data.raw(quant.Encode(f.Quantization, channel))
		}
	}

	b.chunk(daff.ChunkTypeData, data.bytes())

	return b.bytes()
}

// fillRecords synthesizes a payload where every (record, channel, sample)
// triple gets a distinct SampleValue.
func (f *File) fillRecords() [][][]float32 {
	n := f.valuesPerRecord()

	records := make([][][]float32, len(f.Coords))
	for r := range records {
		records[r] = make([][]float32, f.Channels)
		for c := range records[r] {
			values := make([]float32, n)
			for i := range values {
				values[i] = SampleValue(r, c, i)
			}

			records[r][c] = values
		}
	}

	return records
}

func (f *File) valuesPerRecord() int {
	switch f.ContentType {
	case daff.ContentTypeIR:
		return f.FilterLength
	case daff.ContentTypeMS, daff.ContentTypePS:
		return len(f.Frequencies)
	case daff.ContentTypeMPS:
		return 2 * len(f.Frequencies)
	case daff.ContentTypeDFT:
		return 2 * f.NumDFTCoeffs
	default:
		panic("dafftest: content type not set")
	}
}

func (f *File) contentParams(b *builder) {
	switch f.ContentType {
	case daff.ContentTypeIR:
		b.u32(uint32(f.FilterLength))
		b.f64(f.Samplerate)
	case daff.ContentTypeMS, daff.ContentTypePS, daff.ContentTypeMPS:
		b.u32(uint32(len(f.Frequencies)))
		for _, freq := range f.Frequencies {
			b.f32(freq)
		}
	case daff.ContentTypeDFT:
		b.u32(uint32(f.NumDFTCoeffs))
		b.u32(uint32(f.TransformSize))
		b.f64(f.Samplerate)
	default:
		panic("dafftest: content type not set")
	}
}

// builder accumulates little-endian fields.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) raw(p []byte) {
	b.buf.Write(p)
}

func (b *builder) u8(v uint8) {
	b.buf.WriteByte(v)
}

func (b *builder) u16(v uint16) {
	var tmp [2]byte

	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
}

func (b *builder) u32(v uint32) {
	var tmp [4]byte

	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
}

func (b *builder) u64(v uint64) {
	var tmp [8]byte

	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
}

func (b *builder) f32(v float32) {
	b.u32(math.Float32bits(v))
}

func (b *builder) f64(v float64) {
	b.u64(math.Float64bits(v))
}

// str writes a length-prefixed UTF-8 string.
func (b *builder) str(s string) {
	b.u16(uint16(len(s)))
	b.raw([]byte(s))
}

// chunk writes a chunk header followed by the body.
func (b *builder) chunk(id string, body []byte) {
	b.raw([]byte(id))
	b.u64(uint64(len(body)))
	b.raw(body)
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}
