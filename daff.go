// Package daff provides reading of directional audio file format (DAFF)
// containers.
//
// DAFF is a chunk-based binary container for directional audio content such
// as loudspeaker and musical instrument directivities, microphone patterns,
// and head-related transfer functions (HRTFs/HRIRs). One file stores a set of
// records, one per direction on a spherical sampling grid, each holding an
// impulse response or a spectrum for every channel.
//
// A Reader parses the header, metadata, and grid eagerly, so opening a file
// is cheap regardless of payload size; record data is fetched and decoded
// lazily on access through typed content views (ContentIR, ContentMS, ...).
// Directions are resolved to records with a great-circle nearest-neighbour
// lookup that honours the orientation stored in the file.
package daff

import (
	"errors"
	"fmt"
)

// Format constants.
const (
	// MagicNumber identifies a DAFF file.
	MagicNumber = "DAFF"

	// CurrentVersion is the format version implemented by this package.
	CurrentVersion uint16 = 1

	// Chunk type identifiers.
	ChunkTypeProperties  = "PROP"
	ChunkTypeOrientation = "ORNT"
	ChunkTypeMetadata    = "META"
	ChunkTypeGrid        = "GRID"
	ChunkTypeData        = "DATA"
)

// Header sizes in bytes.
const (
	FileHeaderSize  = 14 // Magic(4) + Version(2) + ContentType(2) + Quantization(2) + Reserved(4)
	ChunkHeaderSize = 12 // ChunkID(4) + ChunkSize(8)
)

// Errors.
var (
	ErrInvalidMagic        = errors.New("daff: invalid magic number")
	ErrUnsupportedVersion  = errors.New("daff: unsupported format version")
	ErrInvalidChunk        = errors.New("daff: invalid chunk")
	ErrCorruptedData       = errors.New("daff: corrupted data")
	ErrNotOpen             = errors.New("daff: no file open")
	ErrContentTypeMismatch = errors.New("daff: content type mismatch")
	ErrIndexOutOfRange     = errors.New("daff: index out of range")
	ErrMetadataNotFound    = errors.New("daff: metadata key not found")
	ErrRead                = errors.New("daff: read failed")
)

// ContentType identifies the kind of acoustic data stored in a file.
// The constant values are the on-disk content type codes.
type ContentType int

const (
	ContentTypeIR  ContentType = 1 // impulse responses (time domain)
	ContentTypeMS  ContentType = 2 // magnitude spectra
	ContentTypePS  ContentType = 3 // phase spectra
	ContentTypeMPS ContentType = 4 // magnitude-phase spectra
	ContentTypeDFT ContentType = 5 // discrete Fourier transform coefficients
)

// Valid reports whether c is a known content type code.
func (c ContentType) Valid() bool {
	return c >= ContentTypeIR && c <= ContentTypeDFT
}

// String returns a human-readable name for the content type.
func (c ContentType) String() string {
	switch c {
	case ContentTypeIR:
		return "ImpulseResponse"
	case ContentTypeMS:
		return "MagnitudeSpectrum"
	case ContentTypePS:
		return "PhaseSpectrum"
	case ContentTypeMPS:
		return "MagnitudePhaseSpectrum"
	case ContentTypeDFT:
		return "DFT"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}
