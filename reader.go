package daff

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/MeKo-Tech/godaff/pkg/quant"
	"github.com/MeKo-Tech/godaff/pkg/sphere"
)

// Reader reads DAFF files. A Reader starts out closed; Open or OpenFrom
// attaches a container and Close detaches it. Opening over an already-open
// file closes that file first, and content views handed out before then keep
// reporting ErrNotOpen instead of serving data from the wrong file.
//
// Reads through an open Reader and its views are safe for concurrent use.
// Open and Close must not run concurrently with other calls.
type Reader struct {
	state *fileState
	gen   uint64 // bumped on every open and close, stales outstanding views
}

// NewReader returns a closed Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Open is shorthand for NewReader followed by (*Reader).Open.
func Open(name string) (*Reader, error) {
	r := NewReader()
	if err := r.Open(name); err != nil {
		return nil, err
	}

	return r, nil
}

// Open opens the DAFF file at name. An already-open file is closed first,
// even if opening the new one fails.
func (r *Reader) Open(name string) error {
	_ = r.Close()

	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRead, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", ErrRead, err)
	}

	st, err := parseFile(f, info.Size())
	if err != nil {
		f.Close()
		return err
	}

	st.closer = f
	st.name = name
	r.state = st
	r.gen++

	return nil
}

// OpenFrom opens a container from any random-access byte source, such as a
// bytes.Reader or a memory-mapped region. An already-open file is closed
// first. The caller keeps ownership of src and must keep it readable while
// the file is open.
func (r *Reader) OpenFrom(src io.ReaderAt, size int64) error {
	_ = r.Close()

	st, err := parseFile(src, size)
	if err != nil {
		return err
	}

	r.state = st
	r.gen++

	return nil
}

// Close releases the open file. Closing a closed Reader is a no-op.
func (r *Reader) Close() error {
	if r.state == nil {
		return nil
	}

	st := r.state
	r.state = nil
	r.gen++

	if st.closer != nil {
		if err := st.closer.Close(); err != nil {
			return fmt.Errorf("%w: %w", ErrRead, err)
		}
	}

	return nil
}

// IsValid reports whether a file is currently open.
func (r *Reader) IsValid() bool {
	return r.state != nil
}

// Filename returns the path of the open file, or "" when the Reader is
// closed or was opened from a byte source.
func (r *Reader) Filename() string {
	if r.state == nil {
		return ""
	}

	return r.state.name
}

// Version returns the format version of the open file, or 0 when closed.
func (r *Reader) Version() uint16 {
	if r.state == nil {
		return 0
	}

	return r.state.version
}

// ContentType returns the content type of the open file, or 0 when closed.
func (r *Reader) ContentType() ContentType {
	if r.state == nil {
		return 0
	}

	return r.state.contentType
}

// Quantization returns the sample quantization of the open file, or 0 when
// closed.
func (r *Reader) Quantization() quant.Kind {
	if r.state == nil {
		return 0
	}

	return r.state.quantization
}

// NumChannels returns the number of channels per record, or 0 when closed.
func (r *Reader) NumChannels() int {
	if r.state == nil {
		return 0
	}

	return r.state.channelCount
}

// NumRecords returns the number of records, or 0 when closed.
func (r *Reader) NumRecords() int {
	if r.state == nil {
		return 0
	}

	return r.state.recordCount
}

// AlphaPoints returns the number of grid points along azimuth, or 0 when
// closed or when the grid is irregular.
func (r *Reader) AlphaPoints() int {
	if r.state == nil {
		return 0
	}

	return r.state.alphaPoints
}

// BetaPoints returns the number of grid points along elevation, or 0 when
// closed or when the grid is irregular.
func (r *Reader) BetaPoints() int {
	if r.state == nil {
		return 0
	}

	return r.state.betaPoints
}

// AlphaResolution returns the azimuthal grid step in radians, or 0 when
// closed or when the grid is irregular.
func (r *Reader) AlphaResolution() float64 {
	if r.state == nil {
		return 0
	}

	return r.state.alphaResolution
}

// BetaResolution returns the elevational grid step in radians, or 0 when
// closed or when the grid is irregular.
func (r *Reader) BetaResolution() float64 {
	if r.state == nil {
		return 0
	}

	return r.state.betaResolution
}

// AlphaRange returns the covered azimuth span in radians.
func (r *Reader) AlphaRange() (start, end float64) {
	if r.state == nil {
		return 0, 0
	}

	return r.state.alphaStart, r.state.alphaEnd
}

// BetaRange returns the covered elevation span in radians.
func (r *Reader) BetaRange() (start, end float64) {
	if r.state == nil {
		return 0, 0
	}

	return r.state.betaStart, r.state.betaEnd
}

// CoversFullSphere reports whether the angular ranges span the whole sphere.
func (r *Reader) CoversFullSphere() bool {
	if r.state == nil {
		return false
	}

	st := r.state

	return st.alphaStart == 0 && st.alphaEnd == 2*math.Pi && st.betaStart == -math.Pi/2 && st.betaEnd == math.Pi/2
}

// ChannelLabel returns the label of a channel, which may be empty.
func (r *Reader) ChannelLabel(channel int) (string, error) {
	if r.state == nil {
		return "", ErrNotOpen
	}

	if channel < 0 || channel >= r.state.channelCount {
		return "", fmt.Errorf("%w: channel %d of %d", ErrIndexOutOfRange, channel, r.state.channelCount)
	}

	return r.state.channelLabels[channel], nil
}

// Orientation returns the orientation stored in the file and whether one is
// present. Files without one are queried with the identity orientation.
func (r *Reader) Orientation() (sphere.Orientation, bool) {
	if r.state == nil {
		return sphere.Orientation{}, false
	}

	return r.state.orientation, r.state.hasOrientation
}

// MetadataKeys returns the metadata keys in file order.
func (r *Reader) MetadataKeys() []string {
	if r.state == nil {
		return nil
	}

	keys := make([]string, len(r.state.metadata.keys))
	copy(keys, r.state.metadata.keys)

	return keys
}

// HasMetadata reports whether the open file has a metadata entry for key.
func (r *Reader) HasMetadata(key string) bool {
	if r.state == nil {
		return false
	}

	return r.state.metadata.has(key)
}

// MetadataBool returns the boolean metadata value stored under key.
func (r *Reader) MetadataBool(key string) (bool, error) {
	if r.state == nil {
		return false, ErrNotOpen
	}

	return r.state.metadata.boolValue(key)
}

// MetadataInt returns the integer metadata value stored under key.
func (r *Reader) MetadataInt(key string) (int64, error) {
	if r.state == nil {
		return 0, ErrNotOpen
	}

	return r.state.metadata.intValue(key)
}

// MetadataFloat returns the float metadata value stored under key.
func (r *Reader) MetadataFloat(key string) (float64, error) {
	if r.state == nil {
		return 0, ErrNotOpen
	}

	return r.state.metadata.floatValue(key)
}

// MetadataString returns the string metadata value stored under key.
func (r *Reader) MetadataString(key string) (string, error) {
	if r.state == nil {
		return "", ErrNotOpen
	}

	return r.state.metadata.stringValue(key)
}

// NearestNeighbour returns the index of the record whose direction is
// closest to the query direction: azimuth phi and elevation theta in
// radians, in the frame the file orientation maps from.
func (r *Reader) NearestNeighbour(phi, theta float64) (int, error) {
	if r.state == nil {
		return 0, ErrNotOpen
	}

	return r.state.grid.nearestNeighbour(phi, theta), nil
}

// RecordCoords returns the stored direction of a record in radians.
func (r *Reader) RecordCoords(index int) (alpha, beta float64, err error) {
	if r.state == nil {
		return 0, 0, ErrNotOpen
	}

	return r.state.grid.recordCoords(index)
}

// stateAt returns the open state if gen still matches, ErrNotOpen otherwise.
func (r *Reader) stateAt(gen uint64) (*fileState, error) {
	if r.state == nil || r.gen != gen {
		return nil, ErrNotOpen
	}

	return r.state, nil
}

// contentView builds a view handle for the current generation after checking
// that the open file holds content of the wanted type.
func (r *Reader) contentView(want ContentType) (view, error) {
	if r.state == nil {
		return view{}, ErrNotOpen
	}

	if r.state.contentType != want {
		return view{}, fmt.Errorf("%w: file holds %s content, not %s", ErrContentTypeMismatch, r.state.contentType, want)
	}

	return view{r: r, gen: r.gen}, nil
}

// ContentIR returns the impulse response view of the open file.
func (r *Reader) ContentIR() (*ContentIR, error) {
	v, err := r.contentView(ContentTypeIR)
	if err != nil {
		return nil, err
	}

	return &ContentIR{v}, nil
}

// ContentMS returns the magnitude spectrum view of the open file.
func (r *Reader) ContentMS() (*ContentMS, error) {
	v, err := r.contentView(ContentTypeMS)
	if err != nil {
		return nil, err
	}

	return &ContentMS{v}, nil
}

// ContentPS returns the phase spectrum view of the open file.
func (r *Reader) ContentPS() (*ContentPS, error) {
	v, err := r.contentView(ContentTypePS)
	if err != nil {
		return nil, err
	}

	return &ContentPS{v}, nil
}

// ContentMPS returns the magnitude-phase spectrum view of the open file.
func (r *Reader) ContentMPS() (*ContentMPS, error) {
	v, err := r.contentView(ContentTypeMPS)
	if err != nil {
		return nil, err
	}

	return &ContentMPS{v}, nil
}

// ContentDFT returns the DFT spectrum view of the open file.
func (r *Reader) ContentDFT() (*ContentDFT, error) {
	v, err := r.contentView(ContentTypeDFT)
	if err != nil {
		return nil, err
	}

	return &ContentDFT{v}, nil
}
