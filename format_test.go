package daff_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/MeKo-Tech/godaff"
	"github.com/MeKo-Tech/godaff/internal/dafftest"
)

// openImage opens an in-memory container through a fresh reader.
func openImage(t *testing.T, image []byte) *daff.Reader {
	t.Helper()

	r := daff.NewReader()
	if err := r.OpenFrom(bytes.NewReader(image), int64(len(image))); err != nil {
		t.Fatalf("OpenFrom failed: %v", err)
	}

	return r
}

// openErr attempts to open an in-memory container and returns the error.
func openErr(image []byte) error {
	r := daff.NewReader()
	return r.OpenFrom(bytes.NewReader(image), int64(len(image)))
}

// TestOpenValidFile tests that a well-formed container opens and reports its
// header fields.
func TestOpenValidFile(t *testing.T) {
	file := dafftest.NewIRFile(36, 2, 64)
	file.ChannelLabels = []string{"left", "right"}

	r := openImage(t, file.Bytes())

	if !r.IsValid() {
		t.Fatal("expected reader to be valid after open")
	}

	if r.Version() != daff.CurrentVersion {
		t.Errorf("version: got %d, want %d", r.Version(), daff.CurrentVersion)
	}

	if r.ContentType() != daff.ContentTypeIR {
		t.Errorf("content type: got %v, want %v", r.ContentType(), daff.ContentTypeIR)
	}

	if r.NumChannels() != 2 {
		t.Errorf("channels: got %d, want 2", r.NumChannels())
	}

	if r.NumRecords() != 36 {
		t.Errorf("records: got %d, want 36", r.NumRecords())
	}

	if r.AlphaPoints() != 36 || r.BetaPoints() != 1 {
		t.Errorf("grid points: got %dx%d, want 36x1", r.AlphaPoints(), r.BetaPoints())
	}

	if r.AlphaResolution() != file.AlphaResolution {
		t.Errorf("alpha resolution: got %v, want %v", r.AlphaResolution(), file.AlphaResolution)
	}

	start, end := r.AlphaRange()
	if start != 0 || end != 2*math.Pi {
		t.Errorf("alpha range: got [%v, %v], want [0, 2pi]", start, end)
	}

	start, end = r.BetaRange()
	if start != 0 || end != 0 {
		t.Errorf("beta range: got [%v, %v], want [0, 0]", start, end)
	}

	label, err := r.ChannelLabel(1)
	if err != nil {
		t.Fatalf("ChannelLabel failed: %v", err)
	}

	if label != "right" {
		t.Errorf("label: got %q, want %q", label, "right")
	}
}

// TestInvalidMagic tests that a wrong magic number is rejected.
func TestInvalidMagic(t *testing.T) {
	image := dafftest.NewIRFile(2, 1, 8).Bytes()
	copy(image, "RIFF")

	if err := openErr(image); !errors.Is(err, daff.ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

// TestUnsupportedVersion tests that future format versions are rejected.
func TestUnsupportedVersion(t *testing.T) {
	file := dafftest.NewIRFile(2, 1, 8)
	file.Version = 2

	if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

// TestUnknownContentTypeCode tests that an unknown content code is rejected.
func TestUnknownContentTypeCode(t *testing.T) {
	image := dafftest.NewIRFile(2, 1, 8).Bytes()

	// Content type code sits after magic and version.
	image[6] = 0xFF
	image[7] = 0x00

	if err := openErr(image); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestUnknownQuantizationCode tests that an unknown quantization code is
// rejected.
func TestUnknownQuantizationCode(t *testing.T) {
	image := dafftest.NewIRFile(2, 1, 8).Bytes()

	// Quantization code sits after magic, version, and content type.
	image[8] = 0xFF
	image[9] = 0x00

	if err := openErr(image); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestTruncatedFile tests that cutting a container anywhere reports
// corrupted data.
func TestTruncatedFile(t *testing.T) {
	image := dafftest.NewIRFile(4, 2, 16).Bytes()

	cuts := []int{0, 3, 8, daff.FileHeaderSize, daff.FileHeaderSize + 3,
		daff.FileHeaderSize + daff.ChunkHeaderSize + 5, len(image) / 2, len(image) - 1}

	for _, cut := range cuts {
		if err := openErr(image[:cut]); !errors.Is(err, daff.ErrCorruptedData) {
			t.Errorf("cut at %d: expected ErrCorruptedData, got %v", cut, err)
		}
	}
}

// TestWrongChunkID tests that an unexpected chunk identifier is rejected.
func TestWrongChunkID(t *testing.T) {
	image := dafftest.NewIRFile(2, 1, 8).Bytes()
	copy(image[daff.FileHeaderSize:], "XXXX")

	if err := openErr(image); !errors.Is(err, daff.ErrInvalidChunk) {
		t.Errorf("expected ErrInvalidChunk, got %v", err)
	}
}

// TestChunkSizeMismatch tests that a chunk declaring more bytes than its
// body holds is rejected.
func TestChunkSizeMismatch(t *testing.T) {
	image := dafftest.NewIRFile(2, 1, 8).Bytes()

	// Bump the properties chunk size field by one.
	image[daff.FileHeaderSize+4]++

	if err := openErr(image); !errors.Is(err, daff.ErrInvalidChunk) {
		t.Errorf("expected ErrInvalidChunk, got %v", err)
	}
}

// TestTrailingBytes tests that data after the last chunk is rejected.
func TestTrailingBytes(t *testing.T) {
	image := dafftest.NewIRFile(2, 1, 8).Bytes()
	image = append(image, 0, 0, 0, 0)

	if err := openErr(image); !errors.Is(err, daff.ErrInvalidChunk) {
		t.Errorf("expected ErrInvalidChunk, got %v", err)
	}
}

// TestZeroChannels tests that a zero channel count is rejected.
func TestZeroChannels(t *testing.T) {
	file := dafftest.NewIRFile(2, 1, 8)
	file.Channels = 0
	file.ChannelLabels = nil
	file.Records = [][][]float32{{}, {}}

	if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestZeroRecords tests that a container without records is rejected.
func TestZeroRecords(t *testing.T) {
	file := dafftest.NewIRFile(1, 1, 8)
	file.Coords = nil
	file.Records = nil

	if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestGridCoordsOutOfRange tests the per-record direction bounds.
func TestGridCoordsOutOfRange(t *testing.T) {
	badCoords := [][2]float64{
		{2 * math.Pi, 0},
		{-0.1, 0},
		{0, math.Pi/2 + 0.01},
		{0, -math.Pi/2 - 0.01},
	}

	for _, coord := range badCoords {
		file := dafftest.NewIRFile(4, 1, 8)
		file.Coords[2] = coord

		if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrCorruptedData) {
			t.Errorf("coord (%v, %v): expected ErrCorruptedData, got %v", coord[0], coord[1], err)
		}
	}
}

// TestDuplicateMetadataKey tests that repeated metadata keys are rejected.
func TestDuplicateMetadataKey(t *testing.T) {
	file := dafftest.NewIRFile(2, 1, 8)
	file.Metadata = []dafftest.MetadataEntry{
		dafftest.StringEntry("Author", "ITA"),
		dafftest.StringEntry("Author", "ITA again"),
	}

	if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestUnknownMetadataTag tests that an unknown metadata value tag is
// rejected.
func TestUnknownMetadataTag(t *testing.T) {
	file := dafftest.NewIRFile(2, 1, 8)
	file.Metadata = []dafftest.MetadataEntry{{Key: "Weird", Tag: 7}}

	if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestFrequenciesMustAscend tests the frequency axis ordering requirement.
func TestFrequenciesMustAscend(t *testing.T) {
	file := dafftest.NewMSFile(2, 1, []float32{100, 1000, 1000})

	if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestDFTCoeffCountMismatch tests that the stored coefficient count must be
// the transform size or its non-redundant half.
func TestDFTCoeffCountMismatch(t *testing.T) {
	file := dafftest.NewDFTFile(2, 1, 4, 10)

	if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestNegativeSamplerate tests that non-positive samplerates are rejected.
func TestNegativeSamplerate(t *testing.T) {
	file := dafftest.NewIRFile(2, 1, 8)
	file.Samplerate = -44100

	if err := openErr(file.Bytes()); !errors.Is(err, daff.ErrCorruptedData) {
		t.Errorf("expected ErrCorruptedData, got %v", err)
	}
}

// TestDataChunkSizeMismatch tests that the payload size must match the
// record layout exactly.
func TestDataChunkSizeMismatch(t *testing.T) {
	file := dafftest.NewIRFile(2, 1, 8)
	full := file.Bytes()

	// Rebuild with one record block short.
	file.Records = [][][]float32{
		{make([]float32, 8)},
		{make([]float32, 7)},
	}

	short := file.Bytes()
	if len(short) >= len(full) {
		t.Fatal("fixture did not shrink")
	}

	if err := openErr(short); !errors.Is(err, daff.ErrInvalidChunk) {
		t.Errorf("expected ErrInvalidChunk, got %v", err)
	}
}

// TestOrientationChunkOptional tests opening files with and without an
// orientation chunk.
func TestOrientationChunkOptional(t *testing.T) {
	plain := dafftest.NewIRFile(2, 1, 8)

	r := openImage(t, plain.Bytes())
	if _, ok := r.Orientation(); ok {
		t.Error("expected no orientation in plain file")
	}

	oriented := dafftest.NewIRFile(2, 1, 8)
	oriented.HasOrientation = true
	oriented.Yaw, oriented.Pitch, oriented.Roll = 10, 20, 30

	r = openImage(t, oriented.Bytes())

	o, ok := r.Orientation()
	if !ok {
		t.Fatal("expected orientation to be present")
	}

	if o.Yaw != 10 || o.Pitch != 20 || o.Roll != 30 {
		t.Errorf("orientation: got (%v, %v, %v), want (10, 20, 30)", o.Yaw, o.Pitch, o.Roll)
	}
}
