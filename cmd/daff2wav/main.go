// Command daff2wav extracts impulse response records from a DAFF file
// into WAV files.
//
// Usage:
//
//	daff2wav [options] <input.daff> <output.wav>
//
// Options:
//
//	-record      Record index to extract (default: 0)
//	-nearest     Pick the record nearest to "alpha,beta" degrees instead
//	-channel     Channel to extract (default: all, interleaved)
//	-bits        Output bit depth: 16, 24, or 32
//	-samplerate  Output sample rate in Hz (default: keep the source rate)
//	-verbose     Show record details
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	daff "github.com/MeKo-Tech/godaff"
	"github.com/MeKo-Tech/godaff/pkg/resampler"
)

var (
	record     = flag.Int("record", 0, "Record index to extract")
	nearest    = flag.String("nearest", "", "Pick the record nearest to \"alpha,beta\" degrees instead of -record")
	channel    = flag.Int("channel", -1, "Channel to extract (-1 extracts all channels interleaved)")
	bits       = flag.Int("bits", 16, "Output bit depth (16, 24, or 32)")
	samplerate = flag.Int("samplerate", 0, "Output sample rate in Hz (0 keeps the source rate)")
	verbose    = flag.Bool("verbose", false, "Show record details")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <input.daff> <output.wav>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Extracts one impulse response record from a DAFF file as WAV.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s ./hrtf.daff ./front.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -nearest 90,0 -bits 24 ./hrtf.daff ./left.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -record 12 -samplerate 48000 ./hrtf.daff ./r12.wav\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	err := run(flag.Arg(0), flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(input, output string) error {
	r, err := daff.Open(input)
	if err != nil {
		return err
	}
	defer r.Close()

	ir, err := r.ContentIR()
	if err != nil {
		return err
	}

	index := *record

	if *nearest != "" {
		phi, theta, err := parseDirection(*nearest)
		if err != nil {
			return err
		}

		index, err = r.NearestNeighbour(phi*math.Pi/180, theta*math.Pi/180)
		if err != nil {
			return err
		}
	}

	channels, err := collectChannels(r, ir, index)
	if err != nil {
		return err
	}

	srcRate := ir.Samplerate()

	dstRate := srcRate
	if *samplerate > 0 {
		dstRate = float64(*samplerate)
	}

	if dstRate != srcRate {
		channels, err = resampler.New().ResampleAll(channels, srcRate, dstRate)
		if err != nil {
			return err
		}
	}

	if *verbose {
		alpha, beta, err := r.RecordCoords(index)
		if err == nil {
			fmt.Printf("Record %d at alpha %.2f deg, beta %.2f deg\n", index, alpha*180/math.Pi, beta*180/math.Pi)
		}

		fmt.Printf("  %d channels, %d taps at %g Hz\n", len(channels), len(channels[0]), dstRate)
	}

	if err := writeWAV(output, channels, int(dstRate), *bits); err != nil {
		return err
	}

	fmt.Printf("Wrote %s: %d channels, %d frames at %d Hz\n",
		output, len(channels), frameCount(channels), int(dstRate))

	return nil
}

// collectChannels fetches the requested channel, or all of them when
// -channel is negative.
func collectChannels(r *daff.Reader, ir *daff.ContentIR, index int) ([][]float32, error) {
	if *channel >= 0 {
		data, err := ir.FilterCoeffs(index, *channel)
		if err != nil {
			return nil, err
		}

		return [][]float32{data}, nil
	}

	channels := make([][]float32, r.NumChannels())

	for ch := range channels {
		data, err := ir.FilterCoeffs(index, ch)
		if err != nil {
			return nil, err
		}

		channels[ch] = data
	}

	return channels, nil
}

func writeWAV(path string, channels [][]float32, sampleRate, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("unsupported bit depth %d (want 16, 24, or 32)", bitDepth)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, len(channels), 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: len(channels),
			SampleRate:  sampleRate,
		},
		Data:           interleave(channels, bitDepth),
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}

	return nil
}

// interleave flattens per-channel samples into WAV frame order, scaled and
// clamped to signed integers of the requested depth.
func interleave(channels [][]float32, bitDepth int) []int {
	frames := frameCount(channels)
	fullScale := float64(audio.IntMaxSignedValue(bitDepth))

	data := make([]int, 0, frames*len(channels))

	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			var s float64
			if i < len(ch) {
				s = float64(ch[i])
			}

			if s > 1 {
				s = 1
			}

			if s < -1 {
				s = -1
			}

			data = append(data, int(math.Round(s*fullScale)))
		}
	}

	return data
}

func frameCount(channels [][]float32) int {
	frames := 0

	for _, ch := range channels {
		if len(ch) > frames {
			frames = len(ch)
		}
	}

	return frames
}

// parseDirection parses an "alpha,beta" pair of degrees.
func parseDirection(s string) (phi, theta float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("direction %q must be \"alpha,beta\" in degrees", s)
	}

	phi, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid alpha in %q: %w", s, err)
	}

	theta, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid beta in %q: %w", s, err)
	}

	return phi, theta, nil
}
