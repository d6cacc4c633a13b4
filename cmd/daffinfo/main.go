// Command daffinfo inspects a DAFF file and prints its properties,
// grid layout, and metadata.
//
// Usage:
//
//	daffinfo [flags] <file>
//
// Flags:
//
//	--records        List every record with its direction
//	--nearest=A,B    Report the record nearest to a query direction
//	--version        Show version information
package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	daff "github.com/MeKo-Tech/godaff"
	"github.com/MeKo-Tech/godaff/internal/cli"
	"github.com/MeKo-Tech/godaff/pkg/sphere"
)

// version is set via ldflags at build time.
var version = "dev"

var CLI struct {
	File    string `arg:"" name:"file" help:"DAFF file to inspect" optional:""`
	Records bool   `help:"List every record with its direction"`
	Nearest string `help:"Report the record nearest to \"alpha,beta\" in degrees" placeholder:"A,B"`
	Version bool   `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("daffinfo"),
		kong.Description("Inspect DAFF directional audio files."),
		kong.UsageOnError(),
	)

	if CLI.Version {
		cli.PrintTitle("daffinfo")
		cli.PrintInfo("Version", version)
		os.Exit(0)
	}

	if CLI.File == "" {
		cli.PrintError("<file> is required")
		os.Exit(1)
	}

	if err := run(CLI.File); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(path string) error {
	r, err := daff.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if CLI.Nearest != "" {
		return reportNearest(r, CLI.Nearest)
	}

	if CLI.Records {
		listRecords(r)
		return nil
	}

	cli.PrintSection("File")
	cli.PrintInfo("Path", path)
	cli.PrintInfo("Size", cli.FormatBytes(info.Size()))
	cli.PrintInfo("Format version", strconv.Itoa(int(r.Version())))
	cli.PrintInfo("Content type", r.ContentType().String())
	cli.PrintInfo("Quantization", r.Quantization().String())

	cli.PrintSection("Layout")
	cli.PrintInfo("Records", strconv.Itoa(r.NumRecords()))
	cli.PrintInfo("Channels", channelSummary(r))
	printContentParams(r)

	cli.PrintSection("Grid")
	alphaStart, alphaEnd := r.AlphaRange()
	betaStart, betaEnd := r.BetaRange()
	cli.PrintInfo("Alpha", fmt.Sprintf("%d points, %.4g deg resolution, [%.4g, %.4g] deg",
		r.AlphaPoints(), degrees(r.AlphaResolution()), degrees(alphaStart), degrees(alphaEnd)))
	cli.PrintInfo("Beta", fmt.Sprintf("%d points, %.4g deg resolution, [%.4g, %.4g] deg",
		r.BetaPoints(), degrees(r.BetaResolution()), degrees(betaStart), degrees(betaEnd)))
	cli.PrintInfo("Full sphere", strconv.FormatBool(r.CoversFullSphere()))

	if o, ok := r.Orientation(); ok {
		cli.PrintInfo("Orientation", fmt.Sprintf("yaw %g deg, pitch %g deg, roll %g deg",
			o.Yaw, o.Pitch, o.Roll))
	} else {
		cli.PrintInfo("Orientation", "none")
	}

	if keys := r.MetadataKeys(); len(keys) > 0 {
		cli.PrintSection("Metadata")
		for _, key := range keys {
			cli.PrintInfo(key, metadataValue(r, key))
		}
	}

	return nil
}

// channelSummary renders the channel count with any stored labels.
func channelSummary(r *daff.Reader) string {
	var labels []string

	for ch := 0; ch < r.NumChannels(); ch++ {
		label, err := r.ChannelLabel(ch)
		if err == nil && label != "" {
			labels = append(labels, label)
		}
	}

	if len(labels) == 0 {
		return strconv.Itoa(r.NumChannels())
	}

	return fmt.Sprintf("%d (%s)", r.NumChannels(), strings.Join(labels, ", "))
}

func printContentParams(r *daff.Reader) {
	switch r.ContentType() {
	case daff.ContentTypeIR:
		ir, err := r.ContentIR()
		if err != nil {
			return
		}

		cli.PrintInfo("Filter length", fmt.Sprintf("%d taps", ir.FilterLength()))
		cli.PrintInfo("Samplerate", fmt.Sprintf("%g Hz", ir.Samplerate()))
	case daff.ContentTypeMS:
		ms, err := r.ContentMS()
		if err != nil {
			return
		}

		cli.PrintInfo("Frequencies", frequencySummary(ms.Frequencies()))
	case daff.ContentTypePS:
		ps, err := r.ContentPS()
		if err != nil {
			return
		}

		cli.PrintInfo("Frequencies", frequencySummary(ps.Frequencies()))
	case daff.ContentTypeMPS:
		mps, err := r.ContentMPS()
		if err != nil {
			return
		}

		cli.PrintInfo("Frequencies", frequencySummary(mps.Frequencies()))
	case daff.ContentTypeDFT:
		dft, err := r.ContentDFT()
		if err != nil {
			return
		}

		cli.PrintInfo("DFT coefficients", strconv.Itoa(dft.NumDFTCoeffs()))
		cli.PrintInfo("Transform size", strconv.Itoa(dft.TransformSize()))
		cli.PrintInfo("Symmetric", strconv.FormatBool(dft.IsSymmetric()))
		cli.PrintInfo("Samplerate", fmt.Sprintf("%g Hz", dft.Samplerate()))
		cli.PrintInfo("Bin bandwidth", fmt.Sprintf("%g Hz", dft.FrequencyBandwidth()))
	}
}

func frequencySummary(freqs []float32) string {
	if len(freqs) == 0 {
		return "none"
	}

	return fmt.Sprintf("%d bands, %g Hz to %g Hz", len(freqs), freqs[0], freqs[len(freqs)-1])
}

// metadataValue renders a metadata value by probing the typed accessors.
func metadataValue(r *daff.Reader, key string) string {
	if v, err := r.MetadataBool(key); err == nil {
		return strconv.FormatBool(v)
	}

	if v, err := r.MetadataInt(key); err == nil {
		return strconv.FormatInt(v, 10)
	}

	if v, err := r.MetadataFloat(key); err == nil {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	if v, err := r.MetadataString(key); err == nil {
		return strconv.Quote(v)
	}

	return "(unreadable)"
}

func listRecords(r *daff.Reader) {
	for i := 0; i < r.NumRecords(); i++ {
		alpha, beta, err := r.RecordCoords(i)
		if err != nil {
			cli.PrintError(err.Error())
			return
		}

		fmt.Printf("%5d: alpha %7.2f deg  beta %7.2f deg\n", i, degrees(alpha), degrees(beta))
	}
}

func reportNearest(r *daff.Reader, query string) error {
	phi, theta, err := parseDirection(query)
	if err != nil {
		return err
	}

	index, err := r.NearestNeighbour(radians(phi), radians(theta))
	if err != nil {
		return err
	}

	alpha, beta, err := r.RecordCoords(index)
	if err != nil {
		return err
	}

	distance := sphere.AngleBetween(
		sphere.FromAngles(radians(phi), radians(theta)),
		sphere.FromAngles(alpha, beta),
	)

	cli.PrintInfo("Query", fmt.Sprintf("alpha %g deg, beta %g deg", phi, theta))
	cli.PrintInfo("Record", strconv.Itoa(index))
	cli.PrintInfo("Direction", fmt.Sprintf("alpha %.2f deg, beta %.2f deg", degrees(alpha), degrees(beta)))
	cli.PrintInfo("Distance", fmt.Sprintf("%.2f deg", degrees(distance)))

	return nil
}

// The tool talks degrees to the user; the library works in radians.
func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

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
