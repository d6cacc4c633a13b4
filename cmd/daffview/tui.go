package main

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/nsf/termbox-go"

	daff "github.com/MeKo-Tech/godaff"
)

const (
	colDef     = termbox.ColorDefault
	colWhite   = termbox.ColorWhite
	colGreen   = termbox.ColorGreen
	colYellow  = termbox.ColorYellow
	colCyan    = termbox.ColorCyan
	colMagenta = termbox.ColorMagenta
)

const (
	queryStep        = 5.0 // degrees per arrow key press
	maxMeterChannels = 8
)

type tuiState struct {
	r *daff.Reader

	selectedParam int
	azimuth       float64
	elevation     float64

	// Result of the current query
	nearest int
	levels  []float64

	browseMode bool
	browseIdx  int

	exit bool
}

var paramNames = []string{
	"Record",
	"Azimuth (deg)",
	"Elevation (deg)",
}

func runTUI(r *daff.Reader) {
	err := termbox.Init()
	if err != nil {
		fmt.Printf("Failed to initialize TUI: %v\n", err)
		return
	}
	defer termbox.Close()

	termbox.SetInputMode(termbox.InputEsc)

	state := &tuiState{r: r}
	state.updateQuery()

	draw(state)

	for !state.exit {
		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			handleKey(ev, state)
		case termbox.EventResize:
		}

		draw(state)
	}
}

// updateQuery recomputes the nearest record and its channel levels for the
// current query direction.
func (s *tuiState) updateQuery() {
	index, err := s.r.NearestNeighbour(radians(s.azimuth), radians(s.elevation))
	if err != nil {
		slog.Error("Nearest neighbour query failed",
			"azimuth", s.azimuth, "elevation", s.elevation, "error", err)
		return
	}

	s.nearest = index
	s.levels = recordLevels(s.r, index)
}

func handleKey(ev termbox.Event, s *tuiState) {
	if s.browseMode {
		handleBrowseKey(ev, s)
		return
	}

	if ev.Key == termbox.KeyEsc || ev.Ch == 'q' {
		s.exit = true
		return
	}

	// Navigation
	switch ev.Key {
	case termbox.KeyArrowUp:
		s.selectedParam--
		if s.selectedParam < 0 {
			s.selectedParam = len(paramNames) - 1
		}
	case termbox.KeyArrowDown:
		s.selectedParam++
		if s.selectedParam >= len(paramNames) {
			s.selectedParam = 0
		}
	}

	step := 0.0
	if ev.Key == termbox.KeyArrowRight {
		step = queryStep
	}

	if ev.Key == termbox.KeyArrowLeft {
		step = -queryStep
	}

	// Adjustment
	switch s.selectedParam {
	case 0: // Record - enter browse mode
		if ev.Key == termbox.KeyEnter || step != 0 {
			s.browseMode = true
			s.browseIdx = s.nearest
		}
	case 1: // Azimuth, wraps around
		if step != 0 {
			s.azimuth = math.Mod(s.azimuth+step+360, 360)
			s.updateQuery()
		}
	case 2: // Elevation, clamped at the poles
		if step != 0 {
			s.elevation += step
			if s.elevation > 90 {
				s.elevation = 90
			}

			if s.elevation < -90 {
				s.elevation = -90
			}

			s.updateQuery()
		}
	}
}

func handleBrowseKey(ev termbox.Event, s *tuiState) {
	switch ev.Key {
	case termbox.KeyEsc:
		s.browseMode = false
	case termbox.KeyEnter:
		// Jump the query to the selected record's direction.
		alpha, beta, err := s.r.RecordCoords(s.browseIdx)
		if err == nil {
			s.azimuth = degrees(alpha)
			s.elevation = degrees(beta)
			s.updateQuery()
		}

		s.browseMode = false
	case termbox.KeyArrowUp:
		s.browseIdx--
		if s.browseIdx < 0 {
			s.browseIdx = s.r.NumRecords() - 1
		}
	case termbox.KeyArrowDown:
		s.browseIdx++
		if s.browseIdx >= s.r.NumRecords() {
			s.browseIdx = 0
		}
	case termbox.KeyPgup:
		s.browseIdx -= 10
		if s.browseIdx < 0 {
			s.browseIdx = 0
		}
	case termbox.KeyPgdn:
		s.browseIdx += 10
		if s.browseIdx >= s.r.NumRecords() {
			s.browseIdx = s.r.NumRecords() - 1
		}
	}
}

func draw(s *tuiState) {
	_ = termbox.Clear(colDef, colDef)

	if s.browseMode {
		drawBrowser(s)
		return
	}

	r := s.r

	printTB(0, 0, colCyan, colDef, "daffview - "+filepath.Base(r.Filename()))
	printTB(0, 1, colWhite, colDef, fmt.Sprintf("%s, %d records x %d channels, %s",
		r.ContentType(), r.NumRecords(), r.NumChannels(), r.Quantization()))
	printTB(0, 2, colDef, colDef, "Use Arrows to navigate/adjust. 'q' or Esc to quit.")
	printTB(0, 3, colDef, colDef, "----------------------------------------------------")

	alpha, beta, err := r.RecordCoords(s.nearest)
	if err != nil {
		alpha, beta = math.NaN(), math.NaN()
	}

	vals := []string{
		fmt.Sprintf("%d at alpha %.1f deg, beta %.1f deg", s.nearest, degrees(alpha), degrees(beta)),
		fmt.Sprintf("%.1f", s.azimuth),
		fmt.Sprintf("%.1f", s.elevation),
	}

	for i, name := range paramNames {
		col := colWhite
		bgColor := colDef
		prefix := "  "

		if i == s.selectedParam {
			col = colDef
			bgColor = colWhite
			prefix = "> "
		}

		line := fmt.Sprintf("%-22s %s", prefix+name, vals[i])
		printTB(0, 5+i, col, bgColor, line)

		if i == 0 && i == s.selectedParam {
			printTB(len(line)+2, 5+i, colYellow, colDef, "[Enter to browse]")
		}
	}

	// Metering
	meterY := 10
	printTB(0, meterY, colYellow, colDef, "Peak levels (nearest record):")

	shown := len(s.levels)
	if shown > maxMeterChannels {
		shown = maxMeterChannels
	}

	for ch := 0; ch < shown; ch++ {
		drawMeter(meterY+2+ch, channelName(r, ch), s.levels[ch], colGreen)
	}

	termbox.Flush()
}

func drawBrowser(s *tuiState) {
	w, h := termbox.Size()

	printTB(0, 0, colMagenta, colDef, "Select Record")
	printTB(0, 1, colDef, colDef, "Use Up/Down to browse, PgUp/PgDn for fast scroll")
	printTB(0, 2, colDef, colDef, "Enter to jump the query there, Esc to cancel")
	printTB(0, 3, colDef, colDef, "----------------------------------------------------")

	listStartY := 5

	listHeight := h - listStartY - 2
	if listHeight < 5 {
		listHeight = 5
	}

	// Scroll to keep the selected record visible
	scrollOffset := 0
	if s.browseIdx >= listHeight {
		scrollOffset = s.browseIdx - listHeight + 1
	}

	for i := 0; i < listHeight && scrollOffset+i < s.r.NumRecords(); i++ {
		idx := scrollOffset + i

		col := colWhite
		bgColor := colDef
		prefix := "  "

		if idx == s.browseIdx {
			col = colDef
			bgColor = colWhite
			prefix = "> "
		}

		suffix := ""
		if idx == s.nearest {
			suffix = " [nearest]"
		}

		alpha, beta, err := s.r.RecordCoords(idx)
		if err != nil {
			continue
		}

		line := fmt.Sprintf("%s%5d: alpha %7.2f deg  beta %7.2f deg%s",
			prefix, idx, degrees(alpha), degrees(beta), suffix)

		if w > 1 && len(line) > w-1 {
			line = line[:w-1]
		}

		printTB(0, listStartY+i, col, bgColor, line)
	}

	// Footer with scroll indicator
	if s.r.NumRecords() > listHeight {
		scrollInfo := fmt.Sprintf("Showing %d-%d of %d",
			scrollOffset+1, min(scrollOffset+listHeight, s.r.NumRecords()), s.r.NumRecords())
		printTB(0, h-1, colYellow, colDef, scrollInfo)
	}

	termbox.Flush()
}

// recordLevels computes the peak level of every channel of a record, in dB.
func recordLevels(r *daff.Reader, index int) []float64 {
	levels := make([]float64, r.NumChannels())

	for ch := range levels {
		values, err := recordValues(r, index, ch)
		if err != nil {
			slog.Error("Fetching record failed", "record", index, "channel", ch, "error", err)
			levels[ch] = math.Inf(-1)

			continue
		}

		var peak float64

		for _, v := range values {
			if a := math.Abs(float64(v)); a > peak {
				peak = a
			}
		}

		levels[ch] = linToDB(peak)
	}

	return levels
}

// recordValues fetches one channel of a record through the view matching the
// file's content type.
func recordValues(r *daff.Reader, index, channel int) ([]float32, error) {
	switch r.ContentType() {
	case daff.ContentTypeIR:
		ir, err := r.ContentIR()
		if err != nil {
			return nil, err
		}

		return ir.FilterCoeffs(index, channel)
	case daff.ContentTypeMS:
		ms, err := r.ContentMS()
		if err != nil {
			return nil, err
		}

		return ms.Magnitudes(index, channel)
	case daff.ContentTypePS:
		ps, err := r.ContentPS()
		if err != nil {
			return nil, err
		}

		return ps.Phases(index, channel)
	case daff.ContentTypeMPS:
		mps, err := r.ContentMPS()
		if err != nil {
			return nil, err
		}

		mags, _, err := mps.MagnitudesPhases(index, channel)
		if err != nil {
			return nil, err
		}

		return mags, nil
	case daff.ContentTypeDFT:
		dft, err := r.ContentDFT()
		if err != nil {
			return nil, err
		}

		return dft.DFTCoeffs(index, channel)
	default:
		return nil, fmt.Errorf("unsupported content type %v", r.ContentType())
	}
}

func channelName(r *daff.Reader, ch int) string {
	label, err := r.ChannelLabel(ch)
	if err != nil || label == "" {
		return fmt.Sprintf("Ch %-2d", ch)
	}

	if len(label) > 5 {
		label = label[:5]
	}

	return fmt.Sprintf("%-5s", label)
}

// The UI talks degrees; the library works in radians.
func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func linToDB(l float64) float64 {
	if l <= 1e-9 {
		return -96.0
	}

	return 20 * math.Log10(l)
}

func drawMeter(yPos int, label string, db float64, color termbox.Attribute) {
	const (
		barWidth = 60
		xPos     = 2
		minDB    = -96.0
		maxDB    = 6.0
	)

	if db < minDB {
		db = minDB
	}

	if db > maxDB {
		db = maxDB
	}

	ratio := (db - minDB) / (maxDB - minDB)
	filled := int(ratio * float64(barWidth))

	printTB(xPos, yPos, colDef, colDef, fmt.Sprintf("%s [%-6.1f dB] ", label, db))

	// Draw bar
	startX := xPos + 15

	for i := 0; i < barWidth; i++ {
		var barChar rune

		if i < filled {
			barChar = '█'
		} else {
			barChar = '░'
		}

		termbox.SetCell(startX+i, yPos, barChar, color, colDef)
	}
}

func printTB(x, y int, fg, bg termbox.Attribute, msg string) {
	for _, c := range msg {
		termbox.SetCell(x, y, c, fg, bg)
		x++
	}
}
