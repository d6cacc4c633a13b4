// Command daffview is an interactive terminal browser for DAFF files.
//
// Usage:
//
//	daffview [options] <file.daff>
//
// Options:
//
//	-list    Print every record with its direction and exit
//	-log     Log file path (the TUI owns the terminal)
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	daff "github.com/MeKo-Tech/godaff"
)

var (
	listRecords = flag.Bool("list", false, "Print every record with its direction and exit")
	logFile     = flag.String("log", "daffview.log", "Log file path")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file.daff>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Browse the records of a DAFF file interactively.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  Up/Down      select parameter\n")
		fmt.Fprintf(os.Stderr, "  Left/Right   adjust the query direction\n")
		fmt.Fprintf(os.Stderr, "  Enter        browse the record list\n")
		fmt.Fprintf(os.Stderr, "  q, Esc       quit\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	path := flag.Arg(0)

	r, err := daff.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	if *listRecords {
		if err := printRecords(r); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	// The TUI owns the terminal, so diagnostics go to a file.
	file, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	logger := slog.New(slog.NewTextHandler(file, nil))
	slog.SetDefault(logger)
	slog.Info("Starting daffview",
		"file", path,
		"contentType", r.ContentType().String(),
		"records", r.NumRecords(),
		"channels", r.NumChannels())

	runTUI(r)
}

func printRecords(r *daff.Reader) error {
	for i := 0; i < r.NumRecords(); i++ {
		alpha, beta, err := r.RecordCoords(i)
		if err != nil {
			return err
		}

		fmt.Printf("%5d: alpha %7.2f deg  beta %7.2f deg\n", i, degrees(alpha), degrees(beta))
	}

	return nil
}
