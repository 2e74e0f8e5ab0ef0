// Darkmagic prints the camera metadata of one image file: camera model and
// serial number, sensor sensitivity, exposure time and, for Canon bodies,
// the sensor temperature recorded in the maker note.
//
// Usage:
//
//	darkmagic [-v...] [--format text|json|yaml|cbor] [--log-format text|json] FILE
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/fumiama/darkmagic"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var (
		verbosity   int
		format      string
		logFormat   string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("darkmagic", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable: warn, info, debug, trace)")
	flagSet.StringVar(&format, "format", "text", "output format ("+strings.Join(darkmagic.OutputFormats, "|")+")")
	flagSet.StringVar(&logFormat, "log-format", "text", "log record format (text|json)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet, stderr)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet, stderr)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "darkmagic %s\n", version)
		return nil
	}

	if !slices.Contains(darkmagic.OutputFormats, format) {
		return fmt.Errorf("unknown output format %q", format)
	}
	logger, err := newLogger(stderr, logFormat, verbosity)
	if err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) != 1 {
		return fmt.Errorf("expected exactly one image path, got %d arguments", len(rest))
	}

	report, err := darkmagic.NewExtractor(logger).Inspect(rest[0])
	if err != nil {
		return err
	}
	return report.Encode(stdout, format)
}

// verbosityLevel maps the number of -v flags to a log level.
func verbosityLevel(n int) slog.Level {
	switch {
	case n <= 0:
		return slog.LevelError
	case n == 1:
		return slog.LevelWarn
	case n == 2:
		return slog.LevelInfo
	case n == 3:
		return slog.LevelDebug
	}
	return darkmagic.LevelTrace
}

func newLogger(w io.Writer, format string, verbosity int) (*slog.Logger, error) {
	options := &slog.HandlerOptions{Level: verbosityLevel(verbosity)}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func printHelp(flagSet *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `darkmagic prints the camera metadata of an image file.

Supported containers are JPEG, PNG, WebP and TIFF based raw files such as
Canon CR2. The sensor temperature is only known for Canon cameras.

Usage:
  darkmagic [flags] FILE

Examples:
  # Print the metadata record
  darkmagic IMG_0001.CR2

  # Emit JSON with debug logging
  darkmagic -vvv --format json IMG_0001.JPG

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
