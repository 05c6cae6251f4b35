// Package util collects the interpreter's ambient concerns: CLI flag
// parsing and source-file reading. It plays the same supporting role the
// teacher's util package played for the compiler pipeline, generalised to
// a single-input-file interpreter (§4.7).
package util

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the interpreter's command-line configuration.
type Options struct {
	Src     string // Path to the input assembly file.
	Verbose bool   // Set true to log execution diagnostics (each statement's opcode, line and running cost; oracle-mode entry) at debug level.
}

// ---------------------
// ----- Constants -----
// ---------------------

const appVersion = "swpp-interpreter 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses the process's command-line arguments into an Options.
// Usage: swpp-interpreter [-v] <input-file>.
func ParseArgs() (Options, error) {
	var opt Options
	var version bool

	flags := pflag.NewFlagSet("swpp-interpreter", pflag.ContinueOnError)
	flags.BoolVarP(&opt.Verbose, "verbose", "v", false, "log execution diagnostics to stderr")
	flags.BoolVar(&version, "version", false, "print the application version and exit")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: swpp-interpreter [-v] <input-file>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		return opt, err
	}
	if version {
		fmt.Println(appVersion)
		os.Exit(0)
	}

	if flags.NArg() != 1 {
		return opt, fmt.Errorf("expected exactly one input file, got %d", flags.NArg())
	}
	opt.Src = flags.Arg(0)
	return opt, nil
}
