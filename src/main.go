package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"swpp-interpreter/src/exec"
	"swpp-interpreter/src/program"
	"swpp-interpreter/src/util"
)

// run parses command line arguments, reads the input assembly file, builds
// and executes the program it describes, and writes the three log files
// the CLI contract requires (§6). Parsing the textual assembly format
// itself is out of scope (see buildProgram's doc comment); a real parser
// would sit ahead of buildProgram in this pipeline.
func run() error {
	opt, err := util.ParseArgs()
	if err != nil {
		return fmt.Errorf("command line argument error: %w", err)
	}
	util.SetupLogging(opt.Verbose)

	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("Error: %s", err)
	}

	prog, err := buildProgram(src)
	if err != nil {
		return fmt.Errorf("Error: %s", err)
	}

	s := exec.New(prog, os.Stdin, os.Stdout)
	s.SetLogger(logrus.WithField("component", "exec"))
	ret, err := s.Run()
	if err != nil {
		return fmt.Errorf("Error: %s", err)
	}

	return writeLogs(s, ret)
}

// buildProgram stands in for the assembly-text parser this module does not
// implement (parsing is out of scope). A real CLI would run a lexer and
// parser here and hand their output to program.Builder; until then this
// always fails so the gap is explicit rather than silently accepting
// source text it cannot actually interpret.
func buildProgram(src string) (*program.Program, error) {
	return nil, fmt.Errorf("no assembly parser is wired in; construct a *program.Program with program.Builder instead")
}

// writeLogs emits swpp-interpreter.log, swpp-interpreter-cost.log and
// swpp-interpreter-inst.log in the exact formats §6 specifies.
func writeLogs(s *exec.State, ret uint64) error {
	execCost := s.MainCost().Cost()
	maxHeap := s.MaxHeapUsage()

	log, err := os.Create("swpp-interpreter.log")
	if err != nil {
		return err
	}
	defer log.Close()
	fmt.Fprintf(log, "Returned: %d\n", ret)
	fmt.Fprintf(log, "Execution cost: %.4f\n", execCost)
	fmt.Fprintf(log, "Max heap usage (bytes): %d\n", maxHeap)
	fmt.Fprintf(log, "Total cost: %.4f\n", execCost+float64(maxHeap)*16.0)

	costLog, err := os.Create("swpp-interpreter-cost.log")
	if err != nil {
		return err
	}
	defer costLog.Close()
	fmt.Fprintf(costLog, "Total waiting cost: %.4f\n", s.TotalWaitCost())
	fmt.Fprint(costLog, s.MainCost().String())

	instLog, err := os.Create("swpp-interpreter-inst.log")
	if err != nil {
		return err
	}
	defer instLog.Close()
	fmt.Fprint(instLog, s.InstLog())

	return nil
}

func main() {
	if err := run(); err != nil {
		logrus.WithField("component", "main").Error(err)
		os.Exit(1)
	}
}
