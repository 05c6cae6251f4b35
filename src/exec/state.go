// Package exec drives program execution: the register file, memory and
// cost machine evolve statement by statement under a single recursive
// call-stack-shaped driver, accumulating a per-function cost tree and a
// per-opcode cost histogram as it goes (§4.6).
package exec

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"swpp-interpreter/src/isa"
	"swpp-interpreter/src/mem"
	"swpp-interpreter/src/program"
	"swpp-interpreter/src/reg"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Logger is the diagnostic sink State logs verbose execution detail to. It
// is satisfied by *logrus.Entry without this package importing logrus
// itself: only src/main.go and src/util construct the real logger (§4.7).
type Logger interface {
	Debugf(format string, args ...interface{})
}

// histEntry is one (machine, opcode) slot of the instruction histogram:
// how many times it ran and the summed instruction cost it incurred.
// Wait cost is not tracked per-slot; it is folded into TotalWaitCost.
type histEntry struct {
	Count int
	Cost  float64
}

// State owns every piece of mutable state a single program run touches:
// the active register file, the address space, the cost machine, the
// cost tree and the instruction histogram (§5 "Shared resources").
type State struct {
	prog    *program.Program
	regfile *reg.RegFile
	memory  *mem.Memory
	machine *isa.Machine

	mainCost      *CostNode
	histogram     [isa.NumMachines][isa.NumOpcodes]histEntry
	totalWaitCost float64

	stdin  *bufio.Scanner
	stdout io.Writer
	log    Logger
}

// -------------------
// ----- Functions -----
// -------------------

// New returns a State ready to run prog, reading Read statements from in
// and writing Write statements to out. It logs nothing until SetLogger is
// called.
func New(prog *program.Program, in io.Reader, out io.Writer) *State {
	return &State{
		prog:    prog,
		memory:  mem.New(),
		machine: isa.NewMachine(),
		stdin:   bufio.NewScanner(in),
		stdout:  out,
	}
}

// SetLogger installs the sink verbose execution diagnostics are written to.
// A nil State.log (the default) means no logging happens.
func (s *State) SetLogger(l Logger) {
	s.log = l
}

// debugf logs through s.log if one has been installed, and is a silent
// no-op otherwise.
func (s *State) debugf(format string, args ...interface{}) {
	if s.log != nil {
		s.log.Debugf(format, args...)
	}
}

// MainCost returns the root of the call-cost tree after Run completes.
func (s *State) MainCost() *CostNode {
	return s.mainCost
}

// TotalWaitCost returns the sum of every instruction's wait cost across
// the whole run.
func (s *State) TotalWaitCost() float64 {
	return s.totalWaitCost
}

// MaxHeapUsage returns the monotonic high-water mark of live heap bytes.
func (s *State) MaxHeapUsage() uint64 {
	return s.memory.MaxAllocedSize()
}

// InstLog renders the tab-separated per-(machine,opcode) histogram table,
// in the fixed row order and header the interpreter's inst log uses (§6).
func (s *State) InstLog() string {
	var sb strings.Builder
	sb.WriteString("Machine\tInstruction\tCount\tCost\n")
	for _, mk := range [...]isa.MachineKind{isa.Normal, isa.Oracle} {
		for _, op := range isa.LogOrder {
			e := s.histogram[mk][op]
			fmt.Fprintf(&sb, "%s\t%s\t%d\t%.4f\n", mk, op, e.Count, e.Cost)
		}
	}
	return sb.String()
}

func (s *State) recordHistogram(op isa.Opcode, instCost, waitCost float64) {
	e := &s.histogram[s.machine.Kind()][op]
	e.Count++
	e.Cost += instCost
	s.totalWaitCost += waitCost
}

// Run executes the program starting at "main" and returns its return
// value. Missing "main" is fatal (§4.6).
func (s *State) Run() (uint64, error) {
	main := s.prog.Function("main")
	if main == nil {
		return 0, fmt.Errorf("missing main function")
	}
	s.regfile = reg.New()
	s.regfile.SetNargs(0)
	return s.execFunction(nil, main)
}

// execFunction runs one function activation to completion: it executes
// statements until a Ret, recursing into execFunction again for every
// Call encountered. parent is the caller's cost node, or nil for the
// initial call to main (§4.6).
func (s *State) execFunction(parent *CostNode, fn *program.Function) (uint64, error) {
	node := NewCostNode(fn.Name)
	if parent == nil {
		s.mainCost = node
	} else {
		parent.AppendChild(node)
	}

	entry := fn.Entry()
	if entry == nil {
		return 0, fmt.Errorf("function %q has no entry block", fn.Name)
	}
	stmt := entry.First

	for {
		if stmt == nil {
			return 0, fmt.Errorf("function %q falls off the end of a basic block", fn.Name)
		}

		s.debugf("line %d: %s cost=%.4f", stmt.Line, stmt.Opcode, node.Cost())

		switch stmt.Opcode {
		case isa.Ret:
			v, d, err := stmt.Val.Resolve(s.regfile)
			if err != nil {
				return 0, err
			}
			wait := getWaitCost(node.Cost(), d)
			instCost := s.machine.Cost().RET
			node.AddCost(instCost + wait)
			s.recordHistogram(isa.Ret, instCost, wait)
			if parent != nil {
				parent.AddCost(node.Cost())
			}
			s.machine.SwitchToNormal()
			return v, nil

		case isa.BrUncond:
			blk := fn.Block(stmt.Target)
			if blk == nil {
				return 0, fmt.Errorf("line %d: branch to undefined block %q", stmt.Line, stmt.Target)
			}
			instCost := s.machine.Cost().BRUNCOND
			node.AddCost(instCost)
			s.recordHistogram(isa.BrUncond, instCost, 0)
			stmt = blk.First

		case isa.BrCond:
			cv, cd, err := stmt.Cond.Resolve(s.regfile)
			if err != nil {
				return 0, err
			}
			label, instCost := stmt.FalseLabel, s.machine.Cost().BRCOND_FALSE
			if cv != 0 {
				label, instCost = stmt.TrueLabel, s.machine.Cost().BRCOND_TRUE
			}
			blk := fn.Block(label)
			if blk == nil {
				return 0, fmt.Errorf("line %d: branch to undefined block %q", stmt.Line, label)
			}
			wait := getWaitCost(node.Cost(), cd)
			node.AddCost(instCost + wait)
			s.recordHistogram(isa.BrCond, instCost, wait)
			stmt = blk.First

		case isa.Switch:
			cv, cd, err := stmt.Cond.Resolve(s.regfile)
			if err != nil {
				return 0, err
			}
			label, ok := stmt.Cases[cv]
			if !ok {
				label = stmt.Default
			}
			blk := fn.Block(label)
			if blk == nil {
				return 0, fmt.Errorf("line %d: branch to undefined block %q", stmt.Line, label)
			}
			instCost := s.machine.Cost().SWITCH
			wait := getWaitCost(node.Cost(), cd)
			node.AddCost(instCost + wait)
			s.recordHistogram(isa.Switch, instCost, wait)
			stmt = blk.First

		case isa.Call:
			ret, err := s.execCall(node, stmt)
			if err != nil {
				return 0, err
			}
			if err := s.regfile.Write(stmt.Lhs, ret); err != nil {
				return 0, fmt.Errorf("line %d: %w", stmt.Line, err)
			}
			stmt = stmt.Next

		default:
			instCost, waitCost, err := s.execOp(stmt, node.Cost())
			if err != nil {
				return 0, err
			}
			node.AddCost(instCost + waitCost)
			s.recordHistogram(stmt.Opcode, instCost, waitCost)
			stmt = stmt.Next
		}
	}
}

// execCall evaluates a call's arguments in the caller's register file,
// switches to a fresh one for the callee, runs it, then restores the
// caller's register file (§4.5 Call).
func (s *State) execCall(node *CostNode, stmt *program.Stmt) (uint64, error) {
	if s.machine.IsOracle() {
		return 0, fmt.Errorf("line %d: call is not allowed inside the oracle", stmt.Line)
	}
	callee := s.prog.Function(stmt.Fname)
	if callee == nil {
		return 0, fmt.Errorf("line %d: call to undefined function %q", stmt.Line, stmt.Fname)
	}
	if callee.Nargs != len(stmt.Args) {
		return 0, fmt.Errorf("line %d: call to %q with %d arguments, want %d", stmt.Line, stmt.Fname, len(stmt.Args), callee.Nargs)
	}

	calleeIsOracle := isa.IsOracleFunction(stmt.Fname)
	old := s.regfile
	if calleeIsOracle {
		s.machine.SwitchToOracle()
		s.debugf("entering oracle mode: function=%s", stmt.Fname)
	}

	fresh := reg.New()
	fresh.SetNargs(len(stmt.Args))
	waitUntil := -1.0
	for i, arg := range stmt.Args {
		v, d, err := arg.Resolve(old)
		if err != nil {
			return 0, err
		}
		fresh.SetValue(reg.A1+reg.Reg(i), v)
		if d > waitUntil {
			waitUntil = d
		}
	}
	s.regfile = fresh

	instCost := s.machine.Cost().CALL
	if calleeIsOracle {
		instCost = s.machine.Cost().CALL_ORACLE
	}
	instCost += float64(len(stmt.Args)) * s.machine.Cost().PER_ARG
	waitCost := getWaitCost(node.Cost(), waitUntil)
	node.AddCost(instCost + waitCost)
	s.recordHistogram(isa.Call, instCost, waitCost)

	ret, err := s.execFunction(node, callee)
	s.regfile = old
	return ret, err
}

// execOp dispatches every non-terminator, non-Call opcode to its
// dedicated handler in ops.go.
func (s *State) execOp(stmt *program.Stmt, acc float64) (float64, float64, error) {
	cost := s.machine.Cost()
	switch stmt.Opcode {
	case isa.Malloc:
		return execMalloc(stmt, acc, s.regfile, s.memory, cost)
	case isa.Free:
		return execFree(stmt, acc, s.regfile, s.memory, cost)
	case isa.Load:
		return execLoad(stmt, acc, s.regfile, s.memory, cost)
	case isa.Store:
		return execStore(stmt, acc, s.regfile, s.memory, cost)
	case isa.Bop:
		return execBop(stmt, acc, s.regfile, cost)
	case isa.Sum:
		return execSum(stmt, acc, s.regfile, cost)
	case isa.Uop:
		return execUop(stmt, acc, s.regfile, cost)
	case isa.Select:
		return execSelect(stmt, acc, s.regfile, cost)
	case isa.Assert:
		return execAssert(stmt, acc, s.regfile, cost)
	case isa.Read:
		return execRead(stmt, s.regfile, s.stdin, cost)
	case isa.Write:
		return execWrite(stmt, acc, s.regfile, cost, s.stdout)
	default:
		return 0, 0, fmt.Errorf("line %d: unhandled opcode %v", stmt.Line, stmt.Opcode)
	}
}
