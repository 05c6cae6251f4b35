package exec

import (
	"bytes"
	"strings"
	"testing"

	"swpp-interpreter/src/isa"
	"swpp-interpreter/src/mem"
	. "swpp-interpreter/src/program"
	"swpp-interpreter/src/reg"
)

func mustBuild(t *testing.T, b *Builder) *Program {
	t.Helper()
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	return prog
}

// TestMinimalReturn is scenario 1: a bare `Ret 42`.
func TestMinimalReturn(t *testing.T) {
	prog := mustBuild(t, NewBuilder().Func("main", 0).Block("entry").Ret(1, Lit(42)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	ret, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	if ret != 42 {
		t.Errorf("Returned = %d, want 42", ret)
	}
	if got := s.MainCost().Cost(); got != 1.0 {
		t.Errorf("Execution cost = %.4f, want 1.0000", got)
	}
	if s.MaxHeapUsage() != 0 {
		t.Errorf("MaxHeapUsage() = %d, want 0", s.MaxHeapUsage())
	}
	if s.TotalWaitCost() != 0 {
		t.Errorf("TotalWaitCost() = %.4f, want 0.0000", s.TotalWaitCost())
	}
}

// TestAdditionSize32 is scenario 2: `Add.i32 r1, 7, 35; Ret r1`.
func TestAdditionSize32(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Bop(1, reg.R1, isa.Add, Lit(7), Lit(35), isa.Size32).
		Ret(2, Reg(reg.R1)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	ret, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	if ret != 42 {
		t.Errorf("Returned = %d, want 42", ret)
	}
	if got := s.MainCost().Cost(); got != 6.0 {
		t.Errorf("Execution cost = %.4f, want 6.0000", got)
	}
}

// TestAsyncLoadWait is scenario 3: an async load whose deadline is paid
// for in full by the following Ret, since nothing else runs in between.
// Malloc(50) -> aload(ALOAD=1, deadline = 50+1+WAIT_HEAP(34) = 85) ->
// Ret pays wait = 85 - 51 = 34 against an accumulated cost of 51
// (50 malloc + 1 aload), for a total execution cost of 50+1+1+34 = 86.
func TestAsyncLoadWait(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Malloc(1, reg.R2, Lit(8)).
		Load(2, reg.R1, true, isa.Size64, Reg(reg.R2), 0).
		Ret(3, Reg(reg.R1)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	ret, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	if ret != 0 {
		t.Errorf("Returned = %d, want 0 (uninitialised heap byte)", ret)
	}
	if got := s.MainCost().Cost(); got != 86.0 {
		t.Errorf("Execution cost = %.4f, want 86.0000", got)
	}
	if got := s.TotalWaitCost(); got != 34.0 {
		t.Errorf("TotalWaitCost() = %.4f, want 34.0000", got)
	}
}

// TestOracleCall is scenario 4: calling "oracle" switches machine mode and
// prices the call at CALL_ORACLE.
func TestOracleCall(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Call(1, reg.R1, "oracle", nil).
		Ret(2, Reg(reg.R1)).
		Func("oracle", 0).
		Block("entry").
		Ret(1, Lit(99)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	ret, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	if ret != 99 {
		t.Errorf("Returned = %d, want 99", ret)
	}
	if got := s.MainCost().Cost(); got != 42.0 {
		t.Errorf("main cost = %.4f, want 42.0000", got)
	}
	if len(s.MainCost().Children) != 1 || s.MainCost().Children[0].Cost() != 1.0 {
		t.Errorf("oracle child cost = %+v, want a single child costing 1.0", s.MainCost().Children)
	}
}

// TestHeapHighWaterMark is scenario 5: the high-water mark survives an
// intervening Free.
func TestHeapHighWaterMark(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Malloc(1, reg.R1, Lit(128)).
		Malloc(2, reg.R2, Lit(256)).
		Free(3, Reg(reg.R1)).
		Malloc(4, reg.R3, Lit(64)).
		Ret(5, Lit(0)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if got := s.MaxHeapUsage(); got != 384 {
		t.Errorf("MaxHeapUsage() = %d, want 384", got)
	}
}

// TestAssertSucceeds is scenario 6 (the passing half): equal operands
// cost ASSERT (0.0) and do not affect control flow.
func TestAssertSucceeds(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Bop(1, reg.R1, isa.Add, Lit(0), Lit(7), isa.Size64).
		Assert(2, Reg(reg.R1), Lit(7)).
		Ret(3, Lit(0)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err != nil {
		t.Fatal(err)
	}
}

// TestAssertFails is scenario 6 (the failing half): unequal operands
// raise a fatal error carrying a register dump.
func TestAssertFails(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Bop(1, reg.R1, isa.Add, Lit(0), Lit(8), isa.Size64).
		Assert(2, Reg(reg.R1), Lit(7)).
		Ret(3, Lit(0)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err == nil {
		t.Fatal("Run() succeeded, want assertion error")
	}
}

// TestWriteReadRoundTrip exercises Read and Write and their cost
// asymmetry: Read costs CALL alone, Write costs CALL+PER_ARG.
func TestWriteReadRoundTrip(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Read(1, reg.R1).
		Write(2, reg.R2, Reg(reg.R1)).
		Ret(3, Lit(0)))
	var out bytes.Buffer
	s := New(prog, strings.NewReader("17\n"), &out)
	if _, err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "17" {
		t.Errorf("output = %q, want \"17\"", got)
	}
	readCost := isa.NormalCost.CALL
	writeCost := isa.NormalCost.CALL + isa.NormalCost.PER_ARG
	if got := s.MainCost().Cost(); got != readCost+writeCost+isa.NormalCost.RET {
		t.Errorf("main cost = %.4f, want %.4f", got, readCost+writeCost+isa.NormalCost.RET)
	}
}

// TestMissingMainFails checks that a program without "main" is rejected.
func TestMissingMainFails(t *testing.T) {
	prog := mustBuild(t, NewBuilder().Func("helper", 0).Block("entry").Ret(1, Lit(0)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err == nil {
		t.Fatal("Run() succeeded with no main function, want error")
	}
}

// TestCallArityMismatchFails checks that calling with the wrong number of
// arguments is fatal.
func TestCallArityMismatchFails(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Call(1, reg.R1, "callee", []Operand{Lit(1)}).
		Ret(2, Lit(0)).
		Func("callee", 0).
		Block("entry").
		Ret(1, Lit(0)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err == nil {
		t.Fatal("Run() succeeded with an arity mismatch, want error")
	}
}

// TestOracleCannotCall checks that a Call executed inside the oracle is
// fatal (§4.4).
func TestOracleCannotCall(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Call(1, reg.R1, "oracle", nil).
		Ret(2, Lit(0)).
		Func("oracle", 0).
		Block("entry").
		Call(1, reg.R1, "helper", nil).
		Ret(2, Lit(0)).
		Func("helper", 0).
		Block("entry").
		Ret(1, Lit(0)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err == nil {
		t.Fatal("Run() succeeded with a call inside the oracle, want error")
	}
}

// TestInstLogHeaderAndShape checks the instruction log's fixed header and
// row count.
func TestInstLogHeaderAndShape(t *testing.T) {
	prog := mustBuild(t, NewBuilder().Func("main", 0).Block("entry").Ret(1, Lit(0)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(s.InstLog(), "\n"), "\n")
	if lines[0] != "Machine\tInstruction\tCount\tCost" {
		t.Errorf("header = %q", lines[0])
	}
	if want := 1 + 2*len(isa.LogOrder); len(lines) != want {
		t.Errorf("InstLog() has %d lines, want %d", len(lines), want)
	}
}

// TestDivisionByZeroFails checks that Udiv by zero is fatal rather than
// producing a garbage result.
func TestDivisionByZeroFails(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Bop(1, reg.R1, isa.Udiv, Lit(10), Lit(0), isa.Size64).
		Ret(2, Reg(reg.R1)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err == nil {
		t.Fatal("Run() succeeded dividing by zero, want error")
	}
}

// TestReservedHoleAccessFails checks that the interpreter surfaces a
// memory-region error as a fatal Run error.
func TestReservedHoleAccessFails(t *testing.T) {
	prog := mustBuild(t, NewBuilder().
		Func("main", 0).
		Block("entry").
		Store(1, isa.Size8, Lit(1), Lit(mem.StackEnd), 0).
		Ret(2, Lit(0)))
	s := New(prog, strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.Run(); err == nil {
		t.Fatal("Run() succeeded storing into the reserved hole, want error")
	}
}
