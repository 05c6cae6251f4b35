package program

import (
	"fmt"

	"swpp-interpreter/src/isa"
	"swpp-interpreter/src/reg"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Builder assembles a Program one function/block/statement at a time.
// There is no assembly-text parser in this module (out of scope, §1); tests
// and callers that need a Program construct one directly through Builder,
// playing the role the parser would in a complete toolchain.
type Builder struct {
	prog     *Program
	fn       *Function
	curBlock *Block
	tail     *Stmt
	err      error
}

// -------------------
// ----- Functions -----
// -------------------

// NewBuilder returns an empty Builder ready to accept functions.
func NewBuilder() *Builder {
	return &Builder{prog: &Program{Functions: make(map[string]*Function)}}
}

// Func starts a new function definition with the given name and formal
// argument count. Subsequent Block/statement calls apply to it.
func (b *Builder) Func(name string, nargs int) *Builder {
	b.fn = &Function{Name: name, Nargs: nargs}
	b.prog.Functions[name] = b.fn
	b.prog.Order = append(b.prog.Order, name)
	b.curBlock = nil
	b.tail = nil
	return b
}

// Block starts a new basic block within the current function. The first
// Block call for a function defines its entry block.
func (b *Builder) Block(label string) *Builder {
	blk := &Block{Label: label}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	b.curBlock = blk
	b.tail = nil
	return b
}

// emit appends s to the current block, linking it after the previous
// statement.
func (b *Builder) emit(s *Stmt) *Builder {
	if b.curBlock.First == nil {
		b.curBlock.First = s
	} else {
		b.tail.Next = s
	}
	b.tail = s
	return b
}

// Ret appends a Ret terminator.
func (b *Builder) Ret(line int, v Operand) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: reg.None, Opcode: isa.Ret, Val: v})
}

// BrUncond appends an unconditional branch terminator.
func (b *Builder) BrUncond(line int, target string) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: reg.None, Opcode: isa.BrUncond, Target: target})
}

// BrCond appends a conditional branch terminator.
func (b *Builder) BrCond(line int, cond Operand, trueLabel, falseLabel string) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: reg.None, Opcode: isa.BrCond, Cond: cond, TrueLabel: trueLabel, FalseLabel: falseLabel})
}

// Switch appends a switch terminator.
func (b *Builder) Switch(line int, cond Operand, cases map[uint64]string, def string) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: reg.None, Opcode: isa.Switch, Cond: cond, Cases: cases, Default: def})
}

// Malloc appends a heap allocation.
func (b *Builder) Malloc(line int, lhs reg.Reg, size Operand) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Malloc, Val: size})
}

// Free appends a heap deallocation.
func (b *Builder) Free(line int, ptr Operand) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: reg.None, Opcode: isa.Free, Val: ptr})
}

// Load appends a (possibly async) memory load.
func (b *Builder) Load(line int, lhs reg.Reg, async bool, size isa.Size, ptr Operand, ofs uint64) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Load, Async: async, Size: size, Ptr: ptr, Offset: ofs})
}

// Store appends a memory store.
func (b *Builder) Store(line int, size isa.Size, val, ptr Operand, ofs uint64) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: reg.None, Opcode: isa.Store, Size: size, StoreV: val, Ptr: ptr, Offset: ofs})
}

// Bop appends a binary operation.
func (b *Builder) Bop(line int, lhs reg.Reg, kind isa.BopKind, op1, op2 Operand, size isa.Size) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Bop, BopKind: kind, Op1: op1, Op2: op2, Size: size})
}

// Sum appends an 8-operand sum. It is an error to pass any count other
// than 8 (§4.5).
func (b *Builder) Sum(line int, lhs reg.Reg, operands []Operand, size isa.Size) *Builder {
	if len(operands) != 8 && b.err == nil {
		b.err = fmt.Errorf("line %d: sum takes exactly 8 operands, got %d", line, len(operands))
	}
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Sum, Operands: operands, Size: size})
}

// Uop appends a unary increment/decrement.
func (b *Builder) Uop(line int, lhs reg.Reg, kind isa.UopKind, val Operand, size isa.Size) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Uop, UopKind: kind, Val: val, Size: size})
}

// Select appends a ternary select.
func (b *Builder) Select(line int, lhs reg.Reg, cond, trueVal, falseVal Operand) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Select, Cond: cond, True: trueVal, False: falseVal})
}

// Call appends a function call.
func (b *Builder) Call(line int, lhs reg.Reg, fname string, args []Operand) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Call, Fname: fname, Args: args})
}

// Assert appends an equality assertion.
func (b *Builder) Assert(line int, op1, op2 Operand) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: reg.None, Opcode: isa.Assert, AssertOp1: op1, AssertOp2: op2})
}

// Read appends a stdin read.
func (b *Builder) Read(line int, lhs reg.Reg) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Read})
}

// Write appends a stdout write.
func (b *Builder) Write(line int, lhs reg.Reg, val Operand) *Builder {
	return b.emit(&Stmt{Line: line, Lhs: lhs, Opcode: isa.Write, Val: val})
}

// Build finalises every function's label index and returns the completed
// Program.
func (b *Builder) Build() (*Program, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, fn := range b.prog.Functions {
		fn.index()
	}
	return b.prog, nil
}
