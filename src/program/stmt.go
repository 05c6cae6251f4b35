package program

import (
	"swpp-interpreter/src/isa"
	"swpp-interpreter/src/reg"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Stmt is every statement shape flattened into one tagged-union struct:
// Opcode selects which fields are meaningful. This mirrors the source's
// Stmt class hierarchy (one subclass per opcode) without virtual dispatch
// — a single switch in the execution driver replaces it (§9).
type Stmt struct {
	Line   int
	Lhs    reg.Reg
	Opcode isa.Opcode

	// BrUncond
	Target string

	// BrCond / Switch
	Cond       Operand
	TrueLabel  string
	FalseLabel string
	Cases      map[uint64]string
	Default    string

	// Ret / Malloc(size) / Free(ptr) / Uop / Write
	Val Operand

	// Load / Store
	Async  bool
	Size   isa.Size
	Ptr    Operand
	Offset uint64
	StoreV Operand

	// Bop
	BopKind isa.BopKind
	Op1     Operand
	Op2     Operand

	// Sum
	Operands []Operand

	// Uop
	UopKind isa.UopKind

	// Select
	True  Operand
	False Operand

	// Call
	Fname string
	Args  []Operand

	// Assert
	AssertOp1 Operand
	AssertOp2 Operand

	// statement linking, within a Block; terminators ignore Next
	Next *Stmt
}

// Block is a named basic block: a pointer to its first statement. Blocks
// are stored contiguously per Function and referenced by label, resolved
// once at build time (§9's note on eliminating pointer chasing).
type Block struct {
	Label string
	First *Stmt
}

// Function is a named, ordered sequence of basic blocks; the first block
// is the entry point.
type Function struct {
	Name   string
	Nargs  int
	Blocks []*Block

	byLabel map[string]*Block
}

// Program is an ordered mapping of function name to Function.
type Program struct {
	Functions map[string]*Function
	Order     []string
}

// -------------------
// ----- Functions -----
// -------------------

// Entry returns the function's first basic block, or nil if it has none.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Block looks up a basic block by label, returning nil if undefined.
func (f *Function) Block(label string) *Block {
	return f.byLabel[label]
}

// index builds the label lookup table from Blocks. Called once after a
// Function's blocks are finalised (Builder.Build).
func (f *Function) index() {
	f.byLabel = make(map[string]*Block, len(f.Blocks))
	for _, b := range f.Blocks {
		f.byLabel[b.Label] = b
	}
}

// Function looks up a function by name, returning nil if undefined.
func (p *Program) Function(name string) *Function {
	return p.Functions[name]
}
