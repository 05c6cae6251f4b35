package isa

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Cost gives the price, in abstract cost units, of every instruction shape
// the machine executes. Normal and Oracle differ only in STACK and HEAP;
// every other field is shared between the two tables (§6).
type Cost struct {
	// terminators
	RET          float64
	BRUNCOND     float64
	BRCOND_TRUE  float64
	BRCOND_FALSE float64
	SWITCH       float64

	// memory operations
	MALLOC     float64
	FREE       float64
	STACK      float64
	HEAP       float64
	ALOAD      float64
	WAIT_STACK float64
	WAIT_HEAP  float64

	// binary operations
	MULDIV  float64
	LOGICAL float64
	ADDSUB  float64

	// sum operation
	SUM float64

	// unary operation
	UOP float64

	// comparison
	COMP float64

	// ternary operation
	TERNARY float64

	// function call
	CALL        float64
	CALL_ORACLE float64
	PER_ARG     float64

	// assertion
	ASSERT float64
}

// -------------------
// ----- Globals -----
// -------------------

// NormalCost is the cost table used outside of the "oracle" function.
var NormalCost = Cost{
	RET:          1.0,
	BRUNCOND:     1.0,
	BRCOND_TRUE:  6.0,
	BRCOND_FALSE: 1.0,
	SWITCH:       4.0,

	MALLOC:     50.0,
	FREE:       50.0,
	STACK:      20.0,
	HEAP:       30.0,
	ALOAD:      1.0,
	WAIT_STACK: 24.0,
	WAIT_HEAP:  34.0,

	MULDIV:  1.0,
	LOGICAL: 4.0,
	ADDSUB:  5.0,

	SUM: 10.0,

	UOP: 1.0,

	COMP: 1.0,

	TERNARY: 1.0,

	CALL:        2.0,
	CALL_ORACLE: 40.0,
	PER_ARG:     1.0,

	ASSERT: 0.0,
}

// OracleCost is the cost table used while executing inside "oracle". It
// differs from NormalCost only in STACK and HEAP, which are cheaper: the
// oracle function is graded as a trusted reference implementation, not the
// program under test.
var OracleCost = Cost{
	RET:          1.0,
	BRUNCOND:     1.0,
	BRCOND_TRUE:  6.0,
	BRCOND_FALSE: 1.0,
	SWITCH:       4.0,

	MALLOC:     50.0,
	FREE:       50.0,
	STACK:      2.0,
	HEAP:       3.0,
	ALOAD:      1.0,
	WAIT_STACK: 24.0,
	WAIT_HEAP:  34.0,

	MULDIV:  1.0,
	LOGICAL: 4.0,
	ADDSUB:  5.0,

	SUM: 10.0,

	UOP: 1.0,

	COMP: 1.0,

	TERNARY: 1.0,

	CALL:        2.0,
	CALL_ORACLE: 40.0,
	PER_ARG:     1.0,

	ASSERT: 0.0,
}

// BopCost returns the per-instruction cost category of a BopKind under Cost
// table c.
func (c *Cost) BopCost(k BopKind) float64 {
	switch {
	case k.IsComparison():
		return c.COMP
	case k == Udiv || k == Sdiv || k == Urem || k == Srem || k == Mul:
		return c.MULDIV
	case k == Add || k == Sub:
		return c.ADDSUB
	default:
		// Shl, Lshr, Ashr, And, Or, Xor
		return c.LOGICAL
	}
}
