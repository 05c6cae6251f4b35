package exec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"swpp-interpreter/src/isa"
	"swpp-interpreter/src/mem"
	"swpp-interpreter/src/program"
	"swpp-interpreter/src/reg"
)

// ----------------------------
// ----- Functions -----
// ----------------------------

// getWaitCost returns the cost an instruction pays for consuming a
// register with pending deadline d, given the cost already accumulated in
// the enclosing activation (§4.2).
func getWaitCost(acc, d float64) float64 {
	if acc >= d {
		return 0
	}
	return d - acc
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// execMalloc allocates Val.size bytes on the heap, writing the new
// address to Lhs (§4.5 Malloc).
func execMalloc(s *program.Stmt, acc float64, rf *reg.RegFile, m *mem.Memory, cost *isa.Cost) (float64, float64, error) {
	size, d, err := s.Val.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	addr, err := m.Malloc(size)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	if err := rf.Write(s.Lhs, addr); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	return cost.MALLOC, getWaitCost(acc, d), nil
}

// execFree releases the allocation based at Val's value (§4.5 Free).
func execFree(s *program.Stmt, acc float64, rf *reg.RegFile, m *mem.Memory, cost *isa.Cost) (float64, float64, error) {
	addr, d, err := s.Val.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	if err := m.Free(addr); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	return cost.FREE, getWaitCost(acc, d), nil
}

// execLoad reads Size bytes at Ptr.value+Offset, writing the result to
// Lhs. An async load additionally stamps a wait-until deadline on Lhs
// (§4.3, §4.5 Load).
func execLoad(s *program.Stmt, acc float64, rf *reg.RegFile, m *mem.Memory, cost *isa.Cost) (float64, float64, error) {
	ptr, d, err := s.Ptr.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	addr := ptr + s.Offset
	v, err := m.Load(s.Size, addr)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	wait := getWaitCost(acc, d)
	if err := rf.Write(s.Lhs, v); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}

	var instCost float64
	if s.Async {
		instCost = cost.ALOAD
		var deadline float64
		if mem.InStack(addr) {
			deadline = acc + wait + cost.ALOAD + cost.WAIT_STACK
		} else {
			deadline = acc + wait + cost.ALOAD + cost.WAIT_HEAP
		}
		if err := rf.SetAsync(s.Lhs, deadline); err != nil {
			return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
		}
	} else if mem.InStack(addr) {
		instCost = cost.STACK
	} else {
		instCost = cost.HEAP
	}
	return instCost, wait, nil
}

// execStore writes StoreV's value at Ptr.value+Offset (§4.5 Store).
func execStore(s *program.Stmt, acc float64, rf *reg.RegFile, m *mem.Memory, cost *isa.Cost) (float64, float64, error) {
	ptr, ptrD, err := s.Ptr.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	addr := ptr + s.Offset
	v, valD, err := s.StoreV.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	if err := m.Store(s.Size, addr, v); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	wait := maxf(getWaitCost(acc, ptrD), getWaitCost(acc, valD))
	var instCost float64
	if mem.InStack(addr) {
		instCost = cost.STACK
	} else {
		instCost = cost.HEAP
	}
	return instCost, wait, nil
}

// normalizeOperand applies the signed/unsigned size normalisation §4.5
// specifies for Bop operands.
func normalizeOperand(k isa.BopKind, size isa.Size, v uint64) uint64 {
	if k.IsSigned() {
		return size.SignExtend(v)
	}
	return size.Truncate(v)
}

// computeBop evaluates a binary operation per §4.5's normalise-compute-mask
// pipeline.
func computeBop(line int, k isa.BopKind, size isa.Size, v1, v2 uint64) (uint64, error) {
	op1 := normalizeOperand(k, size, v1)
	var op2 uint64
	if k.IsShift() {
		op2 = size.ReduceShift(v2)
	} else {
		op2 = normalizeOperand(k, size, v2)
	}

	b2u := func(b bool) uint64 {
		if b {
			return 1
		}
		return 0
	}

	var result uint64
	switch k {
	case isa.Udiv:
		if op2 == 0 {
			return 0, fmt.Errorf("line %d: division by zero", line)
		}
		result = op1 / op2
	case isa.Sdiv:
		if op2 == 0 {
			return 0, fmt.Errorf("line %d: division by zero", line)
		}
		result = uint64(int64(op1) / int64(op2))
	case isa.Urem:
		if op2 == 0 {
			return 0, fmt.Errorf("line %d: division by zero", line)
		}
		result = op1 % op2
	case isa.Srem:
		if op2 == 0 {
			return 0, fmt.Errorf("line %d: division by zero", line)
		}
		result = uint64(int64(op1) % int64(op2))
	case isa.Mul:
		result = op1 * op2
	case isa.Shl:
		result = op1 << op2
	case isa.Lshr:
		result = op1 >> op2
	case isa.Ashr:
		result = uint64(int64(op1) >> op2)
	case isa.And:
		result = op1 & op2
	case isa.Or:
		result = op1 | op2
	case isa.Xor:
		result = op1 ^ op2
	case isa.Add:
		result = op1 + op2
	case isa.Sub:
		result = op1 - op2
	case isa.Eq:
		result = b2u(op1 == op2)
	case isa.Ne:
		result = b2u(op1 != op2)
	case isa.Ugt:
		result = b2u(op1 > op2)
	case isa.Uge:
		result = b2u(op1 >= op2)
	case isa.Ult:
		result = b2u(op1 < op2)
	case isa.Ule:
		result = b2u(op1 <= op2)
	case isa.Sgt:
		result = b2u(int64(op1) > int64(op2))
	case isa.Sge:
		result = b2u(int64(op1) >= int64(op2))
	case isa.Slt:
		result = b2u(int64(op1) < int64(op2))
	case isa.Sle:
		result = b2u(int64(op1) <= int64(op2))
	}
	return size.Truncate(result), nil
}

// execBop evaluates Op1 Op Op2 and writes the result to Lhs (§4.5 Bop).
func execBop(s *program.Stmt, acc float64, rf *reg.RegFile, cost *isa.Cost) (float64, float64, error) {
	v1, d1, err := s.Op1.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	v2, d2, err := s.Op2.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	res, err := computeBop(s.Line, s.BopKind, s.Size, v1, v2)
	if err != nil {
		return 0, 0, err
	}
	if err := rf.Write(s.Lhs, res); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	wait := maxf(getWaitCost(acc, d1), getWaitCost(acc, d2))
	return cost.BopCost(s.BopKind), wait, nil
}

// execSum adds the 8 declared operands modulo 2^Size and writes the
// result to Lhs (§4.5 Sum).
func execSum(s *program.Stmt, acc float64, rf *reg.RegFile, cost *isa.Cost) (float64, float64, error) {
	var res uint64
	waitUntil := -1.0
	for _, o := range s.Operands {
		v, d, err := o.Resolve(rf)
		if err != nil {
			return 0, 0, err
		}
		res += v
		if d > waitUntil {
			waitUntil = d
		}
	}
	res = s.Size.Truncate(res)
	if err := rf.Write(s.Lhs, res); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	return cost.SUM, getWaitCost(acc, waitUntil), nil
}

// execUop increments or decrements Val and writes the masked result to
// Lhs (§4.5 Uop).
func execUop(s *program.Stmt, acc float64, rf *reg.RegFile, cost *isa.Cost) (float64, float64, error) {
	v, d, err := s.Val.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	var res uint64
	if s.UopKind == isa.Incr {
		res = v + 1
	} else {
		res = v - 1
	}
	res = s.Size.Truncate(res)
	if err := rf.Write(s.Lhs, res); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	return cost.UOP, getWaitCost(acc, d), nil
}

// execSelect chooses True or False by Cond's truth and writes it to Lhs.
// The unselected branch is still resolved, which clears any pending
// deadline on its register, but that deadline does not contribute to the
// wait cost (§4.5 Select).
func execSelect(s *program.Stmt, acc float64, rf *reg.RegFile, cost *isa.Cost) (float64, float64, error) {
	cv, cd, err := s.Cond.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	tv, td, err := s.True.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	fv, fd, err := s.False.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	waitUntil := cd
	var res uint64
	if cv != 0 {
		if td > waitUntil {
			waitUntil = td
		}
		res = tv
	} else {
		if fd > waitUntil {
			waitUntil = fd
		}
		res = fv
	}
	if err := rf.Write(s.Lhs, res); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	return cost.TERNARY, getWaitCost(acc, waitUntil), nil
}

// execAssert compares AssertOp1 and AssertOp2; a mismatch is fatal and
// reports a full register dump (§4.5 Assert, §7).
func execAssert(s *program.Stmt, acc float64, rf *reg.RegFile, cost *isa.Cost) (float64, float64, error) {
	v1, d1, err := s.AssertOp1.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	v2, d2, err := s.AssertOp2.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	if v1 != v2 {
		return 0, 0, fmt.Errorf("line %d: assertion failed: %d != %d\n%s", s.Line, v1, v2, rf.String())
	}
	waitUntil := maxf(d1, d2)
	return cost.ASSERT, getWaitCost(acc, waitUntil), nil
}

// execRead consumes one whitespace-delimited decimal token from in and
// writes it to Lhs (§4.5, §6).
func execRead(s *program.Stmt, rf *reg.RegFile, in *bufio.Scanner, cost *isa.Cost) (float64, float64, error) {
	if !in.Scan() {
		return 0, 0, fmt.Errorf("line %d: read past end of input", s.Line)
	}
	v, err := strconv.ParseUint(in.Text(), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: invalid input %q", s.Line, in.Text())
	}
	if err := rf.Write(s.Lhs, v); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	return cost.CALL, 0, nil
}

// execWrite prints Val's value in decimal followed by a newline and
// writes 0 to Lhs (§4.5, §6). Read's cost notably omits PER_ARG while
// Write's does not — this asymmetry is preserved from the reference
// implementation (§9).
func execWrite(s *program.Stmt, acc float64, rf *reg.RegFile, cost *isa.Cost, out io.Writer) (float64, float64, error) {
	v, d, err := s.Val.Resolve(rf)
	if err != nil {
		return 0, 0, err
	}
	fmt.Fprintf(out, "%d\n", v)
	if err := rf.Write(s.Lhs, 0); err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", s.Line, err)
	}
	return cost.CALL + cost.PER_ARG, getWaitCost(acc, d), nil
}
