package vm

import (
	"strconv"
	"strings"
)

// runTopLevel resets the operand stack, pushes the sentinel return PC
// that marks a top-level call, and dispatches from entry until that
// sentinel is restored (normal completion) or an error is recorded.
func (v *VM) runTopLevel(entry int32) error {
	v.stack.Reset()
	v.stack.Push(IntValue(-1))
	v.pc = entry

	for {
		if serr := v.stack.Error(); serr != ErrNone {
			v.err = serr
			v.errAddr = v.pc - 1
			return errorFor(serr)
		}
		if v.err != ErrNone {
			v.errAddr = v.pc - 1
			return errorFor(v.err)
		}
		halted, err := v.step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

// errorFor adapts an Error into a Go error for callers that want one;
// the canonical state lives in v.err/v.errAddr.
func errorFor(e Error) error { return vmError(e) }

type vmError Error

func (e vmError) Error() string { return "vm: " + Error(e).String() }

// step fetches, decodes and executes one instruction. It returns
// halted=true when a top-level Return has just restored the sentinel
// PC (-1).
func (v *VM) step() (halted bool, err error) {
	opByte := v.readByte(v.pc)
	op := Opcode(opByte)
	v.pc++

	if !op.IsExtended() {
		return v.execPlain(op)
	}
	return v.execExtended(op)
}

func (v *VM) fail(e Error) (bool, error) {
	v.err = e
	v.errAddr = v.pc - 1
	return false, errorFor(e)
}

func (v *VM) execPlain(op Opcode) (bool, error) {
	s := v.stack
	switch op {
	case OpNone:
		return false, nil

	case OpPushIntConst:
		c := v.readByte(v.pc)
		v.pc++
		s.Push(IntValue(int32(c)))

	case OpPushDeref:
		addr := DecodeAddress(s.Pop())
		s.Push(v.ReadSlot(addr))

	case OpPopDeref:
		val := s.Pop()
		addr := DecodeAddress(s.Pop())
		v.WriteSlot(addr, val)

	case OpDup:
		s.Push(s.Top(0))
	case OpDrop:
		s.Pop()
	case OpSwap:
		a := s.Top(0)
		b := s.Top(1)
		s.SetTop(0, b)
		s.SetTop(1, a)

	case OpCallNative:
		id := v.readByte(v.pc)
		v.pc++
		module, ok := v.natives.find(id)
		if !ok {
			return v.fail(ErrInvalidNativeFunction)
		}
		n := int32(module.NumParams(id))
		savedBP := s.EnterNative(n)
		result := module.Call(v, id)
		if v.err != ErrNone {
			return v.fail(v.err)
		}
		s.ExitNative(savedBP, n, IntValue(result))

	case OpReturn:
		pc, _ := s.Return()
		if s.Error() != ErrNone {
			return v.fail(s.Error())
		}
		if pc == -1 {
			return true, nil
		}
		v.pc = pc

	case OpNot:
		s.Push(IntValue(^s.Pop().Int()))
	case OpLNot:
		if s.Pop().Int() == 0 {
			s.Push(IntValue(1))
		} else {
			s.Push(IntValue(0))
		}
	case OpNegInt:
		s.Push(IntValue(-s.Pop().Int()))
	case OpNegFloat:
		s.Push(FloatValue(-s.Pop().Float()))

	case OpOr:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(IntValue(a | b))
	case OpXor:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(IntValue(a ^ b))
	case OpAnd:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(IntValue(a & b))
	case OpLOr:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(boolValue(a != 0 || b != 0))
	case OpLAnd:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(boolValue(a != 0 && b != 0))

	case OpLTInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(boolValue(a < b))
	case OpLTFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(boolValue(a < b))
	case OpLEInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(boolValue(a <= b))
	case OpLEFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(boolValue(a <= b))
	case OpEQInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(boolValue(a == b))
	case OpEQFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(boolValue(a == b))
	case OpNEInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(boolValue(a != b))
	case OpNEFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(boolValue(a != b))
	case OpGEInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(boolValue(a >= b))
	case OpGEFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(boolValue(a >= b))
	case OpGTInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(boolValue(a > b))
	case OpGTFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(boolValue(a > b))

	case OpAddInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(IntValue(a + b))
	case OpAddFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(FloatValue(a + b))
	case OpSubInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(IntValue(a - b))
	case OpSubFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(FloatValue(a - b))
	case OpMulInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		s.Push(IntValue(a * b))
	case OpMulFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(FloatValue(a * b))
	case OpDivInt:
		b, a := s.Pop().Int(), s.Pop().Int()
		if b == 0 {
			s.Push(IntValue(0))
		} else {
			s.Push(IntValue(a / b))
		}
	case OpDivFloat:
		b, a := s.Pop().Float(), s.Pop().Float()
		s.Push(FloatValue(a / b))

	case OpPreIncInt:
		addr := DecodeAddress(s.Pop())
		nv := v.ReadSlot(addr).Int() + 1
		v.WriteSlot(addr, IntValue(nv))
		s.Push(IntValue(nv))
	case OpPreDecInt:
		addr := DecodeAddress(s.Pop())
		nv := v.ReadSlot(addr).Int() - 1
		v.WriteSlot(addr, IntValue(nv))
		s.Push(IntValue(nv))
	case OpPostIncInt:
		addr := DecodeAddress(s.Pop())
		ov := v.ReadSlot(addr).Int()
		v.WriteSlot(addr, IntValue(ov+1))
		s.Push(IntValue(ov))
	case OpPostDecInt:
		addr := DecodeAddress(s.Pop())
		ov := v.ReadSlot(addr).Int()
		v.WriteSlot(addr, IntValue(ov-1))
		s.Push(IntValue(ov))
	case OpPreIncFloat:
		addr := DecodeAddress(s.Pop())
		nv := v.ReadSlot(addr).Float() + 1
		v.WriteSlot(addr, FloatValue(nv))
		s.Push(FloatValue(nv))
	case OpPreDecFloat:
		addr := DecodeAddress(s.Pop())
		nv := v.ReadSlot(addr).Float() - 1
		v.WriteSlot(addr, FloatValue(nv))
		s.Push(FloatValue(nv))
	case OpPostIncFloat:
		addr := DecodeAddress(s.Pop())
		ov := v.ReadSlot(addr).Float()
		v.WriteSlot(addr, FloatValue(ov+1))
		s.Push(FloatValue(ov))
	case OpPostDecFloat:
		addr := DecodeAddress(s.Pop())
		ov := v.ReadSlot(addr).Float()
		v.WriteSlot(addr, FloatValue(ov-1))
		s.Push(FloatValue(ov))

	default:
		return v.fail(ErrInvalidOp)
	}

	if v.err != ErrNone {
		return v.fail(v.err)
	}
	return false, nil
}

func boolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

func (v *VM) execExtended(op Opcode) (bool, error) {
	s := v.stack
	fam := op.Family()
	embedded := op.Embedded()

	switch fam {
	case OpPushRef:
		id := v.readByte(v.pc)
		v.pc++
		addr := AddressFromID(id).Bake(s.BP())
		s.Push(EncodeAddress(addr))

	case OpPush:
		id := v.readByte(v.pc)
		v.pc++
		addr := AddressFromID(id)
		s.Push(v.ReadSlot(addr))

	case OpPop:
		id := v.readByte(v.pc)
		v.pc++
		addr := AddressFromID(id)
		v.WriteSlot(addr, s.Pop())

	case OpCall:
		target := v.read12(embedded)
		retPC := v.pc
		s.Push(IntValue(retPC))
		v.pc = v.codeBase + int32(target)

	case OpOffset:
		top := s.Top(0)
		s.SetTop(0, Value(uint32(top)+uint32(embedded)))

	case OpIndex:
		idx := s.Pop().Int()
		top := s.Top(0)
		s.SetTop(0, Value(uint32(top)+uint32(idx)*uint32(embedded)))

	case OpPushIntConstS:
		s.Push(IntValue(int32(embedded)))

	case OpLog:
		if err := v.execLog(embedded); err != nil {
			return v.fail(v.err)
		}

	case OpSetFrame:
		l := v.readByte(v.pc)
		v.pc++
		_, ok := s.SetFrame(int32(embedded), int32(l))
		if !ok {
			return v.fail(s.Error())
		}

	case OpJump:
		disp := v.read12Signed(embedded)
		v.pc += int32(disp)

	case OpIf:
		disp := v.read12Signed(embedded)
		base := v.pc
		cond := s.Pop()
		if cond.Int() == 0 {
			v.pc = base + int32(disp)
		}

	default:
		return v.fail(ErrInvalidOp)
	}

	if v.err != ErrNone {
		return v.fail(v.err)
	}
	return false, nil
}

// read12 decodes a 12-bit unsigned target: hi is the opcode's embedded
// nibble (bits 11:8), the next code byte is bits 7:0.
func (v *VM) read12(hi uint8) uint16 {
	lo := v.readByte(v.pc)
	v.pc++
	return uint16(hi)<<8 | uint16(lo)
}

// read12Signed decodes a 12-bit signed displacement with the same
// layout as read12.
func (v *VM) read12Signed(hi uint8) int16 {
	raw := v.read12(hi)
	if raw >= 0x800 {
		return int16(raw) - 0x1000
	}
	return int16(raw)
}

func (v *VM) execLog(argCount uint8) error {
	length := v.readByte(v.pc)
	v.pc++
	format := make([]byte, length)
	for i := range format {
		format[i] = v.readByte(v.pc)
		v.pc++
	}

	s := v.stack
	args := make([]Value, argCount)
	for i := range args {
		args[i] = s.Top(int32(argCount) - 1 - int32(i))
	}
	s.PopN(int32(argCount))
	if s.Error() != ErrNone {
		v.err = s.Error()
		return errorFor(v.err)
	}

	v.log(formatLog(format, args))
	return nil
}

// formatLog expands %i, %f and %% in format against args, taken in
// order. Float formatting uses Go's default shortest representation;
// the core does not attempt the embedded target's bespoke
// human-readable float formatter.
func formatLog(format []byte, args []Value) string {
	var b strings.Builder
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		switch format[i+1] {
		case 'i':
			if ai < len(args) {
				b.WriteString(strconv.FormatInt(int64(args[ai].Int()), 10))
				ai++
			}
			i++
		case 'f':
			if ai < len(args) {
				b.WriteString(strconv.FormatFloat(float64(args[ai].Float()), 'g', -1, 32))
				ai++
			}
			i++
		case '%':
			b.WriteByte('%')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
