package compiler

import "github.com/chazu/clover/vm"

// exprKind tags the seven variants of a compile-time expression-stack
// entry. Real Clover sources rarely need more than one entry live at a
// time during parsing of a single (sub)expression, so the parser
// passes entries by value through its recursive descent rather than
// maintaining an explicit stack; the baking actions below are the same
// seven actions the language describes, just invoked directly on the
// entry a subexpression produced.
type exprKind uint8

const (
	exprId exprKind = iota
	exprInt
	exprFloat
	exprRef
	exprDot
	exprValue
	exprFunction
)

type exprEntry struct {
	kind      exprKind
	name      string
	ival      int32
	fval      float32
	typ       Type
	isPointer bool
	structIdx int
	sym       Symbol
}

func valueEntry(t Type) exprEntry { return exprEntry{kind: exprValue, typ: t} }

// addrOf maps a Symbol's storage class to its runtime Address.
func addrOf(sym Symbol) vm.Address { return sym.Addr }

// bakeRight materializes e as a value on the operand stack, returning
// its static type.
func (p *Parser) bakeRight(e exprEntry) (Type, error) {
	switch e.kind {
	case exprInt:
		u := uint32(e.ival)
		if u <= 15 {
			p.code.emitIndex(vm.OpPushIntConstS, uint8(e.ival))
			return TypeInt, nil
		}
		if u <= 255 {
			p.code.emitConst(e.ival)
			return TypeInt, nil
		}
		id, err := p.constID(uint32(e.ival))
		if err != nil {
			return TypeNone, err
		}
		p.code.emitId(vm.OpPush, id)
		return TypeInt, nil

	case exprFloat:
		id, err := p.constID(vm.FloatValue(e.fval).Uint())
		if err != nil {
			return TypeNone, err
		}
		p.code.emitId(vm.OpPush, id)
		return TypeFloat, nil

	case exprId:
		p.code.emitId(vm.OpPush, addrOf(e.sym).ID())
		return e.sym.Type, nil

	case exprRef:
		if !e.isPointer {
			p.code.emitOp(vm.OpPushDeref)
		}
		return e.typ, nil

	case exprValue:
		return e.typ, nil

	default:
		return TypeNone, &CompileError{Kind: ErrExpectedExpr}
	}
}

// bakeRef ensures e is addressable and emits PushRef, producing a Ref
// entry over e's address and type.
func (p *Parser) bakeRef(e exprEntry) (exprEntry, error) {
	switch e.kind {
	case exprId:
		p.code.emitId(vm.OpPushRef, addrOf(e.sym).ID())
		return exprEntry{kind: exprRef, typ: e.sym.Type, sym: e.sym}, nil
	case exprRef:
		return e, nil
	default:
		return exprEntry{}, &CompileError{Kind: ErrExpectedRef}
	}
}

// bakePtr implements `&x`: the produced value is the address itself,
// not the pointee's contents.
func (p *Parser) bakePtr(e exprEntry) (exprEntry, error) {
	ref, err := p.bakeRef(e)
	if err != nil {
		return exprEntry{}, err
	}
	ref.isPointer = true
	ref.typ = TypePtr
	ref.sym.Type = ref.typ
	return ref, nil
}

// bakeIndex consumes a base Ref already on the stack and an index
// value baked by the caller, emitting Index<elemSize>; the result is a
// Ref to the indexed element. Caller order: base ref pushed first, then
// the index value, matching the VM's pop-index-then-mutate-top.
func (p *Parser) bakeIndex(base exprEntry, elemSize uint8) (exprEntry, error) {
	if err := p.code.emitIndex(vm.OpIndex, elemSize); err != nil {
		return exprEntry{}, err
	}
	return exprEntry{kind: exprRef, typ: base.typ}, nil
}

// bakeOffset consumes a struct Ref already on the stack and emits
// Offset<memberIndex>, producing a Ref to the member.
func (p *Parser) bakeOffset(base exprEntry, memberIndex uint8, memberType Type) (exprEntry, error) {
	if err := p.code.emitIndex(vm.OpOffset, memberIndex); err != nil {
		return exprEntry{}, err
	}
	return exprEntry{kind: exprRef, typ: memberType}, nil
}

// bakeLeft consumes a Ref (already pushed) and an RHS value (already
// pushed above it) and emits PopDeref.
func (p *Parser) bakeLeft(ref exprEntry) error {
	if ref.kind != exprRef {
		return &CompileError{Kind: ErrAssignmentNotAllowedHere}
	}
	p.code.emitOp(vm.OpPopDeref)
	return nil
}

// constID deduplicates word into the pending constant pool, returning
// its 8-bit id.
func (p *Parser) constID(word uint32) (uint8, error) {
	if id, ok := p.constDedup[word]; ok {
		return id, nil
	}
	if len(p.constPool) >= vm.ConstIdSize {
		return 0, &CompileError{Kind: ErrTooManyConstants}
	}
	id := uint8(len(p.constPool))
	p.constPool = append(p.constPool, word)
	p.constDedup[word] = id
	return id, nil
}
