package compiler

import "github.com/chazu/clover/vm"

// binOp describes one binary operator: its precedence (higher binds
// tighter), the int/float opcode pair, and whether it yields a boolean
// (always Int) result rather than an operand of the same type.
type binOp struct {
	prec        int
	intOp       vm.Opcode
	floatOp     vm.Opcode
	boolResult  bool
}

var binOps = map[byte]binOp{}

var multiBinOps = map[TokenType]binOp{
	TokenLOr:  {1, vm.OpLOr, vm.OpLOr, true},
	TokenLAnd: {2, vm.OpLAnd, vm.OpLAnd, true},
	TokenEq:   {6, vm.OpEQInt, vm.OpEQFloat, true},
	TokenNe:   {6, vm.OpNEInt, vm.OpNEFloat, true},
	TokenLe:   {7, vm.OpLEInt, vm.OpLEFloat, true},
	TokenGe:   {7, vm.OpGEInt, vm.OpGEFloat, true},
}

func init() {
	binOps['|'] = binOp{3, vm.OpOr, vm.OpOr, false}
	binOps['^'] = binOp{4, vm.OpXor, vm.OpXor, false}
	binOps['&'] = binOp{5, vm.OpAnd, vm.OpAnd, false}
	binOps['<'] = binOp{7, vm.OpLTInt, vm.OpLTFloat, true}
	binOps['>'] = binOp{7, vm.OpGTInt, vm.OpGTFloat, true}
	binOps['+'] = binOp{8, vm.OpAddInt, vm.OpAddFloat, false}
	binOps['-'] = binOp{8, vm.OpSubInt, vm.OpSubFloat, false}
	binOps['*'] = binOp{9, vm.OpMulInt, vm.OpMulFloat, false}
	binOps['/'] = binOp{9, vm.OpDivInt, vm.OpDivFloat, false}
}

func lookupBinOp(tok Token) (binOp, bool) {
	if tok.Type == TokenPunct {
		op, ok := binOps[tok.Ch]
		return op, ok
	}
	op, ok := multiBinOps[tok.Type]
	return op, ok
}

var assignOps = map[TokenType]byte{
	TokenAddEq: '+', TokenSubEq: '-', TokenMulEq: '*', TokenDivEq: '/',
	TokenAndEq: '&', TokenOrEq: '|', TokenXorEq: '^',
}

// parseExpr parses a full expression and requires it to leave exactly
// one value on the operand stack; assignment, which leaves nothing
// per the Left baking action, is rejected here with ErrExpectedExpr.
// Assignment is only legal as a statement (see parseExprStatement/
// parseForInit) or for-loop iteration clause.
func (p *Parser) parseExpr() (Type, error) {
	t, produced, err := p.parseExprMaybeAssign()
	if err != nil {
		return TypeNone, err
	}
	if !produced {
		return TypeNone, &CompileError{Kind: ErrExpectedExpr}
	}
	return t, nil
}

func (p *Parser) parseExprMaybeAssign() (Type, bool, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return TypeNone, false, err
	}
	tok := p.s.Peek()
	if tok.Type == TokenPunct && tok.Ch == '=' {
		p.s.Next()
		return p.finishAssign(lhs, 0)
	}
	if ch, ok := assignOps[tok.Type]; ok {
		p.s.Next()
		return p.finishAssign(lhs, ch)
	}
	lhsType, err := p.bakeRight(lhs)
	if err != nil {
		return TypeNone, false, err
	}
	lhsType, err = p.parseBinaryRHS(lhsType, 0)
	return lhsType, true, err
}

// finishAssign implements the Left/compound baking actions: simple `=`
// emits Ref; rhs; PopDeref. Compound forms emit
// Ref; Dup; PushDeref; rhs; <op>; PopDeref. Both leave nothing on the
// operand stack.
func (p *Parser) finishAssign(lhs exprEntry, compoundOp byte) (Type, bool, error) {
	ref, err := p.bakeRef(lhs)
	if err != nil {
		return TypeNone, false, err
	}
	if compoundOp == 0 {
		rhsType, err := p.parseExpr()
		if err != nil {
			return TypeNone, false, err
		}
		if !typesAssignable(ref.typ, rhsType) {
			return TypeNone, false, &CompileError{Kind: ErrMismatchedType}
		}
		if err := p.bakeLeft(ref); err != nil {
			return TypeNone, false, err
		}
		return ref.typ, false, nil
	}

	op, ok := binOps[compoundOp]
	if !ok {
		return TypeNone, false, &CompileError{Kind: ErrInternalError}
	}
	p.code.emitOp(vm.OpDup)
	p.code.emitOp(vm.OpPushDeref)
	rhsType, err := p.parseExpr()
	if err != nil {
		return TypeNone, false, err
	}
	if !typesAssignable(ref.typ, rhsType) {
		return TypeNone, false, &CompileError{Kind: ErrMismatchedType}
	}
	if ref.typ == TypeFloat {
		p.code.emitOp(op.floatOp)
	} else {
		p.code.emitOp(op.intOp)
	}
	if err := p.bakeLeft(ref); err != nil {
		return TypeNone, false, err
	}
	return ref.typ, false, nil
}

func typesAssignable(lhs, rhs Type) bool {
	if lhs == rhs {
		return true
	}
	return lhs == TypeFloat && rhs == TypeInt
}

// parseBinaryRHS implements precedence climbing over the operators in
// binOps/multiBinOps; lhsType is the static type of the value already
// on the stack.
func (p *Parser) parseBinaryRHS(lhsType Type, minPrec int) (Type, error) {
	for {
		tok := p.s.Peek()
		op, ok := lookupBinOp(tok)
		if !ok || op.prec < minPrec {
			return lhsType, nil
		}
		p.s.Next()

		rhsEntry, err := p.parseUnary()
		if err != nil {
			return TypeNone, err
		}
		rhsType, err := p.bakeRight(rhsEntry)
		if err != nil {
			return TypeNone, err
		}
		for {
			next := p.s.Peek()
			nextOp, ok := lookupBinOp(next)
			if !ok || nextOp.prec <= op.prec {
				break
			}
			rhsType, err = p.parseBinaryRHS(rhsType, nextOp.prec)
			if err != nil {
				return TypeNone, err
			}
		}

		if !typesAssignable(lhsType, rhsType) && !typesAssignable(rhsType, lhsType) {
			return TypeNone, &CompileError{Kind: ErrMismatchedType}
		}
		opType := lhsType
		if rhsType == TypeFloat {
			opType = TypeFloat
		}
		if opType == TypeFloat {
			p.code.emitOp(op.floatOp)
		} else {
			p.code.emitOp(op.intOp)
		}
		if op.boolResult {
			lhsType = TypeInt
		} else {
			lhsType = opType
		}
	}
}

// parseUnary handles prefix operators and falls through to postfix.
func (p *Parser) parseUnary() (exprEntry, error) {
	tok := p.s.Peek()
	switch {
	case tok.Type == TokenPunct && tok.Ch == '-':
		p.s.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return exprEntry{}, err
		}
		t, err := p.bakeRight(operand)
		if err != nil {
			return exprEntry{}, err
		}
		if t == TypeFloat {
			p.code.emitOp(vm.OpNegFloat)
		} else {
			p.code.emitOp(vm.OpNegInt)
		}
		return valueEntry(t), nil

	case tok.Type == TokenPunct && tok.Ch == '!':
		p.s.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return exprEntry{}, err
		}
		if _, err := p.bakeRight(operand); err != nil {
			return exprEntry{}, err
		}
		p.code.emitOp(vm.OpLNot)
		return valueEntry(TypeInt), nil

	case tok.Type == TokenPunct && tok.Ch == '~':
		p.s.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return exprEntry{}, err
		}
		if _, err := p.bakeRight(operand); err != nil {
			return exprEntry{}, err
		}
		p.code.emitOp(vm.OpNot)
		return valueEntry(TypeInt), nil

	case tok.Type == TokenPunct && tok.Ch == '&':
		p.s.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return exprEntry{}, err
		}
		return p.bakePtr(operand)

	case tok.Type == TokenPunct && tok.Ch == '*':
		p.s.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return exprEntry{}, err
		}
		return p.loadAsRef(operand)

	case tok.Type == TokenIncr || tok.Type == TokenDecr:
		p.s.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return exprEntry{}, err
		}
		ref, err := p.bakeRef(operand)
		if err != nil {
			return exprEntry{}, err
		}
		if tok.Type == TokenIncr {
			if ref.typ == TypeFloat {
				p.code.emitOp(vm.OpPreIncFloat)
			} else {
				p.code.emitOp(vm.OpPreIncInt)
			}
		} else {
			if ref.typ == TypeFloat {
				p.code.emitOp(vm.OpPreDecFloat)
			} else {
				p.code.emitOp(vm.OpPreDecInt)
			}
		}
		return valueEntry(ref.typ), nil

	default:
		return p.parsePostfix()
	}
}

// loadAsRef produces a Ref over the storage e addresses: for a plain
// variable this is its own address (PushRef); for a pointer-typed
// variable, the variable's value already IS that address, so it is
// simply loaded (Push).
func (p *Parser) loadAsRef(e exprEntry) (exprEntry, error) {
	if e.kind == exprId && e.sym.IsPointer {
		p.code.emitId(vm.OpPush, addrOf(e.sym).ID())
		return exprEntry{kind: exprRef, typ: e.sym.Type}, nil
	}
	if e.kind == exprRef && e.isPointer {
		// The ref's address-of-storage has already been pushed as a
		// value (via bakePtr); nothing further to load.
		return exprEntry{kind: exprRef, typ: e.typ}, nil
	}
	return p.bakeRef(e)
}

func (p *Parser) parsePostfix() (exprEntry, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return exprEntry{}, err
	}
	for {
		tok := p.s.Peek()
		switch {
		case tok.Type == TokenPunct && tok.Ch == '.':
			p.s.Next()
			memberTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
			if err != nil {
				return exprEntry{}, err
			}
			base, err := p.loadAsRef(e)
			if err != nil {
				return exprEntry{}, err
			}
			if !base.typ.IsStruct() {
				return exprEntry{}, p.errf(ErrExpectedStructType, memberTok)
			}
			st := p.sym.Structs[base.typ.StructIndex()]
			idx, memberType, ok := st.Find(memberTok.Text)
			if !ok {
				return exprEntry{}, p.errf(ErrUndefinedIdentifier, memberTok)
			}
			e, err = p.bakeOffset(base, uint8(idx), memberType)
			if err != nil {
				return exprEntry{}, err
			}

		case tok.Type == TokenPunct && tok.Ch == '[':
			p.s.Next()
			base, err := p.loadAsRef(e)
			if err != nil {
				return exprEntry{}, err
			}
			idxEntry, err := p.parseUnary()
			if err != nil {
				return exprEntry{}, err
			}
			lhsType, err := p.bakeRight(idxEntry)
			if err != nil {
				return exprEntry{}, err
			}
			idxType, err := p.parseBinaryRHS(lhsType, 0)
			if err != nil {
				return exprEntry{}, err
			}
			if idxType != TypeInt {
				return exprEntry{}, &CompileError{Kind: ErrWrongType}
			}
			if _, err := p.expectPunct(']'); err != nil {
				return exprEntry{}, err
			}
			e, err = p.bakeIndex(base, p.typeSize(base.typ))
			if err != nil {
				return exprEntry{}, err
			}

		case tok.Type == TokenIncr || tok.Type == TokenDecr:
			p.s.Next()
			ref, err := p.bakeRef(e)
			if err != nil {
				return exprEntry{}, err
			}
			if tok.Type == TokenIncr {
				if ref.typ == TypeFloat {
					p.code.emitOp(vm.OpPostIncFloat)
				} else {
					p.code.emitOp(vm.OpPostIncInt)
				}
			} else {
				if ref.typ == TypeFloat {
					p.code.emitOp(vm.OpPostDecFloat)
				} else {
					p.code.emitOp(vm.OpPostDecInt)
				}
			}
			e = valueEntry(ref.typ)

		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (exprEntry, error) {
	tok := p.s.Next()
	switch tok.Type {
	case TokenInteger:
		return exprEntry{kind: exprInt, ival: tok.I}, nil
	case TokenFloat:
		return exprEntry{kind: exprFloat, fval: tok.F}, nil
	case TokenPunct:
		if tok.Ch == '(' {
			t, err := p.parseExpr()
			if err != nil {
				return exprEntry{}, err
			}
			if _, err := p.expectPunct(')'); err != nil {
				return exprEntry{}, err
			}
			return valueEntry(t), nil
		}
		return exprEntry{}, p.errf(ErrExpectedExpr, tok)
	case TokenIdentifier:
		if p.peekPunct('(') {
			return p.parseCall(tok)
		}
		if def, ok := p.sym.FindDef(tok.Text); ok {
			return exprEntry{kind: exprInt, ival: int32(def.Value)}, nil
		}
		sym, ok := p.lookupSymbol(tok.Text)
		if !ok {
			return exprEntry{}, p.errf(ErrUndefinedIdentifier, tok)
		}
		return exprEntry{kind: exprId, sym: sym}, nil
	default:
		return exprEntry{}, p.errf(ErrExpectedExpr, tok)
	}
}

// lookupSymbol resolves a name against locals (including formals),
// then globals/consts.
func (p *Parser) lookupSymbol(name string) (Symbol, bool) {
	for _, l := range p.curLocals {
		if l.Name == name {
			return l, true
		}
	}
	return p.sym.FindGlobal(name)
}

func (p *Parser) parseCall(nameTok Token) (exprEntry, error) {
	p.s.Next() // (
	var argTypes []Type
	for !p.peekPunct(')') {
		t, err := p.parseExpr()
		if err != nil {
			return exprEntry{}, err
		}
		argTypes = append(argTypes, t)
		if p.peekPunct(',') {
			p.s.Next()
			continue
		}
		break
	}
	if _, err := p.expectPunct(')'); err != nil {
		return exprEntry{}, err
	}

	fn, ok := p.sym.FindFunction(nameTok.Text)
	if ok {
		if fn.NumParams() != len(argTypes) {
			return exprEntry{}, p.errf(ErrWrongNumberOfArgs, nameTok)
		}
	} else {
		p.pendingCalls = append(p.pendingCalls, pendingCall{name: nameTok.Text, args: len(argTypes), tok: nameTok})
	}

	if ok && fn.IsNative {
		p.code.emitId(vm.OpCallNative, fn.NativeID)
		return valueEntry(fn.ReturnType), nil
	}
	p.code.emitCallPlaceholder(nameTok.Text)
	retType := TypeInt
	if ok {
		retType = fn.ReturnType
	}
	return valueEntry(retType), nil
}
