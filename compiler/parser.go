package compiler

import (
	"math"

	"github.com/chazu/clover/vm"
)

// pendingCall is a Call whose callee wasn't yet declared when emitted;
// validated once the whole program has been parsed.
type pendingCall struct {
	name string
	args int
	tok  Token
}

type pendingCommand struct {
	name        string
	paramCount  uint8
	initFn      string
	loopFn      string
	tok         Token
}

// Parser drives a recursive-descent pass over one Clover source file,
// consulting the symbol table and opcode catalogue and emitting
// bytecode directly into a growing buffer.
type Parser struct {
	s   *Scanner
	sym *SymbolTable

	code *codeBuf

	constPool  []uint32
	constDedup map[uint32]uint8

	curFormals []Symbol
	curLocals  []Symbol
	curFuncIdx int
	inLoop     int
	sawReturn  bool

	pendingCalls    []pendingCall
	pendingCommands []pendingCommand

	globalSize int32
}

// NewParser constructs a Parser over src, with sym pre-populated with
// any native functions the host has registered.
func NewParser(src []byte, sym *SymbolTable) *Parser {
	return &Parser{
		s:          NewScanner(src),
		sym:        sym,
		code:       &codeBuf{},
		constDedup: make(map[uint32]uint8),
	}
}

func (p *Parser) errf(kind ErrorKind, tok Token) error { return newError(kind, tok) }

func (p *Parser) expect(tt TokenType, kind ErrorKind) (Token, error) {
	tok := p.s.Next()
	if tok.Type != tt {
		return tok, p.errf(kind, tok)
	}
	return tok, nil
}

// expectFuncName accepts an identifier or the keyword `loop` as a
// function name, so a command's loop routine can be called `loop`.
func (p *Parser) expectFuncName(kind ErrorKind) (Token, error) {
	tok := p.s.Next()
	if tok.Type != TokenIdentifier && tok.Type != TokenLoop {
		return tok, p.errf(kind, tok)
	}
	return tok, nil
}

func (p *Parser) expectPunct(ch byte) (Token, error) {
	tok := p.s.Next()
	if tok.Type != TokenPunct || tok.Ch != ch {
		return tok, p.errf(ErrExpectedToken, tok)
	}
	return tok, nil
}

func (p *Parser) peekPunct(ch byte) bool {
	tok := p.s.Peek()
	return tok.Type == TokenPunct && tok.Ch == ch
}

// Parse consumes the entire source, populating the symbol table and
// code buffer. The caller (Compile) assembles the final image once
// this returns without error.
func (p *Parser) Parse() error {
	p.s.IgnoreNewlines = true
	for {
		tok := p.s.Peek()
		if tok.Type == TokenEOF {
			break
		}
		if err := p.parseElement(); err != nil {
			return err
		}
	}
	return p.resolvePending()
}

func (p *Parser) resolvePending() error {
	for _, pc := range p.pendingCalls {
		fn, ok := p.sym.FindFunction(pc.name)
		if !ok {
			return p.errf(ErrUndefinedIdentifier, pc.tok)
		}
		if fn.NumParams() != pc.args {
			return p.errf(ErrWrongNumberOfArgs, pc.tok)
		}
	}
	for _, site := range p.code.callPatches {
		fn, ok := p.sym.FindFunction(site.name)
		if !ok || fn.IsNative {
			continue
		}
		if err := p.code.patchAbsTarg(site.site, int(fn.CodeAddr)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseElement() error {
	tok := p.s.Peek()
	switch tok.Type {
	case TokenConst:
		return p.parseConstDecl()
	case TokenDef:
		return p.parseDefDecl()
	case TokenTable:
		return p.parseTable()
	case TokenStruct:
		return p.parseStructDecl()
	case TokenFunction:
		return p.parseFunctionDecl(TypeNone)
	case TokenCommand:
		return p.parseCommandDecl()
	case TokenFloatType:
		p.s.Next()
		return p.parseTypedElement(TypeFloat)
	case TokenIntType:
		p.s.Next()
		return p.parseTypedElement(TypeInt)
	case TokenIdentifier:
		// struct-typed global var or struct-returning function
		return p.parseTypedElement(TypeNone)
	default:
		return p.errf(ErrExpectedToken, tok)
	}
}

// parseTypedElement handles the two constructs that begin with a type
// name: a top-level `var` declaration or a function whose return type
// precedes the `function` keyword.
func (p *Parser) parseTypedElement(t Type) error {
	if t == TypeNone {
		nameTok, err := p.expect(TokenIdentifier, ErrExpectedType)
		if err != nil {
			return err
		}
		idx, _, ok := p.sym.FindStruct(nameTok.Text)
		if !ok {
			return p.errf(ErrExpectedStructType, nameTok)
		}
		t = StructTypeBase + Type(idx)
	}
	if p.s.Peek().Type == TokenFunction {
		return p.parseFunctionDecl(t)
	}
	return p.parseGlobalVarDecl(t)
}

func (p *Parser) parseConstDecl() error {
	p.s.Next() // const
	nameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
	if err != nil {
		return err
	}
	if _, err := p.expectPunct('='); err != nil {
		return err
	}
	litTok := p.s.Next()
	var id uint8
	var typ Type
	switch litTok.Type {
	case TokenInteger:
		id, err = p.constID(uint32(litTok.I))
		typ = TypeInt
	case TokenFloat:
		id, err = p.constID(vm.FloatValue(litTok.F).Uint())
		typ = TypeFloat
	default:
		return p.errf(ErrExpectedValue, litTok)
	}
	if err != nil {
		return err
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}
	if !p.sym.Declare(nameTok.Text) {
		return p.errf(ErrUndefinedIdentifier, nameTok)
	}
	p.sym.Consts = append(p.sym.Consts, Symbol{
		Name: nameTok.Text, Type: typ, Storage: StorageConst,
		Addr: vm.Address{Kind: vm.KindConst, Offset: int32(id)},
	})
	return nil
}

// parseDefDecl handles `def NAME value;`, a compile-time named integer
// constant in 0..255 that inlines wherever an integer literal is legal.
func (p *Parser) parseDefDecl() error {
	p.s.Next() // def
	nameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
	if err != nil {
		return err
	}
	valTok, err := p.expect(TokenInteger, ErrExpectedDef)
	if err != nil {
		return err
	}
	if valTok.I < 0 || valTok.I > 0xff {
		return p.errf(ErrDefOutOfRange, valTok)
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}
	if !p.sym.Declare(nameTok.Text) {
		return p.errf(ErrUndefinedIdentifier, nameTok)
	}
	p.sym.Defs = append(p.sym.Defs, Def{Name: nameTok.Text, Value: uint8(valTok.I)})
	return nil
}

// parseTable handles `table TYPE NAME { v1 v2 v3 ... }`: a named,
// const-pool-backed array literal. Its address is the constant pool's
// size at the point of declaration, and each value is appended to the
// pool in order with no deduplication, so the table reads back as a
// contiguous, indexable run of constants. Only int and float element
// types are supported, matching the original table grammar.
func (p *Parser) parseTable() error {
	p.s.Next() // table
	tok := p.s.Peek()
	var t Type
	switch tok.Type {
	case TokenFloatType:
		p.s.Next()
		t = TypeFloat
	case TokenIntType:
		p.s.Next()
		t = TypeInt
	default:
		return p.errf(ErrExpectedType, tok)
	}
	nameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
	if err != nil {
		return err
	}
	if _, err := p.expectPunct('{'); err != nil {
		return err
	}
	if !p.sym.Declare(nameTok.Text) {
		return p.errf(ErrUndefinedIdentifier, nameTok)
	}

	start := len(p.constPool)
	for {
		neg := false
		if p.peekPunct('-') {
			p.s.Next()
			neg = true
		}
		valTok := p.s.Peek()
		if valTok.Type != TokenFloat && valTok.Type != TokenInteger {
			if neg {
				return p.errf(ErrExpectedValue, valTok)
			}
			break
		}
		p.s.Next()

		var word uint32
		if valTok.Type == TokenFloat {
			f := valTok.F
			if neg {
				f = -f
			}
			if t == TypeInt {
				word = uint32(int32(math.Round(float64(f))))
			} else {
				word = vm.FloatValue(f).Uint()
			}
		} else {
			i := valTok.I
			if neg {
				i = -i
			}
			if t == TypeFloat {
				word = vm.FloatValue(float32(i)).Uint()
			} else {
				word = uint32(i)
			}
		}

		if len(p.constPool) >= vm.ConstIdSize {
			return p.errf(ErrTooManyConstants, nameTok)
		}
		p.constPool = append(p.constPool, word)
	}
	if _, err := p.expectPunct('}'); err != nil {
		return err
	}

	p.sym.Consts = append(p.sym.Consts, Symbol{
		Name: nameTok.Text, Type: t, Storage: StorageConst, Size: uint8(len(p.constPool) - start),
		Addr: vm.Address{Kind: vm.KindConst, Offset: int32(start)},
	})
	return nil
}

func (p *Parser) parseType() (Type, bool, error) {
	tok := p.s.Peek()
	switch tok.Type {
	case TokenIntType:
		p.s.Next()
		return TypeInt, false, nil
	case TokenFloatType:
		p.s.Next()
		return TypeFloat, false, nil
	case TokenIdentifier:
		p.s.Next()
		idx, _, ok := p.sym.FindStruct(tok.Text)
		if !ok {
			return TypeNone, false, p.errf(ErrExpectedStructType, tok)
		}
		isPtr := false
		if p.peekPunct('*') {
			p.s.Next()
			isPtr = true
		}
		return StructTypeBase + Type(idx), isPtr, nil
	default:
		return TypeNone, false, p.errf(ErrExpectedType, tok)
	}
}

func (p *Parser) parseStructDecl() error {
	p.s.Next() // struct
	nameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
	if err != nil {
		return err
	}
	if _, err := p.expectPunct('{'); err != nil {
		return err
	}
	var entries []StructEntry
	for !p.peekPunct('}') {
		t, _, err := p.parseType()
		if err != nil {
			return err
		}
		memberTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
		if err != nil {
			return err
		}
		if len(entries) >= MaxStructEntries {
			return p.errf(ErrTooManyVars, memberTok)
		}
		entries = append(entries, StructEntry{Name: memberTok.Text, Type: t})
		if _, err := p.expectPunct(';'); err != nil {
			return err
		}
	}
	p.s.Next() // }
	if !p.sym.Declare(nameTok.Text) {
		return p.errf(ErrUndefinedIdentifier, nameTok)
	}
	p.sym.Structs = append(p.sym.Structs, Struct{Name: nameTok.Text, Entries: entries})
	return nil
}

func (p *Parser) typeSize(t Type) uint8 {
	if t.IsStruct() && int(t.StructIndex()) < len(p.sym.Structs) {
		return p.sym.Structs[t.StructIndex()].Size()
	}
	return 1
}

func (p *Parser) parseGlobalVarDecl(t Type) error {
	for {
		nameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
		if err != nil {
			return err
		}
		size := p.typeSize(t)
		if p.peekPunct('[') {
			p.s.Next()
			lenTok, err := p.expect(TokenInteger, ErrExpectedValue)
			if err != nil {
				return err
			}
			if _, err := p.expectPunct(']'); err != nil {
				return err
			}
			size = uint8(lenTok.I) * size
		}
		if p.globalSize+int32(size) > vm.GlobalIdSize {
			return p.errf(ErrTooManyVars, nameTok)
		}
		if !p.sym.Declare(nameTok.Text) {
			return p.errf(ErrUndefinedIdentifier, nameTok)
		}
		sym := Symbol{
			Name: nameTok.Text, Type: t, Storage: StorageGlobal, Size: size,
			Addr: vm.Address{Kind: vm.KindGlobal, Offset: p.globalSize},
		}
		p.globalSize += int32(size)
		p.sym.Globals = append(p.sym.Globals, sym)
		tok := p.s.Next()
		if tok.Type == TokenPunct && tok.Ch == ',' {
			continue
		}
		if tok.Type == TokenPunct && tok.Ch == ';' {
			return nil
		}
		return p.errf(ErrExpectedToken, tok)
	}
}

func (p *Parser) parseFunctionDecl(returnType Type) error {
	p.s.Next() // function
	nameTok, err := p.expectFuncName(ErrExpectedIdentifier)
	if err != nil {
		return err
	}
	if _, err := p.expectPunct('('); err != nil {
		return err
	}
	p.curFormals = nil
	for !p.peekPunct(')') {
		t, isPtr, err := p.parseType()
		if err != nil {
			return err
		}
		pnameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
		if err != nil {
			return err
		}
		local := Symbol{Name: pnameTok.Text, Type: t, IsPointer: isPtr, Storage: StorageLocal, Size: 1}
		p.curFormals = append(p.curFormals, local)
		if p.peekPunct(',') {
			p.s.Next()
			continue
		}
		break
	}
	if _, err := p.expectPunct(')'); err != nil {
		return err
	}

	if !p.sym.Declare(nameTok.Text) {
		return p.errf(ErrUndefinedIdentifier, nameTok)
	}
	p.sym.Functions = append(p.sym.Functions, Function{
		Name: nameTok.Text, ReturnType: returnType, Formals: p.curFormals,
	})
	p.curFuncIdx = len(p.sym.Functions) - 1
	p.sym.Functions[p.curFuncIdx].CodeAddr = int32(p.code.offset())

	// locals start as the formals, laid out LocalRel 0..n-1
	p.curLocals = append([]Symbol{}, p.curFormals...)
	for i := range p.curLocals {
		p.curLocals[i].Addr = vm.Address{Kind: vm.KindLocalRel, Offset: int32(i)}
	}

	localsPatch := p.code.emitPL(uint8(len(p.curFormals)))
	p.sawReturn = false

	if _, err := p.expectPunct('{'); err != nil {
		return err
	}
	for !p.peekPunct('}') {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	p.s.Next() // }

	if !p.sawReturn {
		p.code.emitIndex(vm.OpPushIntConstS, 0)
		p.code.emitOp(vm.OpReturn)
	}

	p.code.patchByte(localsPatch, uint8(p.localSlots()-int32(len(p.curFormals))))
	p.sym.Functions[p.curFuncIdx].Locals = p.curLocals
	return nil
}

// localSlots is the total 32-bit slot count curLocals occupies,
// accounting for multi-slot struct/array locals.
func (p *Parser) localSlots() int32 {
	var n int32
	for _, l := range p.curLocals {
		n += int32(l.Size)
	}
	return n
}

func (p *Parser) parseCommandDecl() error {
	tok := p.s.Next() // command
	nameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
	if err != nil {
		return err
	}
	countTok, err := p.expect(TokenInteger, ErrExpectedValue)
	if err != nil {
		return err
	}
	initTok, err := p.expectFuncName(ErrExpectedFunction)
	if err != nil {
		return err
	}
	loopTok, err := p.expectFuncName(ErrExpectedFunction)
	if err != nil {
		return err
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}
	if len(nameTok.Text) > vm.CommandNameSize {
		return p.errf(ErrExecutableTooBig, nameTok)
	}
	p.pendingCommands = append(p.pendingCommands, pendingCommand{
		name: nameTok.Text, paramCount: uint8(countTok.I),
		initFn: initTok.Text, loopFn: loopTok.Text, tok: tok,
	})
	return nil
}

// --- statements ---

func (p *Parser) parseStatement() error {
	tok := p.s.Peek()
	p.s.RecordAnnotation(int32(p.code.offset()))
	switch tok.Type {
	case TokenPunct:
		if tok.Ch == '{' {
			return p.parseBlock()
		}
	case TokenIf:
		return p.parseIf()
	case TokenFor:
		return p.parseFor()
	case TokenWhile:
		return p.parseWhile()
	case TokenLoop:
		return p.parseLoop()
	case TokenReturn:
		return p.parseReturn()
	case TokenBreak:
		return p.parseBreak()
	case TokenContinue:
		return p.parseContinue()
	case TokenLog:
		return p.parseLog()
	case TokenIntType, TokenFloatType:
		return p.parseLocalVarDecl()
	case TokenIdentifier:
		if _, _, ok := p.sym.FindStruct(tok.Text); ok {
			return p.parseLocalVarDecl()
		}
	}
	return p.parseExprStatement()
}

func (p *Parser) parseBlock() error {
	p.s.Next() // {
	for !p.peekPunct('}') {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	p.s.Next() // }
	return nil
}

func (p *Parser) parseLocalVarDecl() error {
	t, _, err := p.parseType()
	if err != nil {
		return err
	}
	for {
		nameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
		if err != nil {
			return err
		}
		size := p.typeSize(t)
		if p.peekPunct('[') {
			p.s.Next()
			lenTok, err := p.expect(TokenInteger, ErrExpectedValue)
			if err != nil {
				return err
			}
			if _, err := p.expectPunct(']'); err != nil {
				return err
			}
			size = uint8(lenTok.I) * size
		}
		offset := p.localSlots()
		if offset+int32(size) > vm.LocalRelIdSize {
			return p.errf(ErrTooManyVars, nameTok)
		}
		local := Symbol{
			Name: nameTok.Text, Type: t, Storage: StorageLocal, Size: size,
			Addr: vm.Address{Kind: vm.KindLocalRel, Offset: offset},
		}
		p.curLocals = append(p.curLocals, local)
		tok := p.s.Next()
		if tok.Type == TokenPunct && tok.Ch == ',' {
			continue
		}
		if tok.Type == TokenPunct && tok.Ch == ';' {
			return nil
		}
		return p.errf(ErrExpectedToken, tok)
	}
}

func (p *Parser) parseIf() error {
	p.s.Next() // if
	if _, err := p.expectPunct('('); err != nil {
		return err
	}
	if _, err := p.parseExpr(); err != nil {
		return err
	}
	if _, err := p.expectPunct(')'); err != nil {
		return err
	}
	elseSite := p.code.emitRelTarg(vm.OpIf)
	if err := p.parseStatement(); err != nil {
		return err
	}
	if p.s.Peek().Type == TokenElse {
		p.s.Next()
		endSite := p.code.emitRelTarg(vm.OpJump)
		if err := p.code.patchRelTarg(elseSite, vm.OpIf, p.code.offset()); err != nil {
			return err
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
		return p.code.patchRelTarg(endSite, vm.OpJump, p.code.offset())
	}
	return p.code.patchRelTarg(elseSite, vm.OpIf, p.code.offset())
}

func (p *Parser) parseFor() error {
	p.s.Next() // for
	if _, err := p.expectPunct('('); err != nil {
		return err
	}
	if !p.peekPunct(';') {
		if err := p.parseForInit(); err != nil {
			return err
		}
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}

	startOffset := p.code.offset()
	lc := p.code.openLoop(startOffset)
	var breakSite int
	hasCond := !p.peekPunct(';')
	if hasCond {
		if _, err := p.parseExpr(); err != nil {
			return err
		}
		breakSite = p.code.emitRelTarg(vm.OpIf)
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}

	// compile the iteration expression inline; it is spliced past the
	// body before the back-jump is emitted.
	iterStart := p.code.offset()
	if !p.peekPunct(')') {
		_, produced, err := p.parseExprMaybeAssign()
		if err != nil {
			return err
		}
		if produced {
			p.code.emitOp(vm.OpDrop)
		}
	}
	iterBytes := append([]byte{}, p.code.bytes[iterStart:]...)
	p.code.bytes = p.code.bytes[:iterStart]
	if _, err := p.expectPunct(')'); err != nil {
		return err
	}

	p.inLoop++
	if err := p.parseStatement(); err != nil {
		p.inLoop--
		return err
	}
	p.inLoop--

	lc.contOffset = p.code.offset()
	p.code.bytes = append(p.code.bytes, iterBytes...)
	p.code.emitRelTarg(vm.OpJump)
	// the Jump we just appended needs patching to startOffset; its site
	// is the last two bytes just written.
	jumpSite := p.code.offset() - 2
	if err := p.code.patchRelTarg(jumpSite, vm.OpJump, startOffset); err != nil {
		return err
	}

	breakTarget := p.code.offset()
	if hasCond {
		if err := p.code.patchRelTarg(breakSite, vm.OpIf, breakTarget); err != nil {
			return err
		}
	}
	return p.code.closeLoop(breakTarget)
}

func (p *Parser) parseForInit() error {
	if p.s.Peek().Type == TokenIntType || p.s.Peek().Type == TokenFloatType {
		t, _, err := p.parseType()
		if err != nil {
			return err
		}
		nameTok, err := p.expect(TokenIdentifier, ErrExpectedIdentifier)
		if err != nil {
			return err
		}
		offset := p.localSlots()
		p.curLocals = append(p.curLocals, Symbol{
			Name: nameTok.Text, Type: t, Storage: StorageLocal, Size: 1,
			Addr: vm.Address{Kind: vm.KindLocalRel, Offset: offset},
		})
		if p.peekPunct('=') {
			p.s.Next()
			return p.parseAssignRHS(p.curLocals[len(p.curLocals)-1])
		}
		return nil
	}
	_, produced, err := p.parseExprMaybeAssign()
	if err != nil {
		return err
	}
	if produced {
		p.code.emitOp(vm.OpDrop)
	}
	return nil
}

// parseAssignRHS emits PushRef<sym>; <rhs>; PopDeref for a known
// symbol, used by for-init's `int i = expr` shorthand.
func (p *Parser) parseAssignRHS(sym Symbol) error {
	ref, err := p.bakeRef(exprEntry{kind: exprId, sym: sym})
	if err != nil {
		return err
	}
	rhsType, err := p.parseExpr()
	if err != nil {
		return err
	}
	if rhsType != ref.typ && !(ref.typ == TypeFloat && rhsType == TypeInt) {
		return p.errf(ErrMismatchedType, p.s.Peek())
	}
	return p.bakeLeft(ref)
}

func (p *Parser) parseWhile() error {
	p.s.Next() // while
	if _, err := p.expectPunct('('); err != nil {
		return err
	}
	startOffset := p.code.offset()
	lc := p.code.openLoop(startOffset)
	lc.contOffset = startOffset
	if _, err := p.parseExpr(); err != nil {
		return err
	}
	if _, err := p.expectPunct(')'); err != nil {
		return err
	}
	breakSite := p.code.emitRelTarg(vm.OpIf)

	p.inLoop++
	if err := p.parseStatement(); err != nil {
		p.inLoop--
		return err
	}
	p.inLoop--

	jumpSite := p.code.emitRelTarg(vm.OpJump)
	if err := p.code.patchRelTarg(jumpSite, vm.OpJump, startOffset); err != nil {
		return err
	}

	breakTarget := p.code.offset()
	if err := p.code.patchRelTarg(breakSite, vm.OpIf, breakTarget); err != nil {
		return err
	}
	return p.code.closeLoop(breakTarget)
}

func (p *Parser) parseLoop() error {
	p.s.Next() // loop
	startOffset := p.code.offset()
	lc := p.code.openLoop(startOffset)
	lc.contOffset = startOffset

	p.inLoop++
	if err := p.parseStatement(); err != nil {
		p.inLoop--
		return err
	}
	p.inLoop--

	jumpSite := p.code.emitRelTarg(vm.OpJump)
	if err := p.code.patchRelTarg(jumpSite, vm.OpJump, startOffset); err != nil {
		return err
	}
	breakTarget := p.code.offset()
	return p.code.closeLoop(breakTarget)
}

func (p *Parser) parseReturn() error {
	tok := p.s.Next() // return
	if p.peekPunct(';') {
		p.code.emitIndex(vm.OpPushIntConstS, 0)
	} else {
		fn := &p.sym.Functions[p.curFuncIdx]
		t, err := p.parseExpr()
		if err != nil {
			return err
		}
		if t != fn.ReturnType && !(fn.ReturnType == TypeFloat && t == TypeInt) {
			return p.errf(ErrMismatchedType, tok)
		}
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}
	p.code.emitOp(vm.OpReturn)
	p.sawReturn = true
	return nil
}

func (p *Parser) parseBreak() error {
	tok := p.s.Next()
	if p.inLoop == 0 {
		return p.errf(ErrOnlyAllowedInLoop, tok)
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}
	lc := p.code.currentLoop()
	site := p.code.emitRelTarg(vm.OpJump)
	lc.patches = append(lc.patches, jumpPatch{kind: jumpBreak, site: site, family: vm.OpJump})
	p.sawReturn = false
	return nil
}

func (p *Parser) parseContinue() error {
	tok := p.s.Next()
	if p.inLoop == 0 {
		return p.errf(ErrOnlyAllowedInLoop, tok)
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}
	lc := p.code.currentLoop()
	site := p.code.emitRelTarg(vm.OpJump)
	lc.patches = append(lc.patches, jumpPatch{kind: jumpContinue, site: site, family: vm.OpJump})
	p.sawReturn = false
	return nil
}

func (p *Parser) parseLog() error {
	p.s.Next() // log
	if _, err := p.expectPunct('('); err != nil {
		return err
	}
	fmtTok, err := p.expect(TokenString, ErrExpectedString)
	if err != nil {
		return err
	}
	if len(fmtTok.Text) > 255 {
		return p.errf(ErrStringTooLong, fmtTok)
	}
	var argCount int
	for p.peekPunct(',') {
		p.s.Next()
		if _, err := p.parseExpr(); err != nil {
			return err
		}
		argCount++
	}
	if argCount > 15 {
		return p.errf(ErrInvalidParamCount, fmtTok)
	}
	if _, err := p.expectPunct(')'); err != nil {
		return err
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}
	p.code.emitOp(vm.OpLog + vm.Opcode(argCount))
	p.code.emit(byte(len(fmtTok.Text)))
	p.code.bytes = append(p.code.bytes, fmtTok.Text...)
	p.sawReturn = false
	return nil
}

func (p *Parser) parseExprStatement() error {
	_, produced, err := p.parseExprMaybeAssign()
	if err != nil {
		return err
	}
	if _, err := p.expectPunct(';'); err != nil {
		return err
	}
	if produced {
		p.code.emitOp(vm.OpDrop)
	}
	p.sawReturn = false
	return nil
}
