// Package compiler implements the Clover front end: scanner,
// recursive-descent parser, expression baker and bytecode emitter,
// producing an executable image consumable by package vm.
package compiler

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/clover/vm"

	_ "github.com/tliron/commonlog/simple"
)

// DefaultStackWords is the operand stack allocation requested in a
// compiled image's header when the caller does not override it.
const DefaultStackWords = 64

// coreNatives mirrors the Core native module's id assignments so the
// compiler can resolve calls to them without a live vm.VM instance.
var coreNatives = []struct {
	name   string
	id     uint8
	params int
	ret    Type
}{
	{"Animate", vm.CoreAnimate, 1, TypeInt},
	{"Param", vm.CoreParam, 1, TypeInt},
	{"Float", vm.CoreFloat, 1, TypeFloat},
	{"Int", vm.CoreInt, 1, TypeInt},
	{"RandomInt", vm.CoreRandomInt, 2, TypeInt},
	{"RandomFloat", vm.CoreRandomFloat, 2, TypeFloat},
	{"InitArray", vm.CoreInitArray, 3, TypeInt},
	{"MinInt", vm.CoreMinInt, 2, TypeInt},
	{"MinFloat", vm.CoreMinFloat, 2, TypeFloat},
	{"MaxInt", vm.CoreMaxInt, 2, TypeInt},
	{"MaxFloat", vm.CoreMaxFloat, 2, TypeFloat},
}

func newSymbolTableWithCore() *SymbolTable {
	sym := NewSymbolTable()
	for _, n := range coreNatives {
		sym.Declare(n.name)
		formals := make([]Symbol, n.params)
		for i := range formals {
			formals[i] = Symbol{Type: TypeInt, Storage: StorageLocal}
		}
		sym.Functions = append(sym.Functions, Function{
			Name: n.name, ReturnType: n.ret, Formals: formals,
			IsNative: true, NativeID: n.id,
		})
	}
	return sym
}

// Result is everything Compile produces: the assembled image bytes
// and the source-line annotations the decompiler consumes.
type Result struct {
	Bytes       []byte
	Annotations []Annotation
}

// Compile translates Clover source into an executable image. It is
// pure: no filesystem access, no shared state across calls.
func Compile(src []byte) (*Result, error) {
	sym := newSymbolTableWithCore()
	p := NewParser(src, sym)
	if err := p.Parse(); err != nil {
		return nil, err
	}

	w := &vm.ImageWriter{
		ConstPool:  p.constPool,
		GlobalSize: uint16(p.globalSize),
		StackSize:  DefaultStackWords,
		Code:       p.code.bytes,
	}

	for _, pc := range p.pendingCommands {
		initFn, ok := sym.FindFunction(pc.initFn)
		if !ok {
			return nil, newError(ErrUndefinedIdentifier, pc.tok)
		}
		loopFn, ok := sym.FindFunction(pc.loopFn)
		if !ok {
			return nil, newError(ErrUndefinedIdentifier, pc.tok)
		}
		if err := w.AddCommand(vm.Command{
			Name:       pc.name,
			ParamCount: pc.paramCount,
			InitOffset: uint16(initFn.CodeAddr),
			LoopOffset: uint16(loopFn.CodeAddr),
		}); err != nil {
			return nil, newError(ErrDuplicateCmd, pc.tok)
		}
	}

	bytes, err := w.Bytes()
	if err != nil {
		return nil, &CompileError{Kind: ErrExecutableTooBig}
	}
	if m := commonlog.NewInfoMessage(0); m != nil {
		m.Set("_message", "compiled image")
		m.Send()
	}
	return &Result{Bytes: bytes, Annotations: p.s.Annotations()}, nil
}
