package compiler

import "github.com/chazu/clover/vm"

// Type is a compile-time type tag. Struct types are numbered starting
// at StructTypeBase, tag = StructTypeBase + index into the struct
// table.
type Type uint8

const (
	TypeNone Type = 0
	TypeFloat Type = 1
	TypeInt   Type = 2
	TypeUInt8 Type = 3
	TypePtr   Type = 5
)

// StructTypeBase is the first tag value used for user struct types.
const StructTypeBase Type = 0x80

// IsStruct reports whether t names a user struct rather than a
// built-in scalar type.
func (t Type) IsStruct() bool { return t >= StructTypeBase }

// StructIndex recovers the struct-table index from a struct type tag.
func (t Type) StructIndex() int { return int(t - StructTypeBase) }

// Storage classifies where a Symbol's storage lives.
type Storage uint8

const (
	StorageConst Storage = iota
	StorageGlobal
	StorageLocal
)

// Symbol is a named, typed, addressable entity: a constant, global or
// local variable.
type Symbol struct {
	Name      string
	Addr      vm.Address
	Type      Type
	Storage   Storage
	IsPointer bool
	Size      uint8 // in 32-bit slots; >1 for arrays and structs
}

// StructEntry is one named, typed member of a Struct.
type StructEntry struct {
	Name string
	Type Type
}

// MaxStructEntries bounds struct member count (and therefore struct
// size in slots).
const MaxStructEntries = 15

// Struct is a user-defined aggregate of 1-slot members.
type Struct struct {
	Name    string
	Entries []StructEntry
}

// Size is the struct's size in 32-bit slots.
func (st *Struct) Size() uint8 { return uint8(len(st.Entries)) }

// Find looks up a member by name, returning its index and type.
func (st *Struct) Find(name string) (index int, typ Type, ok bool) {
	for i, e := range st.Entries {
		if e.Name == name {
			return i, e.Type, true
		}
	}
	return 0, TypeNone, false
}

// Function is a user or native callable: its code address (for user
// functions), return type, ordered formal parameters, ordered locals
// (params first), and, for natives, the id dispatched via CallNative.
type Function struct {
	Name       string
	CodeAddr   int32
	ReturnType Type
	Formals    []Symbol
	Locals     []Symbol // params first, then declared locals
	IsNative   bool
	NativeID   uint8
}

// NumParams is the formal parameter count.
func (f *Function) NumParams() int { return len(f.Formals) }

// NumLocals is the count of locals beyond the formal parameters.
func (f *Function) NumLocals() int { return len(f.Locals) - len(f.Formals) }

// Def is a compile-time named integer constant in 0..255.
type Def struct {
	Name  string
	Value uint8
}

// SymbolTable owns the module-wide constant/global table, the struct
// table, the def table and the function table. Locals are owned by
// the Function currently being compiled, not by this table.
type SymbolTable struct {
	Globals   []Symbol
	Consts    []Symbol
	Structs   []Struct
	Defs      []Def
	Functions []Function

	byName map[string]bool
}

// NewSymbolTable constructs an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]bool)}
}

// Declare registers name as used in the module-wide namespace,
// reporting false if it is already taken.
func (t *SymbolTable) Declare(name string) bool {
	if t.byName[name] {
		return false
	}
	t.byName[name] = true
	return true
}

// FindGlobal looks up a global or constant symbol by name.
func (t *SymbolTable) FindGlobal(name string) (Symbol, bool) {
	for _, s := range t.Globals {
		if s.Name == name {
			return s, true
		}
	}
	for _, s := range t.Consts {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// FindFunction looks up a function (user or native) by name.
func (t *SymbolTable) FindFunction(name string) (*Function, bool) {
	for i := range t.Functions {
		if t.Functions[i].Name == name {
			return &t.Functions[i], true
		}
	}
	return nil, false
}

// FindStruct looks up a struct definition by name.
func (t *SymbolTable) FindStruct(name string) (int, *Struct, bool) {
	for i := range t.Structs {
		if t.Structs[i].Name == name {
			return i, &t.Structs[i], true
		}
	}
	return 0, nil, false
}

// FindDef looks up a compile-time integer constant by name.
func (t *SymbolTable) FindDef(name string) (Def, bool) {
	for _, d := range t.Defs {
		if d.Name == name {
			return d, true
		}
	}
	return Def{}, false
}
