package vm

import "math"

// Value is a single 32-bit Arly slot. It holds an int32, a float32 or an
// Address, selected by context rather than a runtime tag: the VM never
// inspects a slot to decide what it is. Bit patterns between int and
// float are preserved by IntToFloat/FloatToInt, mirroring the bit-cast
// the original interpreter performs with memcpy.
type Value uint32

// IntValue packs a signed 32-bit integer into a Value.
func IntValue(i int32) Value { return Value(uint32(i)) }

// FloatValue packs a float32 into a Value, preserving its bit pattern.
func FloatValue(f float32) Value { return Value(math.Float32bits(f)) }

// Int unpacks v as a signed 32-bit integer.
func (v Value) Int() int32 { return int32(uint32(v)) }

// Float reinterprets v's bits as a float32.
func (v Value) Float() float32 { return math.Float32frombits(uint32(v)) }

// Uint unpacks v as an unsigned 32-bit integer.
func (v Value) Uint() uint32 { return uint32(v) }

// IntToFloat bit-casts an integer slot to a float, matching the VM's
// arithmetic bit-cast semantics rather than a numeric conversion.
func IntToFloat(i int32) float32 { return math.Float32frombits(uint32(i)) }

// FloatToInt bit-casts a float slot to an integer.
func FloatToInt(f float32) int32 { return int32(math.Float32bits(f)) }

// AddressKind distinguishes the four kinds of addressable storage.
type AddressKind uint8

const (
	KindConst AddressKind = iota
	KindGlobal
	KindLocalRel
	KindLocalAbs
)

func (k AddressKind) String() string {
	switch k {
	case KindConst:
		return "Const"
	case KindGlobal:
		return "Global"
	case KindLocalRel:
		return "LocalRel"
	case KindLocalAbs:
		return "LocalAbs"
	default:
		return "Unknown"
	}
}

// Id-range boundaries for the 8-bit opcode-level address encoding.
// Const occupies the low half of the id space, Global the next
// quarter, LocalRel the remainder.
const (
	ConstIdStart    = 0x00
	ConstIdSize     = 0x80
	GlobalIdStart   = 0x80
	GlobalIdSize    = 0x40
	LocalRelIdStart = 0xC0
	LocalRelIdSize  = 0x40
)

// Address is a tagged (kind, offset) pair. LocalAbs addresses are never
// produced by AddressFromID; they only arise when a LocalRel address is
// baked against a frame's bp via Bake.
type Address struct {
	Kind   AddressKind
	Offset int32
}

// AddressFromID decodes an 8-bit opcode id into an Address per the
// Const/Global/LocalRel ranges above.
func AddressFromID(id uint8) Address {
	switch {
	case id < GlobalIdStart:
		return Address{Kind: KindConst, Offset: int32(id - ConstIdStart)}
	case id < LocalRelIdStart:
		return Address{Kind: KindGlobal, Offset: int32(id - GlobalIdStart)}
	default:
		return Address{Kind: KindLocalRel, Offset: int32(id - LocalRelIdStart)}
	}
}

// ID re-encodes a Const/Global/LocalRel address back into its 8-bit id.
// It panics if called on a LocalAbs address, which has no id form.
func (a Address) ID() uint8 {
	switch a.Kind {
	case KindConst:
		return uint8(ConstIdStart + a.Offset)
	case KindGlobal:
		return uint8(GlobalIdStart + a.Offset)
	case KindLocalRel:
		return uint8(LocalRelIdStart + a.Offset)
	default:
		panic("vm: Address.ID called on a LocalAbs address")
	}
}

// Bake translates a LocalRel address into a LocalAbs one relative to bp,
// so that a reference pushed on the operand stack stays valid across
// later frame changes. Non-LocalRel addresses pass through unchanged.
func (a Address) Bake(bp int32) Address {
	if a.Kind != KindLocalRel {
		return a
	}
	return Address{Kind: KindLocalAbs, Offset: bp + a.Offset}
}

// addressTagShift places the kind tag in the upper byte of the 32-bit
// slot used to store a baked address on the operand stack, leaving 24
// bits of offset - ample for the stack/global/const sizes this VM
// supports.
const addressTagShift = 24

// EncodeAddress packs an Address into a Value for storage on the
// operand stack (as produced by PushRef).
func EncodeAddress(a Address) Value {
	return Value(uint32(a.Kind)<<addressTagShift | uint32(a.Offset)&0x00FFFFFF)
}

// DecodeAddress unpacks a Value previously produced by EncodeAddress.
func DecodeAddress(v Value) Address {
	return Address{
		Kind:   AddressKind(uint32(v) >> addressTagShift),
		Offset: int32(uint32(v) & 0x00FFFFFF),
	}
}
