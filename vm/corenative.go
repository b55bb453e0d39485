package vm

// Core native ids. The original implementation enumerates exactly
// these eleven; Min and Max are split by type rather than combined.
const (
	CoreAnimate     uint8 = 0x00
	CoreParam       uint8 = 0x01
	CoreFloat       uint8 = 0x02
	CoreInt         uint8 = 0x03
	CoreRandomInt   uint8 = 0x04
	CoreRandomFloat uint8 = 0x05
	CoreInitArray   uint8 = 0x06
	CoreMinInt      uint8 = 0x07
	CoreMinFloat    uint8 = 0x08
	CoreMaxInt      uint8 = 0x09
	CoreMaxFloat    uint8 = 0x0a
)

// CoreModule is the always-installed native module providing the
// baseline numeric, randomness and array-initialization natives.
type CoreModule struct{}

var _ NativeModule = CoreModule{}

func (CoreModule) HasID(id uint8) bool {
	switch id {
	case CoreAnimate, CoreParam, CoreFloat, CoreInt, CoreRandomInt, CoreRandomFloat,
		CoreInitArray, CoreMinInt, CoreMinFloat, CoreMaxInt, CoreMaxFloat:
		return true
	default:
		return false
	}
}

func (CoreModule) NumParams(id uint8) uint8 {
	switch id {
	case CoreAnimate, CoreParam, CoreFloat, CoreInt:
		return 1
	case CoreRandomInt, CoreRandomFloat, CoreMinInt, CoreMinFloat, CoreMaxInt, CoreMaxFloat:
		return 2
	case CoreInitArray:
		return 3
	default:
		return 0
	}
}

func (CoreModule) Call(v *VM, id uint8) int32 {
	switch id {
	case CoreAnimate:
		ptr := v.stack.Local(0)
		return v.animate(DecodeAddress(ptr))
	case CoreParam:
		i := v.stack.Local(0).Uint()
		return int32(v.Param(int(i)))
	case CoreFloat:
		iv := v.stack.Local(0).Int()
		return FloatToInt(float32(iv))
	case CoreInt:
		f := IntToFloat(v.stack.Local(0).Int())
		return int32(f)
	case CoreRandomInt:
		min := v.stack.Local(0).Int()
		max := v.stack.Local(1).Int()
		return v.RandomInt(min, max)
	case CoreRandomFloat:
		min := IntToFloat(v.stack.Local(0).Int())
		max := IntToFloat(v.stack.Local(1).Int())
		return FloatToInt(v.RandomFloat(min, max))
	case CoreInitArray:
		addr := DecodeAddress(v.stack.Local(0))
		val := v.stack.Local(1)
		n := v.stack.Local(2).Int()
		v.InitArray(addr, val, n)
		return 0
	case CoreMinInt:
		a, b := v.stack.Local(0).Int(), v.stack.Local(1).Int()
		if a < b {
			return a
		}
		return b
	case CoreMinFloat:
		a, b := IntToFloat(v.stack.Local(0).Int()), IntToFloat(v.stack.Local(1).Int())
		if a < b {
			return FloatToInt(a)
		}
		return FloatToInt(b)
	case CoreMaxInt:
		a, b := v.stack.Local(0).Int(), v.stack.Local(1).Int()
		if a > b {
			return a
		}
		return b
	case CoreMaxFloat:
		a, b := IntToFloat(v.stack.Local(0).Int()), IntToFloat(v.stack.Local(1).Int())
		if a > b {
			return FloatToInt(a)
		}
		return FloatToInt(b)
	default:
		return 0
	}
}

// animateQuadrupleSize is the number of float slots in the {cur, inc,
// min, max} structure Animate advances.
const animateQuadrupleSize = 4

// animate advances the {cur, inc, min, max} quadruple at addr by inc,
// reversing direction and clamping at either bound.
func (v *VM) animate(addr Address) int32 {
	cur := IntToFloat(v.ReadSlot(addr).Int())
	inc := IntToFloat(v.ReadSlot(addrOffset(addr, 1)).Int())
	min := IntToFloat(v.ReadSlot(addrOffset(addr, 2)).Int())
	max := IntToFloat(v.ReadSlot(addrOffset(addr, 3)).Int())

	cur += inc
	result := int32(0)
	if inc > 0 {
		if cur >= max {
			cur = max
			inc = -inc
			result = 1
		}
	} else {
		if cur <= min {
			cur = min
			inc = -inc
			result = -1
		}
	}

	v.WriteSlot(addr, FloatValue(cur))
	v.WriteSlot(addrOffset(addr, 1), FloatValue(inc))
	return result
}

func addrOffset(a Address, n int32) Address {
	return Address{Kind: a.Kind, Offset: a.Offset + n}
}
