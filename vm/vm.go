package vm

import "math/rand"

// ROM reads one byte of the executable image at absolute offset i. The
// VM never assumes the image is materialized as a Go slice; a host may
// back it with EEPROM, flash or anything else addressable a byte at a
// time.
type ROM func(i int32) uint8

// Log is the host diagnostic sink consumed by the Log opcode.
type Log func(s string)

// VM is one interpreter instance: an operand stack, a global RAM area,
// a constant pool and a registry of native modules, bound to a single
// ROM image. Concurrent use of one VM from multiple goroutines is
// undefined; independent VMs with independent storage may run
// concurrently.
type VM struct {
	rom ROM
	log Log
	rng *rand.Rand

	consts  []uint32
	globals []Value
	stack   *Stack

	natives registry

	codeBase int32
	pc       int32

	commands   []CommandEntry
	paramBytes []byte

	err     Error
	errAddr int32
}

// NewVM constructs a VM bound to rom and logSink, with the Core module
// installed first per the native extension contract.
func NewVM(rom ROM, logSink Log) *VM {
	v := &VM{
		rom: rom,
		log: logSink,
		rng: rand.New(rand.NewSource(1)),
	}
	v.natives.install(CoreModule{})
	return v
}

// Install registers an additional native module, after Core.
func (v *VM) Install(m NativeModule) { v.natives.install(m) }

// Error reports the first error recorded since the last successful
// Init, or ErrNone.
func (v *VM) Error() Error { return v.err }

// ErrorAddr reports PC - 1 at the point execution stopped, as a code
// offset relative to the code base: the last byte read by the failing
// instruction. It is valid only when Error() != ErrNone and the error
// arose while running code, not in Init's checks before the init
// routine starts.
func (v *VM) ErrorAddr() int32 { return v.errAddr - v.codeBase }

// Stack exposes the operand stack for native modules.
func (v *VM) Stack() *Stack { return v.stack }

func (v *VM) readByte(addr int32) uint8 { return v.rom(addr) }

func (v *VM) readU16(addr int32) uint16 {
	lo := v.readByte(addr)
	hi := v.readByte(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (v *VM) readU32(addr int32) uint32 {
	var w uint32
	for i := 0; i < 4; i++ {
		w |= uint32(v.readByte(addr+int32(i))) << (8 * i)
	}
	return w
}

// Init locates cmdName in the image's command table, verifies the
// supplied parameter bytes match its declared count, allocates globals
// and the operand stack per the header, and runs the command's init
// routine to completion.
func (v *VM) Init(cmdName string, params []byte) bool {
	v.err = ErrNone
	v.errAddr = 0

	var magic [4]byte
	for i := range magic {
		magic[i] = v.readByte(int32(i))
	}
	if magic != ImageMagic {
		v.err = ErrInvalidOp
		return false
	}
	constSize := int32(v.readU16(4))
	globalSize := int32(v.readU16(6))
	stackSize := int32(v.readU16(8))

	off := int32(HeaderSize)
	v.consts = make([]uint32, constSize)
	for i := range v.consts {
		v.consts[i] = v.readU32(off)
		off += 4
	}

	v.commands = nil
	for {
		nameByte := v.readByte(off)
		if nameByte == 0 {
			off++
			break
		}
		var entryBuf [CommandEntrySize]byte
		for i := 0; i < CommandEntrySize; i++ {
			entryBuf[i] = v.readByte(off + int32(i))
		}
		entry, err := DecodeCommandEntry(entryBuf[:])
		if err != nil {
			v.err = ErrInvalidOp
			return false
		}
		v.commands = append(v.commands, entry)
		off += CommandEntrySize
	}

	v.codeBase = off
	v.globals = make([]Value, globalSize)
	v.stack = NewStack(int(stackSize))

	cmd, ok := v.findCommand(cmdName)
	if !ok {
		v.err = ErrCmdNotFound
		return false
	}
	if int(cmd.ParamCount) != len(params) {
		v.err = ErrWrongNumberOfArgs
		return false
	}
	v.paramBytes = params

	entry := v.codeBase + int32(cmd.InitOffset)
	if Opcode(v.readByte(entry)).Family() != OpSetFrame {
		v.err = ErrExpectedSetFrame
		return false
	}

	return v.runTopLevel(entry) == nil
}

// Loop runs the current command's loop routine to completion, returning
// its integer result (intended as a millisecond delay) or -1 on error.
func (v *VM) Loop(cmdName string) int32 {
	cmd, ok := v.findCommand(cmdName)
	if !ok {
		v.err = ErrCmdNotFound
		return -1
	}
	entry := v.codeBase + int32(cmd.LoopOffset)
	if err := v.runTopLevel(entry); err != nil {
		return -1
	}
	return v.stack.Top(0).Int()
}

func (v *VM) findCommand(name string) (CommandEntry, bool) {
	for _, c := range v.commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandEntry{}, false
}

// Param returns byte i of the current command's parameter buffer, or 0
// if i is out of range.
func (v *VM) Param(i int) uint8 {
	if i < 0 || i >= len(v.paramBytes) {
		return 0
	}
	return v.paramBytes[i]
}

// RandomInt returns a uniform pseudo-random integer in [min, max].
func (v *VM) RandomInt(min, max int32) int32 {
	if max <= min {
		return min
	}
	return min + v.rng.Int31n(max-min+1)
}

// RandomFloat returns a uniform pseudo-random float in [min, max],
// scaled by 1000 internally as in the original implementation.
func (v *VM) RandomFloat(min, max float32) float32 {
	if max <= min {
		return min
	}
	span := int32((max - min) * 1000)
	return min + float32(v.rng.Int31n(span+1))/1000
}

// InitArray fills n consecutive slots starting at addr with value. addr
// must resolve to Global or Local storage.
func (v *VM) InitArray(addr Address, value Value, n int32) {
	if addr.Kind != KindGlobal && addr.Kind != KindLocalAbs && addr.Kind != KindLocalRel {
		v.err = ErrOnlyMemAddressesAllowed
		return
	}
	for i := int32(0); i < n; i++ {
		v.WriteSlot(Address{Kind: addr.Kind, Offset: addr.Offset + i}, value)
	}
}

// ReadSlot reads the value addressed by a, dispatching on its kind.
func (v *VM) ReadSlot(a Address) Value {
	switch a.Kind {
	case KindConst:
		if int(a.Offset) < 0 || int(a.Offset) >= len(v.consts) {
			v.err = ErrAddressOutOfRange
			return 0
		}
		return Value(v.consts[a.Offset])
	case KindGlobal:
		if int(a.Offset) < 0 || int(a.Offset) >= len(v.globals) {
			v.err = ErrAddressOutOfRange
			return 0
		}
		return v.globals[a.Offset]
	case KindLocalRel:
		return v.stack.Local(a.Offset)
	case KindLocalAbs:
		return v.stack.Abs(a.Offset)
	default:
		v.err = ErrAddressOutOfRange
		return 0
	}
}

// WriteSlot writes the value addressed by a, dispatching on its kind.
func (v *VM) WriteSlot(a Address, val Value) {
	switch a.Kind {
	case KindGlobal:
		if int(a.Offset) < 0 || int(a.Offset) >= len(v.globals) {
			v.err = ErrAddressOutOfRange
			return
		}
		v.globals[a.Offset] = val
	case KindLocalRel:
		v.stack.SetLocal(a.Offset, val)
	case KindLocalAbs:
		v.stack.SetAbs(a.Offset, val)
	default:
		v.err = ErrAddressOutOfRange
	}
}
