package compiler

import (
	"fmt"
	"strings"

	"github.com/chazu/clover/vm"
)

// Decompile recovers an assembly-level listing from a compiled image.
// It is informational: correctness of the core is defined by the
// binary contract, not by round-tripping through this listing.
// annotations, if non-nil, is a sidecar of (line, offset) pairs
// produced alongside the image (see MarshalAnnotations); a matching
// annotation is printed as a comment just before the instruction at
// its offset.
func Decompile(image *vm.Image, annotations []Annotation) (string, error) {
	var b strings.Builder

	byOffset := make(map[int32]int)
	for _, a := range annotations {
		byOffset[a.Offset] = a.Line
	}

	fmt.Fprintf(&b, "; constants: %d, globals: %d, stack: %d\n",
		image.Header.ConstSize, image.Header.GlobalSize, image.Header.StackSize)
	for i, c := range image.Consts {
		fmt.Fprintf(&b, "const[%d] = 0x%08x\n", i, c)
	}
	for _, cmd := range image.Commands {
		fmt.Fprintf(&b, "command %s %d init=%d loop=%d\n",
			cmd.Name, cmd.ParamCount, cmd.InitOffset, cmd.LoopOffset)
	}

	pc := int32(0)
	for int(pc) < len(image.Code) {
		start := pc
		if line, ok := byOffset[start]; ok {
			fmt.Fprintf(&b, "; line %d\n", line)
		}
		opByte := image.Code[pc]
		op := vm.Opcode(opByte)
		pc++

		info, known := op.Info()
		if !known {
			fmt.Fprintf(&b, "%04x: db 0x%02x\n", start, opByte)
			continue
		}

		switch info.Shape {
		case vm.ShapeNone:
			fmt.Fprintf(&b, "%04x: %s\n", start, info.Mnemonic)
		case vm.ShapeId, vm.ShapeConst:
			operand := image.Code[pc]
			pc++
			fmt.Fprintf(&b, "%04x: %s 0x%02x\n", start, info.Mnemonic, operand)
		case vm.ShapeIndex:
			fmt.Fprintf(&b, "%04x: %s %d\n", start, info.Mnemonic, op.Embedded())
		case vm.ShapePL:
			l := image.Code[pc]
			pc++
			fmt.Fprintf(&b, "%04x: %s %d %d\n", start, info.Mnemonic, op.Embedded(), l)
		case vm.ShapeAbsTarg:
			lo := image.Code[pc]
			pc++
			target := uint16(op.Embedded())<<8 | uint16(lo)
			fmt.Fprintf(&b, "%04x: %s 0x%03x\n", start, info.Mnemonic, target)
		case vm.ShapeRelTarg:
			lo := image.Code[pc]
			pc++
			raw := uint16(op.Embedded())<<8 | uint16(lo)
			disp := int32(raw)
			if raw >= 0x800 {
				disp = int32(raw) - 0x1000
			}
			fmt.Fprintf(&b, "%04x: %s %d (-> %04x)\n", start, info.Mnemonic, disp, int32(pc)+disp)
		case vm.ShapeIdxLenS:
			n := op.Embedded()
			length := image.Code[pc]
			pc++
			str := string(image.Code[pc : pc+int32(length)])
			pc += int32(length)
			fmt.Fprintf(&b, "%04x: Log %d %q\n", start, n, str)
		}
	}
	return b.String(), nil
}
