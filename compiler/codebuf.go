package compiler

import "github.com/chazu/clover/vm"

// jumpKind distinguishes the two patchable purposes a loop context
// tracks; Start is the context's own back-jump target and is not
// patched through the list, only recorded for Jump emission.
type jumpKind uint8

const (
	jumpContinue jumpKind = iota
	jumpBreak
)

type jumpPatch struct {
	kind   jumpKind
	site   int // offset of the opcode byte
	family vm.Opcode
}

// loopContext is one nested for/while/loop's patch bookkeeping.
type loopContext struct {
	startOffset int
	contOffset  int // set once the continue target (iter or cond) is known
	patches     []jumpPatch
}

// codeBuf accumulates the bytecode for every function body in emission
// order; code offsets are relative to this buffer, which becomes the
// code section of the final image.
type codeBuf struct {
	bytes []byte
	loops []*loopContext

	// callPatches holds Call sites awaiting a forward-declared
	// function's final code address.
	callPatches []struct {
		site int
		name string
	}
}

func (c *codeBuf) offset() int { return len(c.bytes) }

func (c *codeBuf) emit(b byte) { c.bytes = append(c.bytes, b) }

func (c *codeBuf) emitOp(op vm.Opcode) { c.emit(byte(op)) }

// emitId emits an extended "Id" shaped instruction: family byte (low
// nibble 0) followed by the 1-byte id.
func (c *codeBuf) emitId(family vm.Opcode, id uint8) {
	c.emitOp(family)
	c.emit(id)
}

// emitIndex emits an extended "Index" shaped instruction whose low
// nibble carries the 0-15 operand directly.
func (c *codeBuf) emitIndex(family vm.Opcode, n uint8) error {
	if n > 0x0f {
		return &CompileError{Kind: ErrInternalError}
	}
	c.emitOp(family + vm.Opcode(n))
	return nil
}

// emitConst emits PushIntConst with an 8-bit unsigned immediate.
func (c *codeBuf) emitConst(v int32) {
	c.emitOp(vm.OpPushIntConst)
	c.emit(byte(v))
}

// emitPL emits SetFrame with a placeholder locals byte, returning the
// offset of that byte so it can be backfilled once the function's
// final local count is known.
func (c *codeBuf) emitPL(params uint8) (localsPatchSite int) {
	c.emitOp(vm.OpSetFrame + vm.Opcode(params))
	c.emit(0)
	return c.offset() - 1
}

func (c *codeBuf) patchByte(site int, v uint8) { c.bytes[site] = v }

// emitCallPlaceholder emits a Call with a placeholder 12-bit target and
// registers it for later patching once name's address is known.
func (c *codeBuf) emitCallPlaceholder(name string) {
	site := c.offset()
	c.emitOp(vm.OpCall)
	c.emit(0)
	c.callPatches = append(c.callPatches, struct {
		site int
		name string
	}{site, name})
}

// patchAbsTarg writes a resolved 12-bit absolute code address into a
// Call instruction previously emitted at site.
func (c *codeBuf) patchAbsTarg(site int, target int) error {
	if target < 0 || target > 0x0fff {
		return &CompileError{Kind: ErrExecutableTooBig}
	}
	c.bytes[site] = byte(vm.OpCall) | byte(target>>8)
	c.bytes[site+1] = byte(target)
	return nil
}

// emitRelTarg emits a RelTarg-shaped instruction (Jump or If) with a
// placeholder displacement and returns the site for later patching.
func (c *codeBuf) emitRelTarg(family vm.Opcode) (site int) {
	site = c.offset()
	c.emitOp(family)
	c.emit(0)
	return site
}

// patchRelTarg resolves a previously emitted RelTarg instruction's
// displacement so that execution lands at target (a code offset),
// per the contract: the displacement is relative to the instruction
// following the operand byte.
func (c *codeBuf) patchRelTarg(site int, family vm.Opcode, target int) error {
	disp := target - (site + 2)
	if disp < -0x800 || disp > 0x7ff {
		return &CompileError{Kind: ErrJumpTooBig}
	}
	raw := uint16(disp) & 0x0fff
	c.bytes[site] = byte(family) | byte(raw>>8)
	c.bytes[site+1] = byte(raw)
	return nil
}

// openLoop pushes a new loop context, recording startOffset as the
// back-jump target for the loop's top.
func (c *codeBuf) openLoop(startOffset int) *loopContext {
	lc := &loopContext{startOffset: startOffset}
	c.loops = append(c.loops, lc)
	return lc
}

// currentLoop reports the innermost open loop context, if any.
func (c *codeBuf) currentLoop() *loopContext {
	if len(c.loops) == 0 {
		return nil
	}
	return c.loops[len(c.loops)-1]
}

// closeLoop pops the innermost loop context and patches every
// break/continue site recorded against it.
func (c *codeBuf) closeLoop(breakTarget int) error {
	n := len(c.loops)
	lc := c.loops[n-1]
	c.loops = c.loops[:n-1]
	for _, p := range lc.patches {
		target := breakTarget
		if p.kind == jumpContinue {
			target = lc.contOffset
		}
		if err := c.patchRelTarg(p.site, p.family, target); err != nil {
			return err
		}
	}
	return nil
}
