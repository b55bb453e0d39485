package vm

import "testing"

func TestStackPushPop(t *testing.T) {
	s := NewStack(8)
	s.Push(IntValue(1))
	s.Push(IntValue(2))
	s.Push(IntValue(3))

	if got := s.Pop().Int(); got != 3 {
		t.Fatalf("Pop() = %d, want 3", got)
	}
	if got := s.Top(0).Int(); got != 2 {
		t.Fatalf("Top(0) = %d, want 2", got)
	}
	if got := s.Top(1).Int(); got != 1 {
		t.Fatalf("Top(1) = %d, want 1", got)
	}
}

func TestStackUnderrun(t *testing.T) {
	s := NewStack(4)
	s.Pop()
	if s.Error() != ErrStackUnderrun {
		t.Fatalf("Error() = %v, want ErrStackUnderrun", s.Error())
	}
}

func TestStackOverrun(t *testing.T) {
	s := NewStack(2)
	s.Push(IntValue(1))
	s.Push(IntValue(2))
	s.Push(IntValue(3))
	if s.Error() != ErrStackOverrun {
		t.Fatalf("Error() = %v, want ErrStackOverrun", s.Error())
	}
}

func TestStackSetFrameAndReturn(t *testing.T) {
	s := NewStack(32)

	// Caller pushes two arguments, then Call pushes a return PC.
	s.Push(IntValue(10))
	s.Push(IntValue(20))
	s.Push(IntValue(99)) // simulated return PC

	retPC, ok := s.SetFrame(2, 1)
	if !ok {
		t.Fatalf("SetFrame failed: %v", s.Error())
	}
	if retPC != 99 {
		t.Fatalf("SetFrame returnPC = %d, want 99", retPC)
	}

	// bp should sit below the two params; Local(0) and Local(1) read them.
	if got := s.Local(0).Int(); got != 10 {
		t.Fatalf("Local(0) = %d, want 10", got)
	}
	if got := s.Local(1).Int(); got != 20 {
		t.Fatalf("Local(1) = %d, want 20", got)
	}

	// The one reserved local lives at Local(2).
	s.SetLocal(2, IntValue(7))
	if got := s.Local(2).Int(); got != 7 {
		t.Fatalf("Local(2) = %d, want 7", got)
	}

	s.Push(IntValue(42)) // the function body's pushed return value

	pc, rv := s.Return()
	if pc != 99 {
		t.Fatalf("Return() pc = %d, want 99", pc)
	}
	if rv.Int() != 42 {
		t.Fatalf("Return() value = %d, want 42", rv.Int())
	}
	if s.SP() != 1 {
		t.Fatalf("SP() after Return = %d, want 1 (caller's args collapsed, result left)", s.SP())
	}
	if got := s.Top(0).Int(); got != 42 {
		t.Fatalf("Top(0) after Return = %d, want 42", got)
	}
}

func TestStackSetFrameTopLevelSentinel(t *testing.T) {
	s := NewStack(32)
	s.Push(IntValue(-1)) // sentinel return PC pushed by runTopLevel

	retPC, ok := s.SetFrame(0, 0)
	if !ok {
		t.Fatalf("SetFrame failed: %v", s.Error())
	}
	if retPC != -1 {
		t.Fatalf("retPC = %d, want -1", retPC)
	}

	s.Push(IntValue(0))
	pc, _ := s.Return()
	if pc != -1 {
		t.Fatalf("Return() pc = %d, want -1 (top-level halt)", pc)
	}
}

func TestStackSetFrameNotEnoughArgs(t *testing.T) {
	s := NewStack(32)
	s.Push(IntValue(99))

	_, ok := s.SetFrame(2, 0)
	if ok {
		t.Fatalf("SetFrame unexpectedly succeeded with too few args pushed")
	}
	if s.Error() != ErrNotEnoughArgs {
		t.Fatalf("Error() = %v, want ErrNotEnoughArgs", s.Error())
	}
}

func TestStackNestedFrames(t *testing.T) {
	s := NewStack(32)
	s.Push(IntValue(-1))
	if _, ok := s.SetFrame(0, 1); !ok {
		t.Fatalf("outer SetFrame failed: %v", s.Error())
	}
	s.SetLocal(0, IntValue(5))

	// Outer calls inner with one argument, passing its local.
	s.Push(s.Local(0))
	s.Push(IntValue(123)) // simulated return PC into outer
	if _, ok := s.SetFrame(1, 0); !ok {
		t.Fatalf("inner SetFrame failed: %v", s.Error())
	}
	if got := s.Local(0).Int(); got != 5 {
		t.Fatalf("inner Local(0) = %d, want 5", got)
	}

	s.Push(IntValue(6)) // inner's return value
	pc, rv := s.Return()
	if pc != 123 || rv.Int() != 6 {
		t.Fatalf("inner Return() = (%d, %d), want (123, 6)", pc, rv.Int())
	}

	// Back in outer: its local should be untouched, and the inner call's
	// result sits on top of the operand stack.
	if got := s.Local(0).Int(); got != 5 {
		t.Fatalf("outer Local(0) after inner return = %d, want 5", got)
	}
	if got := s.Top(0).Int(); got != 6 {
		t.Fatalf("outer Top(0) after inner return = %d, want 6", got)
	}
}

func TestStackEnterExitNative(t *testing.T) {
	s := NewStack(32)
	s.Push(IntValue(1))
	s.Push(IntValue(2))

	savedBP := s.EnterNative(2)
	if got := s.Local(0).Int(); got != 1 {
		t.Fatalf("native Local(0) = %d, want 1", got)
	}
	if got := s.Local(1).Int(); got != 2 {
		t.Fatalf("native Local(1) = %d, want 2", got)
	}

	s.ExitNative(savedBP, 2, IntValue(3))
	if s.SP() != 1 {
		t.Fatalf("SP() after ExitNative = %d, want 1", s.SP())
	}
	if got := s.Top(0).Int(); got != 3 {
		t.Fatalf("Top(0) after ExitNative = %d, want 3", got)
	}
}

func TestStackAbsAccessors(t *testing.T) {
	s := NewStack(8)
	s.SetAbs(3, IntValue(77))
	if got := s.Abs(3).Int(); got != 77 {
		t.Fatalf("Abs(3) = %d, want 77", got)
	}
	s.Abs(100)
	if s.Error() != ErrStackOutOfRange {
		t.Fatalf("Error() = %v, want ErrStackOutOfRange", s.Error())
	}
}

func TestStackReset(t *testing.T) {
	s := NewStack(8)
	s.Push(IntValue(1))
	s.Pop()
	s.Pop() // underrun
	if s.Error() == ErrNone {
		t.Fatalf("expected an error before Reset")
	}
	s.Reset()
	if s.Error() != ErrNone {
		t.Fatalf("Error() after Reset = %v, want ErrNone", s.Error())
	}
	if s.SP() != 0 || s.BP() != 0 {
		t.Fatalf("SP/BP after Reset = %d/%d, want 0/0", s.SP(), s.BP())
	}
}
