package compiler

import (
	"strings"
	"testing"

	"github.com/chazu/clover/vm"
)

func compileAndRun(t *testing.T, src string) *vm.VM {
	t.Helper()
	result, err := Compile([]byte(src))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rom := func(i int32) uint8 {
		if i < 0 || int(i) >= len(result.Bytes) {
			return 0
		}
		return result.Bytes[i]
	}
	v := vm.NewVM(rom, func(string) {})
	return v
}

func globalInt(v *vm.VM, offset int32) int32 {
	return v.ReadSlot(vm.Address{Kind: vm.KindGlobal, Offset: offset}).Int()
}

func TestCompileMinimalCommand(t *testing.T) {
	v := compileAndRun(t, `
function init() {
}
function loop() {
}
command hello 0 init loop;
`)
	if !v.Init("hello", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("hello"); got != 0 {
		t.Fatalf("Loop() = %d, want 0", got)
	}
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	v := compileAndRun(t, `
int result;

function init() {
  result = 2 + 3 * 4;
}

int function loop() {
  return result;
}

command calc 0 init loop;
`)
	if !v.Init("calc", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("calc"); got != 14 {
		t.Fatalf("Loop() = %d, want 14", got)
	}
}

func TestCompileFloatComparison(t *testing.T) {
	v := compileAndRun(t, `
int function loop() {
  if (1.5 < 2.5) {
    return 1;
  }
  return 0;
}

function init() {
}

command cmp 0 init loop;
`)
	if !v.Init("cmp", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("cmp"); got != 1 {
		t.Fatalf("Loop() = %d, want 1", got)
	}
}

func TestCompileForLoopWithBreak(t *testing.T) {
	v := compileAndRun(t, `
int function loop() {
  int sum;
  sum = 0;
  for (int i = 0; ; i = i + 1) {
    if (i >= 5) {
      break;
    }
    sum = sum + i;
  }
  return sum;
}

function init() {
}

command sum5 0 init loop;
`)
	if !v.Init("sum5", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("sum5"); got != 10 {
		t.Fatalf("Loop() = %d, want 10 (0+1+2+3+4)", got)
	}
}

func TestCompileStructPointerAccess(t *testing.T) {
	v := compileAndRun(t, `
struct Point {
  int x;
  int y;
}

int function sum(Point* p) {
  return p.x + p.y;
}

Point pt;

function init() {
  pt.x = 3;
  pt.y = 7;
}

int function loop() {
  return sum(&pt);
}

command ptsum 0 init loop;
`)
	if !v.Init("ptsum", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("ptsum"); got != 10 {
		t.Fatalf("Loop() = %d, want 10", got)
	}
}

func TestCompileNativeInitArray(t *testing.T) {
	v := compileAndRun(t, `
int a[4];

function init() {
  InitArray(&a[0], 9, 4);
}

int function loop() {
  return a[0] + a[3];
}

command arrsum 0 init loop;
`)
	if !v.Init("arrsum", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("arrsum"); got != 18 {
		t.Fatalf("Loop() = %d, want 18", got)
	}
	if got := globalInt(v, 0); got != 9 {
		t.Fatalf("a[0] = %d, want 9", got)
	}
}

func TestCompileDefInlinesAsLiteral(t *testing.T) {
	v := compileAndRun(t, `
def LIMIT 5;

int function loop() {
  int sum;
  sum = 0;
  for (int i = 0; ; i = i + 1) {
    if (i >= LIMIT) {
      break;
    }
    sum = sum + i;
  }
  return sum;
}

function init() {
}

command sumdef 0 init loop;
`)
	if !v.Init("sumdef", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("sumdef"); got != 10 {
		t.Fatalf("Loop() = %d, want 10", got)
	}
}

func TestCompileTableReadsAsConstArray(t *testing.T) {
	v := compileAndRun(t, `
table int primes { 2 3 5 7 11 }

int function loop() {
  return primes[0] + primes[4];
}

function init() {
}

command tbl 0 init loop;
`)
	if !v.Init("tbl", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("tbl"); got != 13 {
		t.Fatalf("Loop() = %d, want 13 (2+11)", got)
	}
}

func TestCompileDefOutOfRangeIsError(t *testing.T) {
	_, err := Compile([]byte(`
def TOOBIG 256;
function init() {
}
function loop() {
}
command d 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrDefOutOfRange {
		t.Fatalf("Kind = %v, want ErrDefOutOfRange", ce.Kind)
	}
}

func TestCompileBreakOutsideLoopIsError(t *testing.T) {
	_, err := Compile([]byte(`
function init() {
  break;
}
function loop() {
}
command x 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrOnlyAllowedInLoop {
		t.Fatalf("Kind = %v, want ErrOnlyAllowedInLoop", ce.Kind)
	}
}

func TestCompileFloatToIntAssignIsMismatch(t *testing.T) {
	_, err := Compile([]byte(`
int x;
function init() {
  x = 1.5;
}
function loop() {
}
command y 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrMismatchedType {
		t.Fatalf("Kind = %v, want ErrMismatchedType", ce.Kind)
	}
}

func TestCompileTooManyGlobalsIsError(t *testing.T) {
	_, err := Compile([]byte(`
int g[65];
function init() {
}
function loop() {
}
command z 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrTooManyVars {
		t.Fatalf("Kind = %v, want ErrTooManyVars", ce.Kind)
	}
}

func TestCompileLogStringAtBoundarySucceeds(t *testing.T) {
	msg := strings.Repeat("a", 255)
	v := compileAndRun(t, `
function init() {
}
function loop() {
  log("`+msg+`");
}
command lg 0 init loop;
`)
	if !v.Init("lg", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
}

func TestCompileLogStringTooLongIsError(t *testing.T) {
	msg := strings.Repeat("a", 256)
	_, err := Compile([]byte(`
function init() {
}
function loop() {
  log("` + msg + `");
}
command lg 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrStringTooLong {
		t.Fatalf("Kind = %v, want ErrStringTooLong", ce.Kind)
	}
}

func TestCompileJumpTooBigIsError(t *testing.T) {
	var body strings.Builder
	for i := 0; i < 400; i++ {
		body.WriteString("sum = sum + 1;\n")
	}
	_, err := Compile([]byte(`
int function loop() {
  int sum;
  sum = 0;
  if (sum == 0) {
` + body.String() + `
  }
  return sum;
}
function init() {
}
command big 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrJumpTooBig {
		t.Fatalf("Kind = %v, want ErrJumpTooBig", ce.Kind)
	}
}

func TestCompileCommandNameTooLongIsError(t *testing.T) {
	_, err := Compile([]byte(`
function init() {
}
function loop() {
}
command toolongname 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrExecutableTooBig {
		t.Fatalf("Kind = %v, want ErrExecutableTooBig", ce.Kind)
	}
}

func TestCompileFloatArrayIndexIsWrongType(t *testing.T) {
	_, err := Compile([]byte(`
int a[4];
int function loop() {
  return a[1.5];
}
function init() {
}
command idx 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrWrongType {
		t.Fatalf("Kind = %v, want ErrWrongType", ce.Kind)
	}
}

func TestCompileLargeByteLiteralUsesImmediate(t *testing.T) {
	v := compileAndRun(t, `
int function loop() {
  return 200;
}
function init() {
}
command lit 0 init loop;
`)
	if !v.Init("lit", nil) {
		t.Fatalf("Init failed: %v", v.Error())
	}
	if got := v.Loop("lit"); got != 200 {
		t.Fatalf("Loop() = %d, want 200", got)
	}
}

func TestCompileUndefinedIdentifierIsError(t *testing.T) {
	_, err := Compile([]byte(`
int function loop() {
  return nope;
}
function init() {
}
command w 0 init loop;
`))
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("err = %v (%T), want *CompileError", err, err)
	}
	if ce.Kind != ErrUndefinedIdentifier {
		t.Fatalf("Kind = %v, want ErrUndefinedIdentifier", ce.Kind)
	}
}
