package compiler

import "fmt"

// ErrorKind is the closed set of error codes the compiler can surface.
// Exactly one is attached to the first hard error encountered; parsing
// aborts and the accumulated code is discarded.
type ErrorKind uint8

const (
	ErrNone ErrorKind = iota

	ErrUnrecognizedLanguage
	ErrExpectedToken
	ErrExpectedType
	ErrExpectedValue
	ErrExpectedString
	ErrExpectedRef
	ErrExpectedOpcode
	ErrExpectedIdentifier
	ErrExpectedExpr
	ErrExpectedArgList
	ErrExpectedFormalParams
	ErrExpectedFunction
	ErrExpectedStructType
	ErrExpectedVar
	ErrExpectedLHSExpr
	ErrExpectedEnd
	ErrAssignmentNotAllowedHere
	ErrInvalidStructId
	ErrInvalidParamCount
	ErrUndefinedIdentifier
	ErrParamOutOfRange
	ErrJumpTooBig
	ErrIfTooBig
	ErrElseTooBig
	ErrStringTooLong
	ErrTooManyConstants
	ErrTooManyVars
	ErrDefOutOfRange
	ErrExpectedDef
	ErrInternalError
	ErrStackTooBig
	ErrMismatchedType
	ErrWrongType
	ErrWrongNumberOfArgs
	ErrOnlyAllowedInLoop
	ErrDuplicateCmd
	ErrExecutableTooBig
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "None"
	case ErrUnrecognizedLanguage:
		return "UnrecognizedLanguage"
	case ErrExpectedToken:
		return "ExpectedToken"
	case ErrExpectedType:
		return "ExpectedType"
	case ErrExpectedValue:
		return "ExpectedValue"
	case ErrExpectedString:
		return "ExpectedString"
	case ErrExpectedRef:
		return "ExpectedRef"
	case ErrExpectedOpcode:
		return "ExpectedOpcode"
	case ErrExpectedIdentifier:
		return "ExpectedIdentifier"
	case ErrExpectedExpr:
		return "ExpectedExpr"
	case ErrExpectedArgList:
		return "ExpectedArgList"
	case ErrExpectedFormalParams:
		return "ExpectedFormalParams"
	case ErrExpectedFunction:
		return "ExpectedFunction"
	case ErrExpectedStructType:
		return "ExpectedStructType"
	case ErrExpectedVar:
		return "ExpectedVar"
	case ErrExpectedLHSExpr:
		return "ExpectedLHSExpr"
	case ErrExpectedEnd:
		return "ExpectedEnd"
	case ErrAssignmentNotAllowedHere:
		return "AssignmentNotAllowedHere"
	case ErrInvalidStructId:
		return "InvalidStructId"
	case ErrInvalidParamCount:
		return "InvalidParamCount"
	case ErrUndefinedIdentifier:
		return "UndefinedIdentifier"
	case ErrParamOutOfRange:
		return "ParamOutOfRange"
	case ErrJumpTooBig:
		return "JumpTooBig"
	case ErrIfTooBig:
		return "IfTooBig"
	case ErrElseTooBig:
		return "ElseTooBig"
	case ErrStringTooLong:
		return "StringTooLong"
	case ErrTooManyConstants:
		return "TooManyConstants"
	case ErrTooManyVars:
		return "TooManyVars"
	case ErrDefOutOfRange:
		return "DefOutOfRange"
	case ErrExpectedDef:
		return "ExpectedDef"
	case ErrInternalError:
		return "InternalError"
	case ErrStackTooBig:
		return "StackTooBig"
	case ErrMismatchedType:
		return "MismatchedType"
	case ErrWrongType:
		return "WrongType"
	case ErrWrongNumberOfArgs:
		return "WrongNumberOfArgs"
	case ErrOnlyAllowedInLoop:
		return "OnlyAllowedInLoop"
	case ErrDuplicateCmd:
		return "DuplicateCmd"
	case ErrExecutableTooBig:
		return "ExecutableTooBig"
	default:
		return "Unknown"
	}
}

// CompileError is the single error type a Compile ever returns. It
// carries enough of the offending token to reproduce the historical
// "<kind> ('<token>') on line L:C" diagnostic.
type CompileError struct {
	Kind     ErrorKind
	Token    string
	Line     int
	Col      int
}

func (e *CompileError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s on line %d:%d", e.Kind, e.Line, e.Col)
	}
	return fmt.Sprintf("%s ('%s') on line %d:%d", e.Kind, e.Token, e.Line, e.Col)
}

func newError(kind ErrorKind, tok Token) *CompileError {
	return &CompileError{Kind: kind, Token: tok.Text, Line: tok.Pos.Line, Col: tok.Pos.Col}
}
