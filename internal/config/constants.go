package config

import "strings"

const SourceFileExt = ".nm"

// CompiledFileExt is the extension of cbor-encoded compiled units
const CompiledFileExt = ".nmc"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".nm", ".numen"}

// TrimSourceExt removes a recognized source extension from a path
func TrimSourceExt(path string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

// IsSourceFile checks if a file has a recognized source extension
func IsSourceFile(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsCompiledFile checks if a file holds a compiled unit
func IsCompiledFile(path string) bool {
	return strings.HasSuffix(path, CompiledFileExt)
}

// SelfName is bound in every function invocation scope to the invoked function
const SelfName = "self"

// Limits
const (
	DefaultMaxCallDepth = 4096
	DefaultCacheSize    = 256
	MaxMatrixCells      = 1 << 24
)

// Native operator function names
const (
	AddFuncName         = "add"
	SubtractFuncName    = "subtract"
	MultiplyFuncName    = "multiply"
	DivideFuncName      = "divide"
	ModuloFuncName      = "modulo"
	PowerFuncName       = "power"
	DotMultiplyFuncName = "dotMultiply"
	DotDivideFuncName   = "dotDivide"
	DotPowerFuncName    = "dotPower"
	NegateFuncName      = "negate"
	PlusFuncName        = "plus"
	NotFuncName         = "not"
	AndFuncName         = "and"
	OrFuncName          = "or"
	EqualFuncName       = "equal"
	UnequalFuncName     = "unequal"
	SmallerFuncName     = "smaller"
	SmallerEqFuncName   = "smallerEq"
	LargerFuncName      = "larger"
	LargerEqFuncName    = "largerEq"
	TransposeFuncName   = "transpose"
)

// BinaryOperators maps infix operator symbols to the native function implementing them
var BinaryOperators = map[string]string{
	"+":  AddFuncName,
	"-":  SubtractFuncName,
	"*":  MultiplyFuncName,
	"/":  DivideFuncName,
	"%":  ModuloFuncName,
	"^":  PowerFuncName,
	".*": DotMultiplyFuncName,
	"./": DotDivideFuncName,
	".^": DotPowerFuncName,
	"&&": AndFuncName,
	"||": OrFuncName,
	"==": EqualFuncName,
	"!=": UnequalFuncName,
	"<":  SmallerFuncName,
	"<=": SmallerEqFuncName,
	">":  LargerFuncName,
	">=": LargerEqFuncName,
}

// UnaryOperators maps prefix (and the postfix transpose) operators to natives
var UnaryOperators = map[string]string{
	"-": NegateFuncName,
	"+": PlusFuncName,
	"!": NotFuncName,
	"'": TransposeFuncName,
}

// Built-in function names
const (
	PrintFuncName    = "print"
	TypeOfFuncName   = "typeof"
	ParamsFuncName   = "params"
	UUIDFuncName     = "uuid"
	DelayFuncName    = "delay"
	FutureFuncName   = "future"
	CompleteFuncName = "complete"
	FailFuncName     = "fail"
	AsyncFuncName    = "async"
)
