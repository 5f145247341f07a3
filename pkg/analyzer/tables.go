package analyzer

import "minischeme/interpreter-go/pkg/ast"

// primArity classifies how a primitive consumes operands.
type primArity int

const (
	arityNullary primArity = iota
	arityUnary
	arityBinary
	arityVariadic
)

type primitiveSpec struct {
	arity primArity
	op    ast.PrimOp
}

// primitives maps textual operator names to their node shape. The
// table is process-wide constant data: it is consulted by the analyzer
// only and has no runtime extension mechanism.
var primitives = map[string]primitiveSpec{
	"void": {arityNullary, ""},
	"exit": {arityNullary, ""},

	"not":        {arityUnary, ast.OpNot},
	"car":        {arityUnary, ast.OpCar},
	"cdr":        {arityUnary, ast.OpCdr},
	"list?":      {arityUnary, ast.OpIsList},
	"boolean?":   {arityUnary, ast.OpIsBoolean},
	"number?":    {arityUnary, ast.OpIsNumber},
	"null?":      {arityUnary, ast.OpIsNull},
	"pair?":      {arityUnary, ast.OpIsPair},
	"procedure?": {arityUnary, ast.OpIsProcedure},
	"symbol?":    {arityUnary, ast.OpIsSymbol},
	"string?":    {arityUnary, ast.OpIsString},
	"display":    {arityUnary, ast.OpDisplay},

	"cons":     {arityBinary, ast.OpCons},
	"set-car!": {arityBinary, ast.OpSetCar},
	"set-cdr!": {arityBinary, ast.OpSetCdr},
	"modulo":   {arityBinary, ast.OpModulo},
	"expt":     {arityBinary, ast.OpExpt},
	"eq?":      {arityBinary, ast.OpIsEq},

	"+":    {arityVariadic, ast.OpAdd},
	"-":    {arityVariadic, ast.OpSub},
	"*":    {arityVariadic, ast.OpMul},
	"/":    {arityVariadic, ast.OpDiv},
	"<":    {arityVariadic, ast.OpLt},
	"<=":   {arityVariadic, ast.OpLe},
	"=":    {arityVariadic, ast.OpNumEq},
	">=":   {arityVariadic, ast.OpGe},
	">":    {arityVariadic, ast.OpGt},
	"list": {arityVariadic, ast.OpList},
	"and":  {arityVariadic, ""},
	"or":   {arityVariadic, ""},
}

// reservedWords names the special forms.
var reservedWords = map[string]struct{}{
	"quote":  {},
	"if":     {},
	"lambda": {},
	"define": {},
	"let":    {},
	"letrec": {},
	"set!":   {},
	"begin":  {},
	"cond":   {},
}

// IsPrimitive reports whether name is a built-in operator name.
func IsPrimitive(name string) bool {
	_, ok := primitives[name]
	return ok
}

// IsReservedWord reports whether name is a special-form keyword.
func IsReservedWord(name string) bool {
	_, ok := reservedWords[name]
	return ok
}
