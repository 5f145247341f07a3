package runtime

import (
	"fmt"

	"minischeme/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInteger Kind = iota
	KindRational
	KindBool
	KindString
	KindSymbol
	KindPair
	KindNull
	KindVoid
	KindProcedure
	KindTerminate
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindRational:
		return "rational"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindPair:
		return "pair"
	case KindNull:
		return "null"
	case KindVoid:
		return "void"
	case KindProcedure:
		return "procedure"
	case KindTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values. Pair is the
// only mutable variant; identity-sensitive variants (Pair, Procedure,
// String, Rational) are pointer-shaped so that eq?'s reference
// fallback is plain interface equality.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type IntegerValue struct {
	Val int64
}

func (IntegerValue) Kind() Kind { return KindInteger }

// RationalValue holds an exact ratio. Num/Den are never reduced to
// lowest terms; Den is non-zero at every construction site.
type RationalValue struct {
	Num int64
	Den int64
}

func (*RationalValue) Kind() Kind { return KindRational }

type BoolValue struct {
	Val bool
}

func (BoolValue) Kind() Kind { return KindBool }

type StringValue struct {
	Val string
}

func (*StringValue) Kind() Kind { return KindString }

type SymbolValue struct {
	Name string
}

func (SymbolValue) Kind() Kind { return KindSymbol }

// NullValue is the empty list.
type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

// VoidValue is the result of definitions, mutations, and (void).
type VoidValue struct{}

func (VoidValue) Kind() Kind { return KindVoid }

// TerminateValue signals the driver to end the read-eval loop; the
// evaluator returns it like any other value.
type TerminateValue struct{}

func (TerminateValue) Kind() Kind { return KindTerminate }

//-----------------------------------------------------------------------------
// Compounds
//-----------------------------------------------------------------------------

// PairValue is the one mutable value. set-car!/set-cdr! write these
// fields in place and may create cycles; list-walking code tolerates
// them.
type PairValue struct {
	Car Value
	Cdr Value
}

func (*PairValue) Kind() Kind { return KindPair }

// ProcedureValue is a closure: parameter names, a body expression, and
// the defining environment captured by reference. Never mutated after
// creation.
type ProcedureValue struct {
	Params []string
	Body   ast.Expression
	Env    *Environment
}

func (*ProcedureValue) Kind() Kind { return KindProcedure }

// IsFalse reports whether v is the boolean false. Every other value,
// including 0 and the empty list, counts as true.
func IsFalse(v Value) bool {
	b, ok := v.(BoolValue)
	return ok && !b.Val
}
