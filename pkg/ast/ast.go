package ast

import "minischeme/interpreter-go/pkg/syntax"

type NodeType string

const (
	NodeIntegerLiteral  NodeType = "IntegerLiteral"
	NodeRationalLiteral NodeType = "RationalLiteral"
	NodeStringLiteral   NodeType = "StringLiteral"
	NodeBooleanLiteral  NodeType = "BooleanLiteral"
	NodeVoidLiteral     NodeType = "VoidLiteral"
	NodeExitExpression  NodeType = "ExitExpression"
	NodeIdentifier      NodeType = "Identifier"
	NodeUnaryExpression NodeType = "UnaryExpression"
	NodeBinaryExpr      NodeType = "BinaryExpression"
	NodeVariadicExpr    NodeType = "VariadicExpression"
	NodeIfExpression    NodeType = "IfExpression"
	NodeCondExpression  NodeType = "CondExpression"
	NodeLambda          NodeType = "LambdaExpression"
	NodeDefine          NodeType = "DefineExpression"
	NodeLet             NodeType = "LetExpression"
	NodeLetrec          NodeType = "LetrecExpression"
	NodeSet             NodeType = "SetExpression"
	NodeBegin           NodeType = "BeginExpression"
	NodeQuote           NodeType = "QuoteExpression"
	NodeAnd             NodeType = "AndExpression"
	NodeOr              NodeType = "OrExpression"
	NodeCall            NodeType = "CallExpression"
)

// Expression is an analyzed AST node. The tree is immutable once built
// and may be evaluated arbitrarily many times.
type Expression interface {
	NodeType() NodeType
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

// PrimOp tags the operator of a unary/binary/variadic primitive node.
type PrimOp string

const (
	// Unary operators.
	OpNot         PrimOp = "not"
	OpCar         PrimOp = "car"
	OpCdr         PrimOp = "cdr"
	OpIsList      PrimOp = "list?"
	OpIsBoolean   PrimOp = "boolean?"
	OpIsNumber    PrimOp = "number?"
	OpIsNull      PrimOp = "null?"
	OpIsPair      PrimOp = "pair?"
	OpIsProcedure PrimOp = "procedure?"
	OpIsSymbol    PrimOp = "symbol?"
	OpIsString    PrimOp = "string?"
	OpDisplay     PrimOp = "display"

	// Binary operators.
	OpCons   PrimOp = "cons"
	OpSetCar PrimOp = "set-car!"
	OpSetCdr PrimOp = "set-cdr!"
	OpModulo PrimOp = "modulo"
	OpExpt   PrimOp = "expt"
	OpIsEq   PrimOp = "eq?"

	// Variadic operators.
	OpAdd   PrimOp = "+"
	OpSub   PrimOp = "-"
	OpMul   PrimOp = "*"
	OpDiv   PrimOp = "/"
	OpLt    PrimOp = "<"
	OpLe    PrimOp = "<="
	OpNumEq PrimOp = "="
	OpGe    PrimOp = ">="
	OpGt    PrimOp = ">"
	OpList  PrimOp = "list"
)

// Literals.

type IntegerLiteral struct {
	expressionMarker
	Value int64
}

type RationalLiteral struct {
	expressionMarker
	Num int64
	Den int64
}

type StringLiteral struct {
	expressionMarker
	Value string
}

type BooleanLiteral struct {
	expressionMarker
	Value bool
}

// VoidLiteral is the analyzed form of (void).
type VoidLiteral struct {
	expressionMarker
}

// ExitExpression is the analyzed form of (exit); it evaluates to the
// terminate signal.
type ExitExpression struct {
	expressionMarker
}

// Identifier is a variable reference, resolved at evaluation time.
type Identifier struct {
	expressionMarker
	Name string
}

// UnaryExpression applies a fixed single-operand primitive.
type UnaryExpression struct {
	expressionMarker
	Op      PrimOp
	Operand Expression
}

// BinaryExpression applies a fixed two-operand primitive.
type BinaryExpression struct {
	expressionMarker
	Op    PrimOp
	Left  Expression
	Right Expression
}

// VariadicExpression applies a variadic primitive to zero or more
// operands.
type VariadicExpression struct {
	expressionMarker
	Op       PrimOp
	Operands []Expression
}

// IfExpression always carries an alternative: the analyzer substitutes
// a false literal when the source form omits it.
type IfExpression struct {
	expressionMarker
	Cond Expression
	Then Expression
	Else Expression
}

// CondExpression holds clauses as test-plus-body expression slices.
// Clauses are never empty; the analyzer rejects () clauses.
type CondExpression struct {
	expressionMarker
	Clauses [][]Expression
}

type LambdaExpression struct {
	expressionMarker
	Params []string
	Body   Expression
}

type DefineExpression struct {
	expressionMarker
	Name  string
	Value Expression
}

// Binding pairs a let/letrec variable with its initializer.
type Binding struct {
	Name  string
	Value Expression
}

type LetExpression struct {
	expressionMarker
	Bindings []Binding
	Body     Expression
}

type LetrecExpression struct {
	expressionMarker
	Bindings []Binding
	Body     Expression
}

type SetExpression struct {
	expressionMarker
	Name  string
	Value Expression
}

type BeginExpression struct {
	expressionMarker
	Exprs []Expression
}

// QuoteExpression retains the raw datum; conversion to a value happens
// at evaluation time without evaluating the datum.
type QuoteExpression struct {
	expressionMarker
	Datum syntax.Node
}

type AndExpression struct {
	expressionMarker
	Operands []Expression
}

type OrExpression struct {
	expressionMarker
	Operands []Expression
}

// CallExpression is procedure application.
type CallExpression struct {
	expressionMarker
	Callee Expression
	Args   []Expression
}

func (IntegerLiteral) NodeType() NodeType     { return NodeIntegerLiteral }
func (RationalLiteral) NodeType() NodeType    { return NodeRationalLiteral }
func (StringLiteral) NodeType() NodeType      { return NodeStringLiteral }
func (BooleanLiteral) NodeType() NodeType     { return NodeBooleanLiteral }
func (VoidLiteral) NodeType() NodeType        { return NodeVoidLiteral }
func (ExitExpression) NodeType() NodeType     { return NodeExitExpression }
func (Identifier) NodeType() NodeType         { return NodeIdentifier }
func (UnaryExpression) NodeType() NodeType    { return NodeUnaryExpression }
func (BinaryExpression) NodeType() NodeType   { return NodeBinaryExpr }
func (VariadicExpression) NodeType() NodeType { return NodeVariadicExpr }
func (IfExpression) NodeType() NodeType       { return NodeIfExpression }
func (CondExpression) NodeType() NodeType     { return NodeCondExpression }
func (LambdaExpression) NodeType() NodeType   { return NodeLambda }
func (DefineExpression) NodeType() NodeType   { return NodeDefine }
func (LetExpression) NodeType() NodeType      { return NodeLet }
func (LetrecExpression) NodeType() NodeType   { return NodeLetrec }
func (SetExpression) NodeType() NodeType      { return NodeSet }
func (BeginExpression) NodeType() NodeType    { return NodeBegin }
func (QuoteExpression) NodeType() NodeType    { return NodeQuote }
func (AndExpression) NodeType() NodeType      { return NodeAnd }
func (OrExpression) NodeType() NodeType       { return NodeOr }
func (CallExpression) NodeType() NodeType     { return NodeCall }
