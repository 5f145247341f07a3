package syntax

// Node is an untyped s-expression datum produced by the reader. The
// analyzer consumes this capability set and nothing else; quoted data
// is converted to runtime values from the same nodes.
type Node interface {
	datumNode()
}

// Integer is an exact integer literal.
type Integer struct {
	Value int64
}

// Rational is an exact ratio literal. The reader never produces a zero
// denominator.
type Rational struct {
	Num int64
	Den int64
}

// Symbol is a bare atom. Keywords, primitive names, variables, and the
// dotted-pair marker "." all arrive as symbols.
type Symbol struct {
	Name string
}

// String is a string literal with escapes already processed.
type String struct {
	Value string
}

// Boolean is #t or #f.
type Boolean struct {
	Value bool
}

// List is an ordered, possibly empty sequence of child datums.
type List struct {
	Items []Node
}

func (Integer) datumNode()  {}
func (Rational) datumNode() {}
func (Symbol) datumNode()   {}
func (String) datumNode()   {}
func (Boolean) datumNode()  {}
func (List) datumNode()     {}
