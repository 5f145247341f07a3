package runtime

import (
	"fmt"
	"strings"
)

// FormatValue renders v the way the REPL prints results: strings are
// quoted, booleans are #t/#f, rationals print their unreduced num/den.
func FormatValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v, true, make(map[*PairValue]bool))
	return b.String()
}

// DisplayValue renders v for the display primitive: identical to
// FormatValue except strings print raw.
func DisplayValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v, false, make(map[*PairValue]bool))
	return b.String()
}

func writeValue(b *strings.Builder, v Value, quoteStrings bool, seen map[*PairValue]bool) {
	switch val := v.(type) {
	case IntegerValue:
		fmt.Fprintf(b, "%d", val.Val)
	case *RationalValue:
		fmt.Fprintf(b, "%d/%d", val.Num, val.Den)
	case BoolValue:
		if val.Val {
			b.WriteString("#t")
		} else {
			b.WriteString("#f")
		}
	case *StringValue:
		if quoteStrings {
			fmt.Fprintf(b, "%q", val.Val)
		} else {
			b.WriteString(val.Val)
		}
	case SymbolValue:
		b.WriteString(val.Name)
	case NullValue:
		b.WriteString("()")
	case VoidValue:
		b.WriteString("#<void>")
	case *ProcedureValue:
		b.WriteString("#<procedure>")
	case TerminateValue:
		b.WriteString("#<terminate>")
	case *PairValue:
		writePair(b, val, quoteStrings, seen)
	default:
		fmt.Fprintf(b, "#<%s>", v.Kind())
	}
}

// writePair folds a cdr chain into list notation, falling back to a
// dotted tail for improper lists. Pairs on the current rendering path
// are tracked in seen; a pair reached a second time prints as an "..."
// tail, so cyclic structures built by set-car!/set-cdr! terminate.
// Entries are removed on the way out, so shared but acyclic structure
// still prints in full.
func writePair(b *strings.Builder, p *PairValue, quoteStrings bool, seen map[*PairValue]bool) {
	b.WriteByte('(')
	var spine []*PairValue
	defer func() {
		for _, visited := range spine {
			delete(seen, visited)
		}
	}()
	for {
		if seen[p] {
			b.WriteString("...)")
			return
		}
		seen[p] = true
		spine = append(spine, p)
		writeValue(b, p.Car, quoteStrings, seen)
		switch tail := p.Cdr.(type) {
		case *PairValue:
			b.WriteByte(' ')
			p = tail
		case NullValue:
			b.WriteByte(')')
			return
		default:
			b.WriteString(" . ")
			writeValue(b, p.Cdr, quoteStrings, seen)
			b.WriteByte(')')
			return
		}
	}
}
