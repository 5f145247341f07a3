package syntax

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIncomplete marks input that ends in the middle of a form. The REPL
// keys its continuation prompt off this sentinel.
var ErrIncomplete = errors.New("unexpected end of input")

// Read parses all datums in src.
func Read(src string) ([]Node, error) {
	r := &reader{src: src}
	var nodes []Node
	for {
		r.skipSpace()
		if r.eof() {
			return nodes, nil
		}
		node, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
}

// ReadOne parses exactly one datum and rejects trailing input.
func ReadOne(src string) (Node, error) {
	nodes, err := Read(src)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("expected a single datum, found %d", len(nodes))
	}
	return nodes[0], nil
}

type reader struct {
	src string
	pos int
}

func (r *reader) eof() bool { return r.pos >= len(r.src) }

func (r *reader) peek() byte { return r.src[r.pos] }

func (r *reader) skipSpace() {
	for !r.eof() {
		c := r.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		case c == ';':
			for !r.eof() && r.peek() != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

func (r *reader) readDatum() (Node, error) {
	r.skipSpace()
	if r.eof() {
		return nil, fmt.Errorf("read: %w", ErrIncomplete)
	}
	switch c := r.peek(); c {
	case '(':
		r.pos++
		return r.readList()
	case ')':
		return nil, fmt.Errorf("read: unexpected ')'")
	case '\'':
		r.pos++
		quoted, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		return List{Items: []Node{Symbol{Name: "quote"}, quoted}}, nil
	case '"':
		r.pos++
		return r.readString()
	default:
		return r.readAtom()
	}
}

func (r *reader) readList() (Node, error) {
	var items []Node
	for {
		r.skipSpace()
		if r.eof() {
			return nil, fmt.Errorf("read: unterminated list: %w", ErrIncomplete)
		}
		if r.peek() == ')' {
			r.pos++
			return List{Items: items}, nil
		}
		item, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (r *reader) readString() (Node, error) {
	var b strings.Builder
	for {
		if r.eof() {
			return nil, fmt.Errorf("read: unterminated string: %w", ErrIncomplete)
		}
		c := r.peek()
		r.pos++
		switch c {
		case '"':
			return String{Value: b.String()}, nil
		case '\\':
			if r.eof() {
				return nil, fmt.Errorf("read: unterminated string: %w", ErrIncomplete)
			}
			esc := r.peek()
			r.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteByte(esc)
			default:
				return nil, fmt.Errorf("read: unknown string escape '\\%c'", esc)
			}
		default:
			b.WriteByte(c)
		}
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '"', ';', '\'':
		return true
	}
	return false
}

func (r *reader) readAtom() (Node, error) {
	start := r.pos
	for !r.eof() && !isDelimiter(r.peek()) {
		r.pos++
	}
	text := r.src[start:r.pos]
	if text == "" {
		return nil, fmt.Errorf("read: empty atom")
	}
	switch text {
	case "#t":
		return Boolean{Value: true}, nil
	case "#f":
		return Boolean{Value: false}, nil
	}
	if n, ok := parseInteger(text); ok {
		return Integer{Value: n}, nil
	}
	if num, den, ok := parseRational(text); ok {
		return Rational{Num: num, Den: den}, nil
	}
	// Anything else is a symbol; the analyzer decides whether it is a
	// legal variable name.
	return Symbol{Name: text}, nil
}

func parseInteger(text string) (int64, bool) {
	body := strings.TrimPrefix(strings.TrimPrefix(text, "+"), "-")
	if body == "" || strings.IndexFunc(body, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseRational recognizes n/d atoms. A zero denominator is not a
// number token, so it falls through to Symbol and is later rejected as
// an identifier.
func parseRational(text string) (int64, int64, bool) {
	slash := strings.IndexByte(text, '/')
	if slash <= 0 || slash == len(text)-1 {
		return 0, 0, false
	}
	num, ok := parseInteger(text[:slash])
	if !ok {
		return 0, 0, false
	}
	den, ok := parseInteger(text[slash+1:])
	if !ok || den == 0 {
		return 0, 0, false
	}
	return num, den, true
}
