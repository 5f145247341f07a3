package syntax

import (
	"errors"
	"reflect"
	"testing"
)

func TestReadAtoms(t *testing.T) {
	cases := []struct {
		src  string
		want Node
	}{
		{"42", Integer{Value: 42}},
		{"-7", Integer{Value: -7}},
		{"+13", Integer{Value: 13}},
		{"2/4", Rational{Num: 2, Den: 4}},
		{"-1/3", Rational{Num: -1, Den: 3}},
		{"#t", Boolean{Value: true}},
		{"#f", Boolean{Value: false}},
		{"foo", Symbol{Name: "foo"}},
		{"set-car!", Symbol{Name: "set-car!"}},
		{"+", Symbol{Name: "+"}},
		{"1/0", Symbol{Name: "1/0"}},
		{"1.5", Symbol{Name: "1.5"}},
		{`"hi there"`, String{Value: "hi there"}},
	}
	for _, tc := range cases {
		node, err := ReadOne(tc.src)
		if err != nil {
			t.Fatalf("ReadOne(%q) failed: %v", tc.src, err)
		}
		if !reflect.DeepEqual(node, tc.want) {
			t.Fatalf("ReadOne(%q) = %#v, want %#v", tc.src, node, tc.want)
		}
	}
}

func TestReadList(t *testing.T) {
	node, err := ReadOne("(+ 1 (* 2 3))")
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	want := List{Items: []Node{
		Symbol{Name: "+"},
		Integer{Value: 1},
		List{Items: []Node{
			Symbol{Name: "*"},
			Integer{Value: 2},
			Integer{Value: 3},
		}},
	}}
	if !reflect.DeepEqual(node, want) {
		t.Fatalf("unexpected list shape: %#v", node)
	}
}

func TestReadQuoteShorthand(t *testing.T) {
	node, err := ReadOne("'(1 2)")
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	want := List{Items: []Node{
		Symbol{Name: "quote"},
		List{Items: []Node{Integer{Value: 1}, Integer{Value: 2}}},
	}}
	if !reflect.DeepEqual(node, want) {
		t.Fatalf("unexpected quote expansion: %#v", node)
	}
}

func TestReadStringEscapes(t *testing.T) {
	node, err := ReadOne(`"a\nb\t\"c\\"`)
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	str, ok := node.(String)
	if !ok || str.Value != "a\nb\t\"c\\" {
		t.Fatalf("unexpected string value: %#v", node)
	}
}

func TestReadSkipsComments(t *testing.T) {
	nodes, err := Read("; leading comment\n1 ; trailing\n2")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 datums, got %d", len(nodes))
	}
}

func TestReadIncompleteInput(t *testing.T) {
	for _, src := range []string{"(define x", `"open string`, "'", "((1 2)"} {
		if _, err := Read(src); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("Read(%q) = %v, want ErrIncomplete", src, err)
		}
	}
}

func TestReadUnexpectedCloseParen(t *testing.T) {
	_, err := Read(")")
	if err == nil || errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected hard syntax error, got %v", err)
	}
}

func TestReadOneRejectsTrailingInput(t *testing.T) {
	if _, err := ReadOne("1 2"); err == nil {
		t.Fatalf("expected error for multiple datums")
	}
}
