package interpreter

import (
	"minischeme/interpreter-go/pkg/runtime"
	"minischeme/interpreter-go/pkg/syntax"
)

// datumToValue converts a quoted datum into a runtime value. Lists
// become fresh pair chains; a single dot in the second-to-last
// position produces an improper tail instead of a null terminator.
func datumToValue(datum syntax.Node) (runtime.Value, error) {
	switch d := datum.(type) {
	case syntax.Integer:
		return runtime.IntegerValue{Val: d.Value}, nil
	case syntax.Rational:
		return &runtime.RationalValue{Num: d.Num, Den: d.Den}, nil
	case syntax.Boolean:
		return runtime.BoolValue{Val: d.Value}, nil
	case syntax.String:
		return &runtime.StringValue{Val: d.Value}, nil
	case syntax.Symbol:
		return runtime.SymbolValue{Name: d.Name}, nil
	case syntax.List:
		return listDatumToValue(d)
	}
	return nil, runtime.Errorf("quote: unsupported datum")
}

func listDatumToValue(list syntax.List) (runtime.Value, error) {
	dotAt := -1
	for idx, item := range list.Items {
		sym, ok := item.(syntax.Symbol)
		if !ok || sym.Name != "." {
			continue
		}
		if dotAt >= 0 {
			return nil, runtime.Errorf("quote: invalid list (multiple dots are not allowed)")
		}
		dotAt = idx
	}

	if dotAt < 0 {
		var tail runtime.Value = runtime.NullValue{}
		for idx := len(list.Items) - 1; idx >= 0; idx-- {
			car, err := datumToValue(list.Items[idx])
			if err != nil {
				return nil, err
			}
			tail = &runtime.PairValue{Car: car, Cdr: tail}
		}
		return tail, nil
	}

	switch {
	case dotAt == 0:
		return nil, runtime.Errorf("quote: invalid list (dot cannot be at the start)")
	case dotAt == len(list.Items)-1:
		return nil, runtime.Errorf("quote: invalid list (dot cannot be at the end)")
	case dotAt != len(list.Items)-2:
		return nil, runtime.Errorf("quote: invalid list (only one element allowed after dot)")
	}

	tail, err := datumToValue(list.Items[len(list.Items)-1])
	if err != nil {
		return nil, err
	}
	for idx := dotAt - 1; idx >= 0; idx-- {
		car, err := datumToValue(list.Items[idx])
		if err != nil {
			return nil, err
		}
		tail = &runtime.PairValue{Car: car, Cdr: tail}
	}
	return tail, nil
}
