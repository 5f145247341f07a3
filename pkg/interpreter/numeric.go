package interpreter

import (
	"math"

	"minischeme/interpreter-go/pkg/runtime"
)

// The numeric tower: Integer and Rational, promoted by
// cross-multiplication. Results are never reduced to lowest terms, so
// (= 1/2 2/4) holds while the two values print differently and are not
// eq?. Integer arithmetic wraps silently at the int64 boundary; only
// expt detects overflow.

func addNumeric(a, b runtime.Value) (runtime.Value, error) {
	switch x := a.(type) {
	case runtime.IntegerValue:
		switch y := b.(type) {
		case runtime.IntegerValue:
			return runtime.IntegerValue{Val: x.Val + y.Val}, nil
		case *runtime.RationalValue:
			return &runtime.RationalValue{Num: x.Val*y.Den + y.Num, Den: y.Den}, nil
		}
	case *runtime.RationalValue:
		switch y := b.(type) {
		case runtime.IntegerValue:
			return &runtime.RationalValue{Num: x.Num + y.Val*x.Den, Den: x.Den}, nil
		case *runtime.RationalValue:
			return &runtime.RationalValue{Num: x.Num*y.Den + y.Num*x.Den, Den: x.Den * y.Den}, nil
		}
	}
	return nil, runtime.Errorf("Wrong typename: + requires numeric arguments (int/rational)")
}

func subNumeric(a, b runtime.Value) (runtime.Value, error) {
	switch x := a.(type) {
	case runtime.IntegerValue:
		switch y := b.(type) {
		case runtime.IntegerValue:
			return runtime.IntegerValue{Val: x.Val - y.Val}, nil
		case *runtime.RationalValue:
			return &runtime.RationalValue{Num: x.Val*y.Den - y.Num, Den: y.Den}, nil
		}
	case *runtime.RationalValue:
		switch y := b.(type) {
		case runtime.IntegerValue:
			return &runtime.RationalValue{Num: x.Num - y.Val*x.Den, Den: x.Den}, nil
		case *runtime.RationalValue:
			return &runtime.RationalValue{Num: x.Num*y.Den - y.Num*x.Den, Den: x.Den * y.Den}, nil
		}
	}
	return nil, runtime.Errorf("Wrong typename: - requires numeric arguments (int/rational)")
}

func mulNumeric(a, b runtime.Value) (runtime.Value, error) {
	switch x := a.(type) {
	case runtime.IntegerValue:
		switch y := b.(type) {
		case runtime.IntegerValue:
			return runtime.IntegerValue{Val: x.Val * y.Val}, nil
		case *runtime.RationalValue:
			return &runtime.RationalValue{Num: x.Val * y.Num, Den: y.Den}, nil
		}
	case *runtime.RationalValue:
		switch y := b.(type) {
		case runtime.IntegerValue:
			return &runtime.RationalValue{Num: x.Num * y.Val, Den: x.Den}, nil
		case *runtime.RationalValue:
			return &runtime.RationalValue{Num: x.Num * y.Num, Den: x.Den * y.Den}, nil
		}
	}
	return nil, runtime.Errorf("Wrong typename: * requires numeric arguments (int/rational)")
}

func divNumeric(a, b runtime.Value) (runtime.Value, error) {
	// A zero divisor, integer zero or zero-numerator rational, is
	// rejected before any case dispatch.
	switch y := b.(type) {
	case runtime.IntegerValue:
		if y.Val == 0 {
			return nil, runtime.Errorf("Division by zero")
		}
	case *runtime.RationalValue:
		if y.Num == 0 {
			return nil, runtime.Errorf("Division by zero")
		}
	}

	switch x := a.(type) {
	case runtime.IntegerValue:
		switch y := b.(type) {
		case runtime.IntegerValue:
			if x.Val%y.Val == 0 {
				return runtime.IntegerValue{Val: x.Val / y.Val}, nil
			}
			return &runtime.RationalValue{Num: x.Val, Den: y.Val}, nil
		case *runtime.RationalValue:
			return &runtime.RationalValue{Num: x.Val * y.Den, Den: y.Num}, nil
		}
	case *runtime.RationalValue:
		switch y := b.(type) {
		case runtime.IntegerValue:
			return &runtime.RationalValue{Num: x.Num, Den: x.Den * y.Val}, nil
		case *runtime.RationalValue:
			return &runtime.RationalValue{Num: x.Num * y.Den, Den: x.Den * y.Num}, nil
		}
	}
	return nil, runtime.Errorf("Wrong typename: / requires numeric arguments (int/rational)")
}

// compareNumeric orders two numeric values by cross-multiplication,
// returning -1, 0, or 1.
func compareNumeric(a, b runtime.Value) (int, error) {
	an, ad, ok := numericParts(a)
	if !ok {
		return 0, runtime.Errorf("Wrong typename in numeric comparison")
	}
	bn, bd, ok := numericParts(b)
	if !ok {
		return 0, runtime.Errorf("Wrong typename in numeric comparison")
	}
	left := an * bd
	right := bn * ad
	switch {
	case left < right:
		return -1, nil
	case left > right:
		return 1, nil
	default:
		return 0, nil
	}
}

func numericParts(v runtime.Value) (num, den int64, ok bool) {
	switch n := v.(type) {
	case runtime.IntegerValue:
		return n.Val, 1, true
	case *runtime.RationalValue:
		return n.Num, n.Den, true
	default:
		return 0, 0, false
	}
}

func moduloNumeric(a, b runtime.Value) (runtime.Value, error) {
	x, xok := a.(runtime.IntegerValue)
	y, yok := b.(runtime.IntegerValue)
	if !xok || !yok {
		return nil, runtime.Errorf("modulo is only defined for integers")
	}
	if y.Val == 0 {
		return nil, runtime.Errorf("Division by zero")
	}
	return runtime.IntegerValue{Val: x.Val % y.Val}, nil
}

// exptNumeric raises an integer to a non-negative integer power by
// squaring, failing on any intermediate outside the int64 range.
func exptNumeric(a, b runtime.Value) (runtime.Value, error) {
	x, xok := a.(runtime.IntegerValue)
	y, yok := b.(runtime.IntegerValue)
	if !xok || !yok {
		return nil, runtime.Errorf("Wrong typename")
	}
	if y.Val < 0 {
		return nil, runtime.Errorf("Negative exponent not supported for integers")
	}
	if x.Val == 0 && y.Val == 0 {
		return nil, runtime.Errorf("0^0 is undefined")
	}

	result := int64(1)
	base := x.Val
	exp := y.Val
	for exp > 0 {
		if exp%2 == 1 {
			r, ok := mulCheck(result, base)
			if !ok {
				return nil, runtime.Errorf("Integer overflow in expt")
			}
			result = r
		}
		if exp > 1 {
			sq, ok := mulCheck(base, base)
			if !ok {
				return nil, runtime.Errorf("Integer overflow in expt")
			}
			base = sq
		}
		exp /= 2
	}
	return runtime.IntegerValue{Val: result}, nil
}

// mulCheck multiplies with overflow detection.
func mulCheck(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	r := a * b
	if r/a != b {
		return 0, false
	}
	return r, true
}
