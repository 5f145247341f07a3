package interpreter

import (
	"fmt"

	"minischeme/interpreter-go/pkg/ast"
	"minischeme/interpreter-go/pkg/runtime"
)

func (i *Interpreter) applyUnary(op ast.PrimOp, v runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.OpNot:
		return runtime.BoolValue{Val: runtime.IsFalse(v)}, nil
	case ast.OpCar:
		pair, ok := v.(*runtime.PairValue)
		if !ok {
			return nil, runtime.Errorf("Wrong typename")
		}
		return pair.Car, nil
	case ast.OpCdr:
		pair, ok := v.(*runtime.PairValue)
		if !ok {
			return nil, runtime.Errorf("Wrong typename")
		}
		return pair.Cdr, nil
	case ast.OpIsList:
		return runtime.BoolValue{Val: isProperList(v)}, nil
	case ast.OpIsBoolean:
		return runtime.BoolValue{Val: v.Kind() == runtime.KindBool}, nil
	case ast.OpIsNumber:
		return runtime.BoolValue{Val: v.Kind() == runtime.KindInteger}, nil
	case ast.OpIsNull:
		return runtime.BoolValue{Val: v.Kind() == runtime.KindNull}, nil
	case ast.OpIsPair:
		return runtime.BoolValue{Val: v.Kind() == runtime.KindPair}, nil
	case ast.OpIsProcedure:
		return runtime.BoolValue{Val: v.Kind() == runtime.KindProcedure}, nil
	case ast.OpIsSymbol:
		return runtime.BoolValue{Val: v.Kind() == runtime.KindSymbol}, nil
	case ast.OpIsString:
		return runtime.BoolValue{Val: v.Kind() == runtime.KindString}, nil
	case ast.OpDisplay:
		fmt.Fprint(i.stdout, runtime.DisplayValue(v))
		return runtime.VoidValue{}, nil
	}
	return nil, runtime.Errorf("unsupported unary operator: %s", op)
}

func applyBinary(op ast.PrimOp, left, right runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.OpCons:
		return &runtime.PairValue{Car: left, Cdr: right}, nil
	case ast.OpSetCar:
		pair, ok := left.(*runtime.PairValue)
		if !ok {
			return nil, runtime.Errorf("set-car!: first argument must be a pair")
		}
		pair.Car = right
		return runtime.VoidValue{}, nil
	case ast.OpSetCdr:
		pair, ok := left.(*runtime.PairValue)
		if !ok {
			return nil, runtime.Errorf("set-cdr!: first argument must be a pair")
		}
		pair.Cdr = right
		return runtime.VoidValue{}, nil
	case ast.OpModulo:
		return moduloNumeric(left, right)
	case ast.OpExpt:
		return exptNumeric(left, right)
	case ast.OpIsEq:
		return runtime.BoolValue{Val: eqValues(left, right)}, nil
	}
	return nil, runtime.Errorf("unsupported binary operator: %s", op)
}

func applyVariadic(op ast.PrimOp, args []runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.OpAdd:
		return foldNumeric(args, runtime.IntegerValue{Val: 0}, addNumeric)
	case ast.OpMul:
		return foldNumeric(args, runtime.IntegerValue{Val: 1}, mulNumeric)
	case ast.OpSub:
		if len(args) == 0 {
			return nil, runtime.Errorf("minus requires at least 1 argument")
		}
		if len(args) == 1 {
			return subNumeric(runtime.IntegerValue{Val: 0}, args[0])
		}
		return foldNumeric(args, nil, subNumeric)
	case ast.OpDiv:
		if len(args) == 0 {
			return nil, runtime.Errorf("division requires at least 1 argument")
		}
		if len(args) == 1 {
			return divNumeric(runtime.IntegerValue{Val: 1}, args[0])
		}
		return foldNumeric(args, nil, divNumeric)
	case ast.OpLt:
		return chainCompare(args, func(c int) bool { return c < 0 })
	case ast.OpLe:
		return chainCompare(args, func(c int) bool { return c <= 0 })
	case ast.OpNumEq:
		return chainCompare(args, func(c int) bool { return c == 0 })
	case ast.OpGe:
		return chainCompare(args, func(c int) bool { return c >= 0 })
	case ast.OpGt:
		return chainCompare(args, func(c int) bool { return c > 0 })
	case ast.OpList:
		var list runtime.Value = runtime.NullValue{}
		for idx := len(args) - 1; idx >= 0; idx-- {
			list = &runtime.PairValue{Car: args[idx], Cdr: list}
		}
		return list, nil
	}
	return nil, runtime.Errorf("unsupported variadic operator: %s", op)
}

// foldNumeric reduces args left-to-right with the binary rule. A nil
// identity means the fold starts from the first argument.
func foldNumeric(args []runtime.Value, identity runtime.Value, combine func(a, b runtime.Value) (runtime.Value, error)) (runtime.Value, error) {
	if len(args) == 0 {
		return identity, nil
	}
	acc := args[0]
	for _, arg := range args[1:] {
		next, err := combine(acc, arg)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

// chainCompare applies the pairwise comparator to every adjacent pair;
// empty and single-argument invocations are vacuously true.
func chainCompare(args []runtime.Value, holds func(int) bool) (runtime.Value, error) {
	for idx := 0; idx+1 < len(args); idx++ {
		c, err := compareNumeric(args[idx], args[idx+1])
		if err != nil {
			return nil, err
		}
		if !holds(c) {
			return runtime.BoolValue{Val: false}, nil
		}
	}
	return runtime.BoolValue{Val: true}, nil
}

// eqValues compares integers, booleans, and symbols by value, null and
// void by type, and everything else by reference identity: pairs,
// procedures, strings, and rationals are pointer-shaped, so interface
// equality is pointer equality.
func eqValues(a, b runtime.Value) bool {
	switch x := a.(type) {
	case runtime.IntegerValue:
		y, ok := b.(runtime.IntegerValue)
		return ok && x.Val == y.Val
	case runtime.BoolValue:
		y, ok := b.(runtime.BoolValue)
		return ok && x.Val == y.Val
	case runtime.SymbolValue:
		y, ok := b.(runtime.SymbolValue)
		return ok && x.Name == y.Name
	case runtime.NullValue:
		_, ok := b.(runtime.NullValue)
		return ok
	case runtime.VoidValue:
		_, ok := b.(runtime.VoidValue)
		return ok
	default:
		return a == b
	}
}

// isProperList walks the cdr chain with slow and fast pointers. If the
// pointers ever meet on the identical pair the chain is cyclic and not
// a list; otherwise the chain is a list exactly when it terminates in
// null.
func isProperList(v runtime.Value) bool {
	switch v.Kind() {
	case runtime.KindNull:
		return true
	case runtime.KindPair:
	default:
		return false
	}

	var slow runtime.Value = v
	fast := v.(*runtime.PairValue).Cdr
	for {
		fp, ok := fast.(*runtime.PairValue)
		if !ok {
			break
		}
		if slow == fast {
			return false
		}
		slow = slow.(*runtime.PairValue).Cdr
		fast = fp.Cdr
		fp2, ok := fast.(*runtime.PairValue)
		if !ok {
			break
		}
		fast = fp2.Cdr
	}
	return fast.Kind() == runtime.KindNull
}

// primitiveProcedure wraps a built-in operator in a closure so that a
// bare reference to a primitive name evaluates to a callable value.
// Fixed-arity operators get matching parameter lists; variadic
// operators wrap as zero-parameter closures evaluating their identity.
func primitiveProcedure(name string, env *runtime.Environment) (*runtime.ProcedureValue, bool) {
	const parm, parm1, parm2 = "parm", "parm1", "parm2"

	unary := func(op ast.PrimOp) *runtime.ProcedureValue {
		return &runtime.ProcedureValue{
			Params: []string{parm},
			Body:   ast.UnaryExpression{Op: op, Operand: ast.Identifier{Name: parm}},
			Env:    env,
		}
	}
	binary := func(op ast.PrimOp) *runtime.ProcedureValue {
		return &runtime.ProcedureValue{
			Params: []string{parm1, parm2},
			Body: ast.BinaryExpression{
				Op:    op,
				Left:  ast.Identifier{Name: parm1},
				Right: ast.Identifier{Name: parm2},
			},
			Env: env,
		}
	}
	variadic := func(op ast.PrimOp) *runtime.ProcedureValue {
		return &runtime.ProcedureValue{
			Params: nil,
			Body:   ast.VariadicExpression{Op: op},
			Env:    env,
		}
	}

	switch name {
	case "void":
		return &runtime.ProcedureValue{Body: ast.VoidLiteral{}, Env: env}, true
	case "exit":
		return &runtime.ProcedureValue{Body: ast.ExitExpression{}, Env: env}, true
	case "not":
		return unary(ast.OpNot), true
	case "car":
		return unary(ast.OpCar), true
	case "cdr":
		return unary(ast.OpCdr), true
	case "list?":
		return unary(ast.OpIsList), true
	case "boolean?":
		return unary(ast.OpIsBoolean), true
	case "number?":
		return unary(ast.OpIsNumber), true
	case "null?":
		return unary(ast.OpIsNull), true
	case "pair?":
		return unary(ast.OpIsPair), true
	case "procedure?":
		return unary(ast.OpIsProcedure), true
	case "symbol?":
		return unary(ast.OpIsSymbol), true
	case "string?":
		return unary(ast.OpIsString), true
	case "display":
		return unary(ast.OpDisplay), true
	case "cons":
		return binary(ast.OpCons), true
	case "set-car!":
		return binary(ast.OpSetCar), true
	case "set-cdr!":
		return binary(ast.OpSetCdr), true
	case "modulo":
		return binary(ast.OpModulo), true
	case "expt":
		return binary(ast.OpExpt), true
	case "eq?":
		return binary(ast.OpIsEq), true
	case "+":
		return variadic(ast.OpAdd), true
	case "-":
		return variadic(ast.OpSub), true
	case "*":
		return variadic(ast.OpMul), true
	case "/":
		return variadic(ast.OpDiv), true
	case "<":
		return variadic(ast.OpLt), true
	case "<=":
		return variadic(ast.OpLe), true
	case "=":
		return variadic(ast.OpNumEq), true
	case ">=":
		return variadic(ast.OpGe), true
	case ">":
		return variadic(ast.OpGt), true
	case "list":
		return variadic(ast.OpList), true
	case "and":
		return &runtime.ProcedureValue{Body: ast.AndExpression{}, Env: env}, true
	case "or":
		return &runtime.ProcedureValue{Body: ast.OrExpression{}, Env: env}, true
	}
	return nil, false
}
