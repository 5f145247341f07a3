package interpreter

import (
	"io"
	"os"

	"minischeme/interpreter-go/pkg/analyzer"
	"minischeme/interpreter-go/pkg/ast"
	"minischeme/interpreter-go/pkg/runtime"
	"minischeme/interpreter-go/pkg/syntax"
)

// Interpreter drives evaluation of analyzed expression trees against a
// persistent global environment. Evaluation is single-threaded,
// synchronous, and depth-first; deep Scheme recursion consumes host
// stack (no tail-call elimination).
type Interpreter struct {
	global *runtime.Environment
	stdout io.Writer
}

// New returns an interpreter with an empty global environment writing
// display output to stdout.
func New() *Interpreter {
	return &Interpreter{
		global: runtime.NewEnvironment(nil),
		stdout: os.Stdout,
	}
}

// GlobalEnvironment returns the interpreter's global environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

// SetOutput redirects the display primitive's output.
func (i *Interpreter) SetOutput(w io.Writer) {
	if w != nil {
		i.stdout = w
	}
}

// EvalForm analyzes one datum against the global environment and
// evaluates the result. Successive top-level forms share the global
// environment, so definitions persist.
func (i *Interpreter) EvalForm(form syntax.Node) (runtime.Value, error) {
	expr, err := analyzer.Analyze(form, i.global)
	if err != nil {
		return nil, err
	}
	return i.Evaluate(expr, i.global)
}

// EvalSource reads, analyzes, and evaluates every form in src,
// returning the last result. A terminate signal short-circuits the
// remaining forms and is returned as the result.
func (i *Interpreter) EvalSource(src string) (runtime.Value, error) {
	forms, err := syntax.Read(src)
	if err != nil {
		return nil, err
	}
	var last runtime.Value = runtime.VoidValue{}
	for _, form := range forms {
		val, err := i.EvalForm(form)
		if err != nil {
			return nil, err
		}
		if val.Kind() == runtime.KindTerminate {
			return val, nil
		}
		last = val
	}
	return last, nil
}

// Evaluate walks an expression tree node-by-node, extending and
// mutating environments as the form semantics require.
func (i *Interpreter) Evaluate(expr ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch n := expr.(type) {
	case ast.IntegerLiteral:
		return runtime.IntegerValue{Val: n.Value}, nil
	case ast.RationalLiteral:
		return &runtime.RationalValue{Num: n.Num, Den: n.Den}, nil
	case ast.StringLiteral:
		return &runtime.StringValue{Val: n.Value}, nil
	case ast.BooleanLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case ast.VoidLiteral:
		return runtime.VoidValue{}, nil
	case ast.ExitExpression:
		return runtime.TerminateValue{}, nil
	case ast.Identifier:
		return i.evaluateIdentifier(n, env)
	case ast.UnaryExpression:
		operand, err := i.Evaluate(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return i.applyUnary(n.Op, operand)
	case ast.BinaryExpression:
		left, err := i.Evaluate(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := i.Evaluate(n.Right, env)
		if err != nil {
			return nil, err
		}
		return applyBinary(n.Op, left, right)
	case ast.VariadicExpression:
		args, err := i.evaluateAll(n.Operands, env)
		if err != nil {
			return nil, err
		}
		return applyVariadic(n.Op, args)
	case ast.IfExpression:
		return i.evaluateIf(n, env)
	case ast.CondExpression:
		return i.evaluateCond(n, env)
	case ast.LambdaExpression:
		// The defining environment is captured by reference: later
		// set! mutations of visible variables are observable inside
		// the closure.
		return &runtime.ProcedureValue{Params: n.Params, Body: n.Body, Env: env}, nil
	case ast.CallExpression:
		return i.evaluateCall(n, env)
	case ast.DefineExpression:
		return i.evaluateDefine(n, env)
	case ast.LetExpression:
		return i.evaluateLet(n, env)
	case ast.LetrecExpression:
		return i.evaluateLetrec(n, env)
	case ast.SetExpression:
		return i.evaluateSet(n, env)
	case ast.BeginExpression:
		return i.evaluateBegin(n.Exprs, env)
	case ast.QuoteExpression:
		return datumToValue(n.Datum)
	case ast.AndExpression:
		return i.evaluateAnd(n.Operands, env)
	case ast.OrExpression:
		return i.evaluateOr(n.Operands, env)
	default:
		return nil, runtime.Errorf("unsupported expression type: %s", expr.NodeType())
	}
}

func (i *Interpreter) evaluateAll(exprs []ast.Expression, env *runtime.Environment) ([]runtime.Value, error) {
	values := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		val, err := i.Evaluate(expr, env)
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	return values, nil
}

// evaluateIdentifier resolves a variable, falling back to a
// primitive-operator closure so built-ins can be passed around as
// ordinary procedures.
func (i *Interpreter) evaluateIdentifier(n ast.Identifier, env *runtime.Environment) (runtime.Value, error) {
	if val, ok := env.Get(n.Name); ok {
		return val, nil
	}
	if proc, ok := primitiveProcedure(n.Name, env); ok {
		return proc, nil
	}
	return nil, runtime.Errorf("Undefined variable: '%s'", n.Name)
}

func (i *Interpreter) evaluateIf(n ast.IfExpression, env *runtime.Environment) (runtime.Value, error) {
	cond, err := i.Evaluate(n.Cond, env)
	if err != nil {
		return nil, err
	}
	if runtime.IsFalse(cond) {
		return i.Evaluate(n.Else, env)
	}
	return i.Evaluate(n.Then, env)
}

func (i *Interpreter) evaluateCond(n ast.CondExpression, env *runtime.Environment) (runtime.Value, error) {
	for _, clause := range n.Clauses {
		test, err := i.Evaluate(clause[0], env)
		if err != nil {
			return nil, err
		}
		if runtime.IsFalse(test) {
			continue
		}
		// A body-less clause yields the test's own value.
		if len(clause) == 1 {
			return test, nil
		}
		var last runtime.Value
		for _, expr := range clause[1:] {
			if last, err = i.Evaluate(expr, env); err != nil {
				return nil, err
			}
		}
		return last, nil
	}
	return runtime.BoolValue{Val: false}, nil
}

func (i *Interpreter) evaluateCall(n ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.Evaluate(n.Callee, env)
	if err != nil {
		return nil, err
	}
	proc, ok := callee.(*runtime.ProcedureValue)
	if !ok {
		return nil, runtime.Errorf("Attempt to apply a non-procedure")
	}
	args, err := i.evaluateAll(n.Args, env)
	if err != nil {
		return nil, err
	}
	if len(args) != len(proc.Params) {
		return nil, runtime.Errorf("Wrong number of arguments: expected %d, got %d",
			len(proc.Params), len(args))
	}
	// A fresh frame per call shadows the shared closure environment,
	// so recursive and interleaved calls never interfere. A duplicate
	// parameter name silently shadows the earlier one.
	callEnv := runtime.NewEnvironment(proc.Env)
	for idx, param := range proc.Params {
		callEnv.Define(param, args[idx])
	}
	return i.Evaluate(proc.Body, callEnv)
}

// evaluateDefine binds the name to void before evaluating the
// definition, so a lambda on the right-hand side may close over and
// call the binding recursively.
func (i *Interpreter) evaluateDefine(n ast.DefineExpression, env *runtime.Environment) (runtime.Value, error) {
	if _, bound := env.Get(n.Name); !bound {
		env.Define(n.Name, runtime.VoidValue{})
	}
	val, err := i.Evaluate(n.Value, env)
	if err != nil {
		return nil, err
	}
	env.Assign(n.Name, val)
	return runtime.VoidValue{}, nil
}

// evaluateLet evaluates every binding in the original environment, so
// bindings do not see each other, then installs them simultaneously in
// one fresh frame.
func (i *Interpreter) evaluateLet(n ast.LetExpression, env *runtime.Environment) (runtime.Value, error) {
	values := make([]runtime.Value, len(n.Bindings))
	for idx, binding := range n.Bindings {
		val, err := i.Evaluate(binding.Value, env)
		if err != nil {
			return nil, err
		}
		values[idx] = val
	}
	letEnv := runtime.NewEnvironment(env)
	for idx, binding := range n.Bindings {
		letEnv.Define(binding.Name, values[idx])
	}
	return i.Evaluate(n.Body, letEnv)
}

// evaluateLetrec installs void placeholders for every name first, then
// overwrites each in declaration order, so binding expressions may
// reference each other and themselves.
func (i *Interpreter) evaluateLetrec(n ast.LetrecExpression, env *runtime.Environment) (runtime.Value, error) {
	recEnv := runtime.NewEnvironment(env)
	for _, binding := range n.Bindings {
		recEnv.Define(binding.Name, runtime.VoidValue{})
	}
	for _, binding := range n.Bindings {
		val, err := i.Evaluate(binding.Value, recEnv)
		if err != nil {
			return nil, err
		}
		recEnv.Assign(binding.Name, val)
	}
	return i.Evaluate(n.Body, recEnv)
}

func (i *Interpreter) evaluateSet(n ast.SetExpression, env *runtime.Environment) (runtime.Value, error) {
	if _, bound := env.Get(n.Name); !bound {
		return nil, runtime.Errorf("set!: undefined variable '%s'", n.Name)
	}
	val, err := i.Evaluate(n.Value, env)
	if err != nil {
		return nil, err
	}
	env.Assign(n.Name, val)
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) evaluateBegin(exprs []ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	var last runtime.Value = runtime.VoidValue{}
	for _, expr := range exprs {
		val, err := i.Evaluate(expr, env)
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

// evaluateAnd short-circuits on the first false operand; with no
// operands it is true, otherwise it yields the final operand's value.
func (i *Interpreter) evaluateAnd(operands []ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	var last runtime.Value = runtime.BoolValue{Val: true}
	for _, operand := range operands {
		val, err := i.Evaluate(operand, env)
		if err != nil {
			return nil, err
		}
		if runtime.IsFalse(val) {
			return runtime.BoolValue{Val: false}, nil
		}
		last = val
	}
	return last, nil
}

// evaluateOr short-circuits on the first non-false operand. It yields
// a fresh #t rather than the operand itself: (or 5) is #t, not 5.
func (i *Interpreter) evaluateOr(operands []ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	for _, operand := range operands {
		val, err := i.Evaluate(operand, env)
		if err != nil {
			return nil, err
		}
		if !runtime.IsFalse(val) {
			return runtime.BoolValue{Val: true}, nil
		}
	}
	return runtime.BoolValue{Val: false}, nil
}
