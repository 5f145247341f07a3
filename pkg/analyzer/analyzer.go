package analyzer

import (
	"strings"

	"minischeme/interpreter-go/pkg/ast"
	"minischeme/interpreter-go/pkg/runtime"
	"minischeme/interpreter-go/pkg/syntax"
)

// Analyze converts a raw syntax datum into an analyzed expression.
//
// The environment is consulted at analysis time for one purpose:
// deciding whether the head symbol of a list is a locally bound
// variable. A bound name always shadows the primitive and keyword
// tables, which makes every built-in name reusable as an ordinary
// identifier once a lambda/let binds it.
func Analyze(node syntax.Node, env *runtime.Environment) (ast.Expression, error) {
	switch n := node.(type) {
	case syntax.Integer:
		return ast.IntegerLiteral{Value: n.Value}, nil
	case syntax.Rational:
		return ast.RationalLiteral{Num: n.Num, Den: n.Den}, nil
	case syntax.String:
		return ast.StringLiteral{Value: n.Value}, nil
	case syntax.Boolean:
		return ast.BooleanLiteral{Value: n.Value}, nil
	case syntax.Symbol:
		if err := validateIdentifier(n.Name); err != nil {
			return nil, err
		}
		return ast.Identifier{Name: n.Name}, nil
	case syntax.List:
		return analyzeList(n, env)
	default:
		return nil, runtime.Errorf("unsupported syntax node %T", node)
	}
}

func analyzeList(list syntax.List, env *runtime.Environment) (ast.Expression, error) {
	if len(list.Items) == 0 {
		// () is self-quoting: it analyzes to a quote of the empty list.
		return ast.QuoteExpression{Datum: syntax.List{}}, nil
	}

	head, isSymbol := list.Items[0].(syntax.Symbol)
	if !isSymbol {
		return analyzeApplication(list, env)
	}
	op := head.Name

	// A binding in scope shadows both tables; this check must come
	// first.
	if _, bound := env.Get(op); bound {
		return analyzeApplication(list, env)
	}
	if spec, ok := primitives[op]; ok {
		return analyzePrimitive(op, spec, list.Items[1:], env)
	}
	if _, ok := reservedWords[op]; ok {
		return analyzeSpecialForm(op, list, env)
	}

	// A free variable in operator position: application, with the
	// undefined-variable decision deferred to evaluation time.
	return analyzeApplication(list, env)
}

func analyzeApplication(list syntax.List, env *runtime.Environment) (ast.Expression, error) {
	callee, err := Analyze(list.Items[0], env)
	if err != nil {
		return nil, err
	}
	args := make([]ast.Expression, 0, len(list.Items)-1)
	for _, item := range list.Items[1:] {
		arg, err := Analyze(item, env)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return ast.CallExpression{Callee: callee, Args: args}, nil
}

func analyzePrimitive(op string, spec primitiveSpec, rest []syntax.Node, env *runtime.Environment) (ast.Expression, error) {
	operands := make([]ast.Expression, 0, len(rest))
	for _, item := range rest {
		operand, err := Analyze(item, env)
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}

	switch spec.arity {
	case arityNullary:
		if len(operands) != 0 {
			return nil, runtime.Errorf("Wrong number of arguments for %s", op)
		}
		if op == "exit" {
			return ast.ExitExpression{}, nil
		}
		return ast.VoidLiteral{}, nil
	case arityUnary:
		if len(operands) != 1 {
			return nil, runtime.Errorf("Wrong number of arguments for %s", op)
		}
		return ast.UnaryExpression{Op: spec.op, Operand: operands[0]}, nil
	case arityBinary:
		if len(operands) != 2 {
			return nil, runtime.Errorf("Wrong number of arguments for %s", op)
		}
		return ast.BinaryExpression{Op: spec.op, Left: operands[0], Right: operands[1]}, nil
	}

	switch op {
	case "and":
		return ast.AndExpression{Operands: operands}, nil
	case "or":
		return ast.OrExpression{Operands: operands}, nil
	case "-":
		if len(operands) == 0 {
			return nil, runtime.Errorf("minus requires at least 1 argument")
		}
	case "/":
		if len(operands) == 0 {
			return nil, runtime.Errorf("division requires at least 1 argument")
		}
	}
	return ast.VariadicExpression{Op: spec.op, Operands: operands}, nil
}

func analyzeSpecialForm(op string, list syntax.List, env *runtime.Environment) (ast.Expression, error) {
	items := list.Items
	switch op {
	case "quote":
		if len(items) != 2 {
			return nil, runtime.Errorf("quote requires exactly 1 argument")
		}
		return ast.QuoteExpression{Datum: items[1]}, nil

	case "if":
		if len(items) < 3 || len(items) > 4 {
			return nil, runtime.Errorf("if requires 2 or 3 arguments")
		}
		cond, err := Analyze(items[1], env)
		if err != nil {
			return nil, err
		}
		then, err := Analyze(items[2], env)
		if err != nil {
			return nil, err
		}
		var alt ast.Expression = ast.BooleanLiteral{Value: false}
		if len(items) == 4 {
			if alt, err = Analyze(items[3], env); err != nil {
				return nil, err
			}
		}
		return ast.IfExpression{Cond: cond, Then: then, Else: alt}, nil

	case "lambda":
		if len(items) < 3 {
			return nil, runtime.Errorf("lambda requires at least 2 arguments (parameters + body)")
		}
		params, err := parameterNames(items[1], "lambda")
		if err != nil {
			return nil, err
		}
		body, err := analyzeBody(items[2:], bindForAnalysis(env, params))
		if err != nil {
			return nil, err
		}
		return ast.LambdaExpression{Params: params, Body: body}, nil

	case "define":
		return analyzeDefine(items, env)

	case "begin":
		exprs := make([]ast.Expression, 0, len(items)-1)
		for _, item := range items[1:] {
			expr, err := Analyze(item, env)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
		return ast.BeginExpression{Exprs: exprs}, nil

	case "cond":
		if len(items) < 2 {
			return nil, runtime.Errorf("cond: at least one clause is required")
		}
		clauses := make([][]ast.Expression, 0, len(items)-1)
		for _, item := range items[1:] {
			clauseList, ok := item.(syntax.List)
			if !ok {
				return nil, runtime.Errorf("cond clauses must be lists")
			}
			if len(clauseList.Items) == 0 {
				return nil, runtime.Errorf("cond: empty clause is invalid")
			}
			clause := make([]ast.Expression, 0, len(clauseList.Items))
			for _, clauseItem := range clauseList.Items {
				expr, err := Analyze(clauseItem, env)
				if err != nil {
					return nil, err
				}
				clause = append(clause, expr)
			}
			clauses = append(clauses, clause)
		}
		return ast.CondExpression{Clauses: clauses}, nil

	case "let":
		if len(items) < 3 {
			return nil, runtime.Errorf("let requires at least 2 arguments (bindings + body)")
		}
		// Binding expressions see the outer environment only: let's
		// bindings are parallel and non-recursive.
		bindings, names, err := analyzeBindings(items[1], "let", env)
		if err != nil {
			return nil, err
		}
		body, err := analyzeBody(items[2:], bindForAnalysis(env, names))
		if err != nil {
			return nil, err
		}
		return ast.LetExpression{Bindings: bindings, Body: body}, nil

	case "letrec":
		if len(items) < 3 {
			return nil, runtime.Errorf("letrec requires at least 2 arguments (bindings + body)")
		}
		// Binding expressions may reference every letrec name,
		// including their own, so they are analyzed under the extended
		// environment.
		names, err := bindingNames(items[1], "letrec")
		if err != nil {
			return nil, err
		}
		inner := bindForAnalysis(env, names)
		bindings, _, err := analyzeBindings(items[1], "letrec", inner)
		if err != nil {
			return nil, err
		}
		body, err := analyzeBody(items[2:], inner)
		if err != nil {
			return nil, err
		}
		return ast.LetrecExpression{Bindings: bindings, Body: body}, nil

	case "set!":
		if len(items) != 3 {
			return nil, runtime.Errorf("set! requires exactly 2 arguments (var + expr)")
		}
		sym, ok := items[1].(syntax.Symbol)
		if !ok {
			return nil, runtime.Errorf("set! variable must be a symbol")
		}
		if err := validateIdentifier(sym.Name); err != nil {
			return nil, err
		}
		value, err := Analyze(items[2], env)
		if err != nil {
			return nil, err
		}
		return ast.SetExpression{Name: sym.Name, Value: value}, nil
	}
	return nil, runtime.Errorf("unknown reserved word: %s", op)
}

func analyzeDefine(items []syntax.Node, env *runtime.Environment) (ast.Expression, error) {
	if len(items) < 3 {
		return nil, runtime.Errorf("define requires at least 2 arguments")
	}

	switch target := items[1].(type) {
	case syntax.Symbol:
		if err := validateDefineName(target.Name); err != nil {
			return nil, err
		}
		value, err := analyzeBody(items[2:], env)
		if err != nil {
			return nil, err
		}
		return ast.DefineExpression{Name: target.Name, Value: value}, nil

	case syntax.List:
		// (define (f a b) body...) desugars to
		// (define f (lambda (a b) body...)). Parameters are bound for
		// the body analysis, so a parameter named like a keyword or
		// primitive resolves as a variable.
		if len(target.Items) == 0 {
			return nil, runtime.Errorf("define function shorthand cannot be empty")
		}
		nameSym, ok := target.Items[0].(syntax.Symbol)
		if !ok {
			return nil, runtime.Errorf("define function name must be a symbol")
		}
		if err := validateDefineName(nameSym.Name); err != nil {
			return nil, err
		}
		params, err := parameterNames(syntax.List{Items: target.Items[1:]}, "define")
		if err != nil {
			return nil, err
		}
		body, err := analyzeBody(items[2:], bindForAnalysis(env, params))
		if err != nil {
			return nil, err
		}
		lambda := ast.LambdaExpression{Params: params, Body: body}
		return ast.DefineExpression{Name: nameSym.Name, Value: lambda}, nil

	default:
		return nil, runtime.Errorf("define: left-hand side must be a symbol or function shorthand")
	}
}

// analyzeBody analyzes a form body, wrapping multiple expressions in an
// implicit begin.
func analyzeBody(items []syntax.Node, env *runtime.Environment) (ast.Expression, error) {
	exprs := make([]ast.Expression, 0, len(items))
	for _, item := range items {
		expr, err := Analyze(item, env)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return ast.BeginExpression{Exprs: exprs}, nil
}

// parameterNames extracts a symbol-only parameter list. Duplicates are
// not rejected; only arity matters at call time.
func parameterNames(node syntax.Node, form string) ([]string, error) {
	list, ok := node.(syntax.List)
	if !ok {
		return nil, runtime.Errorf("%s parameters must be a list", form)
	}
	params := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		sym, ok := item.(syntax.Symbol)
		if !ok {
			return nil, runtime.Errorf("%s parameters must be symbols", form)
		}
		if err := validateIdentifier(sym.Name); err != nil {
			return nil, err
		}
		params = append(params, sym.Name)
	}
	return params, nil
}

func analyzeBindings(node syntax.Node, form string, env *runtime.Environment) ([]ast.Binding, []string, error) {
	list, ok := node.(syntax.List)
	if !ok {
		return nil, nil, runtime.Errorf("%s bindings must be a list", form)
	}
	bindings := make([]ast.Binding, 0, len(list.Items))
	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		pair, ok := item.(syntax.List)
		if !ok || len(pair.Items) != 2 {
			return nil, nil, runtime.Errorf("%s binding must be a (var expr) pair", form)
		}
		sym, ok := pair.Items[0].(syntax.Symbol)
		if !ok {
			return nil, nil, runtime.Errorf("%s binding variable must be a symbol", form)
		}
		if err := validateIdentifier(sym.Name); err != nil {
			return nil, nil, err
		}
		value, err := Analyze(pair.Items[1], env)
		if err != nil {
			return nil, nil, err
		}
		bindings = append(bindings, ast.Binding{Name: sym.Name, Value: value})
		names = append(names, sym.Name)
	}
	return bindings, names, nil
}

func bindingNames(node syntax.Node, form string) ([]string, error) {
	list, ok := node.(syntax.List)
	if !ok {
		return nil, runtime.Errorf("%s bindings must be a list", form)
	}
	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		pair, ok := item.(syntax.List)
		if !ok || len(pair.Items) != 2 {
			return nil, runtime.Errorf("%s binding must be a (var expr) pair", form)
		}
		sym, ok := pair.Items[0].(syntax.Symbol)
		if !ok {
			return nil, runtime.Errorf("%s binding variable must be a symbol", form)
		}
		names = append(names, sym.Name)
	}
	return names, nil
}

// bindForAnalysis marks names as bound in a child environment so that
// body analysis resolves them as variables. The placeholder value is
// irrelevant.
func bindForAnalysis(env *runtime.Environment, names []string) *runtime.Environment {
	if len(names) == 0 {
		return env
	}
	child := runtime.NewEnvironment(env)
	for _, name := range names {
		child.Define(name, runtime.VoidValue{})
	}
	return child
}

func validateDefineName(name string) error {
	if IsPrimitive(name) || IsReservedWord(name) {
		return runtime.Errorf("Cannot redefine primitive/reserved word '%s'", name)
	}
	return validateIdentifier(name)
}

// validateIdentifier enforces the variable-name grammar: the first
// character may not be a digit, '.', or '@'; the characters # ' " `
// are forbidden anywhere; and any name shaped like a number literal is
// reserved for literals.
func validateIdentifier(name string) error {
	if name == "" {
		return runtime.Errorf("Invalid variable name: empty symbol")
	}
	c := name[0]
	if (c >= '0' && c <= '9') || c == '.' || c == '@' {
		return runtime.Errorf("Invalid variable name '%s': starts with invalid character", name)
	}
	if i := strings.IndexAny(name, "#'\"`"); i >= 0 {
		return runtime.Errorf("Invalid variable name '%s': contains forbidden character '%c'", name, name[i])
	}
	if looksNumeric(name) {
		return runtime.Errorf("Invalid variable name '%s': numeric format is prioritized as literal", name)
	}
	return nil
}

// looksNumeric recognizes the number-literal grammar: optional sign,
// digits, at most one '.', and at most one exponent marker followed by
// an optional sign and at least one digit.
func looksNumeric(s string) bool {
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	hasDigit, hasDot, hasExp := false, false, false
	for i < len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case c == '.':
			if hasDot || hasExp {
				return false
			}
			hasDot = true
		case c == 'e' || c == 'E':
			if hasExp || !hasDigit {
				return false
			}
			hasExp = true
			i++
			if i >= len(s) {
				return false
			}
			if s[i] == '+' || s[i] == '-' {
				i++
			}
			if i >= len(s) || s[i] < '0' || s[i] > '9' {
				return false
			}
			continue
		default:
			return false
		}
		i++
	}
	return hasDigit
}
