package analyzer

import (
	"testing"

	"minischeme/interpreter-go/pkg/ast"
	"minischeme/interpreter-go/pkg/runtime"
	"minischeme/interpreter-go/pkg/syntax"
)

func analyzeSource(t *testing.T, src string) (ast.Expression, error) {
	t.Helper()
	node, err := syntax.ReadOne(src)
	if err != nil {
		t.Fatalf("read %q: %v", src, err)
	}
	return Analyze(node, runtime.NewEnvironment(nil))
}

func mustAnalyze(t *testing.T, src string) ast.Expression {
	t.Helper()
	expr, err := analyzeSource(t, src)
	if err != nil {
		t.Fatalf("analyze %q failed: %v", src, err)
	}
	return expr
}

func wantError(t *testing.T, src, message string) {
	t.Helper()
	_, err := analyzeSource(t, src)
	if err == nil {
		t.Fatalf("analyze %q should fail", src)
	}
	if err.Error() != message {
		t.Fatalf("analyze %q error = %q, want %q", src, err.Error(), message)
	}
}

func TestAnalyzeLiterals(t *testing.T) {
	if _, ok := mustAnalyze(t, "42").(ast.IntegerLiteral); !ok {
		t.Fatalf("expected integer literal")
	}
	if _, ok := mustAnalyze(t, "2/4").(ast.RationalLiteral); !ok {
		t.Fatalf("expected rational literal")
	}
	if _, ok := mustAnalyze(t, "#t").(ast.BooleanLiteral); !ok {
		t.Fatalf("expected boolean literal")
	}
	if _, ok := mustAnalyze(t, `"s"`).(ast.StringLiteral); !ok {
		t.Fatalf("expected string literal")
	}
}

func TestAnalyzePrimitiveShapes(t *testing.T) {
	unary, ok := mustAnalyze(t, "(car x)").(ast.UnaryExpression)
	if !ok || unary.Op != ast.OpCar {
		t.Fatalf("expected car unary node, got %#v", unary)
	}
	binary, ok := mustAnalyze(t, "(cons 1 2)").(ast.BinaryExpression)
	if !ok || binary.Op != ast.OpCons {
		t.Fatalf("expected cons binary node, got %#v", binary)
	}
	variadic, ok := mustAnalyze(t, "(+ 1 2 3)").(ast.VariadicExpression)
	if !ok || variadic.Op != ast.OpAdd || len(variadic.Operands) != 3 {
		t.Fatalf("expected + variadic node, got %#v", variadic)
	}
}

func TestAnalyzePrimitiveArityErrors(t *testing.T) {
	wantError(t, "(car)", "Wrong number of arguments for car")
	wantError(t, "(car 1 2)", "Wrong number of arguments for car")
	wantError(t, "(cons 1)", "Wrong number of arguments for cons")
	wantError(t, "(void 1)", "Wrong number of arguments for void")
	wantError(t, "(-)", "minus requires at least 1 argument")
	wantError(t, "(/)", "division requires at least 1 argument")
}

func TestBoundNameShadowsPrimitive(t *testing.T) {
	env := runtime.NewEnvironment(nil)
	env.Define("car", runtime.IntegerValue{Val: 1})
	node, err := syntax.ReadOne("(car 1 2 3)")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	expr, err := Analyze(node, env)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if _, ok := expr.(ast.CallExpression); !ok {
		t.Fatalf("bound car should analyze as application, got %#v", expr)
	}
}

func TestLambdaParameterShadowsKeyword(t *testing.T) {
	expr := mustAnalyze(t, "(lambda (if) (if 1 2))")
	lambda, ok := expr.(ast.LambdaExpression)
	if !ok {
		t.Fatalf("expected lambda, got %#v", expr)
	}
	if _, ok := lambda.Body.(ast.CallExpression); !ok {
		t.Fatalf("body should treat the parameter as a callee, got %#v", lambda.Body)
	}
}

func TestIfMissingElseDefaultsToFalse(t *testing.T) {
	expr := mustAnalyze(t, "(if 1 2)").(ast.IfExpression)
	alt, ok := expr.Else.(ast.BooleanLiteral)
	if !ok || alt.Value {
		t.Fatalf("missing else must analyze to #f, got %#v", expr.Else)
	}
	wantError(t, "(if 1)", "if requires 2 or 3 arguments")
	wantError(t, "(if 1 2 3 4)", "if requires 2 or 3 arguments")
}

func TestDefineShorthandDesugarsToLambda(t *testing.T) {
	expr := mustAnalyze(t, "(define (add a b) (+ a b))")
	define, ok := expr.(ast.DefineExpression)
	if !ok || define.Name != "add" {
		t.Fatalf("expected define of add, got %#v", expr)
	}
	lambda, ok := define.Value.(ast.LambdaExpression)
	if !ok || len(lambda.Params) != 2 {
		t.Fatalf("expected 2-parameter lambda, got %#v", define.Value)
	}
}

func TestDefineRejectsReservedNames(t *testing.T) {
	wantError(t, "(define car 1)", "Cannot redefine primitive/reserved word 'car'")
	wantError(t, "(define if 1)", "Cannot redefine primitive/reserved word 'if'")
	wantError(t, "(define (cons a) a)", "Cannot redefine primitive/reserved word 'cons'")
}

func TestInvalidIdentifiers(t *testing.T) {
	wantError(t, "(define 1x 5)", "Invalid variable name '1x': starts with invalid character")
	wantError(t, "(define .x 5)", "Invalid variable name '.x': starts with invalid character")
	wantError(t, ".5", "Invalid variable name '.5': starts with invalid character")
	wantError(t, "(define @x 5)", "Invalid variable name '@x': starts with invalid character")
	wantError(t, "(define a#b 5)", "Invalid variable name 'a#b': contains forbidden character '#'")
	wantError(t, "(lambda (+1e3) 1)", "Invalid variable name '+1e3': numeric format is prioritized as literal")
}

func TestQuoteArity(t *testing.T) {
	expr := mustAnalyze(t, "(quote (1 2))")
	if _, ok := expr.(ast.QuoteExpression); !ok {
		t.Fatalf("expected quote node, got %#v", expr)
	}
	wantError(t, "(quote)", "quote requires exactly 1 argument")
	wantError(t, "(quote 1 2)", "quote requires exactly 1 argument")
}

func TestEmptyListSelfQuotes(t *testing.T) {
	expr := mustAnalyze(t, "()")
	quote, ok := expr.(ast.QuoteExpression)
	if !ok {
		t.Fatalf("expected quote of empty list, got %#v", expr)
	}
	list, ok := quote.Datum.(syntax.List)
	if !ok || len(list.Items) != 0 {
		t.Fatalf("expected empty list datum, got %#v", quote.Datum)
	}
}

func TestCondShapeErrors(t *testing.T) {
	wantError(t, "(cond)", "cond: at least one clause is required")
	wantError(t, "(cond 1)", "cond clauses must be lists")
	wantError(t, "(cond ())", "cond: empty clause is invalid")
}

func TestLetBindingsSeeOuterScopeOnly(t *testing.T) {
	// The binding expression references x, which is free at analysis
	// time; that is legal and resolves at evaluation time.
	expr := mustAnalyze(t, "(let ((x 1) (y x)) y)")
	let, ok := expr.(ast.LetExpression)
	if !ok || len(let.Bindings) != 2 {
		t.Fatalf("expected let with 2 bindings, got %#v", expr)
	}
	wantError(t, "(let ((x)) x)", "let binding must be a (var expr) pair")
	wantError(t, "(let (x) x)", "let binding must be a (var expr) pair")
}

func TestLetrecBindingsSeeEachOther(t *testing.T) {
	expr := mustAnalyze(t, "(letrec ((even (lambda (n) (if (= n 0) #t (odd (- n 1))))) (odd (lambda (n) (if (= n 0) #f (even (- n 1)))))) (even 10))")
	letrec, ok := expr.(ast.LetrecExpression)
	if !ok || len(letrec.Bindings) != 2 {
		t.Fatalf("expected letrec with 2 bindings, got %#v", expr)
	}
}

func TestSetShape(t *testing.T) {
	expr := mustAnalyze(t, "(set! x 1)")
	set, ok := expr.(ast.SetExpression)
	if !ok || set.Name != "x" {
		t.Fatalf("expected set! of x, got %#v", expr)
	}
	wantError(t, "(set! x)", "set! requires exactly 2 arguments (var + expr)")
	wantError(t, "(set! (x) 1)", "set! variable must be a symbol")
}

func TestAndOrAnalyzeAsSpecialNodes(t *testing.T) {
	if _, ok := mustAnalyze(t, "(and 1 2)").(ast.AndExpression); !ok {
		t.Fatalf("expected and node")
	}
	if _, ok := mustAnalyze(t, "(or)").(ast.OrExpression); !ok {
		t.Fatalf("expected or node")
	}
}

func TestMultiExpressionLambdaBodyWrapsInBegin(t *testing.T) {
	lambda := mustAnalyze(t, "(lambda (x) (set! x 1) x)").(ast.LambdaExpression)
	if _, ok := lambda.Body.(ast.BeginExpression); !ok {
		t.Fatalf("expected implicit begin body, got %#v", lambda.Body)
	}
}
