package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
)

//
// Arithmetic is delegated to expr.  By the time an expression gets here
// every variable has been substituted, so what is left is numbers,
// operators, parentheses and the odd math function call
//

const maxCachedPrograms = 1024

const conditionOps = "=<>!"

//
// Math functions callable from let and conditions.  abs, ceil, floor,
// round, min and max are expr builtins; the rest, and pow, are
// registered in newArithEvaluator
//

var mathFuncs = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"exp":   math.Exp,
	"ln":    math.Log,
	"log10": math.Log10,
}

var exprBuiltins = map[string]bool{
	"abs":   true,
	"ceil":  true,
	"floor": true,
	"round": true,
	"min":   true,
	"max":   true,
}

func isMathFunction(name string) bool {

	_, ok := mathFuncs[name]

	return ok || exprBuiltins[name] || name == "pow"
}

//
// All arithmetic is done in float64.  expr would otherwise do integer
// arithmetic on integer literals, which wraps on overflow, and its %
// only takes integers.  Integer nodes become float nodes and % becomes
// a call to fmod
//

type floatPatcher struct{}

func (floatPatcher) Visit(node *ast.Node) {

	switch n := (*node).(type) {
	case *ast.IntegerNode:
		ast.Patch(node, &ast.FloatNode{Value: float64(n.Value)})

	case *ast.BinaryNode:
		if n.Operator == "%" {
			ast.Patch(node, &ast.CallNode{
				Callee:    &ast.IdentifierNode{Value: "fmod"},
				Arguments: []ast.Node{n.Left, n.Right},
			})
		}
	}
}

//
// The parser rejects integer literals that do not fit in an int64
// before any patch runs, so bare integer literals get a ".0" suffix
// first.  A digit run is left alone when it follows a letter, digit or
// '.', or is followed by one (log10, 1e5, 0x10, 5.000000), and so are
// the digits of a signed exponent
//

func floatLiterals(s string) string {

	var out strings.Builder

	for i := 0; i < len(s); {
		if !isDigit(s[i]) || (i > 0 && (isAlnum(s[i-1]) || s[i-1] == '.')) ||
			isSignedExponent(s, i) {
			out.WriteByte(s[i])
			i++
			continue
		}

		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}

		out.WriteString(s[i:j])

		if j == len(s) || !(isAlnum(s[j]) || s[j] == '.' || s[j] == '_') {
			out.WriteString(".0")
		}

		i = j
	}

	return out.String()
}

//
// The digits of an exponent such as 1e+5 or 2.5E-3
//

func isSignedExponent(s string, i int) bool {

	return i >= 3 && (s[i-1] == '+' || s[i-1] == '-') &&
		(s[i-2] == 'e' || s[i-2] == 'E') && (isDigit(s[i-3]) || s[i-3] == '.')
}

type arithEvaluator struct {
	options []expr.Option
	cache   map[string]*vm.Program
}

func newArithEvaluator() *arithEvaluator {

	a := &arithEvaluator{cache: make(map[string]*vm.Program)}

	a.options = append(a.options, expr.Patch(floatPatcher{}))

	for name, fn := range mathFuncs {
		a.options = append(a.options, expr.Function(name, unaryMath(name, fn)))
	}

	a.options = append(a.options, expr.Function("pow",
		func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("pow: want 2 arguments, got %d", len(params))
			}
			x, ok1 := toFloat(params[0])
			y, ok2 := toFloat(params[1])
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("pow: non-numeric argument")
			}
			return math.Pow(x, y), nil
		}))

	a.options = append(a.options, expr.Function("fmod",
		func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("fmod: want 2 arguments, got %d", len(params))
			}
			x, ok1 := toFloat(params[0])
			y, ok2 := toFloat(params[1])
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("fmod: non-numeric argument")
			}
			return math.Mod(x, y), nil
		}))

	return a
}

func unaryMath(name string, fn func(float64) float64) func(params ...any) (any, error) {

	return func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("%s: want 1 argument, got %d", name, len(params))
		}

		x, ok := toFloat(params[0])
		if !ok {
			return nil, fmt.Errorf("%s: non-numeric argument", name)
		}

		return fn(x), nil
	}
}

func toFloat(v any) (float64, bool) {

	switch v := v.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}

	return 0, false
}

func (a *arithEvaluator) compile(s string) (*vm.Program, error) {

	if prog, ok := a.cache[s]; ok {
		return prog, nil
	}

	prog, err := expr.Compile(floatLiterals(s), a.options...)
	if err != nil {
		return nil, err
	}

	if len(a.cache) >= maxCachedPrograms {
		a.cache = make(map[string]*vm.Program)
	}

	a.cache[s] = prog

	return prog, nil
}

//
// Evaluate a fully substituted expression.  ok is false for anything
// that does not come out as a finite number: syntax errors, runtime
// errors, strings, booleans, NaN and Inf (x/0, x%0)
//

func (a *arithEvaluator) eval(s string) (float64, bool) {

	if strings.TrimSpace(s) == "" {
		return math.NaN(), false
	}

	prog, err := a.compile(s)
	if err != nil {
		return math.NaN(), false
	}

	out, err := expr.Run(prog, nil)
	if err != nil {
		return math.NaN(), false
	}

	f, ok := toFloat(out)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return math.NaN(), false
	}

	return f, true
}

func formatNumber(f float64) string {

	return fmt.Sprintf(numberFormat, f)
}

//
// One side of a comparison.  We evaluate it once and keep both the
// text and, if it was one, the number
//

type operand struct {
	text    string
	num     float64
	numeric bool
}

func (a *arithEvaluator) newOperand(text string) operand {

	num, ok := a.eval(text)

	return operand{text: text, num: num, numeric: ok}
}

func splitCondition(s string) (string, string, string) {

	i := strings.IndexAny(s, conditionOps)
	if i < 0 {
		return s, "", ""
	}

	j := i
	for j < len(s) && strings.IndexByte(conditionOps, s[j]) >= 0 {
		j++
	}

	return s[:i], s[i:j], s[j:]
}

//
// Evaluate '<operand> <op> <operand>'.  If both sides are numbers they
// are compared as such.  Otherwise == and != compare the text, and the
// ordering operators insist on both sides being plain digit strings
//

func (a *arithEvaluator) evalCondition(s string) (bool, error) {

	left, op, right := splitCondition(s)

	left = strings.TrimSpace(left)
	op = strings.TrimSpace(op)
	right = strings.TrimSpace(right)

	if left == "" || op == "" || right == "" {
		return false, newScriptError(MalformedExpression, EMALFORMEDEXPR, s)
	}

	switch op {
	default:
		return false, newScriptError(InvalidOperator, EINVALIDOPERATOR, op)

	case "==", "!=", "<", "<=", ">", ">=":
		// ok
	}

	l := a.newOperand(left)
	r := a.newOperand(right)

	if !l.numeric || !r.numeric {
		switch op {
		case "==":
			return l.text == r.text, nil

		case "!=":
			return l.text != r.text, nil
		}

		if !allDigits(l.text) || !allDigits(r.text) {
			return false, newScriptError(NotANumber, EOPERANDMISMATCH, op)
		}

		var err error

		if l.num, err = strconv.ParseFloat(l.text, 64); err != nil {
			return false, newScriptError(NotANumber, ENAN, l.text)
		}

		if r.num, err = strconv.ParseFloat(r.text, 64); err != nil {
			return false, newScriptError(NotANumber, ENAN, r.text)
		}
	}

	return compareNumbers(l.num, op, r.num), nil
}

func compareNumbers(l float64, op string, r float64) bool {

	switch op {
	case "==":
		return l == r

	case "!=":
		return l != r

	case "<":
		return l < r

	case "<=":
		return l <= r

	case ">":
		return l > r

	case ">=":
		return l >= r
	}

	return false
}
