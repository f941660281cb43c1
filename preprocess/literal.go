package preprocess

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// EvalArg converts a single raw SQL argument source span into a Go value,
// per §4.6/§9: strings remain strings; everything else goes through a
// restricted literal evaluator that understands only numeric, boolean,
// null and list literals — never a general expression language. No `eval`,
// no name lookup. Anything the evaluator rejects is returned unchanged as
// a raw string, left for the UDTF to interpret itself.
func EvalArg(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if isQuotedString(trimmed) {
		return unquoteSQLString(trimmed)
	}
	if strings.EqualFold(trimmed, "null") {
		return nil
	}
	if v, ok := evalLiteralExpr(trimmed); ok {
		return v
	}
	return raw
}

func isQuotedString(s string) bool {
	return len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\''
}

func unquoteSQLString(s string) string {
	inner := s[1 : len(s)-1]
	return strings.ReplaceAll(inner, "''", "'")
}

// evalLiteralExpr parses src as a restricted Go expression and walks the
// result, accepting only literal shapes (see evalNode). SQL's bracketed
// list syntax ("[1, 2, 3]") isn't valid Go on its own, so it's rewritten
// to a composite literal before parsing; anything else that doesn't parse
// as a Go expression is rejected outright — not silently approximated.
func evalLiteralExpr(src string) (any, bool) {
	toParse := src
	if strings.HasPrefix(src, "[") && strings.HasSuffix(src, "]") {
		toParse = "[]any{" + src[1:len(src)-1] + "}"
	}
	expr, err := parser.ParseExpr(toParse)
	if err != nil {
		return nil, false
	}
	return evalNode(expr)
}

// evalNode accepts only: basic literals (int/float/string/char), the
// identifiers true/false, a leading unary minus on a numeric literal,
// parenthesized sub-expressions, and composite literals (list values).
// Anything else — identifiers that aren't true/false, calls, binary
// operators, selectors — is rejected.
func evalNode(n ast.Expr) (any, bool) {
	switch e := n.(type) {
	case *ast.BasicLit:
		return basicLitValue(e)
	case *ast.Ident:
		switch e.Name {
		case "true":
			return true, true
		case "false":
			return false, true
		default:
			return nil, false
		}
	case *ast.UnaryExpr:
		if e.Op != token.SUB {
			return nil, false
		}
		v, ok := evalNode(e.X)
		if !ok {
			return nil, false
		}
		switch n := v.(type) {
		case int64:
			return -n, true
		case float64:
			return -n, true
		default:
			return nil, false
		}
	case *ast.ParenExpr:
		return evalNode(e.X)
	case *ast.CompositeLit:
		out := make([]any, 0, len(e.Elts))
		for _, el := range e.Elts {
			v, ok := evalNode(el)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
		return out, true
	default:
		return nil, false
	}
}

func basicLitValue(lit *ast.BasicLit) (any, bool) {
	switch lit.Kind {
	case token.INT:
		n, err := strconv.ParseInt(lit.Value, 0, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case token.FLOAT:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case token.STRING, token.CHAR:
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return nil, false
		}
		return s, true
	default:
		return nil, false
	}
}
