package repl

import (
	"strconv"
	"strings"

	"github.com/ardnew/calc/lang"
)

// functionCall describes the call whose argument list holds the cursor.
type functionCall struct {
	name     string
	argIndex int // 0-based
	inCall   bool
}

// detectFunctionCall finds the innermost unclosed call before cursor and
// the index of the argument being typed.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	open := -1
	depth := 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	nameEnd := open
	for nameEnd > 0 && (input[nameEnd-1] == ' ' || input[nameEnd-1] == '\t') {
		nameEnd--
	}

	name, _, _ := wordBounds(input[:nameEnd], nameEnd)
	if name == "" || lang.IsKeyword(name) || (name[0] >= '0' && name[0] <= '9') {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// signature returns the parameter names of the function called name in
// env. A variadic builtin reports the single parameter "...x".
func signature(env *lang.Env, name string) (params []string, ok bool) {
	fn, ok := env.Function(name)
	if !ok {
		return nil, false
	}

	switch fn := fn.(type) {
	case *lang.UserDefined:
		return fn.Params, true
	}

	if fn.Arity() == lang.Variadic {
		return []string{"...x"}, true
	}

	params = make([]string, fn.Arity())
	for i := range params {
		params[i] = "x" + strconv.Itoa(i+1)
	}

	return params, true
}

// formatSignature formats a call signature such as "f(a, b)".
func formatSignature(name string, params []string) string {
	return name + "(" + strings.Join(params, ", ") + ")"
}

// renderSignatureHint renders the signature of name with the parameter at
// argIndex highlighted. A variadic parameter stays highlighted for every
// later argument.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")
		if argIndex == i || (variadic && argIndex > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
