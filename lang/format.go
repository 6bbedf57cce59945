package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the program in canonical calc syntax. With indent > 0 each
// statement is written on its own line and nested bodies are indented by
// indent spaces; with indent == 0 the program is written on a single line.
// The output parses back to an equivalent program.
func (n *Program) Format(_ context.Context, w io.Writer, indent int) error {
	pr := printer{indent: indent}

	var sb strings.Builder

	if indent > 0 {
		for _, line := range pr.statements(n, 0) {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	} else {
		sb.WriteString(strings.Join(pr.statements(n, 0), " "))
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

// FormatJSON writes the AST as JSON to the writer.
func (n *Program) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(ToMap(n), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(ToMap(n))
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the AST as YAML to the writer.
func (n *Program) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, ToMap(n), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// FormatAST writes an indented listing of the AST, one node per line.
func (n *Program) FormatAST(_ context.Context, w io.Writer, indent int) error {
	if indent <= 0 {
		indent = 2
	}

	var sb strings.Builder

	listNode(&sb, n, "", 0, indent)

	_, err := io.WriteString(w, sb.String())

	return err
}

// Source returns the canonical single-line spelling of n.
func Source(n Node) string {
	pr := printer{}

	if prog, ok := n.(*Program); ok {
		return strings.Join(pr.statements(prog, 0), " ")
	}

	return pr.node(n, 0)
}

// Binding strength of each node shape. An operand is parenthesized when
// its shape binds more loosely than its position requires.
const (
	precExpression = iota // assignment, def, if, while
	precAdditive
	precMultiplicative
	precPrimary
)

func precedence(n Node) int {
	switch n := n.(type) {
	case *Binary:
		if n.Op.Additive() {
			return precAdditive
		}

		return precMultiplicative
	case *Number, *Variable, *Call:
		return precPrimary
	}

	return precExpression
}

type printer struct {
	indent int
}

func (pr printer) pad(depth int) string {
	return strings.Repeat(" ", depth*pr.indent)
}

// statements renders each statement of prog with its trailing separator.
// In multi-line mode a statement is followed by ";" only when the next one
// would otherwise continue it (a leading sign or parenthesis).
func (pr printer) statements(prog *Program, depth int) []string {
	lines := make([]string, prog.Len())

	for i := range lines {
		lines[i] = pr.node(prog.Stmts[i], depth)
	}

	for i := range lines {
		last := i == len(lines)-1

		switch {
		case pr.indent == 0 && !last:
			lines[i] += ";"
		case pr.indent > 0 && !last && continues(lines[i+1]):
			lines[i] += ";"
		}
	}

	return lines
}

// continues reports whether a statement spelled s would be read as the
// continuation of the statement before it.
func continues(s string) bool {
	return s != "" && strings.ContainsAny(s[:1], "+-(")
}

// block renders a body that follows a header and precedes a keyword.
func (pr printer) block(prog *Program, depth int) string {
	stmts := pr.statements(prog, depth+1)

	if pr.indent == 0 {
		if len(stmts) == 0 {
			return "; "
		}

		return "; " + strings.Join(stmts, " ") + "; "
	}

	var sb strings.Builder

	if len(stmts) > 0 && continues(stmts[0]) {
		sb.WriteByte(';')
	}

	sb.WriteByte('\n')

	for _, s := range stmts {
		sb.WriteString(pr.pad(depth + 1))
		sb.WriteString(s)
		sb.WriteByte('\n')
	}

	sb.WriteString(pr.pad(depth))

	return sb.String()
}

func (pr printer) operand(n Node, minPrec, depth int) string {
	s := pr.node(n, depth)
	if precedence(n) < minPrec {
		return "(" + s + ")"
	}

	return s
}

func (pr printer) node(n Node, depth int) string {
	switch n := n.(type) {
	case *Number:
		return numberText(n)

	case *Variable:
		return n.Name

	case *Binary:
		left, right := precMultiplicative, precExpression
		if !n.Op.Additive() {
			left, right = precPrimary, precMultiplicative
		}

		return pr.operand(n.Left, left, depth) + " " + string(n.Op) + " " +
			pr.operand(n.Right, right, depth)

	case *Assign:
		return pr.node(n.Target, depth) + " = " + pr.node(n.Value, depth)

	case *Call:
		args := make([]string, len(n.Args))
		for i, arg := range n.Args {
			args[i] = pr.node(arg, depth)
		}

		return n.Name + "(" + strings.Join(args, ", ") + ")"

	case *FuncDef:
		return "def " + n.Name + "(" + strings.Join(n.Params, ", ") + ")" +
			pr.block(n.Body, depth) + "end"

	case *If:
		s := "if " + pr.node(n.Cond, depth) + pr.block(n.Then, depth)
		if n.Else != nil {
			s += "else" + pr.block(n.Else, depth)
		}

		return s + "end"

	case *While:
		return "while " + pr.node(n.Cond, depth) + pr.block(n.Body, depth) + "end"

	case *Program:
		return "(" + strings.Join(pr.statements(n, depth), " ") + ")"
	}

	return "<invalid>"
}

// numberText spells a number so that it parses back to the same value.
// Values without a literal spelling in the grammar are written as the
// division that produces them.
func numberText(n *Number) string {
	switch {
	case n.Literal != "":
		return n.Literal
	case math.IsNaN(n.Value):
		return "(0 / 0)"
	case math.IsInf(n.Value, 1):
		return "(1 / 0)"
	case math.IsInf(n.Value, -1):
		return "(-1 / 0)"
	}

	return formatFloat(n.Value)
}

func listNode(sb *strings.Builder, n Node, label string, depth, indent int) {
	sb.WriteString(strings.Repeat(" ", depth*indent))

	if label != "" {
		sb.WriteString(label)
		sb.WriteString(": ")
	}

	switch n := n.(type) {
	case *Number:
		fmt.Fprintf(sb, "number %s @%s\n", numberText(n), n.Pos)

	case *Variable:
		fmt.Fprintf(sb, "variable %s @%s\n", n.Name, n.Pos)

	case *Binary:
		fmt.Fprintf(sb, "binary %s @%s\n", n.Op, n.Pos)
		listNode(sb, n.Left, "left", depth+1, indent)
		listNode(sb, n.Right, "right", depth+1, indent)

	case *Assign:
		fmt.Fprintf(sb, "assign @%s\n", n.Pos)
		listNode(sb, n.Target, "target", depth+1, indent)
		listNode(sb, n.Value, "value", depth+1, indent)

	case *Call:
		fmt.Fprintf(sb, "call %s @%s\n", n.Name, n.Pos)

		for _, arg := range n.Args {
			listNode(sb, arg, "arg", depth+1, indent)
		}

	case *FuncDef:
		fmt.Fprintf(sb, "def %s(%s) @%s\n", n.Name, strings.Join(n.Params, ", "), n.Pos)
		listNode(sb, n.Body, "body", depth+1, indent)

	case *If:
		fmt.Fprintf(sb, "if @%s\n", n.Pos)
		listNode(sb, n.Cond, "cond", depth+1, indent)
		listNode(sb, n.Then, "then", depth+1, indent)

		if n.Else != nil {
			listNode(sb, n.Else, "else", depth+1, indent)
		}

	case *While:
		fmt.Fprintf(sb, "while @%s\n", n.Pos)
		listNode(sb, n.Cond, "cond", depth+1, indent)
		listNode(sb, n.Body, "body", depth+1, indent)

	case *Program:
		if n == nil {
			sb.WriteString("program (0)\n")

			return
		}

		fmt.Fprintf(sb, "program (%d) @%s\n", n.Len(), n.Pos)

		for i := range n.Len() {
			listNode(sb, n.Stmts[i], "", depth+1, indent)
		}

	default:
		sb.WriteString("<invalid>\n")
	}
}
