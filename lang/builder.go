package lang

import "math"

// Builder provides a programmatic API for constructing AST nodes without
// parsing source text. Built nodes have zero positions.
//
// Example:
//
//	b := lang.NewBuilder()
//	prog := b.Program(
//	    b.Def("sq", []string{"x"}, b.Program(
//	        b.Binary(lang.OpMul, b.Var("x"), b.Var("x")),
//	    )),
//	    b.Call("sq", b.Num(3)),
//	)
type Builder struct{}

// NewBuilder creates a new AST builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Program creates a statement sequence.
func (b *Builder) Program(stmts ...Node) *Program {
	if stmts == nil {
		stmts = []Node{}
	}

	return &Program{Stmts: stmts}
}

// Num creates a numeric literal. Infinities and NaN have no literal
// spelling.
func (b *Builder) Num(f float64) *Number {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return &Number{Value: f}
	}

	return &Number{Value: f, Literal: formatFloat(f)}
}

// Var creates a variable reference.
func (b *Builder) Var(name string) *Variable {
	return &Variable{Name: name}
}

// Binary creates an arithmetic operation.
func (b *Builder) Binary(op Operator, left, right Node) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

// Set creates an assignment to the named variable.
func (b *Builder) Set(name string, value Node) *Assign {
	return &Assign{Target: b.Var(name), Value: value}
}

// Assign creates an assignment to an arbitrary target. Targets other than
// [*Variable] are rejected by the evaluator.
func (b *Builder) Assign(target, value Node) *Assign {
	return &Assign{Target: target, Value: value}
}

// Def creates a function definition.
func (b *Builder) Def(name string, params []string, body *Program) *FuncDef {
	if params == nil {
		params = []string{}
	}

	return &FuncDef{Name: name, Params: params, Body: body}
}

// Call creates a function call.
func (b *Builder) Call(name string, args ...Node) *Call {
	if args == nil {
		args = []Node{}
	}

	return &Call{Name: name, Args: args}
}

// If creates a conditional. Pass a nil els for a conditional without an
// else branch.
func (b *Builder) If(cond Node, then, els *Program) *If {
	return &If{Cond: cond, Then: then, Else: els}
}

// While creates a loop.
func (b *Builder) While(cond Node, body *Program) *While {
	return &While{Cond: cond, Body: body}
}
