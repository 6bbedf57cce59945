package lang

// Node is an element of the abstract syntax tree. The set of
// implementations is closed: [*Number], [*Variable], [*Binary], [*Assign],
// [*FuncDef], [*Call], [*If], [*While] and [*Program].
//
// Nodes are immutable once built and may be shared between runs.
type Node interface {
	Position() Position
	node()
}

// Operator is a binary arithmetic operator.
type Operator string

// Arithmetic operators.
const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
)

// ParseOperator returns the Operator spelled s.
func ParseOperator(s string) (Operator, bool) {
	switch op := Operator(s); op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return op, true
	}

	return "", false
}

// Apply computes a op b in IEEE-754 double precision. Division by zero
// yields an infinity or NaN.
func (op Operator) Apply(a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	}

	panic("lang: invalid operator " + string(op))
}

// Additive reports whether op is + or -.
func (op Operator) Additive() bool { return op == OpAdd || op == OpSub }

type (
	// Number is a numeric literal. Literal keeps the source spelling.
	Number struct {
		Pos     Position
		Literal string
		Value   float64
	}

	// Variable is a reference to a variable in the current frame.
	Variable struct {
		Pos  Position
		Name string
	}

	// Binary applies an arithmetic operator to two operands.
	Binary struct {
		Left  Node
		Right Node
		Pos   Position
		Op    Operator
	}

	// Assign binds the value of Value to Target, which must be a
	// [*Variable].
	Assign struct {
		Target Node
		Value  Node
		Pos    Position
	}

	// FuncDef registers a user-defined function when evaluated.
	FuncDef struct {
		Body   *Program
		Name   string
		Params []string
		Pos    Position
	}

	// Call invokes a builtin or user-defined function.
	Call struct {
		Name string
		Args []Node
		Pos  Position
	}

	// If evaluates Then when Cond is nonzero, else Else (which may be nil).
	If struct {
		Cond Node
		Then *Program
		Else *Program
		Pos  Position
	}

	// While evaluates Body as long as Cond is nonzero.
	While struct {
		Cond Node
		Body *Program
		Pos  Position
	}

	// Program is an ordered statement sequence. Its value is the value of
	// the last statement.
	Program struct {
		Stmts []Node
		Pos   Position
	}
)

func (n *Number) Position() Position   { return n.Pos }
func (n *Variable) Position() Position { return n.Pos }
func (n *Binary) Position() Position   { return n.Pos }
func (n *Assign) Position() Position   { return n.Pos }
func (n *FuncDef) Position() Position  { return n.Pos }
func (n *Call) Position() Position     { return n.Pos }
func (n *If) Position() Position       { return n.Pos }
func (n *While) Position() Position    { return n.Pos }
func (n *Program) Position() Position  { return n.Pos }

func (*Number) node()   {}
func (*Variable) node() {}
func (*Binary) node()   {}
func (*Assign) node()   {}
func (*FuncDef) node()  {}
func (*Call) node()     {}
func (*If) node()       {}
func (*While) node()    {}
func (*Program) node()  {}

// Len returns the number of statements, treating a nil Program as empty.
func (n *Program) Len() int {
	if n == nil {
		return 0
	}

	return len(n.Stmts)
}
