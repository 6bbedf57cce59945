package lang

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Position identifies a location in source text. Line and Column are
// 1-based; Column counts runes.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Kind names the shape of a concrete [Tree] node.
type Kind string

// Concrete tree shapes produced by [Parse].
const (
	KindProgram Kind = "program"
	KindNumber  Kind = "number"
	KindIdent   Kind = "ident"
	KindOperand Kind = "operand"
	KindBinary  Kind = "binary"
	KindOp      Kind = "op"
	KindFuncall Kind = "funcall"
	KindFundef  Kind = "fundef"
	KindIf      Kind = "if"
	KindWhile   Kind = "while"
	KindArgs    Kind = "args"
)

// Role labels a child of a concrete [Tree] node.
type Role string

// Child roles.
const (
	RoleLeft  Role = "left"
	RoleOp    Role = "op"
	RoleRight Role = "right"
	RoleIdent Role = "ident"
	RoleArgs  Role = "args"
	RoleBody  Role = "body"
	RoleCond  Role = "cond"
	RoleThen  Role = "then"
	RoleElse  Role = "else"
)

// roleOrder fixes the order in which labeled children are printed.
var roleOrder = []Role{
	RoleIdent, RoleCond, RoleLeft, RoleOp, RoleRight,
	RoleArgs, RoleBody, RoleThen, RoleElse,
}

// Tree is the loosely typed concrete parse tree produced by [Parse] and
// consumed by [Transform]. Leaves (number, ident, op) carry their matched
// Text; program and args nodes carry ordered Items; every other shape
// carries labeled Fields.
type Tree struct {
	Kind   Kind
	Text   string
	Pos    Position
	Fields map[Role]*Tree
	Items  []*Tree
}

func leaf(kind Kind, text string, pos Position) *Tree {
	return &Tree{Kind: kind, Text: text, Pos: pos}
}

func branch(kind Kind, pos Position, fields map[Role]*Tree) *Tree {
	return &Tree{Kind: kind, Pos: pos, Fields: fields}
}

func list(kind Kind, pos Position, items []*Tree) *Tree {
	return &Tree{Kind: kind, Pos: pos, Items: items}
}

// Field returns the child labeled role, or nil.
func (t *Tree) Field(role Role) *Tree {
	if t == nil || t.Fields == nil {
		return nil
	}

	return t.Fields[role]
}

// String renders the tree as an indented listing.
func (t *Tree) String() string {
	var sb strings.Builder

	_ = t.Write(&sb)

	return sb.String()
}

// Write renders the tree as an indented listing, one node per line.
func (t *Tree) Write(w io.Writer) error {
	return t.write(w, "", 0)
}

func (t *Tree) write(w io.Writer, label string, depth int) error {
	pad := strings.Repeat("  ", depth)
	if label != "" {
		pad += label + ": "
	}

	if t == nil {
		_, err := fmt.Fprintf(w, "%snil\n", pad)

		return err
	}

	head := pad + string(t.Kind)
	if t.Text != "" {
		head += " " + strconv.Quote(t.Text)
	}

	if _, err := fmt.Fprintf(w, "%s @%s\n", head, t.Pos); err != nil {
		return err
	}

	for _, role := range roleOrder {
		child, ok := t.Fields[role]
		if !ok {
			continue
		}

		if err := child.write(w, string(role), depth+1); err != nil {
			return err
		}
	}

	for _, role := range extraRoles(t.Fields) {
		if err := t.Fields[role].write(w, string(role), depth+1); err != nil {
			return err
		}
	}

	for _, item := range t.Items {
		if err := item.write(w, "", depth+1); err != nil {
			return err
		}
	}

	return nil
}

// extraRoles returns the labels of fields not in roleOrder, sorted.
func extraRoles(fields map[Role]*Tree) []Role {
	var extra []Role

	for role := range fields {
		if !slices.Contains(roleOrder, role) {
			extra = append(extra, role)
		}
	}

	slices.Sort(extra)

	return extra
}
