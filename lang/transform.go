package lang

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
)

// Transform rewrites a concrete tree produced by [Parse] into an AST. The
// walk is post-order: the children of a node are rewritten before the rule
// for the node's own shape runs. Assignment targets are validated here.
func Transform(ctx context.Context, tree *Tree, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	o.logger.TraceContext(ctx, "transform start")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if tree == nil || tree.Kind != KindProgram {
		return nil, ErrInvalidTree.With(slog.String("issue", "root is not a program"))
	}

	res, err := rewrite(tree)
	if err != nil {
		return nil, err
	}

	prog, ok := res.node.(*Program)
	if !ok {
		return nil, ErrInvalidTree.With(slog.String("issue", "root is not a program"))
	}

	o.logger.TraceContext(ctx, "transform complete",
		slog.Int("statement_count", len(prog.Stmts)))

	return prog, nil
}

// rewritten is the result of rewriting one concrete node: an AST node, a
// list of nodes (args) or an operator spelling (op).
type rewritten struct {
	node Node
	list []Node
	op   string
}

// rule rewrites a node given the rewritten forms of its children.
type rule func(t *Tree, fields map[Role]rewritten, items []rewritten) (rewritten, error)

var rules = map[Kind]rule{
	KindProgram: rewriteProgram,
	KindNumber:  rewriteNumber,
	KindIdent:   rewriteIdent,
	KindOp:      rewriteOp,
	KindOperand: rewriteOperand,
	KindBinary:  rewriteBinary,
	KindArgs:    rewriteArgs,
	KindFuncall: rewriteFuncall,
	KindFundef:  rewriteFundef,
	KindIf:      rewriteIf,
	KindWhile:   rewriteWhile,
}

func rewrite(t *Tree) (rewritten, error) {
	if t == nil {
		return rewritten{}, ErrInvalidTree.With(slog.String("issue", "nil node"))
	}

	apply, ok := rules[t.Kind]
	if !ok {
		return rewritten{}, ErrInvalidTree.With(
			slog.String("issue", "unknown shape"),
			slog.String("kind", string(t.Kind)),
		)
	}

	fields := make(map[Role]rewritten, len(t.Fields))

	for role, child := range t.Fields {
		res, err := rewrite(child)
		if err != nil {
			return rewritten{}, err
		}

		fields[role] = res
	}

	items := make([]rewritten, len(t.Items))

	for i, child := range t.Items {
		res, err := rewrite(child)
		if err != nil {
			return rewritten{}, err
		}

		items[i] = res
	}

	return apply(t, fields, items)
}

func missing(t *Tree, role Role) error {
	return ErrInvalidTree.With(
		slog.String("issue", "missing field"),
		slog.String("kind", string(t.Kind)),
		slog.String("role", string(role)),
		slog.String("pos", t.Pos.String()),
	)
}

// childNode returns the node labeled role, which must be present.
func childNode(t *Tree, fields map[Role]rewritten, role Role) (Node, error) {
	res, ok := fields[role]
	if !ok || res.node == nil {
		return nil, missing(t, role)
	}

	return res.node, nil
}

// childBlock returns the program labeled role. Absent optional blocks are nil.
func childBlock(t *Tree, fields map[Role]rewritten, role Role, optional bool) (*Program, error) {
	res, ok := fields[role]
	if !ok && optional {
		return nil, nil
	}

	prog, isProg := res.node.(*Program)
	if !isProg {
		return nil, missing(t, role)
	}

	return prog, nil
}

// childName returns the identifier labeled role.
func childName(t *Tree, fields map[Role]rewritten, role Role) (string, error) {
	v, ok := fields[role].node.(*Variable)
	if !ok {
		return "", missing(t, role)
	}

	return v.Name, nil
}

func rewriteProgram(t *Tree, _ map[Role]rewritten, items []rewritten) (rewritten, error) {
	stmts := make([]Node, len(items))

	for i, item := range items {
		if item.node == nil {
			return rewritten{}, ErrInvalidTree.With(
				slog.String("issue", "statement is not an expression"),
				slog.Int("index", i),
			)
		}

		stmts[i] = item.node
	}

	return rewritten{node: &Program{Stmts: stmts, Pos: t.Pos}}, nil
}

func rewriteNumber(t *Tree, _ map[Role]rewritten, _ []rewritten) (rewritten, error) {
	// Literals beyond float64 range become infinities.
	f, err := strconv.ParseFloat(t.Text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return rewritten{}, ErrInvalidTree.Wrap(err).With(
			slog.String("literal", t.Text),
		)
	}

	return rewritten{node: &Number{Value: f, Literal: t.Text, Pos: t.Pos}}, nil
}

func rewriteIdent(t *Tree, _ map[Role]rewritten, _ []rewritten) (rewritten, error) {
	return rewritten{node: &Variable{Name: t.Text, Pos: t.Pos}}, nil
}

func rewriteOp(t *Tree, _ map[Role]rewritten, _ []rewritten) (rewritten, error) {
	return rewritten{op: t.Text}, nil
}

func rewriteOperand(t *Tree, fields map[Role]rewritten, _ []rewritten) (rewritten, error) {
	n, err := childNode(t, fields, RoleLeft)
	if err != nil {
		return rewritten{}, err
	}

	return rewritten{node: n}, nil
}

func rewriteBinary(t *Tree, fields map[Role]rewritten, _ []rewritten) (rewritten, error) {
	left, err := childNode(t, fields, RoleLeft)
	if err != nil {
		return rewritten{}, err
	}

	right, err := childNode(t, fields, RoleRight)
	if err != nil {
		return rewritten{}, err
	}

	spelled := fields[RoleOp].op

	if spelled == "=" {
		if _, ok := left.(*Variable); !ok {
			return rewritten{}, ErrInvalidTarget.With(
				slog.String("pos", t.Pos.String()),
			)
		}

		return rewritten{node: &Assign{Target: left, Value: right, Pos: t.Pos}}, nil
	}

	op, ok := ParseOperator(spelled)
	if !ok {
		return rewritten{}, ErrInvalidTree.With(
			slog.String("issue", "unknown operator"),
			slog.String("op", spelled),
		)
	}

	return rewritten{node: &Binary{Op: op, Left: left, Right: right, Pos: t.Pos}}, nil
}

func rewriteArgs(_ *Tree, _ map[Role]rewritten, items []rewritten) (rewritten, error) {
	list := make([]Node, len(items))

	for i, item := range items {
		if item.node == nil {
			return rewritten{}, ErrInvalidTree.With(
				slog.String("issue", "argument is not an expression"),
				slog.Int("index", i),
			)
		}

		list[i] = item.node
	}

	return rewritten{list: list}, nil
}

func rewriteFuncall(t *Tree, fields map[Role]rewritten, _ []rewritten) (rewritten, error) {
	fn, err := childName(t, fields, RoleIdent)
	if err != nil {
		return rewritten{}, err
	}

	args := fields[RoleArgs].list
	if args == nil {
		args = []Node{}
	}

	return rewritten{node: &Call{Name: fn, Args: args, Pos: t.Pos}}, nil
}

func rewriteFundef(t *Tree, fields map[Role]rewritten, _ []rewritten) (rewritten, error) {
	fn, err := childName(t, fields, RoleIdent)
	if err != nil {
		return rewritten{}, err
	}

	body, err := childBlock(t, fields, RoleBody, false)
	if err != nil {
		return rewritten{}, err
	}

	params := make([]string, 0, len(fields[RoleArgs].list))

	for _, p := range fields[RoleArgs].list {
		v, ok := p.(*Variable)
		if !ok {
			return rewritten{}, ErrInvalidTree.With(
				slog.String("issue", "parameter is not an identifier"),
				slog.String("function", fn),
			)
		}

		params = append(params, v.Name)
	}

	return rewritten{node: &FuncDef{Name: fn, Params: params, Body: body, Pos: t.Pos}}, nil
}

func rewriteIf(t *Tree, fields map[Role]rewritten, _ []rewritten) (rewritten, error) {
	cond, err := childNode(t, fields, RoleCond)
	if err != nil {
		return rewritten{}, err
	}

	then, err := childBlock(t, fields, RoleThen, false)
	if err != nil {
		return rewritten{}, err
	}

	els, err := childBlock(t, fields, RoleElse, true)
	if err != nil {
		return rewritten{}, err
	}

	return rewritten{node: &If{Cond: cond, Then: then, Else: els, Pos: t.Pos}}, nil
}

func rewriteWhile(t *Tree, fields map[Role]rewritten, _ []rewritten) (rewritten, error) {
	cond, err := childNode(t, fields, RoleCond)
	if err != nil {
		return rewritten{}, err
	}

	body, err := childBlock(t, fields, RoleBody, false)
	if err != nil {
		return rewritten{}, err
	}

	return rewritten{node: &While{Cond: cond, Body: body, Pos: t.Pos}}, nil
}
