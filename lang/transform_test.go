package lang

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_CollapsesOperands(t *testing.T) {
	tree, err := Parse(t.Context(), "((x))")
	require.NoError(t, err)

	prog, err := Transform(t.Context(), tree)
	require.NoError(t, err)
	require.Equal(t, 1, prog.Len())

	v, ok := prog.Stmts[0].(*Variable)
	require.True(t, ok, "got %T", prog.Stmts[0])
	assert.Equal(t, "x", v.Name)
}

func TestTransform_Shapes(t *testing.T) {
	tree, err := Parse(t.Context(),
		"def f(a, b) a end; x = f(1, 2); if x 1 else 2 end; while 0 end")
	require.NoError(t, err)

	prog, err := Transform(t.Context(), tree)
	require.NoError(t, err)
	require.Equal(t, 4, prog.Len())

	def, ok := prog.Stmts[0].(*FuncDef)
	require.True(t, ok)
	assert.Equal(t, "f", def.Name)
	assert.Equal(t, []string{"a", "b"}, def.Params)
	assert.Equal(t, 1, def.Body.Len())

	set, ok := prog.Stmts[1].(*Assign)
	require.True(t, ok)

	call, ok := set.Value.(*Call)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)

	cond, ok := prog.Stmts[2].(*If)
	require.True(t, ok)
	assert.NotNil(t, cond.Else)

	loop, ok := prog.Stmts[3].(*While)
	require.True(t, ok)
	assert.Equal(t, 0, loop.Body.Len())
}

func TestTransform_InvalidTarget(t *testing.T) {
	pos := Position{Offset: 0, Line: 1, Column: 1}

	tree := list(KindProgram, pos, []*Tree{
		branch(KindBinary, pos, map[Role]*Tree{
			RoleLeft:  leaf(KindNumber, "1", pos),
			RoleOp:    leaf(KindOp, "=", pos),
			RoleRight: leaf(KindNumber, "2", pos),
		}),
	})

	_, err := Transform(t.Context(), tree)
	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestTransform_InvalidTree(t *testing.T) {
	pos := Position{Line: 1, Column: 1}

	tests := []struct {
		name string
		tree *Tree
	}{
		{"nil", nil},
		{"root", leaf(KindNumber, "1", pos)},
		{"unknown kind", list(KindProgram, pos, []*Tree{leaf(Kind("bogus"), "", pos)})},
		{
			"missing field",
			list(KindProgram, pos, []*Tree{
				branch(KindBinary, pos, map[Role]*Tree{
					RoleLeft: leaf(KindNumber, "1", pos),
					RoleOp:   leaf(KindOp, "+", pos),
				}),
			}),
		},
		{
			"unknown operator",
			list(KindProgram, pos, []*Tree{
				branch(KindBinary, pos, map[Role]*Tree{
					RoleLeft:  leaf(KindNumber, "1", pos),
					RoleOp:    leaf(KindOp, "%", pos),
					RoleRight: leaf(KindNumber, "2", pos),
				}),
			}),
		},
		{"bad literal", list(KindProgram, pos, []*Tree{leaf(KindNumber, "1.2.3", pos)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transform(t.Context(), tt.tree)
			assert.ErrorIs(t, err, ErrInvalidTree)
		})
	}
}

func TestTransform_HugeLiteral(t *testing.T) {
	tree, err := Parse(t.Context(), strings.Repeat("9", 400))
	require.NoError(t, err)

	prog, err := Transform(t.Context(), tree)
	require.NoError(t, err)

	n, ok := prog.Stmts[0].(*Number)
	require.True(t, ok)
	assert.True(t, math.IsInf(n.Value, 1))
}
