package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Reserved words. Identifiers never equal one of these.
var keywords = []string{"def", "else", "end", "if", "while"}

// Keywords returns the reserved words in sorted order.
func Keywords() []string { return slices.Clone(keywords) }

// IsKeyword reports whether s is a reserved word.
func IsKeyword(s string) bool {
	_, found := slices.BinarySearch(keywords, s)

	return found
}

// Parse matches source against the calc grammar and returns the concrete
// tree rooted at a program node. The entire input must match; otherwise a
// [*SyntaxError] describes the furthest position reached.
//
//	program    := ws? (expression sep?)*
//	expression := fundef | if | while | ident '=' expression
//	            | term (('+'|'-') expression)?
//	term       := primary (('*'|'/') term)?
//	primary    := number | '(' expression ')' | funcall | ident
//	funcall    := ident '(' (expression (',' expression)*)? ')'
//	fundef     := 'def' ident '(' (ident (',' ident)*)? ')' sep? program 'end'
//	if         := 'if' expression sep? program ('else' sep? program sep?)? 'end'
//	while      := 'while' expression sep? program sep? 'end'
//	number     := [-+]? ([1-9][0-9]* | [0-9]) ('.' [0-9]+)?
//	ident      := [A-Za-z_][A-Za-z0-9_]*
//	sep        := ';' ws? | [\r\n]+ [ \t]*
//
// Every token absorbs the whitespace that follows it.
func Parse(ctx context.Context, source string, opts ...Option) (*Tree, error) {
	o := makeOptions(opts...)

	o.logger.TraceContext(ctx, "parse start",
		slog.Int("source_bytes", len(source)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := newParser(source)

	tree, err := p.parse()
	if err != nil {
		o.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("statement_count", len(tree.Items)))

	return tree, nil
}

// parser is a backtracking recursive descent matcher. Each rule either
// succeeds and advances pos, or fails and leaves pos where it found it.
type parser struct {
	src   string
	pos   int
	lines []int // byte offset of the first byte of each line

	// furthest failure
	far      int
	expected map[string]struct{}
}

func newParser(src string) *parser {
	lines := []int{0}

	for i := range len(src) {
		if src[i] == '\n' {
			lines = append(lines, i+1)
		}
	}

	return &parser{
		src:      src,
		lines:    lines,
		far:      -1,
		expected: make(map[string]struct{}),
	}
}

func (p *parser) parse() (*Tree, error) {
	p.ws()

	prog := p.program()

	if !p.eof() {
		p.fail("end of input")

		return nil, p.syntaxError()
	}

	return prog, nil
}

// program := (expression sep?)*
func (p *parser) program() *Tree {
	pos := p.position(p.pos)
	items := make([]*Tree, 0)

	for {
		expr := p.expression()
		if expr == nil {
			break
		}

		items = append(items, expr)

		p.sep()
	}

	return list(KindProgram, pos, items)
}

// expression := fundef | if | while | ident '=' expression
//
//	| term (('+'|'-') expression)?
func (p *parser) expression() *Tree {
	for _, alt := range []func() *Tree{
		p.fundef, p.ifExpr, p.while, p.assign, p.additive,
	} {
		if t := alt(); t != nil {
			return t
		}
	}

	return nil
}

func (p *parser) fundef() *Tree {
	save := p.pos
	pos := p.position(save)

	if !p.keyword("def") {
		return nil
	}

	name := p.ident()
	if name == nil || !p.literal("(") {
		p.pos = save

		return nil
	}

	paramsPos := p.position(p.pos)
	params := make([]*Tree, 0)

	if first := p.ident(); first != nil {
		params = append(params, first)

		for {
			mark := p.pos
			if !p.literal(",") {
				break
			}

			next := p.ident()
			if next == nil {
				p.pos = mark

				break
			}

			params = append(params, next)
		}
	}

	if !p.literal(")") {
		p.pos = save

		return nil
	}

	p.sep()

	body := p.program()

	if !p.keyword("end") {
		p.pos = save

		return nil
	}

	return branch(KindFundef, pos, map[Role]*Tree{
		RoleIdent: name,
		RoleArgs:  list(KindArgs, paramsPos, params),
		RoleBody:  body,
	})
}

func (p *parser) ifExpr() *Tree {
	save := p.pos
	pos := p.position(save)

	if !p.keyword("if") {
		return nil
	}

	cond := p.expression()
	if cond == nil {
		p.pos = save

		return nil
	}

	p.sep()

	fields := map[Role]*Tree{
		RoleCond: cond,
		RoleThen: p.program(),
	}

	if p.keyword("else") {
		p.sep()
		fields[RoleElse] = p.program()
		p.sep()
	}

	if !p.keyword("end") {
		p.pos = save

		return nil
	}

	return branch(KindIf, pos, fields)
}

func (p *parser) while() *Tree {
	save := p.pos
	pos := p.position(save)

	if !p.keyword("while") {
		return nil
	}

	cond := p.expression()
	if cond == nil {
		p.pos = save

		return nil
	}

	p.sep()

	body := p.program()

	p.sep()

	if !p.keyword("end") {
		p.pos = save

		return nil
	}

	return branch(KindWhile, pos, map[Role]*Tree{
		RoleCond: cond,
		RoleBody: body,
	})
}

// assign := ident '=' expression
func (p *parser) assign() *Tree {
	save := p.pos
	pos := p.position(save)

	target := p.ident()
	if target == nil {
		return nil
	}

	opPos := p.position(p.pos)
	if !p.literal("=") {
		p.pos = save

		return nil
	}

	value := p.expression()
	if value == nil {
		p.pos = save

		return nil
	}

	return branch(KindBinary, pos, map[Role]*Tree{
		RoleLeft:  target,
		RoleOp:    leaf(KindOp, "=", opPos),
		RoleRight: value,
	})
}

// additive := term (('+'|'-') expression)?
func (p *parser) additive() *Tree {
	return p.chain(p.term, p.expression, "+", "-")
}

// term := primary (('*'|'/') term)?
func (p *parser) term() *Tree {
	return p.chain(p.primary, p.term, "*", "/")
}

// chain matches operand (op rest)?, where rest recurses to the right. A
// lone operand is wrapped in an operand node.
func (p *parser) chain(operand, rest func() *Tree, ops ...string) *Tree {
	save := p.pos
	pos := p.position(save)

	left := operand()
	if left == nil {
		return nil
	}

	mark := p.pos
	opPos := p.position(mark)

	for _, op := range ops {
		if !p.literal(op) {
			continue
		}

		right := rest()
		if right == nil {
			p.pos = mark

			break
		}

		return branch(KindBinary, pos, map[Role]*Tree{
			RoleLeft:  left,
			RoleOp:    leaf(KindOp, op, opPos),
			RoleRight: right,
		})
	}

	return branch(KindOperand, pos, map[Role]*Tree{RoleLeft: left})
}

// primary := number | '(' expression ')' | funcall | ident
func (p *parser) primary() *Tree {
	if t := p.number(); t != nil {
		return t
	}

	save := p.pos
	if p.literal("(") {
		if inner := p.expression(); inner != nil && p.literal(")") {
			return inner
		}

		p.pos = save
	}

	if t := p.funcall(); t != nil {
		return t
	}

	return p.ident()
}

// funcall := ident '(' (expression (',' expression)*)? ')'
func (p *parser) funcall() *Tree {
	save := p.pos
	pos := p.position(save)

	name := p.ident()
	if name == nil {
		return nil
	}

	argsPos := p.position(p.pos)
	if !p.literal("(") {
		p.pos = save

		return nil
	}

	args := make([]*Tree, 0)

	if first := p.expression(); first != nil {
		args = append(args, first)

		for {
			mark := p.pos
			if !p.literal(",") {
				break
			}

			next := p.expression()
			if next == nil {
				p.pos = mark

				break
			}

			args = append(args, next)
		}
	}

	if !p.literal(")") {
		p.pos = save

		return nil
	}

	return branch(KindFuncall, pos, map[Role]*Tree{
		RoleIdent: name,
		RoleArgs:  list(KindArgs, argsPos, args),
	})
}

// number := [-+]? ([1-9][0-9]* | [0-9]) ('.' [0-9]+)?
func (p *parser) number() *Tree {
	start := p.pos
	i := start

	if i < len(p.src) && (p.src[i] == '-' || p.src[i] == '+') {
		i++
	}

	switch {
	case i < len(p.src) && p.src[i] >= '1' && p.src[i] <= '9':
		i = p.digits(i + 1)
	case i < len(p.src) && p.src[i] == '0':
		i++
	default:
		p.fail("number")

		return nil
	}

	if i+1 < len(p.src) && p.src[i] == '.' && isDigit(p.src[i+1]) {
		i = p.digits(i + 1)
	}

	t := leaf(KindNumber, p.src[start:i], p.position(start))

	p.pos = i
	p.ws()

	return t
}

func (p *parser) digits(i int) int {
	for i < len(p.src) && isDigit(p.src[i]) {
		i++
	}

	return i
}

// ident := [A-Za-z_][A-Za-z0-9_]*, not exactly a keyword.
func (p *parser) ident() *Tree {
	start := p.pos

	if start >= len(p.src) || !isIdentStart(p.src[start]) {
		p.fail("identifier")

		return nil
	}

	end := p.identEnd(start)

	name := p.src[start:end]
	if IsKeyword(name) {
		p.fail("identifier")

		return nil
	}

	t := leaf(KindIdent, name, p.position(start))

	p.pos = end
	p.ws()

	return t
}

func (p *parser) identEnd(i int) int {
	for i < len(p.src) && isIdentContinue(p.src[i]) {
		i++
	}

	return i
}

// keyword matches word only when it is not the prefix of a longer name.
func (p *parser) keyword(word string) bool {
	if !strings.HasPrefix(p.src[p.pos:], word) ||
		p.identEnd(p.pos) != p.pos+len(word) {
		p.fail(word)

		return false
	}

	p.pos += len(word)
	p.ws()

	return true
}

func (p *parser) literal(s string) bool {
	if !strings.HasPrefix(p.src[p.pos:], s) {
		p.fail(s)

		return false
	}

	p.pos += len(s)
	p.ws()

	return true
}

// sep := ';' ws? | [\r\n]+ [ \t]*
func (p *parser) sep() bool {
	if p.literal(";") {
		return true
	}

	i := p.pos
	for i < len(p.src) && (p.src[i] == '\r' || p.src[i] == '\n') {
		i++
	}

	if i == p.pos {
		p.fail("newline")

		return false
	}

	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t') {
		i++
	}

	p.pos = i

	return true
}

func (p *parser) ws() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

// fail records that want was expected at the current position.
func (p *parser) fail(want string) {
	switch {
	case p.pos > p.far:
		p.far = p.pos
		clear(p.expected)

		fallthrough

	case p.pos == p.far:
		p.expected[want] = struct{}{}
	}
}

func (p *parser) syntaxError() *SyntaxError {
	return &SyntaxError{
		Source:   p.src,
		Pos:      p.position(p.far),
		Expected: slices.Sorted(maps.Keys(p.expected)),
	}
}

func (p *parser) position(offset int) Position {
	line := sort.Search(len(p.lines), func(i int) bool {
		return p.lines[i] > offset
	})

	start := p.lines[line-1]

	return Position{
		Offset: offset,
		Line:   line,
		Column: utf8.RuneCountInString(p.src[start:offset]) + 1,
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentContinue(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}

	return false
}
