package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/calc/lang"
	"github.com/ardnew/calc/log"
)

// editDoneMsg is sent when an edit produced a compilable program.
type editDoneMsg struct{ source string }

// editCancelledMsg is sent when the user left the editor buffer empty.
type editCancelledMsg struct{}

// editErrorMsg is sent when the edit failed for a reason other than
// declining to edit again.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	contPrompt = "… "
)

func helpMessage() string {
	return `
Commands:

  :help    Print this message
  :vars    List variables and their values
  :funcs   List functions and their parameters
  :edit    Edit the pending entry (or the last one) in $EDITOR and run it
  :reset   Discard all variables and functions
  :clear   Clear screen
  :quit    Exit

Usage:
  Type a statement to run it; its value is printed unless it has none
  An entry that ends early (e.g. "def f(x)") continues on the next line
  Completions appear as you type; Tab / Shift-Tab cycle through them
  Esc cancels completion, then discards a pending multi-line entry
  Up/Down navigate history
  Ctrl+C on an empty line or Ctrl+D exits
`
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	contPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	outputStyle     = lipgloss.NewStyle()
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)

	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// Config configures an interactive session.
type Config struct {
	// Options configure the session interpreter. Program output and stage
	// traces are always captured and printed above the prompt.
	Options []lang.Option
	// Trace enables stage tracing.
	Trace bool
	// History receives every submitted entry. Nil keeps no history.
	History *History
	Logger  log.Logger
	// Input and Output replace the terminal when set.
	Input  io.Reader
	Output io.Writer
	// Preload, when set, runs before the first prompt, typically to
	// evaluate source files given on the command line.
	Preload func(ctx context.Context, in *lang.Interpreter) error
}

// Run starts an interactive session and blocks until the user quits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	m, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}

	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.Int("history_count", m.history.Len()),
		slog.Int("function_count", len(m.interp.Env().Functions())),
	)

	_, err = tea.NewProgram(m, opts...).Run()

	return err
}

const defaultWidth = 80

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	interp       *lang.Interpreter
	out          *bytes.Buffer // captured program output and traces
	logger       log.Logger
	history      *History
	banner       string        // output of the preload
	pending      []string      // lines of an unfinished entry
	matches      fuzzy.Matches // current fuzzy match results
	historyIdx   int
	wordStart    int  // byte offset of current word start
	wordEnd      int  // byte offset of current word end
	suggIdx      int  // selected candidate index
	preTabCursor int  // cursor position before tab-cycling began
	width        int  // terminal width for ellipsization
	tabActive    bool // whether user is tab-cycling
	quitting     bool
	preTabText   string // input text before tab-cycling began
}

func newModel(ctx context.Context, cfg Config) (model, error) {
	out := new(bytes.Buffer)

	opts := slices.Concat(cfg.Options, []lang.Option{
		lang.WithLogger(cfg.Logger),
		lang.WithOutput(out),
		lang.WithCache(false),
	})
	if cfg.Trace {
		opts = append(opts, lang.WithTrace(out))
	}

	interp := lang.NewInterpreter(opts...)

	history := cfg.History
	if history == nil {
		history = NewHistory("")
	}

	if cfg.Preload != nil {
		if err := cfg.Preload(ctx, interp); err != nil {
			return model{}, err
		}
	}

	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	m := model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		interp:     interp,
		out:        out,
		logger:     cfg.Logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
	}

	m.banner = m.flush()

	return m, nil
}

func (m model) Init() tea.Cmd {
	if m.banner != "" {
		return tea.Batch(textinput.Blink, tea.Println(outputStyle.Render(m.banner)))
	}

	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		m = m.discardPending()

		return m.evaluate(msg.source, strings.Split(strings.TrimRight(msg.source, "\n"), "\n"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	call := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		fmt.Fprintf(&b, "%s/%d",
			lipgloss.NewStyle().Bold(true).Render(fmt.Sprint(m.historyIdx+1)),
			m.history.Len())

	case strings.TrimSpace(input) == "" && len(m.pending) > 0:
		b.WriteString(hintStyle.Render("Continue the entry, or press Esc to discard it"))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render("Type a statement, or :help for commands"))

	case call.inCall && len(m.matches) == 0:
		if params, ok := signature(m.interp.Env(), call.name); ok {
			b.WriteString(renderSignatureHint(call.name, params, call.argIndex))
		}

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(
			m.matches, m.suggIdx, m.tabActive, m.width, m.isFunction,
		))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) isFunction(name string) bool {
	_, ok := m.interp.Env().Function(name)

	return ok
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" && len(m.pending) == 0 {
			m.quitting = true

			return m, tea.Quit
		}

		m = m.clearInput()
		m = m.discardPending()

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" && len(m.pending) == 0 {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			m.tabActive = false
			refreshMatches(&m, true)

			return m, nil
		}

		return m.executeInput()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyMove(-1), nil

	case tea.KeyDown:
		return m.historyMove(1), nil

	case tea.KeyEsc:
		switch {
		case m.tabActive:
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil

		case len(m.pending) > 0:
			m = m.discardPending()

			return m, tea.Println(hintStyle.Render("entry discarded"))
		}

		return m.clearInput(), nil

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.Type == tea.KeySpace {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

func (m model) clearInput() model {
	m.input.SetValue("")
	m.tabActive = false
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

func (m model) discardPending() model {
	m.pending = nil
	m.input.Prompt = promptStyle.Render(evalPrompt)

	return m
}

// cycle moves the selected completion by step, starting a tab cycle when
// none is active. A single candidate is inserted and confirmed at once.
func (m model) cycle(step int) model {
	switch len(m.matches) {
	case 0:
		return m
	case 1:
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with
// replacement and moves the cursor after it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])

	m.wordEnd = m.wordStart + len(replacement)
	m.input.SetCursor(m.wordEnd)
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true, a sole candidate equal to the typed word is
// accepted and the completion bar is hidden.
func refreshMatches(m *model, autoConfirm bool) {
	if m.tabActive {
		return
	}

	m.matches, m.wordStart, m.wordEnd = m.computeMatches()
	m.suggIdx = -1

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.matches = nil
	}
}

// historyMove recalls the entry step positions away from the current one.
// Moving past the newest entry clears the input.
func (m model) historyMove(step int) model {
	next := m.historyIdx + step
	if next < 0 {
		return m
	}

	if next >= m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)

		return m
	}

	entry, err := m.history.Get(next)
	if err != nil {
		return m
	}

	m.historyIdx = next
	line := oneLine(m.ctxFunc(), entry)
	m.input.SetValue(line)
	m.input.SetCursor(len(line))
	refreshMatches(&m, false)

	return m
}

// oneLine renders a possibly multi-line entry on one line, preferring the
// canonical single-line form of the program.
func oneLine(ctx context.Context, entry string) string {
	if !strings.ContainsAny(entry, "\r\n") {
		return entry
	}

	if prog, err := lang.Compile(ctx, entry, lang.WithCache(false)); err == nil {
		var sb strings.Builder
		if prog.Format(ctx, &sb, 0) == nil {
			return strings.TrimSuffix(sb.String(), "\n")
		}
	}

	return strings.Join(strings.Fields(strings.ReplaceAll(entry, "\n", "; ")), " ")
}

// flush returns and clears the captured program output.
func (m model) flush() string {
	s := strings.TrimSuffix(m.out.String(), "\n")
	m.out.Reset()

	return s
}

func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()

	m.input.SetValue("")
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	if len(m.pending) == 0 {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			return m, nil
		case strings.HasPrefix(trimmed, commandPrefix):
			m = m.remember(trimmed)

			return m.executeCommand(trimmed)
		}
	}

	lines := slices.Concat(m.pending, []string{line})

	return m.evaluate(strings.Join(lines, "\n"), lines)
}

// remember adds entry to the history and moves the history cursor past
// the newest entry. The session continues when the history file cannot be
// written.
func (m model) remember(entry string) model {
	if err := m.history.Add(entry); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history",
			slog.String("file", m.history.path),
			slog.Any("error", err),
		)
	}

	m.historyIdx = m.history.Len()

	return m
}

// evaluate runs source in the session interpreter. A syntax error at the
// end of input keeps lines pending and switches to the continuation
// prompt.
func (m model) evaluate(source string, lines []string) (model, tea.Cmd) {
	ctx := m.ctxFunc()

	echo := make([]tea.Cmd, 0, len(lines)+2)

	prompt, style := evalPrompt, promptStyle
	if len(m.pending) > 0 {
		prompt, style = contPrompt, contPromptStyle
		lines = lines[len(m.pending):]
	}

	for _, line := range lines {
		echo = append(echo, tea.Println(style.Render(prompt)+inputStyle.Render(line)))
		prompt, style = contPrompt, contPromptStyle
	}

	v, err := m.interp.Run(ctx, source)

	var syntax *lang.SyntaxError
	if errors.As(err, &syntax) && syntax.Incomplete() {
		m.out.Reset()
		m.pending = append(m.pending, lines...)
		m.input.Prompt = contPromptStyle.Render(contPrompt)

		return m, tea.Sequence(echo...)
	}

	m = m.discardPending().remember(source)

	m.logger.TraceContext(ctx, "repl eval",
		slog.String("input", source),
		slog.Bool("ok", err == nil),
	)

	if out := m.flush(); out != "" {
		echo = append(echo, tea.Println(outputStyle.Render(out)))
	}

	switch {
	case err != nil:
		echo = append(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
	case !v.IsNil():
		echo = append(echo, tea.Println(resultStyle.Render(v.String())))
	}

	return m, tea.Sequence(echo...)
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	echo := tea.Println(promptStyle.Render(evalPrompt) + inputStyle.Render(input))

	name, _, _ := strings.Cut(input, " ")

	m.logger.TraceContext(m.ctxFunc(), "repl command", slog.String("command", name))

	switch name {
	case ":q", ":quit", ":exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case ":h", ":help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case ":vars":
		return m, tea.Sequence(echo, tea.Println(m.listVariables()))

	case ":funcs":
		return m, tea.Sequence(echo, tea.Println(m.listFunctions()))

	case ":reset":
		m.interp.Reset()

		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("environment reset")))

	case ":clear":
		return m, tea.ClearScreen

	case ":edit":
		return m, tea.Sequence(echo, m.edit())
	}

	return m, tea.Sequence(echo,
		tea.Println(errorStyle.Render("unknown command: "+name+" (try :help)")))
}

func (m model) listVariables() string {
	env := m.interp.Env()

	names := env.Variables()
	if len(names) == 0 {
		return hintStyle.Render("no variables")
	}

	lines := make([]string, len(names))

	for i, name := range names {
		f, _ := env.Lookup(name)
		lines[i] = name + " = " + resultStyle.Render(lang.NumberValue(f).String())
	}

	return strings.Join(lines, "\n")
}

func (m model) listFunctions() string {
	env := m.interp.Env()

	var lines []string

	for _, name := range env.Functions() {
		params, _ := signature(env, name)
		lines = append(lines, formatSignature(name, params))
	}

	return strings.Join(lines, "\n")
}

// edit opens the pending entry, or the newest history entry, in the
// user's editor and evaluates the result.
func (m model) edit() tea.Cmd {
	seed := strings.Join(m.pending, "\n")
	if seed == "" {
		for i := m.history.Len() - 1; i >= 0; i-- {
			if entry, err := m.history.Get(i); err == nil &&
				!strings.HasPrefix(entry, commandPrefix) {
				seed = entry

				break
			}
		}
	}

	cmd := &editCommand{ctx: m.ctxFunc(), seed: seed}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editCancelledMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.source == "":
			return editCancelledMsg{}
		}

		return editDoneMsg{source: cmd.source}
	})
}
