package repl

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/calc/lang"
)

// commandPrefix introduces a session command such as ":vars".
const commandPrefix = ":"

// commands are the session commands offered for completion, in help order.
var commands = []string{":help", ":vars", ":funcs", ":edit", ":reset", ":clear", ":quit"}

func isIdentRune(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// wordBounds returns the identifier surrounding cursor and its byte
// boundaries within input. The word is empty when the cursor is not
// adjacent to an identifier character.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 && isIdentRune(input[start-1]) {
		start--
	}

	end = cursor
	for end < len(input) && isIdentRune(input[end]) {
		end++
	}

	return input[start:end], start, end
}

// candidates returns the names known to env plus the language keywords,
// sorted and without duplicates.
func candidates(env *lang.Env) []string {
	names := append(env.Variables(), env.Functions()...)
	names = append(names, lang.Keywords()...)

	slices.Sort(names)

	return slices.Compact(names)
}

// computeMatches calculates the fuzzy matches for the word at the cursor.
// Input starting with ":" completes session commands as a whole. Words that
// start with a digit, and empty words, have no matches.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	if strings.HasPrefix(input, commandPrefix) {
		if strings.ContainsAny(input, " \t") {
			return nil, 0, len(input)
		}

		return fuzzy.Find(input, commands), 0, len(input)
	}

	word, start, end := wordBounds(input, m.input.Position())
	if word == "" || (word[0] >= '0' && word[0] <= '9') {
		return nil, start, end
	}

	return fuzzy.Find(word, candidates(m.interp.Env())), start, end
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit within width. The selected candidate is highlighted while tabbing.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	isFunc func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx, isFunc(match.Str))

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		last := i == len(matches)-1

		reserve := ellipsisWidth
		if last {
			reserve = 0
		}

		if i > 0 && used+entryWidth+reserve > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// emphasized. Functions carry a "()" suffix that is not inserted on
// completion.
func renderCandidate(match fuzzy.Match, selected, function bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if function {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
