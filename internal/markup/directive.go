package markup

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gomarkdown/markdown/ast"
)

// BlockDirective is an `@Name(arguments) { body }` block. The body is parsed
// as markdown and becomes the directive's children.
type BlockDirective struct {
	ast.Container

	Name      string
	Arguments []Argument
	// ArgumentsErr is set when the argument list could not be parsed.
	ArgumentsErr error
	// Line is the 1-based source line of the directive, 0 when unknown.
	Line int
	// Unterminated is set when an opening brace had no matching close.
	Unterminated bool
}

// Argument is one `label: value` pair. Unlabelled arguments have an empty Name.
type Argument struct {
	Name  string
	Value string
}

// Argument returns the value of the named argument.
func (d *BlockDirective) Argument(name string) (string, bool) {
	for _, a := range d.Arguments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Directives returns the directives that are direct children of n.
func Directives(n ast.Node) []*BlockDirective {
	var out []*BlockDirective
	for _, child := range n.GetChildren() {
		if d, ok := child.(*BlockDirective); ok {
			out = append(out, d)
		}
	}
	return out
}

// region is a body buffer handed to the block parser whose first byte sits
// on source line baseLine.
type region struct {
	buf      []byte
	baseLine int
}

type directiveHook struct {
	source  []byte
	regions []region
}

func (h *directiveHook) register(buf []byte, baseLine int) {
	if len(buf) > 0 {
		h.regions = append(h.regions, region{buf: buf, baseLine: baseLine})
	}
}

// lineOf maps a block parser position back to a source line. Inside a
// directive body the parser works on a suffix of the body buffer itself;
// at the top level it works on a copy of the source.
func (h *directiveHook) lineOf(data []byte) int {
	last := &data[len(data)-1]
	for i := len(h.regions) - 1; i >= 0; i-- {
		r := h.regions[i]
		if &r.buf[len(r.buf)-1] == last && len(data) <= len(r.buf) {
			return r.baseLine + bytes.Count(r.buf[:len(r.buf)-len(data)], []byte("\n"))
		}
	}
	if bytes.HasSuffix(h.source, data) {
		return 1 + bytes.Count(h.source[:len(h.source)-len(data)], []byte("\n"))
	}
	return 0
}

// parse is a gomarkdown parser.BlockFunc.
func (h *directiveHook) parse(data []byte) (ast.Node, []byte, int) {
	lineEnd := bytes.IndexByte(data, '\n')
	if lineEnd < 0 {
		lineEnd = len(data)
	}
	first := string(data[:lineEnd])
	rest := strings.TrimLeft(first, " \t")
	if len(rest) < 2 || rest[0] != '@' || !unicode.IsLetter(rune(rest[1])) {
		return nil, nil, 0
	}

	nameEnd := 1
	for nameEnd < len(rest) && isNameByte(rest[nameEnd]) {
		nameEnd++
	}
	d := &BlockDirective{Name: rest[1:nameEnd]}
	rest = strings.TrimLeft(rest[nameEnd:], " \t")

	if strings.HasPrefix(rest, "(") {
		closing := matchParen(rest)
		if closing < 0 {
			return nil, nil, 0
		}
		d.Arguments, d.ArgumentsErr = ParseArguments(rest[1:closing])
		rest = strings.TrimLeft(rest[closing+1:], " \t")
	}

	d.Line = h.lineOf(data)
	consumed := min(lineEnd+1, len(data))

	switch {
	case rest == "":
		return d, []byte{}, consumed
	case rest[0] != '{':
		return nil, nil, 0
	}

	// Body on the opening line: `@Name { ... }`.
	if closing := matchBrace(rest); closing >= 0 {
		if strings.TrimSpace(rest[closing+1:]) != "" {
			return nil, nil, 0
		}
		body := bodyBuffer(strings.TrimSpace(rest[1:closing]))
		h.register(body, d.Line)
		return d, body, consumed
	}
	if strings.TrimSpace(rest[1:]) != "" {
		return nil, nil, 0
	}

	// Multi-line body, closed by a line holding only `}`.
	depth := 1
	bodyStart := consumed
	pos := consumed
	for pos < len(data) {
		end := bytes.IndexByte(data[pos:], '\n')
		next := len(data)
		if end >= 0 {
			next = pos + end + 1
		}
		t := strings.TrimSpace(string(data[pos:next]))
		switch {
		case t == "}":
			depth--
		case strings.HasPrefix(t, "@") && strings.HasSuffix(t, "{"):
			depth++
		}
		if depth == 0 {
			body := bodyBuffer(dedent(string(data[bodyStart:pos])))
			h.register(body, d.Line+1)
			return d, body, next
		}
		pos = next
	}

	d.Unterminated = true
	body := bodyBuffer(dedent(string(data[bodyStart:])))
	h.register(body, d.Line+1)
	return d, body, len(data)
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// matchParen returns the index of the `)` closing the `(` at s[0], skipping
// quoted strings, or -1.
func matchParen(s string) int {
	inQuote, escaped := false, false
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inQuote && c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == ')':
			return i
		}
	}
	return -1
}

// matchBrace returns the index of the `}` closing the `{` at s[0], or -1.
func matchBrace(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// bodyBuffer returns body as a newline terminated block, or an empty
// non-nil slice so the parser still closes the directive node.
func bodyBuffer(body string) []byte {
	if strings.TrimSpace(body) == "" {
		return []byte{}
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return []byte(body)
}

// dedent removes the indentation shared by every non-blank line.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = indent, false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if prefix == "" {
		return s
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

var errUnterminatedString = errors.New("unterminated string")

// ParseArguments parses a directive argument list such as
// `title: "Instance Methods", mergeBehavior: append`.
func ParseArguments(s string) ([]Argument, error) {
	var args []Argument
	i := 0
	for {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			return args, nil
		}

		var arg Argument
		if j := labelEnd(s[i:]); j > 0 {
			arg.Name = s[i : i+j]
			i += j + 1
			for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
				i++
			}
		}

		if i < len(s) && s[i] == '"' {
			value, n, err := unquote(s[i:])
			if err != nil {
				return args, fmt.Errorf("argument %d: %w", len(args)+1, err)
			}
			arg.Value = value
			i += n
			for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
				i++
			}
			if i < len(s) && s[i] != ',' {
				return args, fmt.Errorf("argument %d: unexpected %q after string", len(args)+1, s[i])
			}
		} else {
			end := strings.IndexByte(s[i:], ',')
			if end < 0 {
				end = len(s) - i
			}
			arg.Value = strings.TrimSpace(s[i : i+end])
			i += end
		}
		args = append(args, arg)
		if i < len(s) && s[i] == ',' {
			i++
		}
	}
}

// labelEnd returns the length of a leading `label:` identifier, or 0.
func labelEnd(s string) int {
	j := 0
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	if j == 0 || j >= len(s) || s[j] != ':' {
		return 0
	}
	return j
}

// unquote reads a double-quoted string at s[0] and returns its value and
// the number of bytes consumed.
func unquote(s string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errUnterminatedString
}
