package render

import (
	"fmt"
	"strings"
)

var (
	_ confElement = confToken("")
	_ confElement = (*confBlock)(nil)
	_ confElement = (*confStatement)(nil)
)

// Indentation of the nested BIND statements.
const confIndent = "    "

// Part of a BIND configuration file. The nested flag is set when the
// element belongs to a statement embedded in another statement; such
// statements are not terminated with a semicolon.
type confElement interface {
	writeTo(level int, nested bool, w *confWriter)
}

// Single word of a statement, e.g., a keyword or a quoted file name.
type confToken string

// Writes the token as is.
func (t confToken) writeTo(_ int, _ bool, w *confWriter) {
	w.write(string(t))
}

// Statements surrounded by braces. Each statement is written in its own
// line, one level deeper than the enclosing statement.
type confBlock struct {
	statements []*confStatement
}

// Appends the statement to the block and returns the block.
func (b *confBlock) add(statement *confStatement) *confBlock {
	if statement != nil {
		b.statements = append(b.statements, statement)
	}
	return b
}

func (b *confBlock) writeTo(level int, _ bool, w *confWriter) {
	if len(b.statements) == 0 {
		w.write("{ }")
		return
	}
	w.write("{")
	w.newLine()
	for _, statement := range b.statements {
		w.indent(level + 1)
		statement.writeTo(level+1, false, w)
		w.newLine()
	}
	w.indent(level)
	w.write("}")
}

// BIND statement made of tokens and blocks separated by spaces.
type confStatement struct {
	elements []confElement
}

// Creates a statement from the tokens.
func newStatement(tokens ...string) *confStatement {
	statement := &confStatement{}
	for _, token := range tokens {
		statement.token(token)
	}
	return statement
}

// Creates a statement from the formatted text split on whitespace.
func newStatementf(format string, args ...any) *confStatement {
	return newStatement(strings.Fields(fmt.Sprintf(format, args...))...)
}

// Appends the token and returns the statement.
func (s *confStatement) token(token string) *confStatement {
	s.elements = append(s.elements, confToken(token))
	return s
}

// Appends the token surrounded by double quotes and returns the statement.
func (s *confStatement) quoted(token string) *confStatement {
	return s.token(fmt.Sprintf(`"%s"`, token))
}

// Appends a new block and returns it.
func (s *confStatement) block() *confBlock {
	block := &confBlock{}
	s.elements = append(s.elements, block)
	return block
}

func (s *confStatement) writeTo(level int, nested bool, w *confWriter) {
	for i, element := range s.elements {
		if i > 0 {
			w.write(" ")
		}
		element.writeTo(level, true, w)
	}
	if !nested {
		w.write(";")
	}
}

// Top-level statements of a BIND configuration file.
type confFile struct {
	statements []*confStatement
}

// Appends the top-level statement.
func (f *confFile) add(statement *confStatement) {
	if statement != nil {
		f.statements = append(f.statements, statement)
	}
}

// Returns the file text. The top-level statements are separated with an
// empty line and the text ends with a single new line.
func (f *confFile) String() string {
	w := &confWriter{}
	for i, statement := range f.statements {
		if i > 0 {
			w.newLine()
		}
		statement.writeTo(0, false, w)
		w.newLine()
	}
	return w.builder.String()
}

// Text builder writing the indentation and new lines.
type confWriter struct {
	builder strings.Builder
}

func (w *confWriter) indent(level int) {
	w.builder.WriteString(strings.Repeat(confIndent, level))
}

func (w *confWriter) newLine() {
	w.builder.WriteString("\n")
}

func (w *confWriter) write(s string) {
	w.builder.WriteString(s)
}
