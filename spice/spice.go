// Package spice splits SPICE deck text into statements. Only what the deck
// post-processing needs is understood: comments, directives, element lines
// and + continuations.
package spice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoEnd              = errors.New("spice: deck does not end with .end")
	ErrOrphanContinuation = errors.New("spice: continuation without a statement")
)

type Kind int

const (
	Blank Kind = iota
	Comment
	Directive
	Element
	Continuation
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Comment:
		return "comment"
	case Directive:
		return "directive"
	case Element:
		return "element"
	case Continuation:
		return "continuation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func Classify(line string) Kind {
	t := strings.TrimSpace(line)
	switch {
	case t == "":
		return Blank
	case t[0] == '*':
		return Comment
	case t[0] == '+':
		return Continuation
	case t[0] == '.':
		return Directive
	}
	return Element
}

type Prop struct {
	Key   string
	Value string
}

// Statement is one logical line. Directive names are lower-cased,
// element names are kept as written.
type Statement struct {
	Kind  Kind
	Line  int
	Name  string
	Args  []string
	Props []Prop
}

func (s Statement) Prop(key string) (string, bool) {
	for _, p := range s.Props {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

// IsSource reports whether s is an independent voltage or current source.
func (s Statement) IsSource() bool {
	if s.Kind != Element || s.Name == "" {
		return false
	}
	c := s.Name[0] | 0x20
	return c == 'v' || c == 'i'
}

// Is reports whether s is the directive name, e.g. ".tran".
func (s Statement) Is(name string) bool {
	return s.Kind == Directive && s.Name == name
}

// ParseLine reads one physical line. n is its 1-based line number.
func ParseLine(n int, line string) Statement {
	st := Statement{Kind: Classify(line), Line: n}
	if st.Kind != Directive && st.Kind != Element && st.Kind != Continuation {
		return st
	}

	text := strings.TrimSpace(line)
	if st.Kind == Continuation {
		text = text[1:]
	}

	tokens := tokenize(text)
	if st.Kind != Continuation && len(tokens) > 0 {
		st.Name = tokens[0]
		if st.Kind == Directive {
			st.Name = strings.ToLower(st.Name)
		}
		tokens = tokens[1:]
	}
	st.add(tokens)
	return st
}

func (s *Statement) add(tokens []string) {
	for _, tok := range tokens {
		if i := propIndex(tok); i > 0 {
			s.Props = append(s.Props, Prop{Key: tok[:i], Value: tok[i+1:]})
		} else {
			s.Args = append(s.Args, tok)
		}
	}
}

// Parse returns the statements of a deck, continuations joined to the
// statement they extend. Blank lines and comments are dropped.
func Parse(lines []string) ([]Statement, error) {
	var out []Statement
	for i, line := range lines {
		st := ParseLine(i+1, line)
		switch st.Kind {
		case Blank, Comment:
			continue
		case Continuation:
			if len(out) == 0 {
				return nil, fmt.Errorf("line %d: %w", i+1, ErrOrphanContinuation)
			}
			last := &out[len(out)-1]
			last.Args = append(last.Args, st.Args...)
			last.Props = append(last.Props, st.Props...)
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// Check parses lines and makes sure the deck is terminated by .end.
func Check(lines []string) error {
	stmts, err := Parse(lines)
	if err != nil {
		return err
	}
	if len(stmts) == 0 || !stmts[len(stmts)-1].Is(".end") {
		return ErrNoEnd
	}
	return nil
}

// tokenize splits on blanks outside quotes and parentheses.
func tokenize(s string) (tokens []string) {
	var quote byte
	depth := 0
	start := -1

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case (c == ' ' || c == '\t') && depth == 0:
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return
}

// propIndex returns the position of the = of a key=value token, or -1.
func propIndex(tok string) int {
	for i := 0; i < len(tok); i++ {
		switch tok[i] {
		case '=':
			return i
		case '\'', '"', '(':
			return -1
		}
	}
	return -1
}
