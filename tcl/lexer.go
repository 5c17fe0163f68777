// Package tcl tokenizes the TCL-like lines found in characterization decks
// (constraint templates and chartcl control files).
package tcl

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const eof = -(iota + 1)

const (
	Error ItemType = iota
	EOF
	Word    // set_var, 0.5, -from
	String  // "E&!TE"
	LBrace  // {
	RBrace  // }
	LBrack  // [
	RBrack  // ]
	Comment // # to end of line
)

type ItemType int

func (t ItemType) String() string {
	switch t {
	case Error:
		return "Error"
	case EOF:
		return "EOF"
	case Word:
		return "Word"
	case String:
		return "String"
	case LBrace:
		return "LBrace"
	case RBrace:
		return "RBrace"
	case LBrack:
		return "LBrack"
	case RBrack:
		return "RBrack"
	case Comment:
		return "Comment"
	}
	return fmt.Sprintf("ItemType(%d)", int(t))
}

type Item struct {
	Type ItemType
	Val  string
}

func (i Item) String() string {
	switch i.Type {
	case EOF:
		return "EOF"
	case Error:
		return i.Val
	}
	return fmt.Sprintf("%v(%q)", i.Type, i.Val)
}

type statefn func(*Lexer) statefn

// Lexer is pulled with Next. It runs state functions until an item is
// pending, so no goroutine is left behind when the caller stops early.
type Lexer struct {
	input string
	start int
	pos   int
	width int
	items []Item
	state statefn
}

func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		state: lexText,
	}
}

// Next returns the next item. After EOF or Error it keeps returning EOF.
func (l *Lexer) Next() Item {
	for len(l.items) == 0 {
		if l.state == nil {
			return Item{Type: EOF}
		}
		l.state = l.state(l)
	}
	item := l.items[0]
	l.items = l.items[1:]
	return item
}

// Items drains the lexer. The last item is EOF or Error.
func (l *Lexer) Items() (items []Item) {
	for {
		item := l.Next()
		items = append(items, item)
		if item.Type == EOF || item.Type == Error {
			return
		}
	}
}

func (l *Lexer) emit(t ItemType) {
	l.items = append(l.items, Item{t, l.input[l.start:l.pos]})
	l.start = l.pos
}

func (l *Lexer) emitVal(t ItemType, val string) {
	l.items = append(l.items, Item{t, val})
	l.start = l.pos
}

func (l *Lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

func (l *Lexer) backup() {
	l.pos -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.pos
}

func (l *Lexer) errorf(format string, args ...interface{}) statefn {
	l.items = append(l.items, Item{
		Type: Error,
		Val:  fmt.Sprintf(format, args...),
	})
	return nil
}

const space = " \t\r\n;"
const delim = space + "{}[]\""

func isSpace(r rune) bool {
	return strings.ContainsRune(space, r)
}

func isDelim(r rune) bool {
	return r == eof || strings.ContainsRune(delim, r)
}

func lexText(l *Lexer) statefn {
	for {
		r := l.next()
		switch {
		case r == eof:
			l.emit(EOF)
			return nil
		case isSpace(r):
			l.ignore()
		case r == '{':
			l.emit(LBrace)
		case r == '}':
			l.emit(RBrace)
		case r == '[':
			l.emit(LBrack)
		case r == ']':
			l.emit(RBrack)
		case r == '"':
			return lexString
		case r == '#':
			return lexComment
		default:
			l.backup()
			return lexWord
		}
	}
}

func lexWord(l *Lexer) statefn {
	for {
		r := l.next()
		if r == '\\' {
			l.next()
			continue
		}
		if isDelim(r) {
			if r != eof {
				l.backup()
			}
			break
		}
	}
	l.emit(Word)
	return lexText
}

func lexString(l *Lexer) statefn {
	for {
		switch r := l.next(); r {
		case '\\':
			l.next()
		case eof:
			return l.errorf("unterminated string %s", l.input[l.start:])
		case '"':
			l.emitVal(String, l.input[l.start+1:l.pos-1])
			return lexText
		}
	}
}

func lexComment(l *Lexer) statefn {
	for r := l.next(); r != eof && r != '\n'; r = l.next() {
	}
	l.emit(Comment)
	return lexText
}
