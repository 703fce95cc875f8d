package redact

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

type operandKind int

const (
	operandNumber operandKind = iota
	operandName
	operandString
	operandArray
	operandOther
)

// operand is one argument of a content stream operator. Dictionaries,
// booleans and null are kept as operandOther since no traced operator reads
// them.
type operand struct {
	kind operandKind
	num  float64
	str  []byte
	arr  []operand
}

// operation is an operator with its operands. start and end delimit the
// operation in the decoded content, from its first operand to the end of the
// operator. An inline image (BI ... ID ... EI) is a single operation named BI.
type operation struct {
	name       string
	operands   []operand
	start, end int
}

var errUnterminated = errors.New("unterminated object")

func isWhite(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

type lexer struct {
	buf []byte
	pos int
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.buf) {
		c := l.buf[l.pos]
		switch {
		case isWhite(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.buf) && l.buf[l.pos] != '\n' && l.buf[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.buf) && !isWhite(l.buf[l.pos]) && !isDelimiter(l.buf[l.pos]) {
		l.pos++
	}
	return string(l.buf[start:l.pos])
}

// parseContent splits a decoded content stream into operations. Operators
// are not validated; unknown ones are returned like any other.
func parseContent(buf []byte) ([]operation, error) {
	l := &lexer{buf: buf}
	var (
		ops      []operation
		operands []operand
	)
	start := -1

	for {
		l.skipSpace()
		if l.pos >= len(l.buf) {
			return ops, nil
		}
		if start < 0 {
			start = l.pos
		}

		c := l.buf[l.pos]
		if isDelimiter(c) {
			o, err := l.object()
			if err != nil {
				return nil, fmt.Errorf("offset %d: %w", l.pos, err)
			}
			operands = append(operands, o)
			continue
		}

		word := l.regular()
		if o, ok := keywordOperand(word); ok {
			operands = append(operands, o)
			continue
		}

		op := operation{name: word, operands: operands, start: start}
		if word == "BI" {
			if err := l.skipInlineImage(); err != nil {
				return nil, fmt.Errorf("offset %d: inline image: %w", start, err)
			}
			op.operands = nil
		}
		op.end = l.pos
		ops = append(ops, op)

		operands = nil
		start = -1
	}
}

// keywordOperand reports whether a run of regular characters is an operand
// rather than an operator.
func keywordOperand(word string) (operand, bool) {
	switch word {
	case "true", "false", "null":
		return operand{kind: operandOther}, true
	}
	switch c := word[0]; {
	case c >= '0' && c <= '9', c == '+', c == '-', c == '.':
		v, err := strconv.ParseFloat(word, 64)
		if err != nil {
			// Malformed numbers such as "--5" are read as zero, as viewers do.
			v = 0
		}
		return operand{kind: operandNumber, num: v}, true
	}
	return operand{}, false
}

func (l *lexer) object() (operand, error) {
	c := l.buf[l.pos]
	switch c {
	case '/':
		l.pos++
		return operand{kind: operandName, str: decodeName(l.regular())}, nil
	case '(':
		s, err := l.literalString()
		return operand{kind: operandString, str: s}, err
	case '<':
		if l.pos+1 < len(l.buf) && l.buf[l.pos+1] == '<' {
			l.pos += 2
			return operand{kind: operandOther}, l.skipDict()
		}
		s, err := l.hexString()
		return operand{kind: operandString, str: s}, err
	case '[':
		l.pos++
		arr, err := l.array()
		return operand{kind: operandArray, arr: arr}, err
	case '{', '}':
		l.pos++
		return operand{kind: operandOther}, nil
	}
	return operand{}, fmt.Errorf("unexpected %q", c)
}

// element reads one object inside an array or dictionary.
func (l *lexer) element() (operand, error) {
	if isDelimiter(l.buf[l.pos]) {
		return l.object()
	}
	word := l.regular()
	if o, ok := keywordOperand(word); ok {
		return o, nil
	}
	return operand{}, fmt.Errorf("unexpected operator %q", word)
}

func (l *lexer) array() ([]operand, error) {
	var out []operand
	for {
		l.skipSpace()
		if l.pos >= len(l.buf) {
			return nil, errUnterminated
		}
		if l.buf[l.pos] == ']' {
			l.pos++
			return out, nil
		}
		o, err := l.element()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
}

func (l *lexer) skipDict() error {
	for {
		l.skipSpace()
		if l.pos >= len(l.buf) {
			return errUnterminated
		}
		if l.buf[l.pos] == '>' {
			if l.pos+1 < len(l.buf) && l.buf[l.pos+1] == '>' {
				l.pos += 2
				return nil
			}
			return fmt.Errorf("unexpected %q", '>')
		}
		if _, err := l.element(); err != nil {
			return err
		}
	}
}

func (l *lexer) literalString() ([]byte, error) {
	l.pos++
	var out []byte
	depth := 1
	for l.pos < len(l.buf) {
		c := l.buf[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out, nil
			}
		case '\\':
			if l.pos >= len(l.buf) {
				return nil, errUnterminated
			}
			e := l.buf[l.pos]
			l.pos++
			switch e {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case '\r':
				if l.pos < len(l.buf) && l.buf[l.pos] == '\n' {
					l.pos++
				}
				continue
			case '\n':
				continue
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.buf) && l.buf[l.pos] >= '0' && l.buf[l.pos] <= '7'; i++ {
						v = v*8 + int(l.buf[l.pos]-'0')
						l.pos++
					}
					c = byte(v)
				} else {
					c = e
				}
			}
		}
		out = append(out, c)
	}
	return nil, errUnterminated
}

func (l *lexer) hexString() ([]byte, error) {
	l.pos++
	var digits []byte
	for l.pos < len(l.buf) {
		c := l.buf[l.pos]
		l.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := range out {
				out[i] = unhex(digits[2*i])<<4 | unhex(digits[2*i+1])
			}
			return out, nil
		}
		if isWhite(c) {
			continue
		}
		if unhex(c) == 0xff {
			return nil, fmt.Errorf("bad hex digit %q", c)
		}
		digits = append(digits, c)
	}
	return nil, errUnterminated
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0xff
}

func decodeName(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && i+2 < len(s) {
			hi, lo := unhex(s[i+1]), unhex(s[i+2])
			if hi != 0xff && lo != 0xff {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return out
}

// skipInlineImage moves past the image dictionary and data of an inline
// image. The data ends at the first EI delimited by white space on both sides.
func (l *lexer) skipInlineImage() error {
	for {
		l.skipSpace()
		if l.pos >= len(l.buf) {
			return errUnterminated
		}
		if !isDelimiter(l.buf[l.pos]) {
			save := l.pos
			if l.regular() == "ID" {
				break
			}
			l.pos = save
		}
		if _, err := l.element(); err != nil {
			return err
		}
	}

	// A single white-space byte separates ID from the data.
	l.pos++
	for l.pos < len(l.buf) {
		i := bytes.Index(l.buf[l.pos:], []byte("EI"))
		if i < 0 {
			break
		}
		at := l.pos + i
		before := at == 0 || isWhite(l.buf[at-1])
		after := at+2 == len(l.buf) || isWhite(l.buf[at+2])
		l.pos = at + 2
		if before && after {
			return nil
		}
	}
	return errUnterminated
}
