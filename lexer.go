package main

import (
	"strings"
	"unicode"
)

//
// Prettify a script line.  Eliminate leading and trailing whitespace,
// and replace runs of whitespace elsewhere with a single space, unless
// inside a double-quoted string.  Tabs between a keyword and its
// arguments thus work the same as a space
//

func trimWhitespace(s string) string {

	var dst []byte
	var lastWasBlank bool
	var quoting bool

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if ch == quoteChar {
			quoting = !quoting
			lastWasBlank = false
			dst = append(dst, ch)
			continue
		}

		if quoting {
			dst = append(dst, ch)
			continue
		}

		if unicode.IsSpace(rune(ch)) {
			if !lastWasBlank {
				lastWasBlank = true
				dst = append(dst, ' ')
			}
		} else {
			lastWasBlank = false
			dst = append(dst, ch)
		}
	}

	return strings.Trim(string(dst), " ")
}

func isComment(line string) bool {

	return len(line) > 0 && line[0] == commentChar
}

//
// Split a trimmed line on the first space.  Everything before it is the
// command keyword, everything after it the raw argument string
//

func splitCommand(line string) (string, string) {

	cmd, args, _ := strings.Cut(line, " ")

	return cmd, args
}

//
// Split an argument string into tokens on spaces, except for spaces
// between a pair of double quotes.  The quotes stay in the token, so
// the value tokenizer can tell a literal from a variable name
//

func splitArgs(args string) []string {

	var toks []string
	var cur strings.Builder
	var quoting bool

	for i := 0; i < len(args); i++ {
		ch := args[i]

		switch {
		case ch == quoteChar:
			quoting = !quoting
			cur.WriteByte(ch)

		case ch == ' ' && !quoting:
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}

		default:
			cur.WriteByte(ch)
		}
	}

	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}

	return toks
}

func isAlnum(ch byte) bool {

	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') ||
		isDigit(ch)
}

func isDigit(ch byte) bool {

	return '0' <= ch && ch <= '9'
}

func allAlnum(s string) bool {

	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) {
			return false
		}
	}

	return true
}

//
// NB: the empty string counts as all digits, so an empty token is
// never looked up as a variable
//

func allDigits(s string) bool {

	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}

	return true
}

func isVarName(tok string) bool {

	return allAlnum(tok) && !allDigits(tok)
}

//
// A quoted token must be exactly: open quote, content, close quote.
// Anything before the open quote, after the close quote, or a third
// quote anywhere is an error
//

func checkQuoting(tok string) error {

	var foundStart, foundEnd bool

	for i := 0; i < len(tok); i++ {
		if tok[i] == quoteChar {
			switch {
			case !foundStart && i > 0:
				return newScriptError(MismatchedQuoting, EMISMATCHEDQUOTE,
					"found data before start dblquote")
			case !foundStart:
				foundStart = true
			case foundEnd:
				return newScriptError(MismatchedQuoting, EMISMATCHEDQUOTE,
					"unexpected dblquote")
			default:
				foundEnd = true
			}
		} else if foundEnd {
			return newScriptError(MismatchedQuoting, EMISMATCHEDQUOTE,
				"unexpected data")
		}
	}

	if !foundStart || !foundEnd {
		return newScriptError(MismatchedQuoting, EMISMATCHEDQUOTE)
	}

	return nil
}

//
// Resolve one word to its runtime value: a quoted literal loses its
// quotes, a name made only of letters and digits (but not only digits)
// is replaced by the value of that variable, anything else is taken
// as is
//

func (ip *interp) tokenize(tok string) (string, error) {

	if strings.IndexByte(tok, quoteChar) >= 0 {
		if err := checkQuoting(tok); err != nil {
			return "", err
		}

		return strings.ReplaceAll(tok, string(quoteChar), ""), nil
	}

	if isVarName(tok) {
		return ip.getVar(tok)
	}

	return tok, nil
}

//
// Substitute variables in an arithmetic or comparison expression.
// Letters and digits accumulate into a run, which is resolved through
// tokenize when an operator or other punctuation ends it.  The
// punctuation itself is copied through.  Inside double quotes every
// character joins the run, so a quoted literal stays in one piece.
// A run naming a math function and followed by '(' is left for the
// arithmetic evaluator
//

func (ip *interp) tokenizeExpr(expr string) (string, error) {

	var out, run strings.Builder
	var quoting bool

	flush := func(next byte) error {
		if run.Len() == 0 {
			return nil
		}

		word := run.String()
		run.Reset()

		if next == '(' && isMathFunction(word) {
			out.WriteString(word)
			return nil
		}

		val, err := ip.tokenize(word)
		if err != nil {
			return err
		}

		out.WriteString(val)

		return nil
	}

	for i := 0; i < len(expr); i++ {
		ch := expr[i]

		switch {
		case ch == quoteChar:
			quoting = !quoting
			run.WriteByte(ch)

		case quoting || isAlnum(ch):
			run.WriteByte(ch)

		default:
			if err := flush(ch); err != nil {
				return "", err
			}
			out.WriteByte(ch)
		}
	}

	if err := flush(0); err != nil {
		return "", err
	}

	return out.String(), nil
}
