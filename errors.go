package main

import (
	"errors"
	"fmt"
	"strings"
)

//
// Manifest constants for the script error messages.  Callers may append
// detail (usually the offending name) with newScriptError
//

const (
	EARITY             = "Invalid number of arguments"
	EUNDECLAREDVAR     = "Variable doesn't exist"
	EDUPLICATEVAR      = "Variable already exists"
	EUNDECLAREDCP      = "CodePoint doesn't exist"
	EDUPLICATECP       = "CodePoint already exists"
	EUNRESOLVEDJUMP    = "CodePoint not reached yet"
	ENAN               = "Not a Number (NaN)"
	EOPERANDMISMATCH   = "Operand not suited for operator"
	EINDEXTOOLARGE     = "Index is higher than source variable size"
	EINDEXNEGATIVE     = "Index cannot be less than zero"
	EMISMATCHEDQUOTE   = "Mismatched double quote (\")"
	EINVALIDOPERATOR   = "Invalid operator"
	EMALFORMEDEXPR     = "Malformed expression"
	EUNKNOWNCOMMAND    = "Invalid command"
	ENOTIMPLEMENTED    = "Command not implemented"
	ERECURSIONLIMIT    = "Inline execution nested too deeply"
	EINPUTFAILURE      = "Unable to read input"
	EINVALIDEXITSTATUS = "Invalid exit status"
)

type errorKind int

const (
	ArityMismatch errorKind = iota + 1
	UndeclaredVariable
	DuplicateVariable
	UndeclaredCodepoint
	DuplicateCodepoint
	UnresolvedJumpTarget
	NotANumber
	IndexOutOfRange
	MismatchedQuoting
	InvalidOperator
	MalformedExpression
	UnknownCommand
	NotImplemented
	RecursionLimit
	IOFailure
)

var kindNames = map[errorKind]string{
	ArityMismatch:        "ArityMismatch",
	UndeclaredVariable:   "UndeclaredVariable",
	DuplicateVariable:    "DuplicateVariable",
	UndeclaredCodepoint:  "UndeclaredCodepoint",
	DuplicateCodepoint:   "DuplicateCodepoint",
	UnresolvedJumpTarget: "UnresolvedJumpTarget",
	NotANumber:           "NotANumber",
	IndexOutOfRange:      "IndexOutOfRange",
	MismatchedQuoting:    "MismatchedQuoting",
	InvalidOperator:      "InvalidOperator",
	MalformedExpression:  "MalformedExpression",
	UnknownCommand:       "UnknownCommand",
	NotImplemented:       "NotImplemented",
	RecursionLimit:       "RecursionLimit",
	IOFailure:            "IOFailure",
}

func (k errorKind) String() string {

	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("errorKind(%d)", int(k))
}

//
// A script error carries the kind, the message and the 1-based line
// number of the top level instruction that was executing.  The line is
// zero until the dispatcher stamps it
//

type scriptError struct {
	kind errorKind
	line int
	msg  string
}

func (e *scriptError) Error() string {

	if e.line <= 0 {
		return e.msg
	}

	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

func newScriptError(kind errorKind, msg string, detail ...string) *scriptError {

	if len(detail) > 0 {
		msg = msg + ", " + strings.Join(detail, " ")
	}

	return &scriptError{kind: kind, msg: msg}
}

//
// Stamp the line number, unless a nested call already did.  Errors that
// are not script errors (exit requests, for one) pass through untouched
//

func atLine(err error, line int) error {

	var se *scriptError

	if errors.As(err, &se) && se.line == 0 {
		se.line = line
	}

	return err
}

func errorKindOf(err error) (errorKind, bool) {

	var se *scriptError

	if errors.As(err, &se) {
		return se.kind, true
	}

	return 0, false
}

func (e *exitRequest) Error() string {

	return fmt.Sprintf("exit %d", e.status)
}

//
// The single reporting path.  Everything the script gets wrong goes
// through here, fatal or not
//

func (ip *interp) reportError(err error) {

	fmt.Fprintln(ip.errOut, err.Error())
}
