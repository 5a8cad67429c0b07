package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goforj/godump"
	"github.com/peterh/liner"
)

//
// Tricky: the handlers for if_true, if_false and eval call back into
// executeLine, which looks handlers up in the commands map.  Declaring
// the map with a composite literal would be an initialization cycle,
// so it is filled in from init instead
//

func initMaps() {

	commands = map[string]handler{
		kwMakeVar:          execMakeVar,
		kwSetVar:           execSetVar,
		kwGetVarPos:        execGetVarPos,
		kwGoto:             execGoto,
		kwIfTrue:           execIf(true),
		kwIfFalse:          execIf(false),
		kwPrint:            execPrint(true),
		kwPrintNoLinebreak: execPrint(false),
		kwClearScr:         execClearScr,
		kwGetInput:         execGetInput,
		kwWait:             execWait,
		kwExit:             execExit,
		kwEval:             execEval,
		kwLet:              execLet,
		kwCodepoint:        execCodepoint,
		kwToggleContinue:   execToggleContinue,
	}

	reservedKeywords = map[string]bool{
		kwReadFile:  true,
		kwWriteFile: true,
		kwRun:       true,
	}
}

func newInterp(prog *program, cfg config, con console, out, errOut io.Writer) *interp {

	ip := &interp{
		prog:          prog,
		out:           out,
		errOut:        errOut,
		con:           con,
		arith:         newArithEvaluator(),
		cfg:           cfg,
		continueOnErr: cfg.ContinueOnError,
	}

	if ip.cfg.MaxInlineDepth <= 0 {
		ip.cfg.MaxInlineDepth = defaultMaxInlineDepth
	}

	ip.log = slog.New(slog.NewTextHandler(errOut,
		&slog.HandlerOptions{Level: levelTrace}))

	ip.initSymbolTable()

	return ip
}

//
// Fetch the line the pointer names, advance the pointer, and execute
// the line.  The pointer moves before execution so that a goto can
// simply overwrite it.  Returns false once we fall off the end
//

func (ip *interp) step() (bool, error) {

	line, ok := ip.prog.line(ip.pc)
	if !ok {
		return false, nil
	}

	ip.curLine = ip.pc + 1
	ip.pc++

	ip.stats.numStatements++

	return true, ip.executeLine(line, false)
}

//
// Run the script to completion.  Errors are reported here, once, and
// end the run unless continue-on-error is set.  An exit request is
// handed back to the caller without being reported
//

func (ip *interp) run() error {

	for {
		more, err := ip.step()

		if err != nil {
			var xr *exitRequest

			if errors.As(err, &xr) {
				return err
			}

			ip.reportError(err)

			if !ip.continueOnErr {
				return err
			}
		}

		if !more {
			return nil
		}
	}
}

//
// Execute one instruction.  This is the single entry point for both
// lines from the script and command strings built at run time (the
// body of a conditional, the value given to eval)
//

func (ip *interp) executeLine(line string, inline bool) error {

	if inline {
		if ip.depth >= ip.cfg.MaxInlineDepth {
			return atLine(newScriptError(RecursionLimit, ERECURSIONLIMIT,
				strconv.Itoa(ip.cfg.MaxInlineDepth)), ip.curLine)
		}

		ip.depth++
		defer func() { ip.depth-- }()
	}

	text := trimWhitespace(line)
	if text == "" || isComment(text) {
		return nil
	}

	cmd, args := splitCommand(text)

	inst := &instruction{
		lineNo:  ip.curLine,
		text:    text,
		command: cmd,
		args:    args,
		inline:  inline,
		depth:   ip.depth,
	}

	ip.traceInstruction(inst)

	return atLine(ip.dispatch(inst), ip.curLine)
}

func (ip *interp) dispatch(inst *instruction) error {

	fn, ok := commands[inst.command]
	if !ok {
		if reservedKeywords[inst.command] {
			return newScriptError(NotImplemented, ENOTIMPLEMENTED, inst.command)
		}

		return newScriptError(UnknownCommand, EUNKNOWNCOMMAND, inst.command)
	}

	return fn(ip, inst.args, inst.inline)
}

func (ip *interp) traceInstruction(inst *instruction) {

	if ip.cfg.TraceExec {
		ip.log.Log(context.Background(), levelTrace, "exec",
			"line", inst.lineNo, "inline", inst.inline, "text", inst.text)
	}

	if ip.cfg.TraceDump {
		godump.Dump(inst)
	}
}

//
// Split the argument string and insist on exactly n tokens
//

func expectArgs(args string, n int) ([]string, error) {

	toks := splitArgs(args)

	if len(toks) != n {
		return nil, newScriptError(ArityMismatch, EARITY,
			fmt.Sprintf("expected %d, got %d", n, len(toks)))
	}

	return toks, nil
}

func execMakeVar(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 1)
	if err != nil {
		return err
	}

	return ip.declareVar(toks[0])
}

//
// An empty value (after trimming) leaves the variable alone
//

func execSetVar(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 2)
	if err != nil {
		return err
	}

	if !ip.varExists(toks[0]) {
		return newScriptError(UndeclaredVariable, EUNDECLAREDVAR, toks[0])
	}

	val, err := ip.tokenize(toks[1])
	if err != nil {
		return err
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}

	return ip.setVar(toks[0], val)
}

func execPrint(linebreak bool) handler {

	return func(ip *interp, args string, inline bool) error {
		toks, err := expectArgs(args, 1)
		if err != nil {
			return err
		}

		val, err := ip.tokenize(toks[0])
		if err != nil {
			return err
		}

		if linebreak {
			val += "\n"
		}

		if _, err := io.WriteString(ip.out, val); err != nil {
			return newScriptError(IOFailure, err.Error())
		}

		return nil
	}
}

//
// get_var_pos DEST SRC INDEX.  The index may come from a variable, in
// which case a let result such as 3.000000 is fine as long as it is
// integral
//

func execGetVarPos(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 3)
	if err != nil {
		return err
	}

	if !ip.varExists(toks[0]) {
		return newScriptError(UndeclaredVariable, EUNDECLAREDVAR, toks[0])
	}

	src, err := ip.getVar(toks[1])
	if err != nil {
		return err
	}

	idxStr, err := ip.tokenize(toks[2])
	if err != nil {
		return err
	}

	//
	// A literal index must be plain digits.  Only a value read from a
	// variable may be in let's %f form
	//

	if !isVarName(toks[2]) && !allDigits(idxStr) {
		return newScriptError(NotANumber, ENAN, idxStr)
	}

	idx, err := strconv.ParseFloat(strings.TrimSpace(idxStr), 64)
	if err != nil || math.IsNaN(idx) || idx != math.Trunc(idx) {
		return newScriptError(NotANumber, ENAN, idxStr)
	}

	if idx < 0 {
		return newScriptError(IndexOutOfRange, EINDEXNEGATIVE, idxStr)
	}

	if idx >= float64(len(src)) {
		return newScriptError(IndexOutOfRange, EINDEXTOOLARGE, idxStr)
	}

	i := int(idx)

	return ip.setVar(toks[0], src[i:i+1])
}

func execCodepoint(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 1)
	if err != nil {
		return err
	}

	if inline {
		fmt.Fprintf(ip.errOut, "line %d: warning: codepoints may not work with inline execution\n",
			ip.curLine)
	}

	return ip.addCodepoint(toks[0], ip.curLine)
}

func execGoto(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 1)
	if err != nil {
		return err
	}

	lineNo, err := ip.lookupCodepoint(toks[0])
	if err != nil {
		return err
	}

	ip.pc = lineNo

	return nil
}

//
// if_true EXPR, CMD and if_false EXPR, CMD.  The first comma outside
// double quotes separates the condition from the body
//

func execIf(want bool) handler {

	return func(ip *interp, args string, inline bool) error {
		cond, body, found := cutOutsideQuotes(args, condSeparator)

		cond = strings.TrimSpace(cond)
		body = strings.TrimSpace(body)

		if !found || cond == "" || body == "" {
			return newScriptError(MalformedExpression, EMALFORMEDEXPR, args)
		}

		expr, err := ip.tokenizeExpr(cond)
		if err != nil {
			return err
		}

		result, err := ip.arith.evalCondition(expr)
		if err != nil {
			return err
		}

		if result != want {
			return nil
		}

		return ip.executeLine(body, true)
	}
}

func cutOutsideQuotes(s string, sep byte) (string, string, bool) {

	var quoting bool

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case quoteChar:
			quoting = !quoting

		case sep:
			if !quoting {
				return s[:i], s[i+1:], true
			}
		}
	}

	return s, "", false
}

func execEval(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 1)
	if err != nil {
		return err
	}

	line, err := ip.tokenize(toks[0])
	if err != nil {
		return err
	}

	return ip.executeLine(line, true)
}

func execLet(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 2)
	if err != nil {
		return err
	}

	if !ip.varExists(toks[0]) {
		return newScriptError(UndeclaredVariable, EUNDECLAREDVAR, toks[0])
	}

	expr, err := ip.tokenizeExpr(toks[1])
	if err != nil {
		return err
	}

	result, ok := ip.arith.eval(expr)
	if !ok {
		return newScriptError(NotANumber, ENAN, expr)
	}

	return ip.setVar(toks[0], formatNumber(result))
}

func execToggleContinue(ip *interp, args string, inline bool) error {

	if _, err := expectArgs(args, 0); err != nil {
		return err
	}

	ip.continueOnErr = !ip.continueOnErr

	return nil
}

func execClearScr(ip *interp, args string, inline bool) error {

	if _, err := expectArgs(args, 0); err != nil {
		return err
	}

	if err := ip.con.ClearScreen(); err != nil {
		return newScriptError(IOFailure, err.Error())
	}

	return nil
}

//
// End of input stores the empty string.  ^C at the prompt ends the
// script the way it would for any other program
//

func execGetInput(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 1)
	if err != nil {
		return err
	}

	if !ip.varExists(toks[0]) {
		return newScriptError(UndeclaredVariable, EUNDECLAREDVAR, toks[0])
	}

	line, err := ip.con.ReadLine(ip.cfg.InputPrompt)

	switch {
	case err == nil:
		// ok

	case errors.Is(err, io.EOF):
		line = ""

	case errors.Is(err, liner.ErrPromptAborted):
		return &exitRequest{status: 130}

	default:
		return newScriptError(IOFailure, EINPUTFAILURE, err.Error())
	}

	return ip.setVar(toks[0], line)
}

func execWait(ip *interp, args string, inline bool) error {

	toks, err := expectArgs(args, 1)
	if err != nil {
		return err
	}

	val, err := ip.tokenize(toks[0])
	if err != nil {
		return err
	}

	val = strings.TrimSpace(val)
	if val == "" || !allDigits(val) {
		return newScriptError(NotANumber, ENAN, val)
	}

	secs, err := strconv.Atoi(val)
	if err != nil {
		return newScriptError(NotANumber, ENAN, val)
	}

	ip.con.Sleep(time.Duration(secs) * time.Second)

	return nil
}

func execExit(ip *interp, args string, inline bool) error {

	toks := splitArgs(args)

	switch len(toks) {
	default:
		return newScriptError(ArityMismatch, EARITY,
			fmt.Sprintf("expected 0 or 1, got %d", len(toks)))

	case 0:
		return &exitRequest{status: 0}

	case 1:
		// below
	}

	val, err := ip.tokenize(toks[0])
	if err != nil {
		return err
	}

	val = strings.TrimSpace(val)

	status, err := strconv.Atoi(val)
	if err != nil || !allDigits(val) || status > 255 {
		return newScriptError(NotANumber, EINVALIDEXITSTATUS, val)
	}

	return &exitRequest{status: status}
}
