package main

import (
	"fmt"
	"io"
)

var keywordOrder = []string{
	kwMakeVar,
	kwSetVar,
	kwGetVarPos,
	kwPrint,
	kwPrintNoLinebreak,
	kwCodepoint,
	kwGoto,
	kwIfTrue,
	kwIfFalse,
	kwEval,
	kwLet,
	kwToggleContinue,
	kwClearScr,
	kwGetInput,
	kwWait,
	kwExit,
	kwReadFile,
	kwWriteFile,
	kwRun,
}

func keywordHelp(kw string) string {

	switch kw {
	case kwMakeVar:
		return "make_var NAME                 Create a variable with an empty value"

	case kwSetVar:
		return "set_var NAME VALUE            Assign a literal or another variable's value"

	case kwGetVarPos:
		return "get_var_pos DEST SRC INDEX    Copy the character at INDEX of SRC into DEST"

	case kwPrint:
		return "print VALUE                   Print a value followed by a newline"

	case kwPrintNoLinebreak:
		return "print_no_linebreak VALUE      Print a value"

	case kwCodepoint:
		return ":: LABEL                      Declare a codepoint"

	case kwGoto:
		return "goto LABEL                    Jump to a codepoint already declared"

	case kwIfTrue:
		return "if_true EXPR, COMMAND         Run COMMAND if EXPR holds"

	case kwIfFalse:
		return "if_false EXPR, COMMAND        Run COMMAND if EXPR does not hold"

	case kwEval:
		return "eval VALUE                    Run VALUE as a command"

	case kwLet:
		return "let NAME EXPR                 Assign the result of an arithmetic expression"

	case kwToggleContinue:
		return "toggle_continue_on_err        Switch between stopping and continuing on errors"

	case kwClearScr:
		return "clear_scr                     Clear the terminal"

	case kwGetInput:
		return "get_input NAME                Read a line of input into a variable"

	case kwWait:
		return "wait SECONDS                  Pause for whole seconds"

	case kwExit:
		return "exit [STATUS]                 Stop the script"

	case kwReadFile, kwWriteFile, kwRun:
		return kw + " (reserved, not implemented)"
	}

	return kw
}

func printUsage(w io.Writer) {

	fmt.Fprintf(w, "sejscript %s\n", VERSION)
	fmt.Fprintln(w, "Usage: sejscript SCRIPT")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	for _, kw := range keywordOrder {
		fmt.Fprintf(w, "  %s\n", keywordHelp(kw))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Lines starting with ';' are comments.")
}
