package main

import (
	"io"
	"log/slog"
	"time"
)

//
// Constants
//

const VERSION = "1.0.0"

const scriptFileSuffix = ".sej"

const defaultMaxInlineDepth = 64

const defaultInputPrompt = ""

const commentChar = ';'

const quoteChar = '"'

const condSeparator = ','

const clearScreenSeq = "\033[H\033[2J"

const numberFormat = "%f"

const levelTrace slog.Level = slog.LevelDebug + 2

//
// Keywords.  The reserved ones are accepted by the lexer but have no
// behavior behind them yet
//

const (
	kwMakeVar          = "make_var"
	kwSetVar           = "set_var"
	kwGetVarPos        = "get_var_pos"
	kwGoto             = "goto"
	kwIfTrue           = "if_true"
	kwIfFalse          = "if_false"
	kwPrint            = "print"
	kwPrintNoLinebreak = "print_no_linebreak"
	kwClearScr         = "clear_scr"
	kwGetInput         = "get_input"
	kwWait             = "wait"
	kwExit             = "exit"
	kwEval             = "eval"
	kwLet              = "let"
	kwCodepoint        = "::"
	kwToggleContinue   = "toggle_continue_on_err"
	kwReadFile         = "read_file"
	kwWriteFile        = "write_file"
	kwRun              = "run"
)

//
// Type definitions
//

//
// A handler gets the raw argument string (everything after the first
// space) and whether it is running inline, i.e. from a conditional body
// or an eval, rather than straight from the script
//

type handler func(ip *interp, args string, inline bool) error

type instruction struct {
	lineNo  int
	text    string
	command string
	args    string
	inline  bool
	depth   int
}

//
// The whole script, read once.  labels holds every codepoint name that
// appears at the start of a line, which lets goto tell a label that has
// not been reached yet from one that does not exist at all
//

type program struct {
	filename string
	lines    []string
	labels   map[string]int
}

type stats struct {
	elapsed       time.Time
	utime         int64
	stime         int64
	numStatements int64
}

//
// All of the state for one script run.  A fresh interp means fresh
// variable and codepoint tables
//

type interp struct {
	prog          *program
	variables     map[string]string
	codepoints    map[string]int
	pc            int
	curLine       int
	depth         int
	continueOnErr bool
	out           io.Writer
	errOut        io.Writer
	con           console
	arith         *arithEvaluator
	cfg           config
	log           *slog.Logger
	stats         stats
}

//
// Returned up through the dispatcher when the script runs exit
//

type exitRequest struct {
	status int
}

//
// These map keywords to their handlers, and keywords that are reserved
// but unimplemented.  Built by initMaps, since the handlers themselves
// call back into the dispatcher
//

var commands map[string]handler

var reservedKeywords map[string]bool
