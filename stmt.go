package main

import (
	"os"
	"path/filepath"
	"strings"
)

//
// Routines to load a script and hand out its lines.  The whole file is
// read once, so fetching line N is a slice index rather than a re-scan
// of the file from the top
//

func loadProgram(filename string) (*program, error) {

	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	prog := newProgram(string(contents))
	prog.filename = filename

	return prog, nil
}

func newProgram(text string) *program {

	prog := &program{labels: make(map[string]int)}

	//
	// A trailing newline would otherwise yield an extra empty line.
	// Harmless, since blank lines are no-ops, but it would skew the
	// line count in diagnostics
	//

	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return prog
	}

	prog.lines = strings.Split(text, "\n")

	for i := range prog.lines {
		prog.lines[i] = strings.TrimSuffix(prog.lines[i], "\r")
	}

	prog.scanLabels()

	return prog
}

//
// Note every codepoint declared at the top level of the script, and the
// first line declaring it.  Nothing is registered here: a codepoint only
// becomes a jump target once its declaration executes
//

func (p *program) scanLabels() {

	for i, line := range p.lines {
		cmd, args := splitCommand(trimWhitespace(line))
		if cmd != kwCodepoint {
			continue
		}

		toks := splitArgs(args)
		if len(toks) != 1 {
			continue
		}

		if _, ok := p.labels[toks[0]]; !ok {
			p.labels[toks[0]] = i + 1
		}
	}
}

func (p *program) len() int {

	return len(p.lines)
}

func (p *program) line(idx int) (string, bool) {

	if idx < 0 || idx >= len(p.lines) {
		return "", false
	}

	return p.lines[idx], true
}

func (p *program) declares(label string) bool {

	_, ok := p.labels[label]

	return ok
}

//
// Take a script filename as given on the command line.  If it names
// no file and has no suffix, try it with ".sej" appended
//

func resolveScriptFilename(filename string) string {

	if _, err := os.Stat(filename); err == nil {
		return filename
	}

	if filepath.Ext(filename) != "" {
		return filename
	}

	if _, err := os.Stat(filename + scriptFileSuffix); err == nil {
		return filename + scriptFileSuffix
	}

	return filename
}
