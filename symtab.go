package main

import "context"

//
// The variable and codepoint tables.  Both namespaces are flat and
// live for one script run.  Variables must be declared before they can
// be read or written; codepoints can be registered only once
//

//
// Initialize the symbol tables to pristine state
//

func (ip *interp) initSymbolTable() {

	ip.variables = make(map[string]string)
	ip.codepoints = make(map[string]int)
}

func (ip *interp) varExists(name string) bool {

	_, ok := ip.variables[name]

	return ok
}

func (ip *interp) declareVar(name string) error {

	if ip.varExists(name) {
		return newScriptError(DuplicateVariable, EDUPLICATEVAR, name)
	}

	ip.variables[name] = ""

	ip.traceVar(name, "")

	return nil
}

func (ip *interp) getVar(name string) (string, error) {

	val, ok := ip.variables[name]
	if !ok {
		return "", newScriptError(UndeclaredVariable, EUNDECLAREDVAR, name)
	}

	return val, nil
}

func (ip *interp) setVar(name, val string) error {

	if !ip.varExists(name) {
		return newScriptError(UndeclaredVariable, EUNDECLAREDVAR, name)
	}

	ip.variables[name] = val

	ip.traceVar(name, val)

	return nil
}

//
// Register a codepoint at the given line number.  The pointer is set
// to this value on a jump, and since the pointer always names the
// next line to fetch, execution resumes right after the declaration
//

func (ip *interp) addCodepoint(label string, lineNo int) error {

	if _, ok := ip.codepoints[label]; ok {
		return newScriptError(DuplicateCodepoint, EDUPLICATECP, label)
	}

	ip.codepoints[label] = lineNo

	return nil
}

//
// Only codepoints whose declaration has already executed can be jumped
// to.  If the label is declared further on in the script we say so,
// as that is almost always a forward jump
//

func (ip *interp) lookupCodepoint(label string) (int, error) {

	if lineNo, ok := ip.codepoints[label]; ok {
		return lineNo, nil
	}

	if ip.prog != nil && ip.prog.declares(label) {
		return 0, newScriptError(UnresolvedJumpTarget, EUNRESOLVEDJUMP, label)
	}

	return 0, newScriptError(UndeclaredCodepoint, EUNDECLAREDCP, label)
}

func (ip *interp) traceVar(name, val string) {

	if ip.cfg.TraceVars {
		ip.log.Log(context.Background(), levelTrace, "variable", "name", name, "value", val)
	}
}
