package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tebeka/atexit"
)

//
// Tricky: init is called under the hood by the GO runtime when
// we fire up, so there are no visible calls to it!
//

func init() {

	initMaps()
}

func main() {

	if len(os.Args) != 2 {
		printUsage(os.Stderr)
		atexit.Exit(1)
	}

	cfg, err := loadConfig(configPath())
	if err != nil {
		crash(fmt.Sprintf("sejscript: %v", err))
	}

	prog, err := loadProgram(resolveScriptFilename(os.Args[1]))
	if err != nil {
		crash(fmt.Sprintf("sejscript: %v", err))
	}

	//
	// The liner instance (if any) has to be closed on every way out,
	// or the terminal is left in raw mode
	//

	con := newTermConsole(os.Stdin, os.Stdout)

	atexit.Register(con.cleanupLiner)

	ip := newInterp(prog, cfg, con, os.Stdout, os.Stderr)

	atexit.Exit(runScript(ip))
}

//
// Run a loaded script and map the outcome to a process exit status:
// 0 at the end of the script, the requested status for exit, 1 for an
// error that stopped the run
//

func runScript(ip *interp) int {

	if ip.cfg.Stats {
		ip.initClock()
		defer ip.printStatistics(ip.errOut)
	}

	err := ip.run()

	var xr *exitRequest

	switch {
	case err == nil:
		return 0

	case errors.As(err, &xr):
		return xr.status

	default:
		return 1
	}
}
