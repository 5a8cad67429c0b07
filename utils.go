package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/peterh/liner"
	"github.com/tebeka/atexit"
	"github.com/tklauser/go-sysconf"
	"golang.org/x/term"
)

//
// Everything the interpreter does to the outside world other than
// printing goes through a console.  Tests substitute a mock
//

type console interface {
	ClearScreen() error
	ReadLine(prompt string) (string, error)
	Sleep(d time.Duration)
}

type termConsole struct {
	in     *os.File
	out    *os.File
	reader *bufio.Reader
	line   *liner.State
}

func newTermConsole(in, out *os.File) *termConsole {

	return &termConsole{in: in, out: out, reader: bufio.NewReader(in)}
}

//
// Line editing only makes sense if both ends are a terminal.  With
// input redirected from a file or pipe we read plain lines
//

func (c *termConsole) interactive() bool {

	return term.IsTerminal(int(c.in.Fd())) && term.IsTerminal(int(c.out.Fd()))
}

//
// Clear the screen.  We first scroll the current contents off, so they
// stay in the terminal's scrollback.  Not a terminal: do nothing, as
// escape sequences in a redirected file are just noise
//

func (c *termConsole) ClearScreen() error {

	if !term.IsTerminal(int(c.out.Fd())) {
		return nil
	}

	var buf strings.Builder

	if _, rows, err := term.GetSize(int(c.out.Fd())); err == nil && rows > 0 {
		buf.WriteString(strings.Repeat("\n", rows))
	}

	buf.WriteString(clearScreenSeq)

	_, err := io.WriteString(c.out, buf.String())

	return err
}

//
// The liner instance is created the first time a script asks for
// input, since creating it puts the terminal in raw mode.  ^C comes
// back as liner.ErrPromptAborted, ^D at the start of a line as io.EOF
//

func (c *termConsole) ReadLine(prompt string) (string, error) {

	if c.interactive() {
		if c.line == nil {
			c.line = liner.NewLiner()
			c.line.SetCtrlCAborts(true)
		}

		return c.line.Prompt(prompt)
	}

	if prompt != "" {
		io.WriteString(c.out, prompt)
	}

	s, err := c.reader.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}

	return strings.TrimRight(s, "\r\n"), err
}

func (c *termConsole) Sleep(d time.Duration) {

	time.Sleep(d)
}

//
// Restore terminal state.  NB: we cannot call (or cause to be called)
// crash(), as that would recurse
//

func (c *termConsole) cleanupLiner() {

	if c.line != nil {
		c.line.Close()
		c.line = nil
	}
}

//
// Print a fatal message and abort the process.  We write to standard
// error, since the user may have redirected standard output.  Going
// through atexit makes sure the terminal is restored first
//

func crash(msg string) {

	if msg != "" {
		fd, err := syscall.Dup(int(os.Stderr.Fd()))
		if err == nil {
			w := os.NewFile(uintptr(fd), "stderr on new fd")
			fmt.Fprintln(w, msg)
			w.Close()
		} else {
			fmt.Fprintln(os.Stderr, msg)
		}
	}

	atexit.Exit(1)
}

func pluralize(str string, num int64) string {

	//
	// Oddity: 0 is considered plural
	//

	if num != 1 {
		return str + "s"
	}

	return str
}

func convertToMB(num uint64) uint64 {

	const MB = 1024 * 1024

	return (num + MB - 1) / MB
}

//
// Initialize the clock
//

func (ip *interp) initClock() {

	ip.stats.elapsed = time.Now()
	ip.stats.utime, ip.stats.stime = getCPUInfo()
}

func formatCPUTime(t int64) string {

	var h, m int64

	if t >= 3600 {
		h = t / 3600
		t = t % 3600
	}

	if t >= 60 {
		m = t / 60
		t = t % 60
	}

	return fmt.Sprintf("%02d:%02d:%02d", h, m, t)
}

//
// User and system CPU seconds used so far, from /proc/self/stat.
// Anywhere that is not available we simply report zero
//

func getCPUInfo() (int64, int64) {

	clktck, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || clktck <= 0 {
		return 0, 0
	}

	contents, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		return 0, 0
	}

	//
	// The command name (field 2) is in parentheses and may contain
	// spaces, so count fields from the closing parenthesis
	//

	rest := string(contents)
	if i := strings.LastIndexByte(rest, ')'); i >= 0 {
		rest = rest[i+1:]
	}

	fields := strings.Fields(rest)
	if len(fields) < 13 {
		return 0, 0
	}

	utime, err := strconv.ParseInt(fields[11], 10, 64)
	if err != nil {
		return 0, 0
	}

	stime, err := strconv.ParseInt(fields[12], 10, 64)
	if err != nil {
		return 0, 0
	}

	return utime / clktck, stime / clktck
}

func (ip *interp) printStatistics(w io.Writer) {

	var mem runtime.MemStats

	elapsed := time.Since(ip.stats.elapsed)
	utime, stime := getCPUInfo()

	runtime.GC()
	runtime.ReadMemStats(&mem)

	statTable := table.NewWriter()
	statTable.SetTitle("Statistics")
	statTable.AppendRows([]table.Row{
		{"Elapsed", formatCPUTime(int64(elapsed.Seconds()))},
		{"User", formatCPUTime(utime - ip.stats.utime)},
		{"System", formatCPUTime(stime - ip.stats.stime)},
		{"Memory", fmt.Sprintf("%dMB", convertToMB(mem.HeapAlloc))},
		{"Executed", fmt.Sprintf("%d %s", ip.stats.numStatements,
			pluralize("statement", ip.stats.numStatements))},
	})

	fmt.Fprintln(w, statTable.Render())

	if len(ip.variables) == 0 {
		return
	}

	names := make([]string, 0, len(ip.variables))
	for name := range ip.variables {
		names = append(names, name)
	}

	sort.Strings(names)

	varTable := table.NewWriter()
	varTable.SetTitle("Variables")
	varTable.AppendHeader(table.Row{"Name", "Value"})

	for _, name := range names {
		varTable.AppendRow(table.Row{name, strconv.Quote(ip.variables[name])})
	}

	fmt.Fprintln(w, varTable.Render())
}
