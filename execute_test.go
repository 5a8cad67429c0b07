package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	gomock "github.com/golang/mock/gomock"
	"github.com/peterh/liner"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newTestInterp(script string, con console) (*interp, *bytes.Buffer, *bytes.Buffer) {

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	ip := newInterp(newProgram(script), defaultConfig(), con, out, errOut)

	return ip, out, errOut
}

func kindOf(err error) errorKind {

	kind, _ := errorKindOf(err)

	return kind
}

var _ = Describe("Execution", func() {
	run := func(script string) (*interp, string, string, error) {
		ip, out, errOut := newTestInterp(script, nil)
		err := ip.run()
		return ip, out.String(), errOut.String(), err
	}

	Context("end to end", func() {
		It("should print an assigned variable", func() {
			_, out, _, err := run("make_var x\nset_var x \"5\"\nprint x\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("5\n"))
		})

		It("should compute with let", func() {
			ip, _, _, err := run("make_var x\nlet x 2+3*4\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(ip.variables).To(HaveKeyWithValue("x", "14.000000"))
		})

		It("should run conditional bodies by polarity", func() {
			_, out, _, err := run("if_true 5>3, print \"yes\"\nif_false 5>3, print \"no\"\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("yes\n"))
		})

		It("should keep looping back to a codepoint", func() {
			ip, out, _ := newTestInterp(":: start\nprint \"hi\"\ngoto start\n", nil)

			for i := 0; i < 30; i++ {
				more, err := ip.step()
				Expect(err).NotTo(HaveOccurred())
				Expect(more).To(BeTrue())
			}

			Expect(strings.Count(out.String(), "hi\n")).To(Equal(15))
		})
	})

	It("should skip comments and blank lines", func() {
		_, out, _, err := run("; a comment\n\n   \n\tprint 1\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("1\n"))
	})

	It("should print without a line break", func() {
		_, out, _, err := run("print_no_linebreak \"a b\"\nprint \"c\"\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("a bc\n"))
	})

	It("should ignore an empty assignment", func() {
		ip, _, _, err := run("make_var x\nset_var x \"a\"\nset_var x \"  \"\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(ip.variables).To(HaveKeyWithValue("x", "a"))
	})

	It("should copy between variables", func() {
		ip, _, _, err := run("make_var a\nmake_var b\nset_var a \"x y\"\nset_var b a\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(ip.variables).To(HaveKeyWithValue("b", "x y"))
	})

	It("should loop with a conditional jump", func() {
		_, out, _, err := run("make_var i\nset_var i 0\n:: top\nlet i i+1\nif_true i < 3, goto top\nprint i\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("3.000000\n"))
	})

	It("should take the remainder of let results", func() {
		ip, _, _, err := run("make_var i\nmake_var r\nlet i 4+1\nlet r i%2\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(ip.variables).To(HaveKeyWithValue("r", "1.000000"))
	})

	It("should count odd numbers with a remainder test", func() {
		_, out, _, err := run("make_var i\nmake_var r\nmake_var n\n" +
			"set_var i 0\nset_var n 0\n:: top\nlet i i+1\nlet r i%2\n" +
			"if_true r == 1, let n n+1\nif_true i < 6, goto top\nprint n\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("3.000000\n"))
	})

	It("should not wrap large products", func() {
		ip, _, _, err := run("make_var r\nlet r 4000000000*4000000000\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(ip.variables).To(HaveKeyWithValue("r", "16000000000000000000.000000"))
	})

	It("should compare strings", func() {
		_, out, _, err := run("make_var n\nset_var n \"bob\"\n" +
			"if_true n == \"bob\", print \"match\"\n" +
			"if_true n != \"bob, jr\", print \"differ\"\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("match\ndiffer\n"))
	})

	It("should execute a variable with eval", func() {
		_, out, _, err := run("make_var c\nset_var c \"print 42\"\neval c\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("42\n"))
	})

	It("should warn about codepoints declared inline", func() {
		ip, _, errOut, err := run("eval \":: here\"\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(errOut).To(ContainSubstring("codepoints may not work with inline execution"))
		Expect(ip.codepoints).To(HaveKeyWithValue("here", 1))
	})

	Context("get_var_pos", func() {
		const setup = "make_var s\nset_var s \"hello\"\nmake_var c\nmake_var i\n"

		It("should copy one character", func() {
			ip, _, _, err := run(setup + "get_var_pos c s 1\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(ip.variables).To(HaveKeyWithValue("c", "e"))
		})

		It("should take the index from a variable", func() {
			ip, _, _, err := run(setup + "let i 2+2\nget_var_pos c s i\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(ip.variables).To(HaveKeyWithValue("c", "o"))
		})

		DescribeTable("bad indexes",
			func(index string, kind errorKind) {
				ip, _, _, err := run(setup + "get_var_pos c s " + index + "\n")
				Expect(kindOf(err)).To(Equal(kind))
				Expect(ip.variables).To(HaveKeyWithValue("c", ""))
			},
			Entry("past the end", "5", IndexOutOfRange),
			Entry("negative literal", "-1", NotANumber),
			Entry("signed literal", "+3", NotANumber),
			Entry("float literal", "3.0", NotANumber),
			Entry("fractional", "1.5", NotANumber),
			Entry("empty variable", "i", NotANumber),
		)

		It("should reject a negative index from a variable", func() {
			ip, _, _, err := run(setup + "let i 0-1\nget_var_pos c s i\n")
			Expect(kindOf(err)).To(Equal(IndexOutOfRange))
			Expect(ip.variables).To(HaveKeyWithValue("c", ""))
		})
	})

	DescribeTable("errors",
		func(script string, kind errorKind, line int) {
			_, _, errOut, err := run(script)
			Expect(err).To(HaveOccurred())
			Expect(kindOf(err)).To(Equal(kind))

			var se *scriptError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.line).To(Equal(line))
			Expect(errOut).To(Equal(se.Error() + "\n"))
		},
		Entry("arity", "make_var\n", ArityMismatch, 1),
		Entry("duplicate variable", "make_var x\nmake_var x\n", DuplicateVariable, 2),
		Entry("undeclared variable", "print y\n", UndeclaredVariable, 1),
		Entry("duplicate codepoint", ":: a\n:: a\n", DuplicateCodepoint, 2),
		Entry("forward jump", "goto end\n:: end\n", UnresolvedJumpTarget, 1),
		Entry("forward jump to a tab separated label", "goto end\n::\tend\n", UnresolvedJumpTarget, 1),
		Entry("missing codepoint", "goto nowhere\n", UndeclaredCodepoint, 1),
		Entry("not a number", "make_var x\nlet x 1/0\n", NotANumber, 2),
		Entry("mismatched quote", "print \"abc\n", MismatchedQuoting, 1),
		Entry("invalid operator", "if_true 1 =< 2, print 1\n", InvalidOperator, 1),
		Entry("missing comma", "if_true 1 == 1 print 1\n", MalformedExpression, 1),
		Entry("unknown command", "frobnicate\n", UnknownCommand, 1),
		Entry("reserved command", "print 1\nread_file foo\n", NotImplemented, 2),
		Entry("inline error", "if_true 1 == 1, print nope\n", UndeclaredVariable, 1),
	)

	It("should name the unknown command", func() {
		_, _, errOut, _ := run("frobnicate now\n")
		Expect(errOut).To(Equal("line 1: Invalid command, frobnicate\n"))
	})

	It("should leave state alone when an instruction fails", func() {
		ip, _, _, err := run("make_var x\nset_var x \"a\"\nlet x 1/0\n")
		Expect(kindOf(err)).To(Equal(NotANumber))
		Expect(ip.variables).To(HaveKeyWithValue("x", "a"))
	})

	It("should stop at the first error by default", func() {
		_, out, _, err := run("print y\nprint \"after\"\n")
		Expect(err).To(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("should continue after errors when asked to", func() {
		_, out, errOut, err := run("toggle_continue_on_err\nprint y\nprint \"ok\"\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("ok\n"))
		Expect(errOut).To(Equal("line 2: Variable doesn't exist, y\n"))
	})

	It("should restore the error mode after two toggles", func() {
		ip, _, _ := newTestInterp("", nil)
		before := ip.continueOnErr

		Expect(ip.executeLine("toggle_continue_on_err", false)).To(Succeed())
		Expect(ip.continueOnErr).NotTo(Equal(before))

		Expect(ip.executeLine("toggle_continue_on_err", false)).To(Succeed())
		Expect(ip.continueOnErr).To(Equal(before))
	})

	It("should bound inline recursion", func() {
		_, _, _, err := run("make_var s\nset_var s \"eval s\"\neval s\n")
		Expect(kindOf(err)).To(Equal(RecursionLimit))
	})

	It("should honor a configured inline depth", func() {
		ip, _, _ := newTestInterp("make_var s\nset_var s \"eval s\"\neval s\n", nil)
		ip.cfg.MaxInlineDepth = 3

		Expect(kindOf(ip.run())).To(Equal(RecursionLimit))
		Expect(ip.depth).To(Equal(0))
	})

	Context("exit", func() {
		It("should stop with the given status", func() {
			ip, out, _ := newTestInterp("print \"a\"\nexit 3\nprint \"b\"\n", nil)

			Expect(runScript(ip)).To(Equal(3))
			Expect(out.String()).To(Equal("a\n"))
		})

		It("should default to zero", func() {
			ip, _, _ := newTestInterp("exit\nprint \"b\"\n", nil)
			Expect(runScript(ip)).To(Equal(0))
		})

		It("should exit from a conditional body", func() {
			ip, _, _ := newTestInterp("toggle_continue_on_err\nif_true 1 == 1, exit 2\n", nil)
			Expect(runScript(ip)).To(Equal(2))
		})

		It("should reject a bad status", func() {
			ip, _, errOut := newTestInterp("exit 300\n", nil)
			Expect(runScript(ip)).To(Equal(1))
			Expect(errOut.String()).To(ContainSubstring(EINVALIDEXITSTATUS))
		})

		It("should return zero at the end of the script", func() {
			ip, _, _ := newTestInterp("print 1\n", nil)
			Expect(runScript(ip)).To(Equal(0))
		})

		It("should return one after a fatal error", func() {
			ip, _, _ := newTestInterp("print nope\n", nil)
			Expect(runScript(ip)).To(Equal(1))
		})
	})

	Context("tracing", func() {
		It("should log executed lines", func() {
			ip, _, errOut := newTestInterp("print 1\n", nil)
			ip.cfg.TraceExec = true

			Expect(ip.run()).To(Succeed())
			Expect(errOut.String()).To(ContainSubstring("msg=exec"))
			Expect(errOut.String()).To(ContainSubstring("line=1"))
		})

		It("should log variable writes", func() {
			ip, _, errOut := newTestInterp("make_var x\nset_var x 7\n", nil)
			ip.cfg.TraceVars = true

			Expect(ip.run()).To(Succeed())
			Expect(errOut.String()).To(ContainSubstring("msg=variable"))
			Expect(errOut.String()).To(ContainSubstring("value=7"))
		})
	})

	It("should print statistics", func() {
		ip, _, errOut := newTestInterp("make_var x\nset_var x 7\n", nil)
		ip.cfg.Stats = true

		Expect(runScript(ip)).To(Equal(0))
		Expect(errOut.String()).To(ContainSubstring("Statistics"))
		Expect(errOut.String()).To(ContainSubstring("2 statements"))
		Expect(errOut.String()).To(ContainSubstring("Variables"))
	})

	Context("console", func() {
		var (
			mockCtrl    *gomock.Controller
			mockConsole *MockConsole
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			mockConsole = NewMockConsole(mockCtrl)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should read input into a variable", func() {
			mockConsole.EXPECT().ReadLine("").Return("alice", nil)

			ip, out, _ := newTestInterp("make_var n\nget_input n\nprint n\n", mockConsole)

			Expect(ip.run()).To(Succeed())
			Expect(out.String()).To(Equal("alice\n"))
		})

		It("should use the configured prompt", func() {
			mockConsole.EXPECT().ReadLine("? ").Return("x", nil)

			ip, _, _ := newTestInterp("make_var n\nget_input n\n", mockConsole)
			ip.cfg.InputPrompt = "? "

			Expect(ip.run()).To(Succeed())
		})

		It("should store nothing at end of input", func() {
			mockConsole.EXPECT().ReadLine("").Return("", io.EOF)

			ip, _, _ := newTestInterp("make_var n\nset_var n \"old\"\nget_input n\n", mockConsole)

			Expect(ip.run()).To(Succeed())
			Expect(ip.variables).To(HaveKeyWithValue("n", ""))
		})

		It("should report read failures", func() {
			mockConsole.EXPECT().ReadLine("").Return("", errors.New("broken"))

			ip, _, _ := newTestInterp("make_var n\nget_input n\n", mockConsole)

			Expect(kindOf(ip.run())).To(Equal(IOFailure))
		})

		It("should stop on an interrupted prompt", func() {
			mockConsole.EXPECT().ReadLine("").Return("", liner.ErrPromptAborted)

			ip, _, _ := newTestInterp("make_var n\nget_input n\nprint \"after\"\n", mockConsole)

			Expect(runScript(ip)).To(Equal(130))
		})

		It("should not read into an undeclared variable", func() {
			ip, _, _ := newTestInterp("get_input n\n", mockConsole)

			Expect(kindOf(ip.run())).To(Equal(UndeclaredVariable))
		})

		It("should sleep", func() {
			mockConsole.EXPECT().Sleep(2 * time.Second)

			ip, _, _ := newTestInterp("make_var t\nset_var t 2\nwait t\n", mockConsole)

			Expect(ip.run()).To(Succeed())
		})

		It("should refuse to wait for a non-number", func() {
			ip, _, _ := newTestInterp("wait soon\n", mockConsole)
			Expect(kindOf(ip.run())).To(Equal(UndeclaredVariable))

			ip, _, _ = newTestInterp("wait 1.5\n", mockConsole)
			Expect(kindOf(ip.run())).To(Equal(NotANumber))
		})

		It("should clear the screen", func() {
			mockConsole.EXPECT().ClearScreen().Return(nil)

			ip, _, _ := newTestInterp("clear_scr\n", mockConsole)

			Expect(ip.run()).To(Succeed())
		})
	})
})
