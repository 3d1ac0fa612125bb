package cmd

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dmsched/config"
)

var _ = Describe("dmsched", func() {
	var (
		dir            string
		stdout, stderr *bytes.Buffer
	)

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		return path
	}

	run := func(args ...string) error {
		root := newRootCmd()
		root.SetOut(stdout)
		root.SetErr(stderr)
		root.SetArgs(args)

		return root.Execute()
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		stdout = new(bytes.Buffer)
		stderr = new(bytes.Buffer)

		for _, name := range []string{
			config.EnvMaxHyperperiod, config.EnvLogLevel, config.EnvRecord,
			config.EnvAddr, config.EnvMetrics,
		} {
			if old, ok := os.LookupEnv(name); ok {
				DeferCleanup(os.Setenv, name, old)
			}
			Expect(os.Unsetenv(name)).To(Succeed())
		}
	})

	It("should print the preemption counts", func() {
		input := writeFile("tasks.txt", "1,2,2\n3,8,8\n")

		Expect(run(input)).To(Succeed())
		Expect(stdout.String()).To(Equal("1\n0,2\n"))
	})

	It("should print 0 on a deadline miss", func() {
		input := writeFile("tasks.txt", "3,4,4\n2,6,6\n")

		Expect(run(input)).To(Succeed())
		Expect(stdout.String()).To(Equal("0\n\n"))
	})

	It("should print 0 when the hyperperiod is over the limit", func() {
		input := writeFile("tasks.txt", "1,4,4\n1,6,6\n")

		Expect(run("--max-hyperperiod", "10", "--log-level", "warn", input)).
			To(Succeed())
		Expect(stdout.String()).To(Equal("0\n\n"))
		Expect(stderr.String()).To(ContainSubstring("max-hyperperiod"))
	})

	It("should read YAML files", func() {
		input := writeFile("tasks.yaml",
			"tasks:\n  - {execution_time: 1, period: 4, deadline: 4}\n")

		Expect(run(input)).To(Succeed())
		Expect(stdout.String()).To(Equal("1\n0\n"))
	})

	It("should take settings from the env file", func() {
		input := writeFile("tasks.txt", "1,4,4\n1,6,6\n")
		env := writeFile("dmsched.env", "DMSCHED_MAX_HYPERPERIOD=10\n")
		DeferCleanup(os.Unsetenv, config.EnvMaxHyperperiod)

		Expect(run("--env-file", env, input)).To(Succeed())
		Expect(stdout.String()).To(Equal("0\n\n"))
	})

	It("should report unreadable input", func() {
		err := run(filepath.Join(dir, "missing.txt"))

		Expect(err).To(MatchError(os.ErrNotExist))
		Expect(stdout.String()).To(BeEmpty())
	})

	It("should report the bad line", func() {
		input := writeFile("tasks.txt", "1,4,4\n1,four,4\n")

		Expect(run(input)).To(MatchError(ContainSubstring("line 2")))
	})

	It("should reject a bad log level", func() {
		input := writeFile("tasks.txt", "1,4,4\n")

		Expect(run("--log-level", "loud", input)).ToNot(Succeed())
	})

	It("should require exactly one input file", func() {
		Expect(run()).ToNot(Succeed())
	})

	It("should log scheduler events at debug level", func() {
		input := writeFile("tasks.txt", "1,4,4\n")

		Expect(run("--log-level", "debug", input)).To(Succeed())
		Expect(stderr.String()).To(ContainSubstring("scheduler event"))
		Expect(stderr.String()).To(ContainSubstring("job=T0.0"))
	})

	It("should print metrics", func() {
		input := writeFile("tasks.txt", "1,4,4\n")

		Expect(run("--metrics", input)).To(Succeed())
		Expect(stderr.String()).To(ContainSubstring("dmsched.simulations"))
	})

	It("should record a trace that the trace command reads", func() {
		input := writeFile("tasks.txt", "1,4,4\n4,8,8\n")
		prefix := filepath.Join(dir, "run")

		Expect(run("--record", prefix, input)).To(Succeed())
		Expect(prefix + ".sqlite3").To(BeARegularFile())

		stdout.Reset()
		Expect(run("trace", prefix+".sqlite3", "--job", "T1.0")).To(Succeed())

		lines := bytes.Split(bytes.TrimSpace(stdout.Bytes()), []byte("\n"))
		Expect(lines).To(HaveLen(3))
		Expect(string(lines[1])).To(MatchRegexp(`^T1\.0\s+1\s+4\s+preempted$`))
		Expect(string(lines[2])).To(MatchRegexp(`^T1\.0\s+5\s+6\s+completed$`))
	})

	It("should say when the trace output is cut", func() {
		input := writeFile("tasks.txt", "1,4,4\n4,8,8\n")
		prefix := filepath.Join(dir, "run")
		Expect(run("--record", prefix, input)).To(Succeed())

		stdout.Reset()
		Expect(run("trace", prefix+".sqlite3", "--limit", "1")).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("(1 of 4 segments)"))
	})

	It("should refuse to overwrite a trace", func() {
		input := writeFile("tasks.txt", "1,4,4\n")
		prefix := filepath.Join(dir, "run")
		writeFile("run.sqlite3", "")

		Expect(run("--record", prefix, input)).ToNot(Succeed())
	})

	It("should refuse a missing trace file", func() {
		Expect(run("trace", filepath.Join(dir, "none.sqlite3"))).
			To(MatchError(os.ErrNotExist))
	})

	It("should print the hyperperiod", func() {
		input := writeFile("tasks.txt", "1,0.4,0.4\n1,0.6,0.6\n")

		Expect(run("hyperperiod", input)).To(Succeed())
		Expect(stdout.String()).To(Equal("1.2\n"))
	})
})
