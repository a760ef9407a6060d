package main

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/protocol"
)

func execute(args ...string) (string, error) {
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return buf.String(), err
}

func setEnv(name, value string) {
	Expect(os.Setenv(name, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, name)
}

var _ = Describe("protocols", func() {
	It("should list protocols, their specs and the faults", func() {
		out, err := execute("protocols")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("regbus\t"))
		Expect(out).To(ContainSubstring("rand din in [0, 4095]"))
		Expect(out).To(ContainSubstring("uart\t"))
		Expect(out).To(ContainSubstring(
			"faults: none, stuck-bit, no-done, corrupt-read, nack"))
	})
})

var _ = Describe("run", func() {
	It("should pass a clean device", func() {
		out, err := execute("run", "-p", "spi", "-n", "3", "--seed", "2")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Reset Applied"))
		Expect(out).To(ContainSubstring(
			"spi: PASSED pass: 3 fail: 0 desync: 0 error: 0"))
	})

	It("should fail on a faulty device", func() {
		out, err := execute("run", "-p", "regbus", "-n", "20", "-q",
			"--fault", "corrupt-read")

		Expect(err).To(MatchError(errRunFailed))
		Expect(out).NotTo(ContainSubstring("[GEN]"))
		Expect(out).To(ContainSubstring("regbus: FAILED"))
	})

	It("should reject unknown protocols and faults", func() {
		_, err := execute("run", "-p", "i3c")
		Expect(err).To(MatchError(protocol.ErrUnknownProtocol))

		_, err = execute("run", "--fault", "melted")
		Expect(err).To(MatchError(dut.ErrUnknownFault))
	})

	It("should reject a zero transaction count", func() {
		out, err := execute("run", "-p", "spi", "-n", "0")

		Expect(err).To(MatchError(errInvalidValue))
		Expect(err.Error()).To(ContainSubstring("--count"))
		Expect(out).NotTo(ContainSubstring("[GEN]"))

		_, err = execute("run", "--handshake-timeout", "0")
		Expect(err).To(MatchError(errInvalidValue))
	})

	It("should stop at the simulated duration", func() {
		out, err := execute("run", "-p", "spi", "-n", "100", "-q",
			"--duration", "1us")

		Expect(err).To(MatchError(errRunFailed))
		Expect(out).To(ContainSubstring("cycle limit reached"))
	})

	It("should take flag defaults from the environment", func() {
		setEnv("VERIKIT_COUNT", "2")
		setEnv("VERIKIT_PROTOCOL", "uart")

		out, err := execute("run", "-q")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("uart: PASSED pass: 2"))
	})

	It("should prefer flags over the environment", func() {
		setEnv("VERIKIT_COUNT", "2")

		out, err := execute("run", "-q", "-p", "spi", "-n", "1")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("spi: PASSED pass: 1"))
	})

	It("should load an env file", func() {
		envFile := filepath.Join(GinkgoT().TempDir(), "bench.env")
		Expect(os.WriteFile(envFile,
			[]byte("VERIKIT_PROTOCOL=spi\nVERIKIT_COUNT=1\n"), 0o600)).
			To(Succeed())
		DeferCleanup(os.Unsetenv, "VERIKIT_PROTOCOL")
		DeferCleanup(os.Unsetenv, "VERIKIT_COUNT")

		out, err := execute("run", "-q", "--env-file", envFile)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("spi: PASSED pass: 1"))
	})

	It("should fail on a missing env file given explicitly", func() {
		_, err := execute("run", "--env-file", "/nonexistent/verikit.env")

		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("should log simulation events", func() {
		out, err := execute("run", "-p", "spi", "-n", "1", "--trace-events")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("ns TickEvent -> spi.Clock\n"))
	})

	It("should record verdicts to files", func() {
		output := filepath.Join(GinkgoT().TempDir(), "verdicts")

		_, err := execute("run", "-q", "-p", "spi", "-n", "2",
			"--csv", "--sqlite", "-o", output)

		Expect(err).NotTo(HaveOccurred())
		Expect(output + ".csv").To(BeAnExistingFile())
		Expect(output + ".sqlite3").To(BeAnExistingFile())
	})
})
