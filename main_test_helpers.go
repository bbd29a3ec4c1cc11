package main

import (
	"bytes"
	"strings"
	"testing"
)

// useBufferWriters swaps stdOut/stdErr with in-memory buffers for the duration
// of a test, allowing assertions on CLI output without polluting test logs.
// stdIn is replaced with an empty reader so prompts see EOF unless a test
// provides input through useStdin.
func useBufferWriters(t *testing.T) {
	t.Helper()

	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	prevOut := stdOut
	prevErr := stdErr
	prevIn := stdIn

	stdOut = outBuf
	stdErr = errBuf
	stdIn = strings.NewReader("")

	t.Cleanup(func() {
		stdOut = prevOut
		stdErr = prevErr
		stdIn = prevIn
	})
}

// useStdin feeds input to confirmation prompts. Call after useBufferWriters.
func useStdin(t *testing.T, input string) {
	t.Helper()

	prevIn := stdIn
	stdIn = strings.NewReader(input)
	t.Cleanup(func() {
		stdIn = prevIn
	})
}

// stdOutBuffer returns the in-use stdout buffer when useBufferWriters is active.
func stdOutBuffer() *bytes.Buffer {
	buf, _ := stdOut.(*bytes.Buffer)
	return buf
}

// stdErrBuffer returns the in-use stderr buffer when useBufferWriters is active.
func stdErrBuffer() *bytes.Buffer {
	buf, _ := stdErr.(*bytes.Buffer)
	return buf
}
