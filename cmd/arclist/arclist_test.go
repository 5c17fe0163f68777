package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	args := []string{
		"-t", "testdata/template.tcl",
		"--chartcl", "testdata/char.tcl",
		"-f", "testdata/filter.csv",
		"--filter-mode", "any",
		"--cell", "MB_*",
		"--arc-type", "hold",
		"--arc-type", "setup",
	}

	var stdout bytes.Buffer
	require.NoError(t, run(args, &stdout))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "MB_EXAMPLE1,hold,CP,rise,D,fall,E&!TE,1;1,10FR,hold_MB_EXAMPLE1_CP_rise_D_fall_E_notTE_1-1_10FR,true", lines[1])

	stdout.Reset()
	require.NoError(t, run(append(args, "--all"), &stdout))
	assert.Len(t, strings.Split(strings.TrimSpace(stdout.String()), "\n"), 17)

	out := filepath.Join(t.TempDir(), "arcs.csv")
	stdout.Reset()
	require.NoError(t, run(append(args, "--out", out), &stdout))
	assert.Empty(t, stdout.String())

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(written), "\n"))
}

func TestRun_Errors(t *testing.T) {
	var stdout bytes.Buffer
	assert.Error(t, run([]string{"-t", "testdata/none.tcl"}, &stdout))
	assert.Error(t, run([]string{"-t", "testdata/template.tcl", "--filter-mode", "all"}, &stdout))
	assert.Empty(t, stdout.String())
}
