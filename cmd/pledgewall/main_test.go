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

func TestCertificateCommandWritesFile(t *testing.T) {
	dir := t.TempDir()
	cmd := certificateCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--name", "Ada  Lovelace",
		"--commitments", "Compost organic waste regularly",
		"--format", "pdf",
		"--out", dir,
	})
	require.NoError(t, cmd.Execute())

	want := filepath.Join(dir, "climate-pledge-certificate-Ada-Lovelace.pdf")
	assert.Equal(t, want, strings.TrimSpace(out.String()))
	b, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestCertificateCommandRejects(t *testing.T) {
	cases := map[string][]string{
		"missing name":       {"--format", "png"},
		"unknown commitment": {"--name", "Ada", "--commitments", "Plant a tree on Mars"},
		"unknown format":     {"--name", "Ada", "--format", "gif"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			cmd := certificateCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(append(args, "--out", t.TempDir()))
			assert.Error(t, cmd.Execute())
		})
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := versionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, programName+" "+Version+"\n", out.String())
}
