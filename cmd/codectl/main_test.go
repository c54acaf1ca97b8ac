package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncodeCommands(t *testing.T) {
	out, err := run(t, "encode", "traveler", "--id", "7", "--job", "8414L", "--part", "PCB-100")
	require.NoError(t, err)
	require.Equal(t, "NEXUS|7|8414L|PCB-100|AC\n", out)

	out, err = run(t, "encode", "barcode", "--id", "7", "--job", "8414L", "--work-order", "WO1")
	require.NoError(t, err)
	require.Equal(t, "NEX-7-8414L-WO1\n", out)

	out, err = run(t, "encode", "step", "--id", "7", "--job", "8414L", "--work-center", "SMT",
		"--operation", "SMT", "--step-number", "1", "--step-id", "20")
	require.NoError(t, err)
	require.Equal(t, "NEXUS-STEP|7|8414L||SMT|1|SMT|PROCESS|20|AC\n", out)

	out, err = run(t, "encode", "step", "--id", "7", "--job", "8414L", "--work-center", "SMT", "--format", "v2")
	require.NoError(t, err)
	require.Equal(t, "NEXUS-STEP-V2|7|8414L||SMT|||PROCESS||AC\n", out)

	_, err = run(t, "encode", "step", "--id", "7", "--kind", "REWORK")
	require.ErrorIs(t, err, codes.ErrInvalidStepKind)
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "parse", "NEX-7-8414L")
	require.NoError(t, err)
	require.Contains(t, out, `"type": "barcode"`)

	_, err = run(t, "parse", "hello")
	require.ErrorIs(t, err, codes.ErrFormat)
	require.True(t, strings.HasPrefix(err.Error(), codes.CodeMalformed))
}

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qr.png")
	_, err := run(t, "render", "traveler-qr", "NEXUS|7|8414L|PCB-100|AC", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = run(t, "render", "aztec", "x")
	require.Error(t, err)
}
