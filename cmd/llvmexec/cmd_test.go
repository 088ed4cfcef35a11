package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llvmexec/internal/bitcode"
	"llvmexec/internal/config"
	"llvmexec/internal/diag"
	"llvmexec/internal/pipeline"
)

func TestImagePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "m.img"), imagePath(filepath.Join("a", "b", "m.ll"), ""))
	assert.Equal(t, filepath.Join("out", "m.img"), imagePath(filepath.Join("a", "m.ll"), "out"))
}

func TestReadModes(t *testing.T) {
	m, err := readEmitMode(" Image ")
	require.NoError(t, err)
	assert.Equal(t, emitImage, m)
	_, err = readEmitMode("asm")
	require.Error(t, err)

	u, err := readUIMode("")
	require.NoError(t, err)
	assert.Equal(t, uiModeAuto, u)
	_, err = readUIMode("maybe")
	require.Error(t, err)
	assert.True(t, shouldUseTUI(uiModeOn))
	assert.False(t, shouldUseTUI(uiModeOff))
}

func TestFormatDiagnostic(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	d := diag.New(diag.SevWarning, diag.WarnUnresolvedAlias, "@a", "")
	assert.Equal(t, "warning[W2001] @a: alias could not be resolved", formatDiagnostic(d))
	d = diag.New(diag.SevInfo, diag.NoteModuleAsm, "", "skipped")
	assert.Equal(t, "note[N1001]: skipped", formatDiagnostic(d))
}

func TestListSymbols(t *testing.T) {
	st, err := bitcode.ParseRecords("t.rec", strings.Join([]string{
		"type 0 = i32",
		"SETTYPE 0",
		"INTEGER 14",
	}, "\n"))
	require.NoError(t, err)
	syms := bitcode.NewSymbols()
	_, err = st.Decode(syms)
	require.NoError(t, err)

	var buf bytes.Buffer
	listSymbols(&buf, syms, true)
	assert.Equal(t, "#0 integer i32 = 7\n", buf.String())
}

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	require.NoError(t, versionCmd.Flags().Set("format", "json"))
	t.Cleanup(func() { _ = versionCmd.Flags().Set("format", "pretty") })
	require.NoError(t, runVersion(versionCmd, nil))
	assert.Contains(t, buf.String(), `"version"`)
}

func TestInspectMissingImage(t *testing.T) {
	err := inspectImages(translateCmd, []string{filepath.Join(t.TempDir(), "none.img")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrintTimings(t *testing.T) {
	var r pipeline.Result
	r.File = "a.ll"
	r.Timings.Set(pipeline.StageParse, 2*time.Millisecond)
	r.Timings.Set(pipeline.StageTranslate, 3*time.Millisecond)

	var buf bytes.Buffer
	printTimings(&buf, []pipeline.Result{r})
	out := buf.String()
	assert.Contains(t, out, "parse     2.00")
	assert.Contains(t, out, "translate     3.00")
	assert.NotContains(t, out, "emit")
	assert.Contains(t, out, "=     5.00")
}

func TestRecordsFlagBindsInitializers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.rec")
	require.NoError(t, os.WriteFile(path, []byte("type 0 = i32\nSETTYPE 0\nINTEGER 14\n"), 0o600))

	cmd := &cobra.Command{Use: "translate"}
	addTranslateFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--records", path, "--init", "@n=0"}))
	opts, err := translateOptions(cmd, &config.Config{})
	require.NoError(t, err)
	require.NotNil(t, opts.Records)
	assert.Equal(t, map[string]int{"@n": 0}, opts.Records.Bind)
	require.Len(t, opts.Records.Stream.Records, 2)
	assert.Equal(t, bitcode.RecInteger, opts.Records.Stream.Records[1].ID)

	cmd = &cobra.Command{Use: "translate"}
	addTranslateFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--init", "@n=0"}))
	_, err = translateOptions(cmd, &config.Config{})
	require.Error(t, err)
}
