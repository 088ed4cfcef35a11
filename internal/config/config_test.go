package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llvmexec/internal/diag"
	"llvmexec/internal/translate"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[translate]
lifetime_analysis = true
alias_policy = "error"
jobs = 3
colour = "always"

[natives]
stdout = 0x7f0000001000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsDefined("translate", "jobs"))
	assert.False(t, cfg.IsDefined("translate", "data_layout"))
	assert.Equal(t, 3, cfg.Translate.Jobs)
	assert.Equal(t, []string{"translate.colour"}, cfg.Undecoded)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, translate.Options{LifetimeAnalysis: true, AliasPolicy: translate.AliasError}, opts)

	addr, err := cfg.NativeTable().Resolve("@stdout")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7f0000001000), addr)

	bag := diag.NewBag(0)
	cfg.Report(diag.BagReporter{Bag: bag})
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.WarnUnknownConfigKey, d.Code)
	assert.Equal(t, "translate.colour", d.Subject)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeConfig(t, dir, "[translate]\nalias_policy = \"maybe\"\n"))
	assert.ErrorContains(t, err, "alias_policy")

	_, err = Load(writeConfig(t, dir, "[translate]\njobs = -1\n"))
	assert.ErrorContains(t, err, "jobs")

	_, err = Load(writeConfig(t, dir, "[translate\n"))
	assert.ErrorContains(t, err, "failed to parse TOML")
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, ok, err := Find(nested)
	require.NoError(t, err)
	require.True(t, ok)
	wantAbs, err := filepath.EvalSymlinks(want)
	require.NoError(t, err)
	gotAbs, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, wantAbs, gotAbs)
}

func TestNilConfigIsDefault(t *testing.T) {
	var cfg *Config
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, translate.Options{}, opts)
	assert.False(t, cfg.IsDefined("translate"))
	cfg.Report(nil)
}
