package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SpritePack/internal/engine"
	"github.com/piwi3910/SpritePack/internal/export"
	"github.com/piwi3910/SpritePack/internal/model"
	"github.com/piwi3910/SpritePack/internal/project"
)

const spritesCSV = "name,width,height\nhero,100,100\ncoin,50,50\ndoor,50,100\n"

// run executes the command line with an isolated config file.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--config", filepath.Join(dir, "config.yaml")))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "config.yaml"), content)
}

func readManifest(t *testing.T, path string) export.Manifest {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m export.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestPackWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log_level: error\n")
	input := writeFile(t, filepath.Join(dir, "sprites.csv"), spritesCSV)
	out := filepath.Join(dir, "out")
	jobPath := filepath.Join(dir, "sprites.yaml")

	stdout, err := run(t, dir, "pack", input, "--workers", "1", "--list",
		"--manifest", filepath.Join(out, "atlas.json"),
		"--preview", filepath.Join(out, "atlas.png"),
		"--pdf", filepath.Join(out, "atlas.pdf"),
		"--labels", filepath.Join(out, "labels.pdf"),
		"--xlsx", filepath.Join(out, "atlas.xlsx"),
		"--job", jobPath,
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "150 x 150")
	assert.Contains(t, stdout, "hero")
	for _, name := range []string{"atlas.json", "atlas.png", "atlas.pdf", "labels.pdf", "atlas.xlsx"} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	m := readManifest(t, filepath.Join(out, "atlas.json"))
	assert.Equal(t, 150, m.Meta.Size.W)
	assert.Equal(t, 150, m.Meta.Size.H)
	assert.Equal(t, "atlas.png", m.Meta.Image)
	require.Len(t, m.Frames, 3)
	assert.Equal(t, "hero", m.Frames[0].Filename)

	job, err := project.LoadJob(jobPath)
	require.NoError(t, err)
	assert.Equal(t, "sprites", job.Name)
	assert.Len(t, job.Rects, 3)
	require.NotNil(t, job.Result)
	assert.Equal(t, 150, job.Result.Width)

	cfg, err := project.LoadAppConfig(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{jobPath}, cfg.RecentJobs)
	assert.Equal(t, "error", cfg.LogLevel, "recording a job keeps the rest of the config")
}

func TestPackFromJobFile(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "tiles.json")
	job := project.NewJob("tiles", []model.Rect{
		model.NewRectID("a", 10, 10),
		model.NewRectID("b", 10, 10),
		model.NewRectID("c", 10, 10),
		model.NewRectID("d", 10, 10),
	}, model.DefaultSettings())
	require.NoError(t, project.SaveJob(jobPath, job))

	manifest := filepath.Join(dir, "atlas.json")
	_, err := run(t, dir, "pack", jobPath, "--manifest", manifest)
	require.NoError(t, err)

	m := readManifest(t, manifest)
	assert.Equal(t, 20, m.Meta.Size.W)
	assert.Equal(t, 20, m.Meta.Size.H)
	assert.Equal(t, 100.0, m.Meta.Efficiency)
}

func paddedJob(t *testing.T, dir string) string {
	t.Helper()
	settings := model.DefaultSettings()
	settings.Padding = 10
	settings.Hints = model.TryByArea
	job := project.NewJob("pair", []model.Rect{
		model.NewRectID("a", 10, 10),
		model.NewRectID("b", 10, 10),
	}, settings)
	path := filepath.Join(dir, "pair.json")
	require.NoError(t, project.SaveJob(path, job))
	return path
}

func TestPackJobKeepsSavedSettings(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "padding: 2\n")
	jobPath := paddedJob(t, dir)
	manifest := filepath.Join(dir, "atlas.json")
	resaved := filepath.Join(dir, "again.yaml")

	_, err := run(t, dir, "pack", jobPath, "--manifest", manifest, "--job", resaved)
	require.NoError(t, err)

	m := readManifest(t, manifest)
	size := []int{m.Meta.Size.W, m.Meta.Size.H}
	assert.ElementsMatch(t, []int{30, 10}, size, "padding 10 separates the pair")
	require.Len(t, m.Frames, 2)
	assert.Equal(t, 20, m.Frames[1].Frame.X+m.Frames[1].Frame.Y)

	job, err := project.LoadJob(resaved)
	require.NoError(t, err)
	assert.Equal(t, 10, job.Settings.Padding)
	assert.Equal(t, model.TryByArea, job.Settings.Hints)
}

func TestPackJobFlagOverridesSavedSettings(t *testing.T) {
	dir := t.TempDir()
	jobPath := paddedJob(t, dir)
	manifest := filepath.Join(dir, "atlas.json")

	resaved := filepath.Join(dir, "again.json")

	_, err := run(t, dir, "pack", jobPath, "--padding", "0", "--manifest", manifest, "--job", resaved)
	require.NoError(t, err)

	m := readManifest(t, manifest)
	assert.Equal(t, 200, m.Meta.Size.W*m.Meta.Size.H)

	job, err := project.LoadJob(resaved)
	require.NoError(t, err)
	assert.Equal(t, 0, job.Settings.Padding)
	assert.Equal(t, model.TryByArea, job.Settings.Hints, "unchanged flags keep the saved hints")
}

func TestSettingsFlagsCoverEveryFlag(t *testing.T) {
	fs := pflag.NewFlagSet("settings", pflag.ContinueOnError)
	addSettingsFlags(fs)
	fs.VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, settingsFlags, f.Name)
		assert.Contains(t, flagKeys, f.Name)
	})
	assert.Len(t, settingsFlags, 9)
}

func TestPackConfigFileSettings(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "padding: 2\nhints: area\n")
	input := writeFile(t, filepath.Join(dir, "pair.csv"), "id,w,h\nleft,10,10\nright,10,10\n")
	manifest := filepath.Join(dir, "atlas.json")

	_, err := run(t, dir, "pack", input, "--manifest", manifest)
	require.NoError(t, err)

	m := readManifest(t, manifest)
	assert.Equal(t, 22, m.Meta.Size.W)
	assert.Equal(t, 10, m.Meta.Size.H)
	require.Len(t, m.Frames, 2)
	assert.Equal(t, 12, m.Frames[1].Frame.X)
}

func TestPackFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "padding: 2\n")
	input := writeFile(t, filepath.Join(dir, "pair.csv"), "id,w,h\nleft,10,10\nright,10,10\n")
	manifest := filepath.Join(dir, "atlas.json")

	_, err := run(t, dir, "pack", input, "--padding", "0", "--manifest", manifest)
	require.NoError(t, err)

	m := readManifest(t, manifest)
	assert.Equal(t, 20, m.Meta.Size.W)
}

func TestPackEnvironmentCeiling(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPRITEPACK_MAX_SIDE", "149")
	input := writeFile(t, filepath.Join(dir, "sprites.csv"), spritesCSV)

	_, err := run(t, dir, "pack", input)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrPackingFailed)
}

func TestPackInvalidHint(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "sprites.csv"), spritesCSV)

	_, err := run(t, dir, "pack", input, "--hints", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}

func TestPackNothingImported(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "bad.csv"), "name,width,height\nhero,-1,10\n")

	_, err := run(t, dir, "pack", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rects imported")
}

func TestPackInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "padding: [1, 2\n")
	input := writeFile(t, filepath.Join(dir, "sprites.csv"), spritesCSV)

	_, err := run(t, dir, "pack", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestPackNegativePadding(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "sprites.csv"), spritesCSV)

	_, err := run(t, dir, "pack", input, "--padding", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestCompareJSON(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "sprites.csv"), spritesCSV)

	stdout, err := run(t, dir, "compare", input, "--json", "--hints", "area|width", "--workers", "1")
	require.NoError(t, err)

	var reports []engine.HintReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &reports))
	require.Len(t, reports, 3)
	assert.Equal(t, model.Hint(0), reports[0].Hint)
	assert.Equal(t, model.TryByArea, reports[1].Hint)
	assert.Equal(t, model.TryByWidth, reports[2].Hint)
	assert.True(t, reports[0].Best)
}

func TestCompareTable(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "sprites.csv"), spritesCSV)

	stdout, err := run(t, dir, "compare", input)
	require.NoError(t, err)
	assert.Contains(t, stdout, "input order")
	assert.Contains(t, stdout, "TryByPathologicalMultiplier")
	assert.Contains(t, stdout, "best")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()

	stdout, err := run(t, dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "config.yaml")

	_, err = run(t, dir, "config", "init")
	assert.Error(t, err, "init refuses to overwrite")

	stdout, err = run(t, dir, "config", "show", "--padding", "3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "padding: 3")
	assert.Contains(t, stdout, "hints: FindBest")
}
