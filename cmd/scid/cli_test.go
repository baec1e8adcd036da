package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/liamcoop/scid/internal/config"
	"github.com/liamcoop/scid/internal/logger"
	"github.com/liamcoop/scid/rules"
	"github.com/liamcoop/scid/sandcontrol"
)

// runCLI executes scid with an isolated config and returns stdout
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"SCID_LOG_LEVEL", "SCID_LOG_FORMAT", "SCID_ERROR_SAMPLE_RATE", "SCID_VARIANT", "SCID_RULES_PATH", "PORT"} {
		t.Setenv(k, "")
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "scid.yaml")}, args...))

	err := root.Execute()
	return out.String(), err
}

var favorableFlags = []string{
	"recommend",
	"--permeability", "650",
	"--rate", "above_critical",
	"--completion", "open_hole",
	"--economic", "positive",
	"--environmental", "minimal",
}

func TestRecommendText(t *testing.T) {
	out, err := runCLI(t, favorableFlags...)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "Install Sand Control Facilities!", lines[0])
	assert.Contains(t, out, "reservoir")
	assert.Contains(t, out, "variant: A  engine: native")
	assert.NotContains(t, out, "vetoed by")
}

func TestRecommendJSONWithRulesEngine(t *testing.T) {
	args := append(append([]string{}, favorableFlags...), "--economic", "negative", "--engine", "rules", "-o", "json")
	out, err := runCLI(t, args...)
	require.NoError(t, err)

	var resp RecommendResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, sandcontrol.OutcomeDoNotInstall, resp.Outcome)
	assert.Equal(t, []sandcontrol.Factor{sandcontrol.FactorEconomic}, resp.VetoedBy)
	assert.Equal(t, EngineRules, resp.Engine)
	assert.False(t, resp.Verdicts.Economic)
	assert.True(t, resp.Verdicts.Reservoir)
}

func TestRecommendVariantFlags(t *testing.T) {
	base := append(append([]string{}, favorableFlags...), "--environmental", "maximal", "--variant", "B", "-o", "yaml")

	out, err := runCLI(t, base...)
	require.NoError(t, err)
	var resp RecommendResponse
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, sandcontrol.OutcomeInstall, resp.Outcome)
	assert.True(t, resp.Verdicts.Environmental)

	out, err = runCLI(t, append(base, "--environmental-from-impact")...)
	require.NoError(t, err)
	resp = RecommendResponse{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, sandcontrol.OutcomeDoNotInstall, resp.Outcome)
	assert.Equal(t, []sandcontrol.Factor{sandcontrol.FactorEnvironmental}, resp.VetoedBy)
}

func TestRecommendFlagsVariantBWithoutEnvironmental(t *testing.T) {
	args := []string{"recommend", "--permeability", "650", "--rate", "above_critical",
		"--completion", "open_hole", "--economic", "positive", "--variant", "B"}

	out, err := runCLI(t, args...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Install Sand Control Facilities!"), out)

	_, err = runCLI(t, append(args, "--environmental-from-impact")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environmental is required")
}

func TestRecommendInputFileWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "well.yaml")
	body := `reservoir:
  consolidation: consolidated
  grain_size: small
production:
  rate: below_critical
  water_cut_band: low
completion: cased
economic: positive
environmental: minimal
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	out, err := runCLI(t, "recommend", "--input", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Do not Install Sand Control Facilities!"), out)

	out, err = runCLI(t, "recommend", "--input", path, "--grain-size", "large", "--water-cut-band", "high", "--completion", "open_hole")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Install Sand Control Facilities!"), out)
}

func TestRecommendExplainText(t *testing.T) {
	out, err := runCLI(t, append(append([]string{}, favorableFlags...), "--explain")...)
	require.NoError(t, err)
	assert.Contains(t, out, "reservoir-permeability")
	assert.Contains(t, out, "match")
}

func TestRecommendErrors(t *testing.T) {
	testCases := map[string][]string{
		"both reservoir forms": append(append([]string{}, favorableFlags...), "--grain-size", "large"),
		"unknown completion":   {"recommend", "--porosity", "40", "--completion", "slotted", "--economic", "positive", "--environmental", "minimal"},
		"bad output":           append(append([]string{}, favorableFlags...), "-o", "xml"),
		"bad engine":           append(append([]string{}, favorableFlags...), "--engine", "fuzzy"),
		"both water cuts":      append(append([]string{}, favorableFlags...), "--water-cut", "10", "--water-cut-band", "low"),
		"missing rule file":    append(append([]string{}, favorableFlags...), "--rules", "/nonexistent/rules.yaml"),
		"bad log level":        append([]string{"--log-level", "loud"}, favorableFlags...),
	}

	for name, args := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := runCLI(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestRulesCommands(t *testing.T) {
	out, err := runCLI(t, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "FACTOR")
	for _, r := range rules.DefaultRules() {
		assert.Contains(t, out, r.ID)
	}

	exported, err := runCLI(t, "rules", "export")
	require.NoError(t, err)

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(exported), 0644))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(strings.Replace(exported, "reservoir.porosity >", "reservoir.porosity >>", 1)), 0644))

	out, err = runCLI(t, "rules", "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	out, err = runCLI(t, "rules", "check", good, bad)
	assert.Error(t, err)
	assert.Contains(t, out, "FAIL "+bad)

	out, err = runCLI(t, "rules", "list", "--rules", good)
	require.NoError(t, err)
	assert.Contains(t, out, "environmental-feasibility")
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "scid.yaml")

	out, err := runCLI(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), loaded)

	_, err = runCLI(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = runCLI(t, "config", "init", "--force", path)
	assert.NoError(t, err)

	t.Setenv("SCID_ERROR_SAMPLE_RATE", "50")
	t.Cleanup(func() { logger.SetErrorSampleRate(1) })
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--config", path, "config", "show"})
	require.NoError(t, root.Execute())

	var shown config.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &shown))
	assert.Equal(t, 50, shown.Logging.SampleRate)
	assert.Equal(t, "A", shown.Engine.Variant)
}
