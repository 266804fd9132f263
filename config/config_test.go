package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/model/provider"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	assert.Equal(t, "Copy00.lean", cfg.Workspace.Artifact)
	assert.Equal(t, "diagnosis.md", cfg.Workspace.Diagnosis)
	assert.Equal(t, "fix_plan.md", cfg.Workspace.Plan)
	assert.Equal(t, "lake", cfg.Checker.Command)
	assert.Equal(t, []string{"env", "lean"}, cfg.Checker.Args)
	assert.Equal(t, 60*time.Second, cfg.Checker.Timeout)
	assert.Equal(t, "AgentScript.lean", cfg.Prover.ScratchFile)
	assert.Equal(t, 30*time.Second, cfg.Prover.Timeout)
	assert.Equal(t, Limits{MaxMessages: 10, MaxTurns: 10}, cfg.Sessions.SmallTalk)
	assert.Equal(t, Limits{MaxMessages: 20, MaxTurns: 20}, cfg.Sessions.Prove)
	assert.Equal(t, 1, cfg.Repair.MaxCycles)
	assert.Empty(t, cfg.Archive.Path)
	assert.Empty(t, cfg.Broadcast.URL)
	assert.False(t, cfg.Broadcast.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ROUNDTABLE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Copy00.lean", cfg.Workspace.Artifact)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROUNDTABLE_CONFIG", "/nonexistent/roundtable.yaml")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("ROUNDTABLE_LOG_LEVEL", "debug")
	t.Setenv("ROUNDTABLE_ARTIFACT", "Main.lean")
	t.Setenv("ROUNDTABLE_ARCHIVE_PATH", "data/archive.db")
	t.Setenv("ROUNDTABLE_NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("ROUNDTABLE_MAX_CYCLES", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.OpenAIAPIKey)
	assert.Equal(t, "gm-key", cfg.GeminiAPIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "Main.lean", cfg.Workspace.Artifact)
	assert.Equal(t, "data/archive.db", cfg.Archive.Path)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Broadcast.URL)
	assert.True(t, cfg.Broadcast.Enabled())
	assert.Equal(t, 3, cfg.Repair.MaxCycles)
}

func TestLoadFile_YAML(t *testing.T) {
	t.Setenv("LEAN_HOME", "/opt/lean")
	path := filepath.Join(t.TempDir(), "roundtable.yaml")
	data := `
log:
  format: json
workspace:
  artifact: Proof.lean
checker:
  command: ${LEAN_HOME}/bin/lake
  timeout: 90s
sessions:
  smalltalk:
    max_messages: 4
    max_turns: 6
agents:
  smalltalk:
    starter:
      model: claude-sonnet-4-5
repair:
  max_cycles: 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "Proof.lean", cfg.Workspace.Artifact)
	assert.Equal(t, "diagnosis.md", cfg.Workspace.Diagnosis)
	assert.Equal(t, "/opt/lean/bin/lake", cfg.Checker.Command)
	assert.Equal(t, 90*time.Second, cfg.Checker.Timeout)
	assert.Equal(t, Limits{MaxMessages: 4, MaxTurns: 6}, cfg.Sessions.SmallTalk)
	assert.Equal(t, 2, cfg.Repair.MaxCycles)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Agent(ScenarioSmallTalk, "starter").Model)
	assert.Equal(t, "gemini-2.0-flash", cfg.Agent(ScenarioSmallTalk, "responder").Model)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"artifact", func(c *Config) { c.Workspace.Artifact = "" }, "workspace.artifact"},
		{"checker command", func(c *Config) { c.Checker.Command = "" }, "checker.command"},
		{"prover timeout", func(c *Config) { c.Prover.Timeout = 0 }, "prover.timeout"},
		{"unbounded session", func(c *Config) { c.Sessions.Plan = Limits{} }, "sessions.plan"},
		{"negative limit", func(c *Config) { c.Sessions.Prove.MaxTurns = -1 }, "sessions.prove"},
		{"cycles", func(c *Config) { c.Repair.MaxCycles = 0 }, "repair.max_cycles"},
		{"agent model", func(c *Config) {
			c.Agents[ScenarioPanel]["skeptic"] = provider.Spec{}
		}, "agents.panel.skeptic.model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)

			var cfgErr *core.ConfigError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestAgent_APIKeys(t *testing.T) {
	cfg := defaults()
	cfg.OpenAIAPIKey = "openai"
	cfg.AnthropicAPIKey = "anthropic"
	cfg.GeminiAPIKey = "gemini"
	cfg.Agents[ScenarioPanel]["skeptic"] = provider.Spec{Model: "claude-opus-4-1"}
	cfg.Agents[ScenarioPanel]["planner"] = provider.Spec{Model: "gpt-4.1-mini", APIKey: "own"}

	assert.Equal(t, "gemini", cfg.Agent(ScenarioSmallTalk, "starter").APIKey)
	assert.Equal(t, "openai", cfg.Agent(ScenarioPanel, "visionary").APIKey)
	assert.Equal(t, "anthropic", cfg.Agent(ScenarioPanel, "skeptic").APIKey)
	assert.Equal(t, "own", cfg.Agent(ScenarioPanel, "planner").APIKey)

	unknown := cfg.Agent("custom", "bot")
	assert.Equal(t, "mock-bot", unknown.Model)
	assert.Equal(t, provider.Mock, unknown.ResolveProvider())
	assert.Empty(t, unknown.APIKey)
}
