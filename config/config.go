// Package config loads roundtable's YAML configuration with defaults and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/model/provider"
)

// DefaultPath is read when ROUNDTABLE_CONFIG is unset.
const DefaultPath = "roundtable.yaml"

// AgentSpecs maps agent names of one scenario to their model specs.
type AgentSpecs map[string]provider.Spec

// Scenario names used as keys of Config.Agents.
const (
	ScenarioSmallTalk = "smalltalk"
	ScenarioPanel     = "panel"
	ScenarioProve     = "prove"
	ScenarioRepair    = "repair"
)

type Config struct {
	Log       LogConfig             `yaml:"log"`
	Workspace WorkspaceConfig       `yaml:"workspace"`
	Checker   CheckerConfig         `yaml:"checker"`
	Prover    CheckerConfig         `yaml:"prover"`
	Sessions  SessionsConfig        `yaml:"sessions"`
	Agents    map[string]AgentSpecs `yaml:"agents"`
	Repair    RepairConfig          `yaml:"repair"`
	Archive   ArchiveConfig         `yaml:"archive"`
	Broadcast BroadcastConfig       `yaml:"broadcast"`

	ModelTimeout time.Duration `yaml:"model_timeout"`

	// Keys are applied to agent specs that carry none of their own.
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WorkspaceConfig struct {
	Artifact  string `yaml:"artifact"`
	Diagnosis string `yaml:"diagnosis"`
	Plan      string `yaml:"plan"`
}

type CheckerConfig struct {
	Name           string        `yaml:"name"`
	Command        string        `yaml:"command"`
	Args           []string      `yaml:"args"`
	Dir            string        `yaml:"dir"`
	ProjectMarkers []string      `yaml:"project_markers"`
	Timeout        time.Duration `yaml:"timeout"`
	WaitDelay      time.Duration `yaml:"wait_delay"`
	ScratchFile    string        `yaml:"scratch_file"`
}

// Limits bound a single session.
type Limits struct {
	MaxMessages int `yaml:"max_messages"`
	MaxTurns    int `yaml:"max_turns"`
}

type SessionsConfig struct {
	SmallTalk Limits `yaml:"smalltalk"`
	Prove     Limits `yaml:"prove"`
	Diagnose  Limits `yaml:"diagnose"`
	Plan      Limits `yaml:"plan"`
	Execute   Limits `yaml:"execute"`
}

type RepairConfig struct {
	MaxCycles int `yaml:"max_cycles"`
}

type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// BroadcastConfig enables publishing to NATS. With Embedded set an in-process
// server is started on Port (-1 picks a free one) and URL is ignored.
type BroadcastConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Embedded      bool   `yaml:"embedded"`
	Port          int    `yaml:"port"`
}

// Enabled reports whether messages should be published.
func (b BroadcastConfig) Enabled() bool { return b.Embedded || b.URL != "" }

func defaults() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Workspace: WorkspaceConfig{
			Artifact:  "Copy00.lean",
			Diagnosis: "diagnosis.md",
			Plan:      "fix_plan.md",
		},
		Checker: CheckerConfig{
			Name:           "Lean",
			Command:        "lake",
			Args:           []string{"env", "lean"},
			ProjectMarkers: []string{"lakefile.lean", "lakefile.toml"},
			Timeout:        60 * time.Second,
			WaitDelay:      500 * time.Millisecond,
		},
		Prover: CheckerConfig{
			Name:        "Lean",
			Command:     "lean",
			Timeout:     30 * time.Second,
			WaitDelay:   500 * time.Millisecond,
			ScratchFile: "AgentScript.lean",
		},
		Sessions: SessionsConfig{
			SmallTalk: Limits{MaxMessages: 10, MaxTurns: 10},
			Prove:     Limits{MaxMessages: 20, MaxTurns: 20},
			Diagnose:  Limits{MaxMessages: 10, MaxTurns: 12},
			Plan:      Limits{MaxMessages: 10, MaxTurns: 12},
			Execute:   Limits{MaxMessages: 8, MaxTurns: 8},
		},
		Agents:       defaultAgents(),
		Repair:       RepairConfig{MaxCycles: 1},
		Broadcast:    BroadcastConfig{SubjectPrefix: "roundtable", Port: 4222},
		ModelTimeout: 2 * time.Minute,
	}
}

func defaultAgents() map[string]AgentSpecs {
	return map[string]AgentSpecs{
		ScenarioSmallTalk: {
			"starter":   {Model: "gemini-2.5-flash"},
			"responder": {Model: "gemini-2.0-flash"},
		},
		ScenarioPanel: {
			"visionary": {Model: "gpt-4o"},
			"planner":   {Model: "gpt-4.1-mini"},
			"skeptic":   {Model: "gpt-4.1"},
		},
		ScenarioProve: {
			"planner":  {Model: "gemini-3-pro-preview"},
			"executor": {Model: "gemini-2.5-flash"},
		},
		ScenarioRepair: {
			"diag_alpha": {Model: "gpt-5"},
			"diag_beta":  {Model: "gpt-5"},
			"plan_alpha": {Model: "gpt-5"},
			"plan_beta":  {Model: "gpt-5"},
			"executor":   {Model: "gpt-5.1"},
		},
	}
}

// Load reads the file named by ROUNDTABLE_CONFIG (or DefaultPath), falling
// back to defaults when it does not exist, then applies env overrides and
// validates the result.
func Load() (*Config, error) {
	path := os.Getenv("ROUNDTABLE_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("ROUNDTABLE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ROUNDTABLE_ARTIFACT"); v != "" {
		cfg.Workspace.Artifact = v
	}
	if v := os.Getenv("ROUNDTABLE_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv("ROUNDTABLE_NATS_URL"); v != "" {
		cfg.Broadcast.URL = v
	}
	if v := os.Getenv("ROUNDTABLE_MAX_CYCLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Repair.MaxCycles = n
		}
	}
}

// Validate reports the first invalid option as a *core.ConfigError.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return &core.ConfigError{Field: "log.format", Reason: fmt.Sprintf("unsupported format %q", c.Log.Format)}
	}
	if c.Workspace.Artifact == "" {
		return &core.ConfigError{Field: "workspace.artifact", Reason: "must not be empty"}
	}
	if c.Workspace.Diagnosis == "" || c.Workspace.Plan == "" {
		return &core.ConfigError{Field: "workspace", Reason: "diagnosis and plan paths must not be empty"}
	}
	for name, ck := range map[string]CheckerConfig{"checker": c.Checker, "prover": c.Prover} {
		if ck.Command == "" {
			return &core.ConfigError{Field: name + ".command", Reason: "must not be empty"}
		}
		if ck.Timeout <= 0 {
			return &core.ConfigError{Field: name + ".timeout", Reason: "must be positive"}
		}
	}
	for name, l := range map[string]Limits{
		"smalltalk": c.Sessions.SmallTalk,
		"prove":     c.Sessions.Prove,
		"diagnose":  c.Sessions.Diagnose,
		"plan":      c.Sessions.Plan,
		"execute":   c.Sessions.Execute,
	} {
		if l.MaxMessages < 0 || l.MaxTurns < 0 {
			return &core.ConfigError{Field: "sessions." + name, Reason: "limits must not be negative"}
		}
		if l.MaxMessages == 0 && l.MaxTurns == 0 {
			return &core.ConfigError{Field: "sessions." + name, Reason: "max_messages or max_turns is required"}
		}
	}
	if c.Repair.MaxCycles < 1 {
		return &core.ConfigError{Field: "repair.max_cycles", Reason: "must be at least 1"}
	}
	if c.ModelTimeout < 0 {
		return &core.ConfigError{Field: "model_timeout", Reason: "must not be negative"}
	}
	for scenario, specs := range c.Agents {
		for name, spec := range specs {
			if spec.Model == "" {
				return &core.ConfigError{Field: "agents." + scenario + "." + name + ".model", Reason: "must not be empty"}
			}
		}
	}
	return nil
}

// Agent returns the model spec for an agent of a scenario with the matching
// API key filled in. Agents missing from the file fall back to the built-in
// defaults, and unknown agents get a mock model so dry runs work offline.
func (c *Config) Agent(scenario, name string) provider.Spec {
	spec, ok := c.Agents[scenario][name]
	if !ok {
		spec, ok = defaultAgents()[scenario][name]
	}
	if !ok {
		spec = provider.Spec{Model: "mock-" + name}
	}
	if spec.APIKey == "" {
		switch {
		case spec.IsGemini():
			spec.APIKey = c.GeminiAPIKey
		case spec.ResolveProvider() == provider.Anthropic:
			spec.APIKey = c.AnthropicAPIKey
		case spec.ResolveProvider() == provider.OpenAI:
			spec.APIKey = c.OpenAIAPIKey
		}
	}
	return spec
}
