// Package provider builds model.Model implementations from declarative specs.
package provider

import (
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/roundtable/model"
	"github.com/hupe1980/roundtable/model/anthropic"
	"github.com/hupe1980/roundtable/model/openai"
)

// Provider names understood by New.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Mock      = "mock"
)

// GeminiBaseURL is Google's OpenAI compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Spec selects and parameterizes a model client.
type Spec struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// ResolveProvider returns the provider for s, inferring it from the model id
// when none is set.
func (s Spec) ResolveProvider() string {
	if s.Provider != "" {
		return strings.ToLower(s.Provider)
	}
	switch {
	case s.Model == Mock || strings.HasPrefix(s.Model, "mock-"):
		return Mock
	case strings.HasPrefix(s.Model, "claude"):
		return Anthropic
	default:
		return OpenAI
	}
}

// IsGemini reports whether the model id names a Gemini model.
func (s Spec) IsGemini() bool { return strings.HasPrefix(s.Model, "gemini-") }

// New constructs the model described by spec.
func New(spec Spec) (model.Model, error) {
	if spec.Model == "" {
		return nil, fmt.Errorf("provider: model id is required")
	}

	switch spec.ResolveProvider() {
	case OpenAI:
		baseURL := spec.BaseURL
		if baseURL == "" && spec.IsGemini() {
			baseURL = GeminiBaseURL
		}
		return openai.NewModel(func(o *openai.Options) {
			o.Model = spec.Model
			o.APIKey = spec.APIKey
			o.BaseURL = baseURL
			o.Temperature = spec.Temperature
			if spec.MaxTokens > 0 {
				o.MaxCompletionTokens = spec.MaxTokens
			}
		}), nil
	case Anthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(spec.Model)
			o.APIKey = spec.APIKey
			o.Temperature = spec.Temperature
			if spec.MaxTokens > 0 {
				o.MaxTokens = spec.MaxTokens
			}
		}), nil
	case Mock:
		return model.NewMockModel(spec.Model), nil
	default:
		return nil, fmt.Errorf("provider: unknown provider %q", spec.Provider)
	}
}
