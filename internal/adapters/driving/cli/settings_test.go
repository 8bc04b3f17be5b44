package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	s := newFakeServices()
	s.settings.settings.LLM.Provider = domain.AIProviderAnthropic
	s.settings.settings.LLM.APIKey = "sk-ant-1234567890"

	out, err := execute(t, s, "", "settings")
	require.NoError(t, err)

	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "Provider: Anthropic")
	assert.Contains(t, out, "API Key: sk-a...7890")
	assert.NotContains(t, out, "sk-ant-1234567890")
	assert.Contains(t, out, "[Runner]")
	assert.Contains(t, out, "[Cache]")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_InvalidWarns(t *testing.T) {
	s := newFakeServices()
	s.settings.validateErr = errors.New("llm.api_key is required")

	out, err := execute(t, s, "", "settings", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Warning: llm.api_key is required")
	assert.NotContains(t, out, "Configuration is valid.")
}

func TestSettingsSet(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"plain value", "runner.workers", "8", "Set runner.workers = 8"},
		{"api key masked", "llm.api_key", "sk-ant-1234567890", "Set llm.api_key = sk-a...7890"},
		{"password masked", "cache.redis_password", "hunter2", "Set cache.redis_password = ****"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeServices()

			out, err := execute(t, s, "", "settings", "set", tt.key, tt.value)
			require.NoError(t, err)

			assert.Contains(t, out, tt.want)
			assert.Equal(t, tt.value, s.settings.set[tt.key])
		})
	}
}

func TestSettingsSet_Error(t *testing.T) {
	s := newFakeServices()
	s.settings.setErr = domain.ErrInvalidInput

	_, err := execute(t, s, "", "settings", "set", "nope", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsKeys(t *testing.T) {
	out, err := execute(t, newFakeServices(), "", "settings", "keys")
	require.NoError(t, err)
	assert.Equal(t, "llm.model\nllm.provider\nrunner.workers\n", out)
}

func TestSettingsLLM_Interactive(t *testing.T) {
	s := newFakeServices()

	out, err := execute(t, s, "2\n\nsk-ant-1234567890\n", "settings", "llm")
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderAnthropic, s.settings.settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], s.settings.settings.LLM.Model)
	assert.Equal(t, "sk-ant-1234567890", s.settings.settings.LLM.APIKey)
	assert.Contains(t, out, "llm provider configured: Anthropic")
}

func TestSettingsLLM_DefaultsWithoutKey(t *testing.T) {
	s := newFakeServices()

	_, err := execute(t, s, "1\ngpt-test\n", "settings", "llm")
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOpenAI, s.settings.settings.LLM.Provider)
	assert.Equal(t, "gpt-test", s.settings.settings.LLM.Model)
	_, setKey := s.settings.set["llm.api_key"]
	assert.False(t, setKey, "openai-compatible providers are not asked for a key")
}
