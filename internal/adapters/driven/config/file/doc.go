// Package file provides file-based implementations of driven port interfaces.
// These adapters read and persist data on the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based settings storage
//   - PromptStore: user-editable prompt templates with embedded defaults
//   - LoadAgents: JSON or YAML agents configuration, validated on load
//   - LoadEnv: .env secrets read without touching the process environment
package file
