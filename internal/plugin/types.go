// Package plugin discovers external action plugins and runs them when a sign
// is confirmed. A plugin is a directory holding a plugin.json manifest and an
// executable that reads one Request as JSON on stdin and writes one Response
// as JSON on stdout.
package plugin

import (
	"encoding/json"
	"slices"
)

// Manifest describes a plugin and the actions it offers.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is sent to a plugin for one confirmed sign.
type Request struct {
	Action     string          `json:"action"`
	Sign       string          `json:"sign"`
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Sequence   string          `json:"sequence,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Response is what a plugin writes back.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action.
func (p *Plugin) Supports(action string) bool {
	return slices.Contains(p.Manifest.Actions, action)
}
