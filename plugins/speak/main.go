// Package main provides a text-to-speech plugin. It speaks the text bound to
// a confirmed sign using the platform speech engine: say on macOS, espeak-ng
// or espeak on Linux, and System.Speech through PowerShell on Windows.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Request is the input from the plugin executor.
type Request struct {
	Action     string          `json:"action"`
	Sign       string          `json:"sign"`
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Sequence   string          `json:"sequence,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type speakConfig struct {
	Voice string `json:"voice"`
	Rate  int    `json:"rate"`
}

var errNoEngine = errors.New("no speech engine found")

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	text, err := textFor(req)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	var cfg speakConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("invalid config: %v", err)})
			return
		}
	}

	name, args, err := speechCommand(runtime.GOOS, exec.LookPath, text, cfg)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("%s failed: %v: %s", name, err, strings.TrimSpace(string(out)))})
		return
	}

	data, _ := json.Marshal(map[string]string{"spoken": text, "engine": name})
	writeResponse(Response{Success: true, Data: data})
}

// textFor picks what to speak for the requested action.
func textFor(req Request) (string, error) {
	var text string
	switch req.Action {
	case "say":
		text = req.Text
	case "say-sequence":
		text = req.Sequence
	default:
		return "", fmt.Errorf("unknown action: %s", req.Action)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("nothing to say for sign %q", req.Sign)
	}
	return text, nil
}

// speechCommand builds the engine invocation for goos.
func speechCommand(goos string, lookPath func(string) (string, error), text string, cfg speakConfig) (string, []string, error) {
	switch goos {
	case "darwin":
		args := []string{}
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		if cfg.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(cfg.Rate))
		}
		return "say", append(args, "--", text), nil

	case "windows":
		script := "Add-Type -AssemblyName System.Speech; " +
			"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; "
		if cfg.Voice != "" {
			script += "$s.SelectVoice('" + psQuote(cfg.Voice) + "'); "
		}
		script += "$s.Speak('" + psQuote(text) + "')"
		return "powershell", []string{"-NoProfile", "-Command", script}, nil
	}

	for _, engine := range []string{"espeak-ng", "espeak"} {
		if _, err := lookPath(engine); err != nil {
			continue
		}
		args := []string{}
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		if cfg.Rate > 0 {
			args = append(args, "-s", strconv.Itoa(cfg.Rate))
		}
		return engine, append(args, "--", text), nil
	}
	return "", nil, errNoEngine
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
