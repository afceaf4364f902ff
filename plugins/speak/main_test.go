package main

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestTextFor(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    string
		wantErr bool
	}{
		{name: "say", req: Request{Action: "say", Text: " Hola "}, want: "Hola"},
		{name: "sequence", req: Request{Action: "say-sequence", Text: "2", Sequence: "Hola2"}, want: "Hola2"},
		{name: "empty text", req: Request{Action: "say", Sign: "fist"}, wantErr: true},
		{name: "unknown action", req: Request{Action: "shout", Text: "Hola"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := textFor(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("textFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("textFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpeechCommand(t *testing.T) {
	found := func(names ...string) func(string) (string, error) {
		return func(name string) (string, error) {
			if slices.Contains(names, name) {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		}
	}

	tests := []struct {
		name     string
		goos     string
		lookPath func(string) (string, error)
		cfg      speakConfig
		wantName string
		wantArgs []string
		wantErr  error
	}{
		{
			name:     "macOS with voice and rate",
			goos:     "darwin",
			lookPath: found(),
			cfg:      speakConfig{Voice: "Paulina", Rate: 180},
			wantName: "say",
			wantArgs: []string{"-v", "Paulina", "-r", "180", "--", "Hola"},
		},
		{
			name:     "linux prefers espeak-ng",
			goos:     "linux",
			lookPath: found("espeak", "espeak-ng"),
			cfg:      speakConfig{Voice: "es"},
			wantName: "espeak-ng",
			wantArgs: []string{"-v", "es", "--", "Hola"},
		},
		{
			name:     "linux falls back to espeak",
			goos:     "linux",
			lookPath: found("espeak"),
			cfg:      speakConfig{Rate: 150},
			wantName: "espeak",
			wantArgs: []string{"-s", "150", "--", "Hola"},
		},
		{
			name:     "linux without engine",
			goos:     "linux",
			lookPath: found(),
			wantErr:  errNoEngine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := speechCommand(tt.goos, tt.lookPath, "Hola", tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("speechCommand() error = %v, want %v", err, tt.wantErr)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if !slices.Equal(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestSpeechCommand_TextNotParsedAsFlag(t *testing.T) {
	lookPath := func(string) (string, error) { return "/usr/bin/espeak", nil }
	for _, goos := range []string{"darwin", "linux"} {
		t.Run(goos, func(t *testing.T) {
			_, args, err := speechCommand(goos, lookPath, "-v", speakConfig{})
			if err != nil {
				t.Fatalf("speechCommand() error = %v", err)
			}
			if want := []string{"--", "-v"}; !slices.Equal(args, want) {
				t.Errorf("args = %v, want %v", args, want)
			}
		})
	}
}

func TestSpeechCommand_WindowsQuoting(t *testing.T) {
	name, args, err := speechCommand("windows", nil, "it's", speakConfig{})
	if err != nil {
		t.Fatalf("speechCommand() error = %v", err)
	}
	if name != "powershell" {
		t.Errorf("name = %q, want powershell", name)
	}
	if script := args[len(args)-1]; !strings.Contains(script, "Speak('it''s')") {
		t.Errorf("expected quoted text in script, got %q", script)
	}
}
