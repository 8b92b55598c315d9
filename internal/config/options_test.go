package config

import (
	"strings"
	"testing"
)

func TestResolve_Precedence(t *testing.T) {
	opts := TranscribeOptions()
	flags := map[string]string{
		OptionIn:     "a.wav",
		OptionRegion: "eastus",
		OptionKey:    "flag-key",
	}
	env := map[string]string{
		OptionKey:      "env-key",
		OptionLanguage: "ja-JP",
	}

	values, err := Resolve(opts, flags, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values[OptionKey] != "flag-key" {
		t.Fatalf("flag should win over env, got %q", values[OptionKey])
	}
	if values[OptionLanguage] != "ja-JP" {
		t.Fatalf("env should win over default, got %q", values[OptionLanguage])
	}
	if values[OptionRegion] != "eastus" {
		t.Fatalf("unexpected region: %q", values[OptionRegion])
	}
	if values[OptionOut] != DefaultOutputFile {
		t.Fatalf("unexpected default out: %q", values[OptionOut])
	}
	if values[OptionBackend] != BackendAzure {
		t.Fatalf("unexpected default backend: %q", values[OptionBackend])
	}
	if values[OptionInterim] != "false" {
		t.Fatalf("unexpected default interim: %q", values[OptionInterim])
	}
}

func TestResolve_KeyFallsBackToEnv(t *testing.T) {
	values, err := Resolve(RecognizeOptions(), map[string]string{OptionIn: "a.wav"}, map[string]string{OptionKey: "env-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values[OptionKey] != "env-key" {
		t.Fatalf("expected env key, got %q", values[OptionKey])
	}
}

func TestResolve_MissingRequired(t *testing.T) {
	_, err := Resolve(TranscribeOptions(), map[string]string{}, map[string]string{})
	if err == nil {
		t.Fatal("expected error for missing --in")
	}
	if !strings.Contains(err.Error(), "--in/-i") {
		t.Fatalf("error should name the missing option: %v", err)
	}
}

func TestRecognizeOptions_HaveNoOutput(t *testing.T) {
	for _, o := range RecognizeOptions() {
		if o.Long == OptionOut || o.Long == OptionInterim {
			t.Fatalf("single-shot command should not expose --%s", o.Long)
		}
	}
}

func TestOptions_ShortNamesUnique(t *testing.T) {
	seen := map[string]string{}
	for _, o := range TranscribeOptions() {
		if prev, ok := seen[o.Short]; ok {
			t.Fatalf("short name -%s used by both --%s and --%s", o.Short, prev, o.Long)
		}
		seen[o.Short] = o.Long
	}
}
