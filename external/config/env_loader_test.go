package config

import (
	"os"
	"path/filepath"
	"testing"

	internalconfig "github.com/foxseedlab/s2t/internal/config"
)

func TestLoad_FlagsAndEnv(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	if err := os.WriteFile(in, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	t.Setenv("AZURE_COG_SVCS_API_KEY", "env-key")
	t.Setenv("ENV", "development")
	t.Setenv("TRANSCRIPT_WEBHOOK_URL", "http://example.invalid/hook")

	cfg, err := Load(internalconfig.TranscribeOptions(), map[string]string{
		internalconfig.OptionIn:      in,
		internalconfig.OptionOut:     filepath.Join(dir, "result.txt"),
		internalconfig.OptionInterim: "true",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Fatalf("expected key from env, got %q", cfg.APIKey)
	}
	if cfg.Region != internalconfig.DefaultRegion {
		t.Fatalf("unexpected region: %q", cfg.Region)
	}
	if !cfg.ShowInterim {
		t.Fatal("expected interim display enabled")
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development env")
	}
	if cfg.OutputFile != filepath.Join(dir, "result.txt") {
		t.Fatalf("unexpected output file: %q", cfg.OutputFile)
	}
	if cfg.TranscriptWebhookURL != "http://example.invalid/hook" {
		t.Fatalf("unexpected webhook url: %q", cfg.TranscriptWebhookURL)
	}
	if cfg.GoogleCloudSpeechLocation != "global" {
		t.Fatalf("unexpected google location default: %q", cfg.GoogleCloudSpeechLocation)
	}
}

func TestLoad_DefaultOutputIsInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	if err := os.WriteFile(in, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("AZURE_COG_SVCS_API_KEY", "env-key")

	cfg, err := Load(internalconfig.TranscribeOptions(), map[string]string{internalconfig.OptionIn: in})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if cfg.OutputFile != filepath.Join(wd, "out.txt") {
		t.Fatalf("unexpected default output file: %q", cfg.OutputFile)
	}
}

func TestLoad_MissingKey(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	if err := os.WriteFile(in, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	t.Setenv("AZURE_COG_SVCS_API_KEY", "")

	if _, err := Load(internalconfig.RecognizeOptions(), map[string]string{internalconfig.OptionIn: in}); err == nil {
		t.Fatal("expected error when no api key is available")
	}
}

func TestLoad_MissingInput(t *testing.T) {
	t.Setenv("AZURE_COG_SVCS_API_KEY", "env-key")
	if _, err := Load(internalconfig.TranscribeOptions(), map[string]string{}); err == nil {
		t.Fatal("expected error when --in is missing")
	}
}

func TestLoadEnv_Development(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development environment, got %q", cfg.Env)
	}
}

func TestOptionValues_EveryOptionEnvIsLoaded(t *testing.T) {
	for name, opts := range map[string][]internalconfig.Option{
		"transcribe": internalconfig.TranscribeOptions(),
		"recognize":  internalconfig.RecognizeOptions(),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := (envConfig{}).optionValues(opts); err != nil {
				t.Fatalf("option bound to an environment variable that is not loaded: %v", err)
			}
		})
	}
}

func TestOptionValues_FollowsSchemaEnvNames(t *testing.T) {
	raw := envConfig{APIKey: "env-key", Language: "ja-JP", Backend: "google"}
	values, err := raw.optionValues(internalconfig.TranscribeOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values[internalconfig.OptionKey] != "env-key" {
		t.Fatalf("unexpected key: %q", values[internalconfig.OptionKey])
	}
	if values[internalconfig.OptionLanguage] != "ja-JP" {
		t.Fatalf("unexpected language: %q", values[internalconfig.OptionLanguage])
	}
	if values[internalconfig.OptionBackend] != "google" {
		t.Fatalf("unexpected backend: %q", values[internalconfig.OptionBackend])
	}
	if _, ok := values[internalconfig.OptionRegion]; ok {
		t.Fatal("region has no environment variable")
	}
}

func TestOptionValues_UnknownEnv(t *testing.T) {
	opts := []internalconfig.Option{{Long: "region", Env: "S2T_REGION"}}
	if _, err := (envConfig{}).optionValues(opts); err == nil {
		t.Fatal("expected error for an option bound to an unloaded variable")
	}
}
