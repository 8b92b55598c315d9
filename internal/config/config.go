package config

import (
	"fmt"
	"os"
)

const (
	BackendAzure  = "azure"
	BackendGoogle = "google"
)

type Config struct {
	Env                        string
	Backend                    string
	APIKey                     string
	Region                     string
	Language                   string
	InputFile                  string
	OutputFile                 string
	ShowInterim                bool
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	TranscriptWebhookURL       string
}

func (c *Config) Validate() error {
	if c.Backend != BackendAzure && c.Backend != BackendGoogle {
		return fmt.Errorf("--backend must be %q or %q, got %q", BackendAzure, BackendGoogle, c.Backend)
	}
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if err := checkReadableFile(c.InputFile); err != nil {
		return fmt.Errorf("--in is invalid: %w", err)
	}
	return nil
}

type requiredField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredField {
	checks := []requiredField{
		{name: "--in", value: c.InputFile},
		{name: "--language", value: c.Language},
	}
	switch c.Backend {
	case BackendAzure:
		checks = append(checks,
			requiredField{name: "--key (or AZURE_COG_SVCS_API_KEY)", value: c.APIKey},
			requiredField{name: "--region", value: c.Region},
		)
	case BackendGoogle:
		checks = append(checks,
			requiredField{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
			requiredField{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
			requiredField{name: "GOOGLE_CLOUD_SPEECH_LOCATION", value: c.GoogleCloudSpeechLocation},
		)
	}
	return checks
}

func checkReadableFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
