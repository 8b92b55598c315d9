package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/s2t/internal/config"
)

type envConfig struct {
	Env                        string `env:"ENV" envDefault:"production"`
	APIKey                     string `env:"AZURE_COG_SVCS_API_KEY"`
	Backend                    string `env:"S2T_BACKEND"`
	Language                   string `env:"S2T_LANGUAGE"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`
	TranscriptWebhookURL       string `env:"TRANSCRIPT_WEBHOOK_URL"`
}

// byEnvName returns the string fields of e keyed by their env tag.
func (e envConfig) byEnvName() map[string]string {
	v := reflect.ValueOf(e)
	typ := v.Type()
	vars := make(map[string]string, typ.NumField())
	for i := range typ.NumField() {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("env"), ",")
		if name == "" || typ.Field(i).Type.Kind() != reflect.String {
			continue
		}
		vars[name] = v.Field(i).String()
	}
	return vars
}

// optionValues picks the environment value of every option bound to an
// environment variable, keyed by option name.
func (e envConfig) optionValues(opts []internalconfig.Option) (map[string]string, error) {
	vars := e.byEnvName()
	values := make(map[string]string, len(opts))
	for _, o := range opts {
		if o.Env == "" {
			continue
		}
		v, ok := vars[o.Env]
		if !ok {
			return nil, fmt.Errorf("option --%s is bound to unknown environment variable %s", o.Long, o.Env)
		}
		values[o.Long] = v
	}
	return values, nil
}

// LoadEnv reads only the runtime environment, before the command line is
// parsed. main uses it to configure logging.
func LoadEnv() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}
	return &internalconfig.Config{Env: raw.Env}, nil
}

// Load merges the command-line flags that were set with the environment and
// the option defaults, then validates the result.
func Load(opts []internalconfig.Option, flags map[string]string) (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}

	envValues, err := raw.optionValues(opts)
	if err != nil {
		return nil, err
	}
	values, err := internalconfig.Resolve(opts, flags, envValues)
	if err != nil {
		return nil, err
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		Backend:                    values[internalconfig.OptionBackend],
		APIKey:                     values[internalconfig.OptionKey],
		Region:                     values[internalconfig.OptionRegion],
		Language:                   values[internalconfig.OptionLanguage],
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
	}
	if cfg.InputFile, err = absPath(values[internalconfig.OptionIn]); err != nil {
		return nil, err
	}
	if out, ok := values[internalconfig.OptionOut]; ok {
		if cfg.OutputFile, err = absPath(out); err != nil {
			return nil, err
		}
	}
	if v, ok := values[internalconfig.OptionInterim]; ok {
		if cfg.ShowInterim, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("--interim is invalid: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", p, err)
	}
	return abs, nil
}
