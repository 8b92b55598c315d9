package config

import (
	"fmt"
	"strings"
)

const (
	OptionKey      = "key"
	OptionIn       = "in"
	OptionOut      = "out"
	OptionRegion   = "region"
	OptionLanguage = "language"
	OptionBackend  = "backend"
	OptionInterim  = "interim"

	DefaultOutputFile = "out.txt"
	DefaultRegion     = "westus2"
	DefaultLanguage   = "en-US"
	DefaultBackend    = BackendAzure

	APIKeyEnv   = "AZURE_COG_SVCS_API_KEY"
	LanguageEnv = "S2T_LANGUAGE"
	BackendEnv  = "S2T_BACKEND"
)

// Option describes one command-line option. Commands register their flags
// from these values and Resolve applies them.
type Option struct {
	Long     string
	Short    string
	Usage    string
	Default  string
	Env      string
	Required bool
	Bool     bool
}

func (o Option) display() string {
	if o.Short == "" {
		return "--" + o.Long
	}
	return fmt.Sprintf("--%s/-%s", o.Long, o.Short)
}

func commonOptions() []Option {
	return []Option{
		{Long: OptionKey, Short: "k", Usage: "Azure Cognitive Services API key.", Env: APIKeyEnv},
		{Long: OptionIn, Short: "i", Usage: "Input file (.wav).", Required: true},
		{Long: OptionRegion, Short: "r", Usage: "Azure region.", Default: DefaultRegion},
		{Long: OptionLanguage, Short: "l", Usage: "Recognition language.", Default: DefaultLanguage, Env: LanguageEnv},
		{Long: OptionBackend, Short: "b", Usage: "Speech backend (azure or google).", Default: DefaultBackend, Env: BackendEnv},
	}
}

// TranscribeOptions are the options of the continuous transcription command.
func TranscribeOptions() []Option {
	return append(commonOptions(),
		Option{Long: OptionOut, Short: "o", Usage: "Output file (.txt).", Default: DefaultOutputFile},
		Option{Long: OptionInterim, Short: "p", Usage: "Show interim results in place on the terminal.", Default: "false", Bool: true},
	)
}

// RecognizeOptions are the options of the single-shot command.
func RecognizeOptions() []Option {
	return commonOptions()
}

// Resolve picks the value of every option: an explicitly set flag wins over
// the environment, which wins over the default. Missing required options are
// reported together.
func Resolve(opts []Option, flags map[string]string, env map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(opts))
	var missing []string
	for _, o := range opts {
		v, ok := flags[o.Long]
		if !ok || v == "" {
			v = env[o.Long]
		}
		if v == "" {
			v = o.Default
		}
		if v == "" && o.Required {
			missing = append(missing, o.display())
			continue
		}
		values[o.Long] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required option(s) missing: %s", strings.Join(missing, ", "))
	}
	return values, nil
}
