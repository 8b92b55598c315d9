package transcriber

import (
	"fmt"

	"github.com/foxseedlab/s2t/internal/config"
	"github.com/foxseedlab/s2t/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		switch c.Backend {
		case config.BackendAzure:
			return NewAzureSpeechTranscriber(AzureSpeechConfig{
				APIKey:   c.APIKey,
				Region:   c.Region,
				Language: c.Language,
			})
		case config.BackendGoogle:
			return NewCloudSpeechTranscriber(CloudSpeechConfig{
				ProjectID:       c.GoogleCloudProjectID,
				CredentialsJSON: c.GoogleCloudCredentialsJSON,
				Language:        c.Language,
				Location:        c.GoogleCloudSpeechLocation,
				Model:           c.GoogleCloudSpeechModel,
			}), nil
		default:
			return nil, fmt.Errorf("unsupported backend %q", c.Backend)
		}
	})
}
