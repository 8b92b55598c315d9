package session

import (
	"github.com/foxseedlab/s2t/internal/audio"
	"github.com/foxseedlab/s2t/internal/transcriber"
	"github.com/foxseedlab/s2t/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Session, error) {
		stt := do.MustInvoke[transcriber.Transcriber](i)
		openAudio := do.MustInvoke[audio.SourceFactory](i)
		console := do.MustInvoke[*Console](i)
		wh := do.MustInvoke[webhook.Sender](i)
		return NewSession(stt, openAudio, console, wh), nil
	})
}
