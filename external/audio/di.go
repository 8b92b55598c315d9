package audio

import (
	"github.com/foxseedlab/s2t/internal/audio"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.ProvideValue(injector, audio.SourceFactory(OpenWAV))
}
