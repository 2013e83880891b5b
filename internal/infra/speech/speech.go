// Package speech provides best-effort spoken announcements. Speech is the
// device's only immediate feedback channel toward the caregiver, but it is
// strictly fire-and-forget: a missing or broken TTS engine never affects the
// operation being announced.
package speech

import (
	"os/exec"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/gimelg/accessible-soundbox/internal/infra/config"
)

// Speaker speaks a message aloud, best effort.
type Speaker interface {
	Say(msg string)
}

// Blocking is implemented by speakers that can wait for an announcement to
// finish. Used by the CLI, which would otherwise exit before the audio plays.
type Blocking interface {
	SaySync(msg string) error
}

// EspeakSettings configures the espeak-ng speaker. Decoded from the
// free-form settings map in the speech config section.
type EspeakSettings struct {
	Binary string   `mapstructure:"binary"`
	Voice  string   `mapstructure:"voice"`
	Speed  int      `mapstructure:"speed"`
	Args   []string `mapstructure:"args"`
}

// NewFromConfig builds a speaker from configuration.
func NewFromConfig(cfg config.SpeechConfig) (Speaker, error) {
	if cfg.Disabled {
		return NopSpeaker{}, nil
	}

	switch cfg.Type {
	case "espeak", "":
		var settings EspeakSettings
		if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid espeak settings")
		}
		if settings.Binary == "" {
			settings.Binary = "espeak-ng"
		}
		return &EspeakSpeaker{settings: settings}, nil
	case "none":
		return NopSpeaker{}, nil
	default:
		return nil, errors.Newf("unknown speech type %q", cfg.Type)
	}
}

// EspeakSpeaker speaks through espeak-ng.
type EspeakSpeaker struct {
	settings EspeakSettings
}

// Say implements Speaker. The invocation runs in its own goroutine; failures
// are logged at debug level and otherwise swallowed.
func (s *EspeakSpeaker) Say(msg string) {
	go func() {
		if err := s.SaySync(msg); err != nil {
			zlog.Debug().Err(err).Str("message", msg).Msg("speech: announcement failed")
		}
	}()
}

// SaySync implements Blocking: it returns once espeak has finished speaking.
func (s *EspeakSpeaker) SaySync(msg string) error {
	args := make([]string, 0, len(s.settings.Args)+5)
	if s.settings.Voice != "" {
		args = append(args, "-v", s.settings.Voice)
	}
	if s.settings.Speed > 0 {
		args = append(args, "-s", strconv.Itoa(s.settings.Speed))
	}
	args = append(args, s.settings.Args...)
	args = append(args, msg)

	if err := exec.Command(s.settings.Binary, args...).Run(); err != nil {
		return errors.Wrapf(err, "%s failed", s.settings.Binary)
	}
	return nil
}

// NopSpeaker silently discards announcements.
type NopSpeaker struct{}

// Say implements Speaker.
func (NopSpeaker) Say(msg string) {}

// SaySync implements Blocking.
func (NopSpeaker) SaySync(msg string) error { return nil }
