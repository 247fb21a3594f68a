package filter

import (
	"context"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playdeck/internal/domain/track"
)

// TitleLengthConfig represents the configuration for TitleLengthFilter.
type TitleLengthConfig struct {
	MaxTitle  int `yaml:"max_title" mapstructure:"max_title" default:"200" validate:"gte=1"`
	MaxArtist int `yaml:"max_artist" mapstructure:"max_artist" default:"200" validate:"gte=1"`
}

// TitleLengthFilter limits the length of track titles and artist names.
type TitleLengthFilter struct {
	config *TitleLengthConfig
}

// NewTitleLengthFilter creates a new title length filter.
func NewTitleLengthFilter() *TitleLengthFilter {
	return &TitleLengthFilter{}
}

func (f *TitleLengthFilter) Name() string {
	return "title_length_filter"
}

func (f *TitleLengthFilter) Description() string {
	return "Rejects tracks whose title or artist name is too long"
}

func (f *TitleLengthFilter) ReturnCodes() []string {
	return []string{"title_too_long"}
}

func (f *TitleLengthFilter) ValidateConfig(settings map[string]any) error {
	var config TitleLengthConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &config,
		TagName: "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	f.config = &config
	zlog.Info().Msgf("title length filter config: %+v", config)
	return nil
}

func (f *TitleLengthFilter) Check(ctx context.Context, req Request, existing []track.Track) Result {
	// If config is not set, accept all tracks
	if f.config == nil {
		return Accept()
	}

	if utf8.RuneCountInString(req.Track.Title) > f.config.MaxTitle {
		return Reject("title_too_long")
	}
	if utf8.RuneCountInString(req.Track.Artist) > f.config.MaxArtist {
		return Reject("title_too_long")
	}
	return Accept()
}

func init() {
	Register("title_length_filter", func() Filter {
		return &TitleLengthFilter{}
	})
}
