package filter

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playdeck/internal/domain/track"
)

// VideoURLConfig represents the configuration for VideoURLFilter.
type VideoURLConfig struct {
	Hosts []string `yaml:"hosts" mapstructure:"hosts" default:"[\"youtube.com\",\"www.youtube.com\",\"m.youtube.com\",\"music.youtube.com\",\"youtu.be\"]" validate:"min=1,dive,hostname"`
}

// VideoURLFilter accepts only URLs on a known video host that carry a video ID.
type VideoURLFilter struct {
	config *VideoURLConfig
}

// NewVideoURLFilter creates a new video URL filter.
func NewVideoURLFilter() *VideoURLFilter {
	return &VideoURLFilter{}
}

func (f *VideoURLFilter) Name() string {
	return "video_url_filter"
}

func (f *VideoURLFilter) Description() string {
	return "Rejects tracks whose URL is not a playable video on an allowed host"
}

func (f *VideoURLFilter) ReturnCodes() []string {
	return []string{"invalid_video_url"}
}

func (f *VideoURLFilter) ValidateConfig(settings map[string]any) error {
	var config VideoURLConfig

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

	for i, h := range config.Hosts {
		config.Hosts[i] = strings.ToLower(h)
	}
	f.config = &config
	zlog.Info().Msgf("video url filter config: %+v", config)
	return nil
}

func (f *VideoURLFilter) Check(ctx context.Context, req Request, existing []track.Track) Result {
	if _, ok := track.VideoIDFromURL(req.Track.URL); !ok {
		return Reject("invalid_video_url")
	}
	if f.config == nil {
		return Accept()
	}

	u, err := url.Parse(req.Track.URL)
	if err != nil || !slices.Contains(f.config.Hosts, strings.ToLower(u.Hostname())) {
		return Reject("invalid_video_url")
	}
	return Accept()
}

func init() {
	Register("video_url_filter", func() Filter {
		return &VideoURLFilter{}
	})
}
