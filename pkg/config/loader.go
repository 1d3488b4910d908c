package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/asaidimu/filterable/pkg/core"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalidOrKeyMode = errors.New("invalid or-key mode")

func Init() (*Settings, error) {
	cfg := &Settings{}

	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse configuration: %w", err)
	}

	if _, err := cfg.OrKeyMatcher(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// OrKeyMatcher returns the key matcher selected by Filter.OrKeyMode.
func (s *Settings) OrKeyMatcher() (core.KeyMatcher, error) {
	switch strings.ToLower(s.Filter.OrKeyMode) {
	case "", OrKeyModeExact:
		return core.ExactOrKey, nil
	case OrKeyModeContains:
		return core.ContainsOrKey, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrKeyMode, s.Filter.OrKeyMode)
	}
}
