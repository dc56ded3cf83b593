package cmd

import (
	"fmt"

	"github.com/rubiojr/hnsearch/pkg/algolia"
	"github.com/rubiojr/hnsearch/pkg/api"
	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/metrics"
	"github.com/rubiojr/hnsearch/pkg/session"
)

// newClient builds the search client described by cfg
func newClient(cfg *config.Config, m *metrics.Metrics) (*algolia.Client, error) {
	client, err := algolia.NewClient(algolia.Config{
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.RequestTimeout.Duration,
		Metrics:  m,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}
	return client, nil
}

// sessionOptions maps the config onto session options for the given id
func sessionOptions(cfg *config.Config, id string, m *metrics.Metrics) (session.Options, error) {
	policy, err := session.ParseStalePolicy(cfg.StaleResponses)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		ID:           id,
		DefaultQuery: cfg.DefaultQuery,
		HitsPerPage:  cfg.HitsPerPage,
		StalePolicy:  policy,
		Metrics:      m,
	}, nil
}

// newSession creates a standalone session for the CLI commands
func newSession(cfg *config.Config, id string) (*session.Session, error) {
	client, err := newClient(cfg, nil)
	if err != nil {
		return nil, err
	}
	opts, err := sessionOptions(cfg, id, nil)
	if err != nil {
		return nil, err
	}
	return session.New(client, opts), nil
}

// newSessionFactory returns a factory producing sessions that share one
// client and metrics set
func newSessionFactory(cfg *config.Config, m *metrics.Metrics) (api.SessionFactory, error) {
	client, err := newClient(cfg, m)
	if err != nil {
		return nil, err
	}
	// Validate once so the factory itself cannot fail.
	if _, err := sessionOptions(cfg, "", m); err != nil {
		return nil, err
	}
	return func(id string) *session.Session {
		opts, _ := sessionOptions(cfg, id, m)
		return session.New(client, opts)
	}, nil
}
