// Package service implements the admin operations over the corpus and engine
package service

import (
	"context"
	"strings"
	"time"

	"scamwatch/internal/core/corpus"
	"scamwatch/internal/core/signature"
	perr "scamwatch/internal/platform/errors"
	"scamwatch/internal/platform/logger"
	"scamwatch/internal/services/admin/domain"
)

// Service is the admin port surface
type Service interface {
	Domains(ctx context.Context) domain.DomainList
	AddDomain(ctx context.Context, host string) error
	RemoveDomain(ctx context.Context, host string) error
	AddMessage(ctx context.Context, in domain.MessageInput) error
	Analyze(ctx context.Context, text string) (domain.AnalyzeResult, error)
	Status(ctx context.Context) domain.Status
}

type service struct {
	name    string
	started time.Time
	store   *corpus.Store
	engine  *signature.Engine
	log     logger.Logger
}

// New wires the admin service over shared corpus and engine handles
func New(name string, store *corpus.Store, engine *signature.Engine) Service {
	return &service{
		name:    name,
		started: time.Now().UTC(),
		store:   store,
		engine:  engine,
		log:     *logger.Named("admin"),
	}
}

func (s *service) Domains(context.Context) domain.DomainList {
	ds := s.store.Domains()
	return domain.DomainList{Domains: ds, Count: len(ds)}
}

func (s *service) AddDomain(ctx context.Context, host string) error {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return perr.InvalidArgf("host must not be blank")
	}
	if !s.store.AddDomain(host) {
		return perr.Conflictf("domain %q is already listed", host)
	}
	if err := s.store.Save(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "persist corpus")
	}
	s.log.Info().Str("host", host).Msg("denylist domain added")
	return nil
}

func (s *service) RemoveDomain(ctx context.Context, host string) error {
	host = strings.ToLower(strings.TrimSpace(host))
	if !s.store.RemoveDomain(host) {
		return perr.NotFoundf("domain %q is not listed", host)
	}
	if err := s.store.Save(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "persist corpus")
	}
	s.log.Info().Str("host", host).Msg("denylist domain removed")
	return nil
}

func (s *service) AddMessage(ctx context.Context, in domain.MessageInput) error {
	s.store.AddMessage(corpus.Entry{
		Text:     in.Text,
		Category: in.Category,
		Flags:    in.Flags,
	})
	if err := s.store.Save(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "persist corpus")
	}
	// new reference text must be re-embedded before it can match
	s.engine.Reload()
	s.log.Info().Str("category", in.Category).Msg("corpus message added")
	return nil
}

func (s *service) Analyze(ctx context.Context, text string) (domain.AnalyzeResult, error) {
	v, err := s.engine.Analyze(ctx, text)
	if err != nil {
		return domain.AnalyzeResult{}, err
	}
	return domain.AnalyzeResult{Verdict: v, Flagged: v.Flagged(s.engine.Config())}, nil
}

func (s *service) Status(context.Context) domain.Status {
	return domain.Status{
		OK:       true,
		Service:  s.name,
		Started:  s.started.Format(time.RFC3339),
		Uptime:   int64(time.Since(s.started) / time.Second),
		Messages: len(s.store.Messages()),
		Domains:  len(s.store.Domains()),
	}
}
