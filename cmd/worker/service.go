package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

// consumer is a long-running subscription loop.
type consumer interface {
	Run(ctx context.Context) error
}

type dependency struct {
	name string
	dep  pinger
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies []dependency
	Consumers    map[string]consumer
}

// Service runs the notification consumers side by side. The first consumer to
// fail stops the others.
type Service struct {
	logg      *logger.Logger
	deps      []dependency
	consumers map[string]consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for name, c := range params.Consumers {
		if c == nil {
			return nil, fmt.Errorf("consumer %s is nil", name)
		}
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Dependencies,
		consumers: params.Consumers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, d := range s.deps {
		if err := d.dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", d.name), err)
			return fmt.Errorf("%s ping failed: %w", d.name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, c := range s.consumers {
		g.Go(func() error {
			logCtx := s.logg.WithField(gctx, "consumer", name)
			s.logg.Info(logCtx, "consumer started")
			if err := c.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(logCtx, "consumer stopped unexpectedly", err)
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
