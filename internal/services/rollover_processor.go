// Package services runs ledger maintenance across all users.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mizan/internal/ledger"
	"mizan/internal/log"
	"mizan/internal/store"
)

// RolloverProcessor resets paid obligations once their period has passed,
// for every profile in the store.
type RolloverProcessor struct {
	store     store.EntityStore
	publisher ledger.EventPublisher
	location  *time.Location
	logger    *log.Logger
}

func NewRolloverProcessor(st store.EntityStore, publisher ledger.EventPublisher, loc *time.Location) *RolloverProcessor {
	return &RolloverProcessor{
		store:     st,
		publisher: publisher,
		location:  loc,
		logger:    log.Default(log.ComponentRollover),
	}
}

type RolloverResult struct {
	Profiles int
	Reset    int
	Failed   int
}

// ProcessAll rolls over the obligations of every profile as of now. A
// failing profile is logged and skipped.
func (p *RolloverProcessor) ProcessAll(ctx context.Context, now time.Time) (RolloverResult, error) {
	var res RolloverResult
	if p.store == nil {
		return res, errors.New("processor not properly initialized")
	}

	profiles, err := p.store.ListProfiles(ctx)
	if err != nil {
		return res, fmt.Errorf("list profiles: %w", err)
	}
	res.Profiles = len(profiles)

	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := p.ProcessUser(ctx, profile.UID, now)
		if err != nil {
			p.logger.ErrorContext(ctx, "Rollover failed",
				log.FieldUserID, profile.UID, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Reset += n
	}

	p.logger.InfoContext(ctx, "Obligation rollover complete",
		"profiles", res.Profiles,
		"reset", res.Reset,
		"failed", res.Failed,
		"processing_date", now.Format("2006-01-02"))
	return res, nil
}

// ProcessUser rolls over one user's obligations.
func (p *RolloverProcessor) ProcessUser(ctx context.Context, uid string, now time.Time) (int, error) {
	s, err := ledger.Open(ctx, uid, ledger.Options{
		Store:     p.store,
		Publisher: p.publisher,
		Logger:    p.logger,
		Location:  p.location,
		Clock:     func() time.Time { return now },
	})
	if err != nil {
		return 0, fmt.Errorf("open session: %w", err)
	}
	return s.RollOverObligations(ctx)
}
