package http

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"mizan/internal/cache"
	"mizan/internal/cycle"
	"mizan/internal/ledger"
	"mizan/internal/log"
	"mizan/internal/store"
)

// Identity is the caller as asserted by the fronting auth proxy.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// SessionConfig configures a SessionProvider.
type SessionConfig struct {
	Store           store.EntityStore
	Publisher       ledger.EventPublisher
	Location        *time.Location
	Clock           cycle.Clock
	DefaultStartDay int
	CacheSize       int
	TTL             time.Duration
	Logger          *log.Logger
}

// SessionProvider hands out one ledger session per user, creating the
// profile on first sight. A session is dropped TTL after it was opened,
// however often it is used, so state written by other processes is picked
// up on the next open.
type SessionProvider struct {
	cfg    SessionConfig
	cache  *cache.LRUCache[*ledger.Session]
	group  singleflight.Group
	logger *log.Logger
}

func NewSessionProvider(cfg SessionConfig) *SessionProvider {
	if cfg.Logger == nil {
		cfg.Logger = log.Default(log.ComponentHTTP)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	p := &SessionProvider{cfg: cfg, logger: cfg.Logger}
	p.cache = cache.NewLRUCache(cfg.CacheSize, cfg.TTL,
		cache.WithEvictHook(func(uid string, _ *ledger.Session) {
			p.logger.Debug("Ledger session evicted", log.FieldUserID, uid)
		}))
	return p
}

// Session returns the cached session for id, opening it when needed.
// Concurrent first requests for one user share a single open.
func (p *SessionProvider) Session(ctx context.Context, id Identity) (*ledger.Session, error) {
	if id.UID == "" {
		return nil, ledger.ErrNotAuthenticated
	}
	if s, ok := p.cache.Get(id.UID); ok {
		return s, nil
	}

	// The open outlives any single caller's cancellation.
	openCtx := context.WithoutCancel(ctx)
	v, err, _ := p.group.Do(id.UID, func() (any, error) {
		if s, ok := p.cache.Get(id.UID); ok {
			return s, nil
		}
		if _, err := ledger.EnsureProfile(openCtx, p.cfg.Store, ledger.NewProfile{
			UID:           id.UID,
			Email:         id.Email,
			DisplayName:   id.DisplayName,
			CycleStartDay: p.cfg.DefaultStartDay,
		}, p.now()); err != nil {
			return nil, err
		}
		s, err := ledger.Open(openCtx, id.UID, ledger.Options{
			Store:     p.cfg.Store,
			Publisher: p.cfg.Publisher,
			Logger:    log.Default(log.ComponentLedger),
			Location:  p.cfg.Location,
			Clock:     p.cfg.Clock,
		})
		if err != nil {
			return nil, err
		}
		p.cache.Set(id.UID, s)
		p.logger.DebugContext(openCtx, "Ledger session opened", log.FieldUserID, id.UID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ledger.Session), nil
}

// Invalidate drops the cached session for uid.
func (p *SessionProvider) Invalidate(uid string) {
	p.cache.Delete(uid)
}

// Cache exposes the session cache for periodic sweeping.
func (p *SessionProvider) Cache() cache.Cleaner {
	return p.cache
}

func (p *SessionProvider) now() time.Time {
	if p.cfg.Clock != nil {
		return p.cfg.Clock()
	}
	return time.Now()
}
