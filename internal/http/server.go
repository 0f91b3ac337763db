// Package http serves the ledger as a JSON API. The caller is identified
// by the X-User-ID header set by the fronting auth proxy.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"mizan/internal/cache"
	"mizan/internal/cycle"
	"mizan/internal/log"
	"mizan/internal/middleware/ratelimit"
	"mizan/internal/middleware/security"
	"mizan/internal/middleware/trace"
)

type Config struct {
	Addr     string
	Sessions *SessionProvider
	// Ready reports store health for /readyz. Nil means always ready.
	Ready              func(context.Context) error
	Location           *time.Location
	Clock              cycle.Clock
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server

	sessions *SessionProvider
	ready    func(context.Context) error
	location *time.Location
	clock    cycle.Clock
	logger   *log.Logger

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	stopBackground context.CancelFunc
	background     sync.WaitGroup
	shutdownOnce   sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default(log.ComponentHTTP)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	s := &Server{
		sessions: cfg.Sessions,
		ready:    cfg.Ready,
		location: cfg.Location,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		detector: security.NewDetector(cfg.Logger.WithComponent(log.ComponentSecurity)),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
	}
	s.tracer = trace.NewMiddleware(cfg.Logger.WithComponent(log.ComponentTrace), s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/profile", s.withSession(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile/cycle-start-day", s.withSession(s.handleSetCycleStartDay))
	mux.HandleFunc("GET /api/cycle", s.withSession(s.handleGetCycle))
	mux.HandleFunc("GET /api/summary", s.withSession(s.handleGetSummary))

	mux.HandleFunc("GET /api/transactions", s.withSession(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withSession(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSession(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/obligations", s.withSession(s.handleListObligations))
	mux.HandleFunc("POST /api/obligations", s.withSession(s.handleCreateObligation))
	mux.HandleFunc("POST /api/obligations/{id}/pay", s.withSession(s.handlePayObligation))
	mux.HandleFunc("DELETE /api/obligations/{id}", s.withSession(s.handleDeleteObligation))

	mux.HandleFunc("GET /api/goals", s.withSession(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.withSession(s.handleCreateGoal))
	mux.HandleFunc("POST /api/goals/{id}/deposit", s.withSession(s.handleDepositToGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.withSession(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/assets", s.withSession(s.handleListAssets))
	mux.HandleFunc("POST /api/assets", s.withSession(s.handleCreateAsset))
	mux.HandleFunc("PATCH /api/assets/{id}", s.withSession(s.handleUpdateAsset))
	mux.HandleFunc("DELETE /api/assets/{id}", s.withSession(s.handleDeleteAsset))

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	s.background.Add(2)
	go func() {
		defer s.background.Done()
		s.limiter.Run(ctx)
	}()
	go func() {
		defer s.background.Done()
		cache.NewJanitor(cfg.Logger.WithComponent(log.ComponentCache), s.sessions.Cache()).Run(ctx, time.Minute)
	}()

	return s
}

// Shutdown stops background sweeps and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		s.background.Wait()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorJSON{Error: "rate_limited", Message: "طلبات كثيرة، حاول لاحقاً"})
}

func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}

// shift moves c by offset cycles.
func shift(c cycle.Cycle, offset int) cycle.Cycle {
	for ; offset > 0; offset-- {
		c = c.Next()
	}
	for ; offset < 0; offset++ {
		c = c.Prev()
	}
	return c
}
