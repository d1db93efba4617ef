package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/pos-admin/internal/app"
	"github.com/noah-isme/pos-admin/internal/catalog"
	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/dashboard"
	"github.com/noah-isme/pos-admin/internal/draft"
	"github.com/noah-isme/pos-admin/internal/health"
	"github.com/noah-isme/pos-admin/internal/lock"
	"github.com/noah-isme/pos-admin/internal/obs"
	"github.com/noah-isme/pos-admin/internal/order"
	"github.com/noah-isme/pos-admin/internal/ratelimit"
	"github.com/noah-isme/pos-admin/internal/sale"
	"github.com/noah-isme/pos-admin/internal/security"
)

type routerOptions struct {
	Tracing     bool
	HTTPMetrics *obs.HTTPMetrics
	Metrics     bool
	Pprof       bool
	PprofUser   string
	PprofPass   string
	BodyLimit   int64
}

func newRouter(deps *app.Dependencies, opts routerOptions) (http.Handler, error) {
	cfg := deps.Config
	logger := deps.Logger
	loc := cfg.Location()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store:  deps.Backend,
		Cache:  catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
		Events: deps.Events,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	draftService, err := draft.NewService(draft.ServiceConfig{
		Store:   draft.Store{R: deps.Redis, TTL: cfg.DraftTTL},
		Locker:  lock.Locker{R: deps.Redis},
		LockTTL: cfg.DraftLockTTL,
		// submissions hold the lock across one backend call
		SubmitLockTTL: cfg.BackendTimeout*2 + cfg.DraftLockTTL,
		Catalog:       catalogService,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	saleComposer, err := sale.NewComposer(sale.ComposerConfig{Backend: deps.Backend, Events: deps.Events, Logger: logger, Location: loc})
	if err != nil {
		return nil, err
	}
	orderComposer, err := order.NewComposer(order.ComposerConfig{Backend: deps.Backend, Events: deps.Events, Logger: logger, Location: loc})
	if err != nil {
		return nil, err
	}
	dashboardService := &dashboard.Service{
		Q:        deps.Backend,
		Products: catalogService,
		R:        deps.Redis,
		TTL:      cfg.DashboardCacheTTL,
		Location: loc,
	}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})
	draftHandler := draft.NewHandler(draft.HandlerConfig{
		Service: draftService,
		Submitters: map[draft.Kind]draft.Submitter{
			draft.KindSale:  saleComposer,
			draft.KindOrder: orderComposer,
		},
	})
	saleHandler := sale.NewHandler(sale.HandlerConfig{Composer: saleComposer, PageSize: cfg.BackendPageSize})
	orderHandler := order.NewHandler(order.HandlerConfig{Composer: orderComposer, PageSize: cfg.BackendPageSize})
	dashboardHandler := &dashboard.Handler{Svc: dashboardService}

	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}
	limit := ratelimit.Handler{
		Limiter: deps.Limiter,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}.Middleware

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if opts.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: opts.BodyLimit}.Middleware)
	r.Use(middleware.Timeout(cfg.BackendTimeout*3 + 5*time.Second))

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if opts.Pprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), opts.PprofUser, opts.PprofPass))
	}

	healthHandler := health.Handler{Checker: deps, BackendTimeout: cfg.BackendTimeout}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/products", func(p chi.Router) { catalogHandler.Routes(p, limit) })
		v.Route("/drafts", func(d chi.Router) {
			d.Use(limit)
			draftHandler.Routes(d, idem.Middleware)
		})
		v.Route("/sales", func(s chi.Router) { saleHandler.Routes(s, limit) })
		v.Route("/orders", func(o chi.Router) { orderHandler.Routes(o, limit) })
		v.Route("/dashboard", dashboardHandler.Routes)
	})

	return r, nil
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
