package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/app"
	iauth "github.com/charlesng35/autodetail/internal/auth"
	"github.com/charlesng35/autodetail/internal/cache"
	"github.com/charlesng35/autodetail/internal/handlers"
	"github.com/charlesng35/autodetail/internal/middleware"
	"github.com/charlesng35/autodetail/internal/notify"
	"github.com/charlesng35/autodetail/internal/rates"
	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/internal/storage"
	"github.com/charlesng35/autodetail/pkg/logger"
	"github.com/charlesng35/autodetail/pkg/mail"
)

const (
	globalRateLimit = 300
	authRateLimit   = 20
	rateLimitWindow = time.Minute
)

// Option customises router construction.
type Option func(*routerOptions)

type routerOptions struct {
	blobs         storage.BlobStore
	notifier      notify.Notifier
	cache         cache.Store
	ratesProvider rates.Provider
	ratesClock    func() time.Time
}

// WithBlobStore overrides the configured image store.
func WithBlobStore(store storage.BlobStore) Option {
	return func(o *routerOptions) {
		o.blobs = store
	}
}

// WithNotifier overrides the SMTP-backed notifier.
func WithNotifier(notifier notify.Notifier) Option {
	return func(o *routerOptions) {
		o.notifier = notifier
	}
}

// WithCacheStore supplies the shared cache used for rate limiting.
func WithCacheStore(store cache.Store) Option {
	return func(o *routerOptions) {
		o.cache = store
	}
}

// WithRatesProvider overrides the upstream exchange rate source.
func WithRatesProvider(provider rates.Provider) Option {
	return func(o *routerOptions) {
		o.ratesProvider = provider
	}
}

// WithRatesClock injects the time source of the rate cache.
func WithRatesClock(clock func() time.Time) Option {
	return func(o *routerOptions) {
		o.ratesClock = clock
	}
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, opts ...Option) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	options := routerOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if options.blobs == nil {
		store, err := cfg.Storage.OpenBlobStore(context.Background())
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		options.blobs = store
	}
	if options.notifier == nil {
		options.notifier = buildNotifier(cfg.Email)
	}
	if options.cache == nil {
		options.cache = cache.NewDatabaseStore(db)
	}
	if options.ratesProvider == nil {
		providerOpts := []rates.ProviderOption{rates.WithRateLimit(cfg.Rates.RequestsPerSecond, 3)}
		if cfg.Rates.Timeout > 0 {
			providerOpts = append(providerOpts, rates.WithHTTPClient(&http.Client{Timeout: cfg.Rates.Timeout}))
		}
		options.ratesProvider = rates.NewHTTPProvider(cfg.Rates.ProviderURL, providerOpts...)
	}

	deps, err := buildHandlers(db, jwt, cfg, options)
	if err != nil {
		return nil, err
	}

	rateStore := middleware.NewCacheRateStore(options.cache)

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	r.Use(middleware.AuditContext())
	r.Use(middleware.RateLimit(rateStore, globalRateLimit, rateLimitWindow))

	registerHealthRoutes(r, cfg)
	registerUploadRoutes(r, options.blobs)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	public := r.Group("/api")
	protected := r.Group("/api")
	protected.Use(middleware.Auth(jwt))

	authLimiter := middleware.RateLimit(rateStore, authRateLimit, rateLimitWindow)
	registerAuthRoutes(public, deps.auth, authLimiter)
	registerCatalogRoutes(public, deps.catalog, middleware.OptionalAuth(jwt))
	registerListingRoutes(public, protected, deps.listings)
	registerFavoriteRoutes(protected, deps.favorites)
	registerProfileRoutes(protected, deps.profile)
	registerContactRoutes(public, deps.contact, authLimiter)
	registerRatesRoutes(public, deps.rates)
	registerAdminRoutes(protected, deps.admin, deps.audit)

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

type handlerSet struct {
	auth      *handlers.AuthHandler
	catalog   *handlers.CatalogHandler
	listings  *handlers.ListingHandler
	favorites *handlers.FavoriteHandler
	profile   *handlers.ProfileHandler
	contact   *handlers.ContactHandler
	rates     *handlers.RatesHandler
	admin     *handlers.AdminHandler
	audit     *handlers.AuditHandler
}

func buildHandlers(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, options routerOptions) (handlerSet, error) {
	images, err := storage.NewImages(options.blobs)
	if err != nil {
		return handlerSet{}, err
	}

	gate, err := services.NewGate(db)
	if err != nil {
		return handlerSet{}, err
	}
	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return handlerSet{}, err
	}
	identitySvc, err := services.NewIdentityService(db, options.notifier, jwt, auditSvc,
		services.WithVerificationTTL(cfg.Auth.VerificationCodeTTL()),
		services.WithAccessTokenTTL(jwt.TTL()),
	)
	if err != nil {
		return handlerSet{}, err
	}
	recoverySvc, err := services.NewRecoveryService(db, options.notifier, auditSvc,
		services.WithResetTTL(cfg.Auth.ResetTokenTTL()),
		services.WithFrontendURL(cfg.FrontendURL),
	)
	if err != nil {
		return handlerSet{}, err
	}
	moderationSvc, err := services.NewModerationService(db, auditSvc)
	if err != nil {
		return handlerSet{}, err
	}
	catalogSvc, err := services.NewCatalogService(db)
	if err != nil {
		return handlerSet{}, err
	}
	listingSvc, err := services.NewListingService(db, images, auditSvc)
	if err != nil {
		return handlerSet{}, err
	}
	favoriteSvc, err := services.NewFavoriteService(db)
	if err != nil {
		return handlerSet{}, err
	}
	profileSvc, err := services.NewProfileService(db, images)
	if err != nil {
		return handlerSet{}, err
	}
	accountSvc, err := services.NewAccountService(db, images, auditSvc)
	if err != nil {
		return handlerSet{}, err
	}
	contactSvc := services.NewContactService(options.notifier, cfg.Contact.To)

	ratesCache := rates.NewCache(cfg.Rates.TTL, rates.WithCacheClock(options.ratesClock))
	ratesSvc := rates.NewService(options.ratesProvider, ratesCache, cfg.Rates.DefaultBase, cfg.Rates.DefaultTarget)

	limits := handlers.UploadLimits{
		MaxImageBytes:   cfg.Server.Uploads.MaxImageBytes,
		MaxImages:       cfg.Server.Uploads.MaxImages,
		MaxProfileBytes: cfg.Server.Uploads.MaxProfileBytes,
	}

	return handlerSet{
		auth:      handlers.NewAuthHandler(identitySvc, recoverySvc),
		catalog:   handlers.NewCatalogHandler(catalogSvc, moderationSvc),
		listings:  handlers.NewListingHandler(listingSvc, gate, limits),
		favorites: handlers.NewFavoriteHandler(favoriteSvc, gate),
		profile:   handlers.NewProfileHandler(profileSvc, gate, limits),
		contact:   handlers.NewContactHandler(contactSvc),
		rates:     handlers.NewRatesHandler(ratesSvc),
		admin: handlers.NewAdminHandler(handlers.AdminServices{
			Accounts:   accountSvc,
			Listings:   listingSvc,
			Catalog:    catalogSvc,
			Moderation: moderationSvc,
			Gate:       gate,
		}),
		audit: handlers.NewAuditHandler(auditSvc, gate),
	}, nil
}

// buildNotifier returns an SMTP notifier, or an unconfigured one when SMTP is
// disabled or its settings are incomplete.
func buildNotifier(cfg app.EmailConfig) notify.Notifier {
	if !cfg.SMTP.Enabled {
		return notify.NewMailNotifier(nil, false)
	}
	mailer, err := mail.NewSMTPMailer(cfg.SMTPSettings())
	if err != nil {
		logger.WithModule("router").Warn("smtp disabled: invalid settings", zap.Error(err))
		return notify.NewMailNotifier(nil, false)
	}
	return notify.NewMailNotifier(mailer, true, notify.WithFrom(cfg.SMTP.From))
}
