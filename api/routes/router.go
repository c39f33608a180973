package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leanai/mumul-backend/api/controllers"
	"github.com/leanai/mumul-backend/api/middleware"
	"github.com/leanai/mumul-backend/internal/auth"
	"github.com/leanai/mumul-backend/internal/chatbot"
	"github.com/leanai/mumul-backend/internal/complaints"
	"github.com/leanai/mumul-backend/internal/departments"
	"github.com/leanai/mumul-backend/internal/edits"
	"github.com/leanai/mumul-backend/internal/feeds"
	"github.com/leanai/mumul-backend/internal/menus"
	"github.com/leanai/mumul-backend/internal/notifications"
	"github.com/leanai/mumul-backend/internal/publicauth"
	"github.com/leanai/mumul-backend/internal/publics"
	"github.com/leanai/mumul-backend/internal/publicusers"
	"github.com/leanai/mumul-backend/internal/qrcodes"
	"github.com/leanai/mumul-backend/internal/statistics"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/internal/users"
	"github.com/leanai/mumul-backend/internal/verification"
	"github.com/leanai/mumul-backend/pkg/auth/session"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/enums"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/metrics"
)

// RateLimiter is the counter store behind the auth rate limits.
type RateLimiter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// Deps carries everything the router wires into handlers. Nil services
// answer with an error instead of panicking.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	Limiter  RateLimiter

	// Ready lists the dependencies checked by /health/ready.
	Ready map[string]controllers.Pinger
	// Gatherer serves /metrics when set.
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	// MediaDir is served under /media/ when set.
	MediaDir string

	Auth               auth.Service
	PublicAuth         publicauth.Service
	Verification       verification.Service
	PublicVerification verification.Service
	Users              users.Service
	PublicUsers        publicusers.Service
	Stores             stores.Service
	Menus              menus.Service
	Feeds              feeds.Service
	QRCodes            qrcodes.Service
	Statistics         statistics.Service
	Edits              edits.Service
	Notifications      notifications.Service
	Publics            publics.Service
	Departments        departments.Service
	Complaints         complaints.Service
	Chatbot            chatbot.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	maxUpload := cfg.Storage.MaxUploadBytes()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupIdentityLimit,
	)
	sendCodePolicy := middleware.NewAuthRateLimitPolicy(
		"send_code",
		cfg.AuthRateLimit.SendCodeWindow,
		cfg.AuthRateLimit.SendCodeIPLimit,
		cfg.AuthRateLimit.SendCodeIdentityLimit,
	)
	verifyCodePolicy := middleware.NewAuthRateLimitPolicy(
		"verify_code",
		cfg.AuthRateLimit.VerifyCodeWindow,
		cfg.AuthRateLimit.VerifyCodeIPLimit,
		cfg.AuthRateLimit.VerifyCodeIdentityLimit,
	)
	limit := func(p middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if d.Limiter == nil {
			return passthrough
		}
		return middleware.AuthRateLimit(p, d.Limiter, logg)
	}

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Sessions, logg)
	storeOwner := middleware.RequireKind(enums.AccountKindStoreOwner, logg)
	publicStaff := middleware.RequireKind(enums.AccountKindPublicStaff, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Ready))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if d.MediaDir != "" {
		mountMedia(r, cfg.Storage.MediaURL, d.MediaDir)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limit(signupPolicy)).Post("/signup", controllers.AuthSignup(d.Auth, logg))
			r.With(limit(loginPolicy)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.Post("/check-username", controllers.AuthCheckUsername(d.Auth, logg))
			r.With(limit(verifyCodePolicy)).Post("/reset-password", controllers.AuthResetPassword(d.Auth, logg))
			r.With(optionalAuth, limit(sendCodePolicy)).Post("/send-code", controllers.SendCode(d.Verification, logg))
			r.With(optionalAuth, limit(verifyCodePolicy)).Post("/verify-code", controllers.VerifyCode(d.Verification, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, storeOwner)
				r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
				r.Post("/deactivate-account", controllers.AuthDeactivate(d.Auth, logg))
			})
		})

		r.Route("/storefront/{slug}", func(r chi.Router) {
			r.Get("/", controllers.Storefront(d.Stores, logg))
			r.Get("/menus", controllers.StorefrontMenus(d.Menus, logg))
			r.Get("/feeds", controllers.StorefrontFeeds(d.Feeds, logg))
		})

		r.Post("/chatbot", controllers.Chatbot(d.Chatbot, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, storeOwner)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(d.Users, logg))
				r.Put("/", controllers.ProfileUpdate(d.Users, logg))
				r.Post("/photo", controllers.ProfilePhoto(d.Users, maxUpload, logg))
			})

			r.Route("/stores", func(r chi.Router) {
				r.Get("/", controllers.StoreList(d.Stores, logg))
				r.Route("/{storeID}", func(r chi.Router) {
					r.Get("/", controllers.StoreDetail(d.Stores, logg))
					r.Put("/", controllers.StoreUpdate(d.Stores, maxUpload, logg))

					r.Route("/menus", func(r chi.Router) {
						r.Get("/", controllers.MenuList(d.Menus, logg))
						r.Post("/", controllers.MenuCreate(d.Menus, maxUpload, logg))
						r.Get("/categories", controllers.MenuCategories(d.Menus, logg))
						r.Delete("/categories/{category}", controllers.MenuDeleteCategory(d.Menus, logg))
						r.Put("/{menuNumber}", controllers.MenuUpdate(d.Menus, maxUpload, logg))
						r.Delete("/{menuNumber}", controllers.MenuDelete(d.Menus, logg))
					})

					r.Route("/feeds", func(r chi.Router) {
						r.Get("/", controllers.FeedList(d.Feeds, logg))
						r.Post("/", controllers.FeedUpload(d.Feeds, maxUpload, logg))
						r.Put("/{fileName}", controllers.FeedRename(d.Feeds, logg))
						r.Delete("/{fileName}", controllers.FeedDelete(d.Feeds, logg))
					})

					r.Get("/qr-code", controllers.StoreQRGet(d.QRCodes, logg))
					r.Post("/qr-code", controllers.StoreQRGenerate(d.QRCodes, logg))
				})
			})

			r.Get("/statistics", controllers.StatisticsReport(d.Statistics, statistics.ScopeStore, logg))
			r.Post("/request-service", controllers.RequestService(d.Edits, maxUpload, logg))
		})

		// Push endpoints serve both apps.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/push-token", controllers.SavePushToken(d.Notifications, logg))
			r.Post("/push/send", controllers.SendPreviewPush(d.Notifications, logg))
		})

		r.Route("/public", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.With(limit(signupPolicy)).Post("/signup", controllers.PublicAuthSignup(d.PublicAuth, logg))
				r.With(limit(loginPolicy)).Post("/login", controllers.PublicAuthLogin(d.PublicAuth, logg))
				r.Post("/refresh", controllers.AuthRefresh(d.PublicAuth, logg))
				r.Post("/check-username", controllers.AuthCheckUsername(d.PublicAuth, logg))
				r.With(limit(verifyCodePolicy)).Post("/reset-password", controllers.AuthResetPassword(d.PublicAuth, logg))
				r.With(optionalAuth, limit(sendCodePolicy)).Post("/send-code", controllers.SendCode(d.PublicVerification, logg))
				r.With(optionalAuth, limit(verifyCodePolicy)).Post("/verify-code", controllers.VerifyCode(d.PublicVerification, logg))
				r.Group(func(r chi.Router) {
					r.Use(requireAuth, publicStaff)
					r.Post("/logout", controllers.AuthLogout(d.PublicAuth, logg))
					r.Post("/deactivate-account", controllers.AuthDeactivate(d.PublicAuth, logg))
				})
			})

			r.Route("/publics", func(r chi.Router) {
				r.Get("/", controllers.PublicList(d.Publics, logg))
				r.Post("/", controllers.PublicCreate(d.Publics, maxUpload, logg))
				r.Get("/{publicID}", controllers.PublicDetail(d.Publics, logg))
			})
			r.Get("/storefront/{slug}", controllers.PublicStorefront(d.Publics, logg))

			r.Route("/departments", func(r chi.Router) {
				r.Get("/", controllers.DepartmentList(d.Departments, logg))
				r.Post("/", controllers.DepartmentCreate(d.Departments, logg))
				r.With(requireAuth, publicStaff).Put("/move", controllers.DepartmentMove(d.Departments, logg))
			})

			r.Route("/complaints", func(r chi.Router) {
				r.Post("/", controllers.ComplaintCreate(d.Complaints, logg))
				r.Post("/lookup", controllers.ComplaintLookup(d.Complaints, logg))
				r.Group(func(r chi.Router) {
					r.Use(requireAuth, publicStaff)
					r.Get("/", controllers.ComplaintList(d.Complaints, logg))
					r.Patch("/{complaintID}/status", controllers.ComplaintStatus(d.Complaints, logg))
					r.Post("/{complaintID}/transfer", controllers.ComplaintTransfer(d.Complaints, logg))
					r.Post("/{complaintID}/answer", controllers.ComplaintAnswer(d.Complaints, logg))
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, publicStaff)
				r.Get("/user-info", controllers.PublicUserInfo(d.Publics, logg))
				r.Route("/profile", func(r chi.Router) {
					r.Get("/", controllers.PublicProfileGet(d.PublicUsers, logg))
					r.Put("/", controllers.PublicProfileUpdate(d.PublicUsers, maxUpload, logg))
				})
				r.Get("/qr-code", controllers.PublicQRGet(d.QRCodes, logg))
				r.Post("/qr-code", controllers.PublicQRGenerate(d.QRCodes, logg))
				r.Get("/statistics", controllers.StatisticsReport(d.Statistics, statistics.ScopePublic, logg))
				r.Post("/request-service", controllers.PublicRequestService(d.Edits, maxUpload, logg))
			})
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }

// mountMedia serves locally stored uploads. Directory listings are refused.
func mountMedia(r chi.Router, prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = "/media"
	}
	fs := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}
		fs.ServeHTTP(w, req)
	})
}
