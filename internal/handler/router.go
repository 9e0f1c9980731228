package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TakuyaFukumura/gmail-viewer/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger         *slog.Logger
	StatusRecorder middleware.StatusRecorder
	SessionStore   middleware.SessionStore
	SessionConfig  middleware.SessionConfig
	RateLimiter    *middleware.RateLimiter

	// 全ページにローカルログインを要求するか
	RequireLogin bool

	// ローカルアカウント
	UserService UserServiceInterface

	// Gmail
	GmailService GmailServiceInterface
	AuthStatus   AuthStatusInterface
	Coordinator  OAuthCoordinatorInterface
	Sessions     SessionDestroyer
	APIAvailable bool
	RedirectURL  string

	// AI
	TriviaService TriviaServiceInterface
	TriviaMetrics TriviaMetricsRecorder

	// 運用
	DB             Pinger
	MetricsHandler http.Handler
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Session → RateLimit(General)
//
// /health と /metrics はセッション発行もレート制限も不要なため、
// ミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))

	renderer := NewRenderer(deps.Logger)

	indexHandler := NewIndexHandler(renderer)
	userHandler := NewUserHandler(deps.UserService, renderer)
	gmailHandler := NewGmailHandler(deps.GmailService, deps.AuthStatus, renderer, deps.RedirectURL)
	oauthHandler := NewOAuthHandler(deps.Coordinator, deps.Sessions, deps.APIAvailable)
	aiHandler := NewAIHandler(deps.TriviaService, deps.TriviaMetrics, renderer)
	healthHandler := NewHealthHandler(deps.DB)

	// --- セッション不要のルート ---

	r.Get("/health", healthHandler.Check)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- セッション付きのルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionStore, deps.SessionConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ログイン・登録は常に未ログインでアクセス可能
		r.Get("/login", userHandler.ShowLogin)
		r.Post("/login", userHandler.Login)
		r.Get("/register", userHandler.ShowRegister)
		r.Post("/register", userHandler.Register)

		// RequireLogin有効時はローカルログイン必須
		r.Group(func(r chi.Router) {
			if deps.RequireLogin {
				r.Use(middleware.NewLoginRequiredMiddleware())
			}

			r.Get("/", indexHandler.Show)
			r.Post("/logout", userHandler.Logout)

			// Gmail機能
			r.Route("/gmail", func(r chi.Router) {
				r.Get("/mails", gmailHandler.Mails)
				r.Get("/setup", gmailHandler.Setup)
			})

			// OAuthフロー
			r.Route("/oauth2", func(r chi.Router) {
				r.Get("/authorize", oauthHandler.Authorize)
				r.Get("/callback", oauthHandler.Callback)
				r.Get("/logout", oauthHandler.Logout)
			})

			// AI機能（外部API呼び出しに専用レート制限を追加）
			r.Get("/ai", aiHandler.Show)
			r.With(deps.RateLimiter.TriviaMiddleware()).Post("/ai/trivia", aiHandler.GetTrivia)
		})
	})

	return r
}
