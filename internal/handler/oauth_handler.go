package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/TakuyaFukumura/gmail-viewer/internal/middleware"
	"github.com/TakuyaFukumura/gmail-viewer/internal/session"
)

// OAuthCoordinatorInterface はOAuthハンドラーが必要とするインターフェース。
// auth.Coordinatorの部分集合として定義する。
type OAuthCoordinatorInterface interface {
	BeginAuthorization(sess *session.Session) (string, error)
	CompleteAuthorization(ctx context.Context, code, state string, sess *session.Session) (bool, error)
	ClearCredentials(sess *session.Session)
}

// SessionDestroyer はセッションの破棄インターフェース。
// session.Storeの部分集合として定義する。
type SessionDestroyer interface {
	Destroy(id string)
}

// OAuthHandler はGoogle OAuth 2.0認可コードフローのHTTPハンドラー。
type OAuthHandler struct {
	coordinator  OAuthCoordinatorInterface
	sessions     SessionDestroyer
	apiAvailable bool
}

// NewOAuthHandler はOAuthHandlerを生成する。
// apiAvailableはOAuthクライアント設定が揃っているかを示す（config.GmailAPIAvailable）。
func NewOAuthHandler(coordinator OAuthCoordinatorInterface, sessions SessionDestroyer, apiAvailable bool) *OAuthHandler {
	return &OAuthHandler{
		coordinator:  coordinator,
		sessions:     sessions,
		apiAvailable: apiAvailable,
	}
}

// Authorize はGoogle OAuth認証を開始する。
// GET /oauth2/authorize
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	slog.Info("OAuth認証を開始します")

	if !h.apiAvailable {
		http.Redirect(w, r, "/gmail/setup?error=auth_start_failed", http.StatusFound)
		return
	}

	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/gmail/setup?error=auth_start_failed", http.StatusFound)
		return
	}

	authURL, err := h.coordinator.BeginAuthorization(sess)
	if err != nil {
		slog.Error("OAuth認証開始中にエラーが発生しました",
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/gmail/setup?error=auth_start_failed", http.StatusFound)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback はOAuth認証コールバックを処理する。
// エラーパラメータ・認証コード欠落・トークン交換失敗をそれぞれ
// 個別のエラーコードとして設定画面にリダイレクトする。
// GET /oauth2/callback?code=xxx&state=yyy
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	state := q.Get("state")
	errParam := q.Get("error")

	slog.Info("OAuth認証コールバックを受信しました",
		slog.Bool("has_code", code != ""),
		slog.String("error", errParam),
	)

	// ユーザーが認証を拒否した場合など
	if errParam != "" {
		slog.Warn("OAuth認証エラー",
			slog.String("error", errParam),
		)
		if errParam == "access_denied" {
			http.Redirect(w, r, "/gmail/setup?error=access_denied", http.StatusFound)
		} else {
			http.Redirect(w, r, "/gmail/setup?error=auth_error", http.StatusFound)
		}
		return
	}

	if strings.TrimSpace(code) == "" {
		slog.Error("認証コードが提供されませんでした")
		http.Redirect(w, r, "/gmail/setup?error=no_code", http.StatusFound)
		return
	}

	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/gmail/setup?error=callback_error", http.StatusFound)
		return
	}

	ok, err := h.coordinator.CompleteAuthorization(r.Context(), code, state, sess)
	if err != nil {
		slog.Error("OAuth認証コールバック処理中にエラーが発生しました",
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/gmail/setup?error=callback_error", http.StatusFound)
		return
	}
	if !ok {
		slog.Error("OAuth認証処理に失敗しました")
		http.Redirect(w, r, "/gmail/setup?error=token_exchange_failed", http.StatusFound)
		return
	}

	http.Redirect(w, r, "/gmail/mails?auth=success", http.StatusFound)
}

// Logout はGmail認証情報を削除し、セッション自体を破棄する。
// ローカルログイン状態もセッションと一緒に失われる。
// GET /oauth2/logout
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	slog.Info("OAuth認証をリセットします")

	if sess, err := middleware.SessionFromContext(r.Context()); err == nil {
		h.coordinator.ClearCredentials(sess)
		if h.sessions != nil {
			h.sessions.Destroy(sess.ID())
		}
	}

	// 破棄済みセッションのCookieを失効させる
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	http.Redirect(w, r, "/?logout=success", http.StatusFound)
}
