// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/TakuyaFukumura/gmail-viewer/internal/session"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionStore はセッションの発行と検索に必要なインターフェース。
// session.Storeの部分集合として定義する。
type SessionStore interface {
	Create() (*session.Session, error)
	Find(id string) *session.Session
}

// SessionConfig はセッションミドルウェアのCookie設定を保持する。
type SessionConfig struct {
	CookieSecure bool // HTTPSでのみCookieを送信するかどうか
	MaxAge       int  // Cookieの有効期間（秒）
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieが存在しないか期限切れの場合は新しいセッションを発行する。
// 未ログインの閲覧も許可するため、ここでは認証の要求は行わない。
func NewSessionMiddleware(store SessionStore, config SessionConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得し、ストアから検索
			var sess *session.Session
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				sess = store.Find(cookie.Value)
			}

			// 2. 見つからなければ新しいセッションを発行してCookieを設定
			if sess == nil {
				created, err := store.Create()
				if err != nil {
					slog.Error("failed to create session",
						slog.String("error", err.Error()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				sess = created

				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sess.ID(),
					Path:     "/",
					MaxAge:   config.MaxAge,
					HttpOnly: true,
					Secure:   config.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			// 3. セッションをコンテキストに注入
			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewLoginRequiredMiddleware はローカルログイン済みユーザーのみ通過を許可する
// ミドルウェアを返す。未ログインの場合はログイン画面へリダイレクトする。
// SessionMiddlewareの後に配置すること。
func NewLoginRequiredMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := SessionFromContext(r.Context())
			if err != nil || sess.Username() == "" {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*session.Session, error) {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok || sess == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return sess, nil
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
