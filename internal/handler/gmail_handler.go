package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/TakuyaFukumura/gmail-viewer/internal/middleware"
	"github.com/TakuyaFukumura/gmail-viewer/internal/model"
	"github.com/TakuyaFukumura/gmail-viewer/internal/session"
)

// GmailServiceInterface はGmailハンドラーが必要とするサービスインターフェース。
type GmailServiceInterface interface {
	APIAvailable() bool
	GetEmailList(ctx context.Context, sess *session.Session) []model.EmailSummary
}

// AuthStatusInterface はセッションの認証状態の参照インターフェース。
// auth.Coordinatorの部分集合として定義する。
type AuthStatusInterface interface {
	IsAuthenticated(sess *session.Session) bool
}

// GmailHandler はメール一覧とAPI設定画面のHTTPハンドラー。
type GmailHandler struct {
	service     GmailServiceInterface
	authStatus  AuthStatusInterface
	renderer    *Renderer
	redirectURL string
}

// NewGmailHandler はGmailHandlerを生成する。
// redirectURLは設定画面に表示するOAuthリダイレクトURI。
func NewGmailHandler(service GmailServiceInterface, authStatus AuthStatusInterface, renderer *Renderer, redirectURL string) *GmailHandler {
	return &GmailHandler{
		service:     service,
		authStatus:  authStatus,
		renderer:    renderer,
		redirectURL: redirectURL,
	}
}

// mailsPageData はメール一覧画面のテンプレートデータ。
type mailsPageData struct {
	AuthSuccess   bool
	Emails        []model.EmailSummary
	APIAvailable  bool
	Authenticated bool
}

// setupPageData はGmail API設定画面のテンプレートデータ。
type setupPageData struct {
	Error         string
	APIAvailable  bool
	Authenticated bool
	RedirectURL   string
}

// Mails はメール一覧画面を表示する。
// メール取得はサービス層でサンプルデータにフォールバックするため、
// この画面がエラーになることはない。
// GET /gmail/mails
func (h *GmailHandler) Mails(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	emails := h.service.GetEmailList(r.Context(), sess)

	slog.Info("メール一覧を取得しました",
		slog.Int("count", len(emails)),
	)

	h.renderer.Render(w, "mails.html", mailsPageData{
		AuthSuccess:   r.URL.Query().Get("auth") == "success",
		Emails:        emails,
		APIAvailable:  h.service.APIAvailable(),
		Authenticated: h.authStatus.IsAuthenticated(sess),
	})
}

// Setup はGmail API設定画面を表示する。
// errorクエリパラメータのエラーコードを画面表示用メッセージに変換する。
// GET /gmail/setup
func (h *GmailHandler) Setup(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := setupPageData{
		APIAvailable:  h.service.APIAvailable(),
		Authenticated: h.authStatus.IsAuthenticated(sess),
		RedirectURL:   h.redirectURL,
	}

	if code := r.URL.Query().Get("error"); code != "" {
		data.Error = setupErrorMessage(code)
	}

	h.renderer.Render(w, "setup.html", data)
}

// setupErrorMessage はOAuthフローのエラーコードを画面表示用メッセージに変換する。
func setupErrorMessage(code string) string {
	switch code {
	case "access_denied":
		return "認証が拒否されました。Googleアカウントでのログインが必要です。"
	case "auth_error":
		return "認証中にエラーが発生しました。"
	case "no_code":
		return "認証コードが取得できませんでした。"
	case "token_exchange_failed":
		return "トークンの交換に失敗しました。"
	case "callback_error":
		return "認証コールバック処理中にエラーが発生しました。"
	case "auth_start_failed":
		return "認証を開始できませんでした。設定を確認してください。"
	default:
		return "不明なエラーが発生しました。"
	}
}
