package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/TakuyaFukumura/gmail-viewer/internal/middleware"
	"github.com/TakuyaFukumura/gmail-viewer/internal/model"
	"github.com/TakuyaFukumura/gmail-viewer/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	CreateUser(ctx context.Context, in model.RegistrationInput) (*model.LocalUser, error)
	Authenticate(ctx context.Context, username, password string) (*model.LocalUser, error)
}

// UserHandler はローカルアカウントの登録・ログイン・ログアウトのHTTPハンドラー。
type UserHandler struct {
	service  UserServiceInterface
	renderer *Renderer
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, renderer *Renderer) *UserHandler {
	return &UserHandler{
		service:  service,
		renderer: renderer,
	}
}

// loginPageData はログイン画面のテンプレートデータ。
type loginPageData struct {
	Username   string
	Registered bool
	LoggedOut  bool
	Error      string
}

// registerPageData はユーザー登録画面のテンプレートデータ。
type registerPageData struct {
	Username    string
	Errors      map[string]string
	GlobalError string
}

// ShowLogin はログイン画面を表示する。
// GET /login
func (h *UserHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.renderer.Render(w, "login.html", loginPageData{
		Registered: q.Has("registered"),
		LoggedOut:  q.Has("logout"),
	})
}

// Login はユーザー名とパスワードでローカルログインを行う。
// 成功時はセッションにユーザー名を保存してトップページへリダイレクトする。
// POST /login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	authenticated, err := h.service.Authenticate(r.Context(), username, password)
	if err != nil {
		slog.Warn("ログインに失敗しました",
			slog.String("username", username),
		)
		w.WriteHeader(http.StatusUnauthorized)
		h.renderer.Render(w, "login.html", loginPageData{
			Username: username,
			Error:    loginErrorMessage(err),
		})
		return
	}

	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	sess.SetUsername(authenticated.Username)

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout はローカルログインを解除する。
// セッション自体は破棄せず、ユーザー名とGmail認証情報の両方を削除する。
// POST /logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, err := middleware.SessionFromContext(r.Context()); err == nil {
		sess.SetUsername("")
		sess.ClearCredentials()
	}

	http.Redirect(w, r, "/login?logout", http.StatusFound)
}

// ShowRegister はユーザー登録画面を表示する。
// GET /register
func (h *UserHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, "register.html", registerPageData{
		Errors: map[string]string{},
	})
}

// Register はユーザー登録処理を行う。
// 入力検証エラーはフィールドごとのメッセージとしてフォームに戻し、
// ユーザー名重複はusernameフィールドのエラーとして表示する。
// 成功時はログイン画面へリダイレクトする。
// POST /register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	in := model.RegistrationInput{
		Username:        r.PostFormValue("username"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}

	if errs := user.ValidateRegistration(in); len(errs) > 0 {
		w.WriteHeader(http.StatusBadRequest)
		h.renderer.Render(w, "register.html", registerPageData{
			Username: in.Username,
			Errors:   errs,
		})
		return
	}

	if _, err := h.service.CreateUser(r.Context(), in); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUsernameTaken {
			w.WriteHeader(http.StatusConflict)
			h.renderer.Render(w, "register.html", registerPageData{
				Username: in.Username,
				Errors:   map[string]string{"username": apiErr.Message},
			})
			return
		}

		slog.Error("ユーザー登録に失敗しました",
			slog.String("error", err.Error()),
		)
		w.WriteHeader(http.StatusInternalServerError)
		h.renderer.Render(w, "register.html", registerPageData{
			Username:    in.Username,
			Errors:      map[string]string{},
			GlobalError: "登録中にエラーが発生しました。再度お試しください。",
		})
		return
	}

	http.Redirect(w, r, "/login?registered", http.StatusFound)
}

// loginErrorMessage は認証エラーから画面表示用のメッセージを取り出す。
// 想定内のエラー（認証失敗・アカウント無効）はそのメッセージを、
// それ以外は汎用メッセージを返す。
func loginErrorMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "ログイン処理中にエラーが発生しました。"
}
