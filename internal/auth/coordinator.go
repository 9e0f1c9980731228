// Package auth はGoogleに対するOAuth 2.0認可コードフローと、
// セッションに紐付く認証情報のライフサイクル管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/TakuyaFukumura/gmail-viewer/internal/session"
)

// CoordinatorConfig はOAuthコーディネーターの設定。
type CoordinatorConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// テスト用にオーバーライド可能なURL
	AuthURL  string
	TokenURL string
}

// Coordinator は認可コードフローの開始・完了と、
// セッション単位の認証情報の保持を担当する。
type Coordinator struct {
	config *oauth2.Config
}

// NewCoordinator はCoordinatorを生成する。
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	return &Coordinator{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
	}
}

// BeginAuthorization は新しいstate値を発行してセッションに保存し、
// Google認可サーバーへの認証URLを返す。
// access_type=offlineと同意の強制を指定し、再認可時もリフレッシュトークンが
// 発行されるようにする。
func (c *Coordinator) BeginAuthorization(sess *session.Session) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	sess.SetOAuthState(state)

	url := c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return url, nil
}

// CompleteAuthorization は認可コードをトークンに交換し、セッションに保存する。
// stateがセッションに保存済みの値と一致しない場合はネットワーク呼び出しを
// 一切行わずfalseを返す（CSRF対策）。
// トークン交換の失敗はエラーとして呼び出し元に伝播する。
// 成功してもstate値は削除しない（呼び出し元がClearCredentialsで削除できる）。
func (c *Coordinator) CompleteAuthorization(ctx context.Context, code, state string, sess *session.Session) (bool, error) {
	sessionState := sess.OAuthState()
	if sessionState == "" || state == "" || sessionState != state {
		slog.Warn("無効なstate値です",
			slog.String("session_id", sess.ID()),
		)
		return false, nil
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to exchange token: %w", err)
	}

	sess.SetCredential(token)

	slog.Info("OAuth認証が正常に完了しました",
		slog.String("user_id", sess.ID()),
	)
	return true, nil
}

// CredentialFor はセッションに保存された認証情報を返す。
// 存在しない場合はnil。ネットワーク呼び出しは行わない。
func (c *Coordinator) CredentialFor(sess *session.Session) *oauth2.Token {
	return sess.Credential()
}

// IsAuthenticated は認証情報が存在し、かつアクセストークンが空でない場合に
// trueを返す。トークンの有効期限は検査しない。
func (c *Coordinator) IsAuthenticated(sess *session.Session) bool {
	token := sess.Credential()
	return token != nil && token.AccessToken != ""
}

// ClearCredentials はセッションからstate値と認証情報を削除する。冪等。
func (c *Coordinator) ClearCredentials(sess *session.Session) {
	sess.ClearCredentials()
}

// TokenSource はセッションの認証情報からGmail APIクライアント用の
// トークンソースを生成する。リフレッシュトークンがある場合は
// 期限切れトークンの更新も行われる。
func (c *Coordinator) TokenSource(ctx context.Context, sess *session.Session) (oauth2.TokenSource, error) {
	token := sess.Credential()
	if token == nil {
		return nil, fmt.Errorf("no credential in session")
	}
	return c.config.TokenSource(ctx, token), nil
}

// generateState はCSRF対策用のランダムなstate値を生成する。
// 32バイトの乱数をパディングなしのURLセーフBase64で表現する。
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
