// Package session はサーバーサイドセッションの発行と保持を提供する。
// OAuthのstate値・認証情報・ローカルログインのユーザー名を
// 型付きフィールドとして保持し、文字列キーによる任意型の出し入れはしない。
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Session は1ブラウザセッション分のサーバーサイド状態を表す。
// 各フィールドはセッションを所有するリクエストからのみ変更される前提だが、
// 念のためミューテックスで保護する。
type Session struct {
	id string

	mu         sync.Mutex
	oauthState string
	credential *oauth2.Token
	username   string
}

// ID はセッションIDを返す。OAuth認証情報を紐付けるユーザー識別子としても使う。
func (s *Session) ID() string {
	return s.id
}

// SetOAuthState はCSRF対策用のstate値を保存する。
func (s *Session) SetOAuthState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oauthState = state
}

// OAuthState は保存済みのstate値を返す。未発行の場合は空文字列。
func (s *Session) OAuthState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.oauthState
}

// SetCredential はOAuth認証情報をこのセッションに保存する。
func (s *Session) SetCredential(token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = token
}

// Credential は保存済みのOAuth認証情報を返す。存在しない場合はnil。
// ネットワーク呼び出しは行わない。
func (s *Session) Credential() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

// ClearCredentials はstate値と認証情報の両方を削除する。冪等。
func (s *Session) ClearCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oauthState = ""
	s.credential = nil
}

// SetUsername はローカルログイン済みのユーザー名を保存する。
func (s *Session) SetUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

// Username はローカルログイン済みのユーザー名を返す。未ログインの場合は空文字列。
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// entry はストア内部のセッションと有効期限の組。
type entry struct {
	session   *Session
	expiresAt time.Time
}

// Store はインメモリのセッションストア。
// 認証情報はセッションの生存期間を超えて永続化しない。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	maxAge   time.Duration
	stopCh   chan struct{}
}

// NewStore はStoreを生成し、期限切れセッションのクリーンアップを
// バックグラウンドで開始する。
func NewStore(maxAge time.Duration) *Store {
	st := &Store{
		sessions: make(map[string]*entry),
		maxAge:   maxAge,
		stopCh:   make(chan struct{}),
	}

	go st.cleanupLoop()

	return st
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (st *Store) Stop() {
	close(st.stopCh)
}

// Create は新しいセッションを発行する。
func (st *Store) Create() (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	sess := &Session{id: id}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = &entry{
		session:   sess,
		expiresAt: time.Now().Add(st.maxAge),
	}

	return sess, nil
}

// Find は指定IDのセッションを返す。存在しないか期限切れの場合はnilを返す。
func (st *Store) Find(id string) *Session {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil
	}
	if time.Now().After(e.expiresAt) {
		st.Destroy(id)
		return nil
	}
	return e.session
}

// Destroy は指定IDのセッションを破棄する。冪等。
// セッションが保持していた認証情報も同時に失われる。
func (st *Store) Destroy(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Count は現在保持しているセッション数を返す。テストおよびメトリクス用。
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// cleanupLoop はバックグラウンドで期限切れセッションを定期的に削除する。
func (st *Store) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.cleanup()
		case <-st.stopCh:
			return
		}
	}
}

// cleanup は有効期限を過ぎたセッションを削除する。
func (st *Store) cleanup() {
	now := time.Now()

	st.mu.Lock()
	defer st.mu.Unlock()
	for id, e := range st.sessions {
		if now.After(e.expiresAt) {
			delete(st.sessions, id)
		}
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
