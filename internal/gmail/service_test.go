package gmail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/TakuyaFukumura/gmail-viewer/internal/session"
)

// mockCredentialSource は関数フィールドで振る舞いを差し替えられるモック。
type mockCredentialSource struct {
	isAuthenticatedFn func(sess *session.Session) bool
	tokenSourceFn     func(ctx context.Context, sess *session.Session) (oauth2.TokenSource, error)
}

func (m *mockCredentialSource) IsAuthenticated(sess *session.Session) bool {
	return m.isAuthenticatedFn(sess)
}

func (m *mockCredentialSource) TokenSource(ctx context.Context, sess *session.Session) (oauth2.TokenSource, error) {
	return m.tokenSourceFn(ctx, sess)
}

// mockMetrics はメトリクス記録の呼び出しを数えるモック。
type mockMetrics struct {
	fetchSuccess   int
	fetchedCount   int
	fetchFailures  []string
	sampleFallback int
	latencyCalls   int
}

func (m *mockMetrics) RecordMailFetchSuccess(count int) {
	m.fetchSuccess++
	m.fetchedCount += count
}

func (m *mockMetrics) RecordMailFetchFailure(reason string) {
	m.fetchFailures = append(m.fetchFailures, reason)
}

func (m *mockMetrics) RecordSampleFallback() {
	m.sampleFallback++
}

func (m *mockMetrics) RecordMailFetchLatency(time.Duration) {
	m.latencyCalls++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testSession(t *testing.T) *session.Session {
	t.Helper()
	st := session.NewStore(time.Hour)
	t.Cleanup(st.Stop)

	sess, err := st.Create()
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

// サンプルデータが3件の固定レコードを順序固定で返すことを検証
func TestSampleEmails_Fixed(t *testing.T) {
	emails := SampleEmails()

	if len(emails) != 3 {
		t.Fatalf("len(emails) = %d, want 3", len(emails))
	}

	wantSubjects := []string{"Gmail Viewerへようこそ", "設定方法について", "サンプルメール3"}
	wantSenders := []string{"example@gmail.com", "support@example.com", "test@example.com"}
	for i, email := range emails {
		if email.Subject != wantSubjects[i] {
			t.Errorf("emails[%d].Subject = %q, want %q", i, email.Subject, wantSubjects[i])
		}
		if email.Sender != wantSenders[i] {
			t.Errorf("emails[%d].Sender = %q, want %q", i, email.Sender, wantSenders[i])
		}
	}

	// 呼び出しごとに独立したスライスを返すことを検証
	emails[0].Subject = "changed"
	if SampleEmails()[0].Subject != "Gmail Viewerへようこそ" {
		t.Error("SampleEmails should return a fresh slice per call")
	}
}

// API未設定の場合にサンプルデータへフォールバックすることを検証
func TestService_GetEmailList_APIUnavailable(t *testing.T) {
	metrics := &mockMetrics{}
	creds := &mockCredentialSource{
		isAuthenticatedFn: func(*session.Session) bool {
			t.Fatal("IsAuthenticated should not be called when API is unavailable")
			return false
		},
	}
	svc := NewService(false, creds, discardLogger(), metrics)

	emails := svc.GetEmailList(context.Background(), testSession(t))

	if len(emails) != 3 {
		t.Fatalf("len(emails) = %d, want 3 samples", len(emails))
	}
	if emails[0].ID != "sample1" {
		t.Errorf("emails[0].ID = %q, want %q", emails[0].ID, "sample1")
	}
	if metrics.sampleFallback != 1 {
		t.Errorf("sampleFallback = %d, want 1", metrics.sampleFallback)
	}
}

// 未認証セッションの場合にサンプルデータへフォールバックすることを検証
func TestService_GetEmailList_Unauthenticated(t *testing.T) {
	metrics := &mockMetrics{}
	creds := &mockCredentialSource{
		isAuthenticatedFn: func(*session.Session) bool { return false },
		tokenSourceFn: func(context.Context, *session.Session) (oauth2.TokenSource, error) {
			t.Fatal("TokenSource should not be called for unauthenticated session")
			return nil, nil
		},
	}
	svc := NewService(true, creds, discardLogger(), metrics)

	emails := svc.GetEmailList(context.Background(), testSession(t))

	if len(emails) != 3 {
		t.Fatalf("len(emails) = %d, want 3 samples", len(emails))
	}
	if metrics.sampleFallback != 1 {
		t.Errorf("sampleFallback = %d, want 1", metrics.sampleFallback)
	}
}

// 一覧取得失敗時にサンプルデータへフォールバックすることを検証
func TestService_GetEmailList_FetchFailure(t *testing.T) {
	metrics := &mockMetrics{}
	creds := &mockCredentialSource{
		isAuthenticatedFn: func(*session.Session) bool { return true },
		tokenSourceFn: func(context.Context, *session.Session) (oauth2.TokenSource, error) {
			return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"}), nil
		},
	}
	svc := NewService(true, creds, discardLogger(), metrics)
	svc.newService = func(context.Context, oauth2.TokenSource) (*gmailapi.Service, error) {
		return nil, errors.New("gmail client init failed")
	}

	emails := svc.GetEmailList(context.Background(), testSession(t))

	if len(emails) != 3 {
		t.Fatalf("len(emails) = %d, want 3 samples", len(emails))
	}
	if len(metrics.fetchFailures) != 1 || metrics.fetchFailures[0] != "list" {
		t.Errorf("fetchFailures = %v, want [list]", metrics.fetchFailures)
	}
	if metrics.sampleFallback != 1 {
		t.Errorf("sampleFallback = %d, want 1", metrics.sampleFallback)
	}
	if metrics.fetchSuccess != 0 {
		t.Errorf("fetchSuccess = %d, want 0", metrics.fetchSuccess)
	}
}

// APIAvailableが設定値をそのまま返すことを検証
func TestService_APIAvailable(t *testing.T) {
	creds := &mockCredentialSource{}
	if NewService(true, creds, discardLogger(), nil).APIAvailable() != true {
		t.Error("APIAvailable() = false, want true")
	}
	if NewService(false, creds, discardLogger(), nil).APIAvailable() != false {
		t.Error("APIAvailable() = true, want false")
	}
}

// summarizeがヘッダー名を大文字小文字の区別なく照合することを検証
func TestService_Summarize_HeaderCaseInsensitive(t *testing.T) {
	svc := NewService(true, &mockCredentialSource{}, discardLogger(), nil)

	msg := &gmailapi.Message{
		Id:       "msg-1",
		ThreadId: "thread-1",
		Snippet:  "本文の先頭部分",
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "FROM", Value: "sender@example.com"},
				{Name: "Subject", Value: "件名テスト"},
				{Name: "date", Value: "Tue, 7 Jan 2025 14:00:00 +0900"},
				{Name: "X-Custom", Value: "ignored"},
			},
		},
	}

	summary := svc.summarize(msg)

	if summary.ID != "msg-1" {
		t.Errorf("ID = %q, want %q", summary.ID, "msg-1")
	}
	if summary.ThreadID != "thread-1" {
		t.Errorf("ThreadID = %q, want %q", summary.ThreadID, "thread-1")
	}
	if summary.Sender != "sender@example.com" {
		t.Errorf("Sender = %q, want %q", summary.Sender, "sender@example.com")
	}
	if summary.Subject != "件名テスト" {
		t.Errorf("Subject = %q, want %q", summary.Subject, "件名テスト")
	}
	if summary.Date != "Tue, 7 Jan 2025 14:00:00 +0900" {
		t.Errorf("Date = %q", summary.Date)
	}
	if summary.Snippet != "本文の先頭部分" {
		t.Errorf("Snippet = %q", summary.Snippet)
	}
}

// summarizeがスニペットのHTMLマークアップを除去することを検証
func TestService_Summarize_SanitizesSnippet(t *testing.T) {
	svc := NewService(true, &mockCredentialSource{}, discardLogger(), nil)

	msg := &gmailapi.Message{
		Id:      "msg-2",
		Snippet: `<script>alert("x")</script>こんにちは &amp; さようなら`,
	}

	summary := svc.summarize(msg)

	if summary.Snippet != "こんにちは & さようなら" {
		t.Errorf("Snippet = %q, want %q", summary.Snippet, "こんにちは & さようなら")
	}
}

// ペイロードなしのメッセージでもpanicしないことを検証
func TestService_Summarize_NilPayload(t *testing.T) {
	svc := NewService(true, &mockCredentialSource{}, discardLogger(), nil)

	summary := svc.summarize(&gmailapi.Message{Id: "msg-3"})

	if summary.ID != "msg-3" {
		t.Errorf("ID = %q, want %q", summary.ID, "msg-3")
	}
	if summary.Subject != "" || summary.Sender != "" || summary.Date != "" {
		t.Error("header fields should stay empty without payload")
	}
}
