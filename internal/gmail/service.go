// Package gmail はGmail APIからのメールサマリー取得を提供する。
// API未設定・未認証・取得失敗のいずれの場合もサンプルデータに
// フォールバックし、呼び出し元にエラーを返さない。
package gmail

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/TakuyaFukumura/gmail-viewer/internal/model"
	"github.com/TakuyaFukumura/gmail-viewer/internal/session"
)

// maxMessages は1回の取得で返すメッセージ数の上限。
// ページネーションは行わず、先頭10件のみを対象とする。
const maxMessages = 10

// CredentialSource はメール取得に必要な認証情報のインターフェース。
// auth.Coordinatorの部分集合として定義する。
type CredentialSource interface {
	IsAuthenticated(sess *session.Session) bool
	TokenSource(ctx context.Context, sess *session.Session) (oauth2.TokenSource, error)
}

// MetricsRecorder はメール取得のメトリクス収集インターフェース。
type MetricsRecorder interface {
	RecordMailFetchSuccess(count int)
	RecordMailFetchFailure(reason string)
	RecordSampleFallback()
	RecordMailFetchLatency(duration time.Duration)
}

// Service はメールサマリー取得のサービス層。
// キャッシュもリトライも行わず、呼び出しごとに上流APIから取得し直す。
type Service struct {
	available bool
	creds     CredentialSource
	logger    *slog.Logger
	metrics   MetricsRecorder
	sanitizer *bluemonday.Policy

	// テスト用に差し替え可能なGmailクライアント生成関数
	newService func(ctx context.Context, ts oauth2.TokenSource) (*gmailapi.Service, error)
}

// NewService はServiceを生成する。
// apiAvailableはOAuthクライアント設定が揃っているかを示す（config.GmailAPIAvailable）。
func NewService(apiAvailable bool, creds CredentialSource, logger *slog.Logger, metrics MetricsRecorder) *Service {
	return &Service{
		available: apiAvailable,
		creds:     creds,
		logger:    logger,
		metrics:   metrics,
		sanitizer: bluemonday.StrictPolicy(),
		newService: func(ctx context.Context, ts oauth2.TokenSource) (*gmailapi.Service, error) {
			return gmailapi.NewService(ctx, option.WithTokenSource(ts))
		},
	}
}

// APIAvailable はGmail API連携が設定済みかどうかを返す。
func (s *Service) APIAvailable() bool {
	return s.available
}

// GetEmailList は現在のセッションのメールサマリーを最大10件返す。
// 以下の順でフォールバックする:
//  1. OAuthクライアントが未設定ならネットワーク呼び出しなしでサンプルを返す
//  2. セッションが未認証ならサンプルを返す
//  3. 一覧取得に失敗した場合もサンプルを返す
//
// 個別メッセージの取得失敗はログに残してスキップし、バッチ全体は中断しない。
func (s *Service) GetEmailList(ctx context.Context, sess *session.Session) []model.EmailSummary {
	if !s.available {
		s.logger.Warn("Gmail API設定が不完全です。サンプルデータを返します。")
		s.recordFallback()
		return SampleEmails()
	}

	if !s.creds.IsAuthenticated(sess) {
		s.logger.Info("未認証のセッションです。サンプルデータを返します。")
		s.recordFallback()
		return SampleEmails()
	}

	start := time.Now()

	summaries, err := s.fetchEmails(ctx, sess)
	if err != nil {
		s.logger.Error("メール一覧取得中にエラーが発生しました",
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.RecordMailFetchFailure("list")
		}
		s.recordFallback()
		return SampleEmails()
	}

	if s.metrics != nil {
		s.metrics.RecordMailFetchSuccess(len(summaries))
		s.metrics.RecordMailFetchLatency(time.Since(start))
	}

	return summaries
}

// fetchEmails はGmail APIからメッセージ一覧を取得し、サマリーに変換する。
func (s *Service) fetchEmails(ctx context.Context, sess *session.Session) ([]model.EmailSummary, error) {
	ts, err := s.creds.TokenSource(ctx, sess)
	if err != nil {
		return nil, err
	}

	svc, err := s.newService(ctx, ts)
	if err != nil {
		return nil, err
	}

	const user = "me"

	list, err := svc.Users.Messages.List(user).MaxResults(maxMessages).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	summaries := make([]model.EmailSummary, 0, len(list.Messages))
	for _, msg := range list.Messages {
		full, err := svc.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			// 1件の取得失敗はバッチ全体を中断しない
			s.logger.Error("メッセージの取得に失敗しました",
				slog.String("message_id", msg.Id),
				slog.String("error", err.Error()),
			)
			continue
		}
		summaries = append(summaries, s.summarize(full))
	}

	return summaries, nil
}

// headerSetters はヘッダー名（小文字）からサマリーのフィールドへの静的マッピング。
// ここに無いヘッダーは無視する。
var headerSetters = map[string]func(*model.EmailSummary, string){
	"from":    func(s *model.EmailSummary, v string) { s.Sender = v },
	"subject": func(s *model.EmailSummary, v string) { s.Subject = v },
	"date":    func(s *model.EmailSummary, v string) { s.Date = v },
}

// summarize はGmailメッセージをEmailSummaryに射影する。
// ヘッダー名の照合は大文字小文字を区別しない。
func (s *Service) summarize(msg *gmailapi.Message) model.EmailSummary {
	summary := model.EmailSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			if setter, ok := headerSetters[strings.ToLower(header.Name)]; ok {
				setter(&summary, header.Value)
			}
		}
	}

	if msg.Snippet != "" {
		// スニペットはそのままHTMLに埋め込むため、マークアップを除去して
		// プレーンテキストに戻す
		summary.Snippet = html.UnescapeString(s.sanitizer.Sanitize(msg.Snippet))
	}

	return summary
}

func (s *Service) recordFallback() {
	if s.metrics != nil {
		s.metrics.RecordSampleFallback()
	}
}
