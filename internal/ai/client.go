// Package ai はGemini APIによる豆知識取得機能を提供する。
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/TakuyaFukumura/gmail-viewer/internal/model"
)

const (
	// defaultEndpoint はGemini generateContent APIのベースエンドポイント。
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

	// triviaPrompt は豆知識取得に使う固定プロンプト。
	triviaPrompt = "100文字程度の日本語で豆知識を教えてください。"

	// temperatureは0.0〜2.0。大きいほど応答がランダムになる。
	triviaTemperature     = 2.0
	triviaMaxOutputTokens = 200
)

// Config はClientの設定。
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration // 1回の呼び出しに適用するタイムアウト
}

// Client はGemini APIのクライアント。状態は持たない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     Config
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
		endpoint:   defaultEndpoint,
	}
}

// geminiRequest はgenerateContentエンドポイントへのリクエストボディ。
type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GetTrivia は固定プロンプトで豆知識を1件取得する。
// APIキーが未設定の場合はネットワーク呼び出しを行わずエラーを返す。
// HTTPエラーは詳細をログに残した上で粗いエラーに落とす（ベストエフォート機能のため）。
func (c *Client) GetTrivia(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.config.APIKey) == "" {
		c.logger.Error("Gemini APIキーが設定されていません")
		return "", model.NewTriviaAPIKeyMissingError()
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: triviaPrompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     triviaTemperature,
			MaxOutputTokens: triviaMaxOutputTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		c.logger.Error("リクエストボディの生成に失敗しました",
			slog.String("error", err.Error()),
		)
		return "", model.NewTriviaCallFailedError()
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.endpoint, c.config.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("HTTPリクエストの作成に失敗しました",
			slog.String("error", err.Error()),
		)
		return "", model.NewTriviaCallFailedError()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Gemini API呼び出しでエラーが発生しました",
			slog.String("error", err.Error()),
		)
		return "", model.NewTriviaCallFailedError()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", model.NewTriviaCallFailedError()
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Gemini APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return "", model.NewTriviaCallFailedError()
	}

	return c.parseResponse(body)
}

// geminiResponse はgenerateContentエンドポイントのレスポンス。
// candidates[0].content.parts[0].text 以外のフィールドは読まない。
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// parseResponse はレスポンスJSONから豆知識テキストを抽出する。
// 経路上のフィールド欠落・空配列はすべて解析失敗として扱い、部分結果は返さない。
func (c *Client) parseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("Gemini APIレスポンスの解析中にエラーが発生しました",
			slog.String("error", err.Error()),
		)
		return "", model.NewTriviaParseFailedError()
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		c.logger.Warn("Gemini APIレスポンスが期待される形式ではありません",
			slog.String("body", string(body)),
		)
		return "", model.NewTriviaParseFailedError()
	}

	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", model.NewTriviaParseFailedError()
	}

	return text, nil
}
