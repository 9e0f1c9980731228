package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/TakuyaFukumura/gmail-viewer/internal/model"
)

// TriviaServiceInterface はAIハンドラーが必要とするサービスインターフェース。
type TriviaServiceInterface interface {
	GetTrivia(ctx context.Context) (string, error)
}

// TriviaMetricsRecorder は豆知識取得のメトリクス収集インターフェース。
type TriviaMetricsRecorder interface {
	RecordTriviaSuccess()
	RecordTriviaFailure()
}

// AIHandler はAI機能サンプル画面のHTTPハンドラー。
type AIHandler struct {
	service  TriviaServiceInterface
	metrics  TriviaMetricsRecorder
	renderer *Renderer
}

// NewAIHandler はAIHandlerを生成する。metricsはnilでもよい。
func NewAIHandler(service TriviaServiceInterface, metrics TriviaMetricsRecorder, renderer *Renderer) *AIHandler {
	return &AIHandler{
		service:  service,
		metrics:  metrics,
		renderer: renderer,
	}
}

// aiPageData はAI機能サンプル画面のテンプレートデータ。
type aiPageData struct {
	Trivia string
	Error  string
}

// Show はAI機能サンプル画面を表示する。
// GET /ai
func (h *AIHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, "ai.html", aiPageData{})
}

// GetTrivia は豆知識を1件取得して画面に表示する。
// 取得失敗時もエラーメッセージ付きで同じ画面を表示する。
// POST /ai/trivia
func (h *AIHandler) GetTrivia(w http.ResponseWriter, r *http.Request) {
	trivia, err := h.service.GetTrivia(r.Context())
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordTriviaFailure()
		}
		h.renderer.Render(w, "ai.html", aiPageData{
			Error: "豆知識の取得に失敗しました: " + triviaErrorMessage(err),
		})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTriviaSuccess()
	}
	h.renderer.Render(w, "ai.html", aiPageData{Trivia: trivia})
}

// triviaErrorMessage はエラーから画面表示用のメッセージを取り出す。
func triviaErrorMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
