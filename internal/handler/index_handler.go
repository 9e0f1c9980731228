package handler

import (
	"net/http"

	"github.com/TakuyaFukumura/gmail-viewer/internal/middleware"
)

// IndexHandler はトップページのHTTPハンドラー。
type IndexHandler struct {
	renderer *Renderer
}

// NewIndexHandler はIndexHandlerを生成する。
func NewIndexHandler(renderer *Renderer) *IndexHandler {
	return &IndexHandler{renderer: renderer}
}

// indexPageData はトップページのテンプレートデータ。
type indexPageData struct {
	Username      string
	LogoutMessage bool
}

// Show はトップページを表示する。
// GET /
func (h *IndexHandler) Show(w http.ResponseWriter, r *http.Request) {
	data := indexPageData{
		LogoutMessage: r.URL.Query().Get("logout") == "success",
	}

	if sess, err := middleware.SessionFromContext(r.Context()); err == nil {
		data.Username = sess.Username()
	}

	h.renderer.Render(w, "index.html", data)
}
