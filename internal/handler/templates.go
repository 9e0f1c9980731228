// Package handler はHTTPハンドラーと画面テンプレートを提供する。
package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer は埋め込みHTMLテンプレートのレンダリングを提供する。
// テンプレートはバイナリに埋め込むため、実行時のファイル配置に依存しない。
type Renderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewRenderer はすべての画面テンプレートをパースしたRendererを生成する。
// テンプレートの構文エラーは起動時に検出される。
func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{
		templates: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
		logger:    logger,
	}
}

// Render は指定テンプレートをレンダリングしてレスポンスに書き込む。
// レンダリング失敗時は500を返す。
func (rd *Renderer) Render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rd.templates.ExecuteTemplate(w, name, data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
