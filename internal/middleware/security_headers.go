package middleware

import "net/http"

// contentSecurityPolicy はサーバーサイドレンダリングのHTMLフォーム画面向けのCSP。
// 各テンプレートはインラインの<style>ブロックのみを使い、スクリプトや
// 外部リソースは読み込まない。
const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'none'; form-action 'self'; frame-ancestors 'none'"

// NewSecurityHeadersMiddleware は全レスポンスにセキュリティ関連ヘッダーを付与する
// ミドルウェアを生成する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			next.ServeHTTP(w, r)
		})
	}
}
