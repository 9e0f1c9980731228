package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // 画面アクセス全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // 画面アクセス全般のバーストサイズ
	TriviaRate      rate.Limit    // 豆知識取得のレート（req/sec）。10/60
	TriviaBurst     int           // 豆知識取得のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 画面アクセス全般は120 req/min/セッション、外部AI APIを呼ぶ豆知識取得は
// 10 req/min/セッションに抑える。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:    120,
		TriviaRate:      rate.Limit(10.0 / 60.0), // ~0.167 req/sec
		TriviaBurst:     10,
		CleanupInterval: 5 * time.Minute,
	}
}

// sessionLimiter はセッションごとのレートリミッターとアクセス時刻を保持する。
type sessionLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はセッションごとのレート制限を管理する。
// 画面アクセス全般のレート制限と豆知識取得のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*sessionLimiter

	triviaMu       sync.RWMutex
	triviaLimiters map[string]*sessionLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*sessionLimiter),
		triviaLimiters:  make(map[string]*sessionLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware は画面アクセス全般のレート制限ミドルウェアを返す。
// リクエストコンテキストにセッションが含まれている必要がある（SessionMiddlewareの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := SessionFromContext(r.Context())
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			limiter := rl.getOrCreateGeneralLimiter(sess.ID())

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("session_id", sess.ID()),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TriviaMiddleware は豆知識取得専用のレート制限ミドルウェアを返す。
// 画面アクセス全般のレート制限とは独立に動作する。
func (rl *RateLimiter) TriviaMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := SessionFromContext(r.Context())
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			limiter := rl.getOrCreateTriviaLimiter(sess.ID())

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.TriviaRate)
				slog.Warn("rate limit exceeded",
					slog.String("session_id", sess.ID()),
					slog.String("limit_type", "trivia"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されている画面アクセス全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// TriviaLimiterCount は現在管理されている豆知識取得リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) TriviaLimiterCount() int {
	rl.triviaMu.RLock()
	defer rl.triviaMu.RUnlock()
	return len(rl.triviaLimiters)
}

// getOrCreateGeneralLimiter はセッションの画面アクセス全般リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateGeneralLimiter(sessionID string) *rate.Limiter {
	rl.generalMu.RLock()
	sl, exists := rl.generalLimiters[sessionID]
	rl.generalMu.RUnlock()

	if exists {
		rl.generalMu.Lock()
		sl.lastAccess = time.Now()
		rl.generalMu.Unlock()
		return sl.limiter
	}

	rl.generalMu.Lock()
	defer rl.generalMu.Unlock()

	// ダブルチェック
	if sl, exists := rl.generalLimiters[sessionID]; exists {
		sl.lastAccess = time.Now()
		return sl.limiter
	}

	limiter := rate.NewLimiter(rl.config.GeneralRate, rl.config.GeneralBurst)
	rl.generalLimiters[sessionID] = &sessionLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// getOrCreateTriviaLimiter はセッションの豆知識取得リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateTriviaLimiter(sessionID string) *rate.Limiter {
	rl.triviaMu.RLock()
	sl, exists := rl.triviaLimiters[sessionID]
	rl.triviaMu.RUnlock()

	if exists {
		rl.triviaMu.Lock()
		sl.lastAccess = time.Now()
		rl.triviaMu.Unlock()
		return sl.limiter
	}

	rl.triviaMu.Lock()
	defer rl.triviaMu.Unlock()

	// ダブルチェック
	if sl, exists := rl.triviaLimiters[sessionID]; exists {
		sl.lastAccess = time.Now()
		return sl.limiter
	}

	limiter := rate.NewLimiter(rl.config.TriviaRate, rl.config.TriviaBurst)
	rl.triviaLimiters[sessionID] = &sessionLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for sessionID, sl := range rl.generalLimiters {
		if now.Sub(sl.lastAccess) > ttl {
			delete(rl.generalLimiters, sessionID)
		}
	}
	rl.generalMu.Unlock()

	rl.triviaMu.Lock()
	for sessionID, sl := range rl.triviaLimiters {
		if now.Sub(sl.lastAccess) > ttl {
			delete(rl.triviaLimiters, sessionID)
		}
	}
	rl.triviaMu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	http.Error(w, "too many requests", http.StatusTooManyRequests)
}
