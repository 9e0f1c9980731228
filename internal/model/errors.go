package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, ai, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUsernameTaken       = "USERNAME_TAKEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeAccountDisabled     = "ACCOUNT_DISABLED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeTriviaAPIKeyMissing = "TRIVIA_API_KEY_MISSING"
	ErrCodeTriviaCallFailed    = "TRIVIA_CALL_FAILED"
	ErrCodeTriviaParseFailed   = "TRIVIA_PARSE_FAILED"
)

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("ユーザー名 '%s' は既に使用されています", username),
		Category: "validation",
		Action:   "別のユーザー名を入力してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("ユーザーが見つかりません: %s", username),
		Category: "auth",
		Action:   "ユーザー名を確認してください。",
	}
}

// NewAccountDisabledError は無効化アカウントエラーを生成する。
func NewAccountDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountDisabled,
		Message:  "このアカウントは無効化されています。",
		Category: "auth",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewTriviaAPIKeyMissingError はAPIキー未設定エラーを生成する。
func NewTriviaAPIKeyMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeTriviaAPIKeyMissing,
		Message:  "APIキーが設定されていません。",
		Category: "ai",
		Action:   "GEMINI_API_KEYを設定してください。",
	}
}

// NewTriviaCallFailedError はAPI呼び出し失敗エラーを生成する。
// 元の原因の詳細はサーバーログにのみ残し、ユーザーには渡さない。
func NewTriviaCallFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeTriviaCallFailed,
		Message:  "API呼び出しに失敗しました。",
		Category: "ai",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTriviaParseFailedError はレスポンス解析失敗エラーを生成する。
func NewTriviaParseFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeTriviaParseFailed,
		Message:  "AIからの応答を解析できませんでした。",
		Category: "ai",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
