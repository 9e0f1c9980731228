package model

// EmailSummary はGmailメッセージ1件の要約を表す。
// 取得したメッセージから導出される読み取り専用のレコードで、永続化はしない。
type EmailSummary struct {
	ID       string
	ThreadID string
	Subject  string
	Sender   string
	Date     string
	Snippet  string
}
