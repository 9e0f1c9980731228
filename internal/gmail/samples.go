package gmail

import "github.com/TakuyaFukumura/gmail-viewer/internal/model"

// SampleEmails はGmail APIが利用できない場合に表示する
// 固定のサンプルメール3件を順序固定で返す。
func SampleEmails() []model.EmailSummary {
	return []model.EmailSummary{
		{
			ID:      "sample1",
			Subject: "Gmail Viewerへようこそ",
			Sender:  "example@gmail.com",
			Date:    "2025-01-07 14:00:00",
			Snippet: "Gmail APIの設定が完了したら、実際のメールが表示されます。GOOGLE_CLIENT_IDとGOOGLE_CLIENT_SECRETを環境変数で設定してください。",
		},
		{
			ID:      "sample2",
			Subject: "設定方法について",
			Sender:  "support@example.com",
			Date:    "2025-01-07 13:30:00",
			Snippet: "1. Google Cloud Consoleでプロジェクトを作成 2. Gmail APIを有効化 3. OAuth 2.0クライアントIDを作成 4. 環境変数を設定",
		},
		{
			ID:      "sample3",
			Subject: "サンプルメール3",
			Sender:  "test@example.com",
			Date:    "2025-01-07 12:00:00",
			Snippet: "これはサンプルメールです。実際のGmail APIが設定されると、本物のメールが表示されます。",
		},
	}
}
