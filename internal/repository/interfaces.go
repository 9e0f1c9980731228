// Package repository はデータ永続化層のインターフェースと実装を提供する。
package repository

import (
	"context"

	"github.com/TakuyaFukumura/gmail-viewer/internal/model"
)

// UserRepository はローカルユーザーの永続化インターフェース。
type UserRepository interface {
	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.LocalUser, error)
	// Create は新規ユーザーを挿入する。
	// ユーザー名の一意制約に違反した場合は model.APIError（USERNAME_TAKEN）を返す。
	Create(ctx context.Context, user *model.LocalUser) error
}
