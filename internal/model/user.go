// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// LocalUser はフォーム登録されたローカルアカウントを表す。
// 登録後の更新・削除経路は存在しない。
type LocalUser struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        string // カンマ区切りのロール名（例: "USER,ADMIN"）
	Enabled      bool
	CreatedAt    time.Time
}

// Authorities はカンマ区切りのロール列を "ROLE_" プレフィックス付きの
// 権限リストに変換する。空要素は無視する。
func (u *LocalUser) Authorities() []string {
	var grants []string
	for _, role := range strings.Split(u.Roles, ",") {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		grants = append(grants, "ROLE_"+role)
	}
	return grants
}

// RegistrationInput はユーザー登録フォームの入力を表す。
type RegistrationInput struct {
	Username        string
	Password        string
	ConfirmPassword string
}

// PasswordMatching はパスワードと確認パスワードが一致するかを返す。
func (in RegistrationInput) PasswordMatching() bool {
	return in.Password != "" && in.Password == in.ConfirmPassword
}
