// Package user はローカルアカウントの登録と認証のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/TakuyaFukumura/gmail-viewer/internal/model"
	"github.com/TakuyaFukumura/gmail-viewer/internal/repository"
)

// defaultRole は新規ユーザーに付与するロール。
const defaultRole = "USER"

// Service はローカルアカウントのサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// ValidateRegistration は登録フォームの入力を検証し、
// フィールド名からエラーメッセージへのマップを返す。問題がなければ空マップ。
func ValidateRegistration(in model.RegistrationInput) map[string]string {
	errs := make(map[string]string)

	switch {
	case in.Username == "":
		errs["username"] = "ユーザー名は必須です"
	case utf8.RuneCountInString(in.Username) < 3 || utf8.RuneCountInString(in.Username) > 50:
		errs["username"] = "ユーザー名は3文字以上50文字以下で入力してください"
	}

	switch {
	case in.Password == "":
		errs["password"] = "パスワードは必須です"
	case utf8.RuneCountInString(in.Password) < 6:
		errs["password"] = "パスワードは6文字以上で入力してください"
	}

	switch {
	case in.ConfirmPassword == "":
		errs["confirmPassword"] = "パスワード確認は必須です"
	case !in.PasswordMatching():
		errs["confirmPassword"] = "パスワードが一致しません"
	}

	return errs
}

// CreateUser は新規ユーザーを作成する。
// ユーザー名が既に存在する場合はUSERNAME_TAKENエラーを返し、挿入は行わない。
// 存在チェックと挿入の間の競合はDBの一意制約が最終的に解決し、
// その場合も同じUSERNAME_TAKENエラーとして返る。
// パスワード一致チェックは永続化の前に行う。
func (s *Service) CreateUser(ctx context.Context, in model.RegistrationInput) (*model.LocalUser, error) {
	if !in.PasswordMatching() {
		return nil, fmt.Errorf("password and confirmation do not match")
	}

	existing, err := s.userRepo.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewUsernameTakenError(in.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	newUser := &model.LocalUser{
		ID:           uuid.New().String(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Roles:        defaultRole,
		Enabled:      true,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	slog.Info("新規ユーザーを作成しました",
		slog.String("user_id", newUser.ID),
		slog.String("username", newUser.Username),
	)

	return newUser, nil
}

// LoadUser はユーザー名からユーザーを取得する。
// 見つからない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) LoadUser(ctx context.Context, username string) (*model.LocalUser, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(username)
	}
	return user, nil
}

// Authenticate はユーザー名とパスワードでローカル認証を行う。
// 無効化されたアカウントは認証時点で拒否する。
// ユーザー未検出とパスワード不一致はどちらもINVALID_CREDENTIALSとして返し、
// ユーザー名の存在有無を外部から区別できないようにする。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.LocalUser, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if !user.Enabled {
		return nil, model.NewAccountDisabledError()
	}

	return user, nil
}
