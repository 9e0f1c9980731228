package model

import (
	"reflect"
	"testing"
)

// Authoritiesがロール列をROLE_プレフィックス付き権限リストに変換することを検証
func TestLocalUser_Authorities(t *testing.T) {
	tests := []struct {
		name  string
		roles string
		want  []string
	}{
		{
			name:  "単一ロール",
			roles: "USER",
			want:  []string{"ROLE_USER"},
		},
		{
			name:  "複数ロール",
			roles: "USER,ADMIN",
			want:  []string{"ROLE_USER", "ROLE_ADMIN"},
		},
		{
			name:  "空白を含むロール列",
			roles: " USER , ADMIN ",
			want:  []string{"ROLE_USER", "ROLE_ADMIN"},
		},
		{
			name:  "空要素は無視される",
			roles: "USER,,ADMIN,",
			want:  []string{"ROLE_USER", "ROLE_ADMIN"},
		},
		{
			name:  "空文字列",
			roles: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &LocalUser{Roles: tt.roles}
			got := u.Authorities()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Authorities() = %v, want %v", got, tt.want)
			}
		})
	}
}

// PasswordMatchingがパスワード一致を正しく判定することを検証
func TestRegistrationInput_PasswordMatching(t *testing.T) {
	tests := []struct {
		name            string
		password        string
		confirmPassword string
		want            bool
	}{
		{"一致する場合", "secret123", "secret123", true},
		{"一致しない場合", "secret123", "secret456", false},
		{"両方空の場合", "", "", false},
		{"確認のみ空の場合", "secret123", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := RegistrationInput{
				Password:        tt.password,
				ConfirmPassword: tt.confirmPassword,
			}
			if got := in.PasswordMatching(); got != tt.want {
				t.Errorf("PasswordMatching() = %v, want %v", got, tt.want)
			}
		})
	}
}

// APIErrorがerrorインターフェースを実装し、コードとメッセージを含むことを検証
func TestAPIError_Error(t *testing.T) {
	err := NewUsernameTakenError("taro")

	if err.Code != ErrCodeUsernameTaken {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeUsernameTaken)
	}
	want := "[USERNAME_TAKEN] ユーザー名 'taro' は既に使用されています"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// 認証失敗エラーがユーザー名の存在有無を区別しないメッセージであることを検証
func TestNewInvalidCredentialsError_Message(t *testing.T) {
	err := NewInvalidCredentialsError()

	if err.Code != ErrCodeInvalidCredentials {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidCredentials)
	}
	if err.Message != "ユーザー名またはパスワードが正しくありません。" {
		t.Errorf("Message = %q", err.Message)
	}
}
