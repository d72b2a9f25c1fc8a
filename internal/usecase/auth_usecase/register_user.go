package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"app/internal/domain/model"
	"app/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// スタッフ登録の入力
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// スタッフ登録の出力
type RegisterUserOutput struct {
	User model.User
}

var (
	// 入力が不正
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidRole        = errors.New("invalid role")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// RegisterUserUsecaseはスタッフ登録の処理。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
}

// DI
func NewRegisterUserUsecase(userRepo repository.UserRepository, hasher PasswordHasher) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// スタッフ登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return out, ErrInvalidName
	}

	// emailの形式チェック
	if !isValidEmailFormat(in.Email) {
		return out, ErrInvalidEmailFormat
	}

	// passwordの長さチェック（最小12文字）
	if len(in.Password) < 12 {
		return out, ErrPasswordTooShort
	}

	// よくある弱いパスワードの拒否
	if isWeakPassword(in.Password) {
		return out, ErrWeakPassword
	}

	// roleは省略時staff
	role := model.Role(in.Role)
	if role == "" {
		role = model.RoleStaff
	}
	if !model.ValidRole(role) {
		return out, ErrInvalidRole
	}

	// email重複チェック
	_, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err == nil {
		return out, ErrEmailAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return out, err
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	user := model.User{
		Name:         name,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
	}

	// DBへ保存
	created, err := u.userRepo.Create(ctx, user)
	if err != nil {
		return out, err
	}

	out.User = created
	return out, nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return false
	}
	_, err := mail.ParseAddress(trimmed)
	return err == nil
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwerty":       {},
		"qwertyuiop":   {},
		"letmein":      {},
		"admin":        {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

// bcryptでハッシュ化
func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

// 平文(plain)をbcryptで比較
func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
