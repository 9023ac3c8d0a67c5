package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/allisson/go-pwdhash"
	"golang.org/x/crypto/bcrypt"
)

// Поддерживаемые алгоритмы хеширования паролей
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// BcryptMaxPasswordBytes длина, после которой bcrypt отказывается хешировать
const BcryptMaxPasswordBytes = 72

var (
	// ErrUnknownAlgorithm возвращается для неизвестного имени алгоритма
	ErrUnknownAlgorithm = errors.New("unknown password hashing algorithm")

	// ErrPasswordTooLong возвращается bcrypt hasher для паролей длиннее 72 байт
	ErrPasswordTooLong = bcrypt.ErrPasswordTooLong
)

// Hasher хеширует пароли и проверяет их по сохраненному хешу
type Hasher interface {
	// Hash возвращает self-describing строку хеша (PHC или bcrypt формат)
	Hash(password string) (string, error)
	// Verify сравнивает пароль с хешем за постоянное время.
	// Несовпадение возвращает false без ошибки, ошибка означает поврежденный хеш.
	Verify(password, hash string) (bool, error)
}

// argon2Hasher использует Argon2id через go-pwdhash
type argon2Hasher struct {
	hasher *pwdhash.PasswordHasher
}

// NewArgon2Hasher создает Argon2id hasher с interactive политикой
func NewArgon2Hasher() (Hasher, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, fmt.Errorf("failed to create argon2id hasher: %w", err)
	}
	return &argon2Hasher{hasher: hasher}, nil
}

func (h *argon2Hasher) Hash(password string) (string, error) {
	return h.hasher.Hash([]byte(password))
}

func (h *argon2Hasher) Verify(password, hash string) (bool, error) {
	ok, err := h.hasher.Verify([]byte(password), hash)
	if err != nil {
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return ok, nil
}

// bcryptHasher использует bcrypt из x/crypto
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher создает bcrypt hasher. cost вне допустимого диапазона
// заменяется на bcrypt.DefaultCost.
func NewBcryptHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *bcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify password: %w", err)
}

// PasswordHasher хеширует выбранным алгоритмом, а проверяет тем алгоритмом,
// которым был создан хеш. Так смена PASSWORD_HASHER не ломает вход
// для уже зарегистрированных пользователей.
type PasswordHasher struct {
	primary Hasher
	argon2  Hasher
	bcrypt  Hasher
}

// NewHasher создает PasswordHasher для алгоритма algorithm
func NewHasher(algorithm string) (*PasswordHasher, error) {
	argon2, err := NewArgon2Hasher()
	if err != nil {
		return nil, err
	}
	ph := &PasswordHasher{
		argon2: argon2,
		bcrypt: NewBcryptHasher(bcrypt.DefaultCost),
	}

	switch strings.ToLower(algorithm) {
	case AlgorithmArgon2id, "":
		ph.primary = ph.argon2
	case AlgorithmBcrypt:
		ph.primary = ph.bcrypt
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	return ph, nil
}

// Hash хеширует пароль основным алгоритмом
func (p *PasswordHasher) Hash(password string) (string, error) {
	return p.primary.Hash(password)
}

// Verify выбирает алгоритм по префиксу хеша
func (p *PasswordHasher) Verify(password, hash string) (bool, error) {
	switch {
	case isBcryptHash(hash) && p.bcrypt != nil:
		return p.bcrypt.Verify(password, hash)
	case strings.HasPrefix(hash, "$argon2") && p.argon2 != nil:
		return p.argon2.Verify(password, hash)
	default:
		return p.primary.Verify(password, hash)
	}
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
