package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrWrongPIN        = errors.New("wrong email or PIN")
	ErrNotAdmin        = errors.New("user is not an admin")
	ErrInvalidPIN      = errors.New("PIN must be 4 to 6 digits and not a single repeated digit")
)

const resetPINLength = 4

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePINHash(ctx context.Context, id uint, pinHash string) error
	UpsertAdmin(ctx context.Context, email, pinHash string) (domain.User, error)
}

type SessionRepository interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type PINNotifier interface {
	PINReset(ctx context.Context, to, pin string) error
}

type AuthService struct {
	repo     AuthUserRepository
	sessions SessionRepository
	notifier PINNotifier
}

func NewAuthService(repo AuthUserRepository, sessions SessionRepository, notifier PINNotifier) *AuthService {
	return &AuthService{
		repo:     repo,
		sessions: sessions,
		notifier: notifier,
	}
}

func (s *AuthService) Signup(ctx context.Context, email, pin string) (domain.User, error) {
	if !domain.ValidPIN(pin) {
		return domain.User{}, ErrInvalidPIN
	}

	hash, err := hashPIN(pin)
	if err != nil {
		return domain.User{}, err
	}

	created, err := s.repo.Create(ctx, domain.User{
		Email:   normalizeEmail(email),
		PINHash: hash,
		Role:    domain.RoleBuyer,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Signin(ctx context.Context, email, pin string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrWrongPIN
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)); err != nil {
		return domain.User{}, ErrWrongPIN
	}

	return user, nil
}

func (s *AuthService) AdminSignin(ctx context.Context, email, pin string) (domain.User, error) {
	user, err := s.Signin(ctx, email, pin)
	if err != nil {
		return domain.User{}, err
	}
	if !user.IsAdmin() {
		return domain.User{}, ErrNotAdmin
	}

	return user, nil
}

// ForgotPIN replaces the PIN with a random one and emails it. The new PIN is
// stored before sending, so a failed email leaves the account with a PIN the
// user does not know; they can request another.
func (s *AuthService) ForgotPIN(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	pin, err := randomPIN(resetPINLength)
	if err != nil {
		return err
	}

	hash, err := hashPIN(pin)
	if err != nil {
		return err
	}

	if err = s.repo.UpdatePINHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("s.repo.UpdatePINHash -> %w", err)
	}

	if err = s.notifier.PINReset(ctx, user.Email, pin); err != nil {
		return fmt.Errorf("s.notifier.PINReset -> %w", err)
	}

	return nil
}

// EnsureAdmin creates or promotes the bootstrap staff account.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, pin string) (domain.User, error) {
	if !domain.ValidPIN(pin) {
		return domain.User{}, ErrInvalidPIN
	}

	hash, err := hashPIN(pin)
	if err != nil {
		return domain.User{}, err
	}

	admin, err := s.repo.UpsertAdmin(ctx, normalizeEmail(email), hash)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpsertAdmin -> %w", err)
	}

	return admin, nil
}

func (s *AuthService) Logout(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.sessions.Revoke(ctx, jti, ttl); err != nil {
		return fmt.Errorf("s.sessions.Revoke -> %w", err)
	}

	return nil
}

func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := s.sessions.IsRevoked(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("s.sessions.IsRevoked -> %w", err)
	}

	return revoked, nil
}

func hashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	return string(hash), nil
}

func randomPIN(length int) (string, error) {
	for {
		var b strings.Builder
		for i := 0; i < length; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(10))
			if err != nil {
				return "", fmt.Errorf("rand.Int -> %w", err)
			}
			b.WriteByte(byte('0' + n.Int64()))
		}

		if pin := b.String(); domain.ValidPIN(pin) {
			return pin, nil
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
