package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shinyyama/cakemarket-backend/internal/auth"
	"github.com/shinyyama/cakemarket-backend/internal/mail"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("verify your email first")
	ErrApprovalPending    = errors.New("seller approval pending")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidAccount     = errors.New("invalid account details")
	ErrGoogleDisabled     = errors.New("google sign-in is not configured")
)

const minPasswordLen = 6

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         model.Role
	BakeryName   string
	District     string
	ContactPhone string
}

type AuthResult struct {
	Token   string
	Account *model.Account
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*model.Account, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error)
	ListPendingSellers(ctx context.Context) ([]model.Account, error)
	ApproveSeller(ctx context.Context, id uint64) (*model.Account, error)
	RejectSeller(ctx context.Context, id uint64) error
	PublicSeller(ctx context.Context, id uint64) (*model.Account, error)
}

type accountService struct {
	repo     repository.AccountRepository
	tokens   *auth.TokenIssuer
	mailer   mail.Mailer
	identity auth.IdentityVerifier
	log      *slog.Logger
}

// NewAccountService wires the account flows. identity may be nil, which disables Google sign-in.
func NewAccountService(repo repository.AccountRepository, tokens *auth.TokenIssuer, mailer mail.Mailer, identity auth.IdentityVerifier, log *slog.Logger) AccountService {
	if log == nil {
		log = slog.Default()
	}
	return &accountService{repo: repo, tokens: tokens, mailer: mailer, identity: identity, log: log.With("component", "accounts")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *accountService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	role := in.Role
	switch role {
	case "", model.RoleBuyer:
		role = model.RoleBuyer
	case model.RoleSeller, "baker":
		role = model.RoleSeller
	default:
		return nil, ErrInvalidRole
	}
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidAccount)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidAccount, minPasswordLen)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	a := &model.Account{
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Role:              role,
		Provider:          model.ProviderEmail,
		Approved:          role != model.RoleSeller,
		VerificationToken: &token,
	}
	if role == model.RoleSeller {
		a.BakeryName = strings.TrimSpace(in.BakeryName)
		a.District = strings.TrimSpace(in.District)
	}
	a.ContactPhone = strings.TrimSpace(in.ContactPhone)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerification(ctx, email, token); err != nil {
		// An account whose verification mail never went out can not be verified.
		if derr := s.repo.Delete(ctx, a.ID); derr != nil {
			s.log.ErrorContext(ctx, "remove unverifiable account failed", "account_id", a.ID, "err", derr)
		}
		return nil, fmt.Errorf("send verification email: %w", err)
	}
	s.log.InfoContext(ctx, "account registered", "account_id", a.ID, "role", a.Role)
	return a, nil
}

func (s *accountService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	a, err := s.repo.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	a.Verified = true
	a.VerificationToken = nil
	return s.repo.Update(ctx, a)
}

func (s *accountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	a, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !a.Verified {
		return nil, ErrEmailNotVerified
	}
	if !a.Approved {
		return nil, ErrApprovalPending
	}
	return s.issue(a)
}

func (s *accountService) GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.identity == nil {
		return nil, ErrGoogleDisabled
	}
	id, err := s.identity.Verify(ctx, idToken)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	a, err := s.repo.FindByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if !a.Approved {
			return nil, ErrApprovalPending
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		a = &model.Account{
			Name:     id.Name,
			Email:    id.Email,
			Role:     model.RoleBuyer,
			Provider: model.ProviderGoogle,
			Verified: true,
			Approved: true,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return nil, err
		}
		s.log.InfoContext(ctx, "account created from google sign-in", "account_id", a.ID)
	default:
		return nil, err
	}
	return s.issue(a)
}

func (s *accountService) issue(a *model.Account) (*AuthResult, error) {
	token, err := s.tokens.Issue(a.ID, a.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, Account: a}, nil
}

func (s *accountService) ListPendingSellers(ctx context.Context) ([]model.Account, error) {
	return s.repo.ListPendingSellers(ctx)
}

func (s *accountService) findSeller(ctx context.Context, id uint64) (*model.Account, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.Role != model.RoleSeller {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *accountService) ApproveSeller(ctx context.Context, id uint64) (*model.Account, error) {
	a, err := s.findSeller(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Approved = true
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accountService) RejectSeller(ctx context.Context, id uint64) error {
	a, err := s.findSeller(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, a.ID)
}

// PublicSeller returns an approved seller for the storefront profile.
func (s *accountService) PublicSeller(ctx context.Context, id uint64) (*model.Account, error) {
	a, err := s.findSeller(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Approved {
		return nil, ErrNotFound
	}
	return a, nil
}
