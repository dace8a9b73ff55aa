package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventix/ticketing/internal/core/domain"
	"github.com/eventix/ticketing/internal/core/ports"
)

// AuthOptions holds the tunables of the auth flows.
type AuthOptions struct {
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	// AppBaseURL is the frontend origin that hosts the verify and reset pages.
	AppBaseURL string
	// PromotorRequireVerification sends a verification email on promotor
	// registration and refuses promotor logins until verified.
	PromotorRequireVerification bool
}

// AuthDeps are the collaborators of the auth service.
type AuthDeps struct {
	Users     ports.AccountRepository
	Promotors ports.AccountRepository
	Hasher    ports.PasswordHasher
	Tokens    ports.TokenIssuer
	Mailer    ports.Mailer
	Limiter   ports.LoginLimiter
	Ledger    ports.TokenLedger
	// Audit is optional.
	Audit ports.AuditLog
}

type authService struct {
	deps AuthDeps
	opts AuthOptions
	log  zerolog.Logger
}

// NewAuthService returns an AuthService implementation.
func NewAuthService(deps AuthDeps, opts AuthOptions, log zerolog.Logger) ports.AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	opts.AppBaseURL = strings.TrimRight(opts.AppBaseURL, "/")
	return &authService{deps: deps, opts: opts, log: log}
}

func (s *authService) RegisterUser(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.register(ctx, domain.AccountUser, in)
}

func (s *authService) RegisterPromotor(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.register(ctx, domain.AccountPromotor, in)
}

func (s *authService) register(ctx context.Context, t domain.AccountType, in ports.RegisterInput) (*domain.Account, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("register %s: %w: username, email and password are required", t, domain.ErrValidation)
	}
	if in.Password != in.ConfirmPassword {
		return nil, fmt.Errorf("register %s: %w: passwords do not match", t, domain.ErrValidation)
	}

	repo := s.repo(t)
	taken, err := repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", t, err)
	}
	if taken {
		return nil, fmt.Errorf("register %s: %w", t, domain.ErrConflict)
	}

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", t, err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Type:         t,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if t == domain.AccountUser {
		account.RefCode = newRefCode()
	}

	created, err := repo.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", t, err)
	}

	if t == domain.AccountUser || s.opts.PromotorRequireVerification {
		if err := s.sendVerification(ctx, created); err != nil {
			// Without the email the account could never be verified, so the
			// row goes and the same registration can be retried.
			if delErr := repo.Delete(ctx, created.ID); delErr != nil {
				s.log.Error().Err(delErr).Int64("account_id", created.ID).Msg("failed to roll back registration")
			}
			return nil, fmt.Errorf("register %s: %w", t, err)
		}
	}

	s.log.Info().Int64("account_id", created.ID).Str("type", string(t)).Msg("account registered")
	s.audit(ctx, domain.EventRegistered, t, created.ID, "", "")

	return created.Sanitized(), nil
}

func (s *authService) sendVerification(ctx context.Context, account *domain.Account) error {
	tkn, _, err := s.deps.Tokens.Issue(domain.TokenClaims{
		AccountID:   account.ID,
		AccountType: account.Type,
		Purpose:     domain.PurposeVerify,
	}, s.opts.TokenTTL)
	if err != nil {
		return err
	}

	path := "/verify/"
	if account.Type == domain.AccountPromotor {
		path = "/promotor/verify/"
	}

	if err := s.deps.Mailer.SendVerification(ctx, ports.VerificationMail{
		To:        account.Email,
		Name:      account.Username,
		Link:      s.opts.AppBaseURL + path + url.PathEscape(tkn),
		ExpiresIn: s.opts.TokenTTL,
	}); err != nil {
		return fmt.Errorf("send verification: %w", err)
	}
	return nil
}

// VerifyAccount redeems a verification token. Redeeming a still-valid token
// twice re-applies the same update.
func (s *authService) VerifyAccount(ctx context.Context, raw string) error {
	claims, err := s.deps.Tokens.Verify(raw, domain.PurposeVerify)
	if err != nil {
		return fmt.Errorf("verify account: %w", err)
	}
	if !claims.AccountType.Valid() {
		return fmt.Errorf("verify account: %w: unknown account type", domain.ErrInvalidToken)
	}

	if err := s.repo(claims.AccountType).MarkVerified(ctx, claims.AccountID); err != nil {
		return fmt.Errorf("verify account: %w", err)
	}

	s.log.Info().Int64("account_id", claims.AccountID).Str("type", string(claims.AccountType)).Msg("account verified")
	s.audit(ctx, domain.EventVerified, claims.AccountType, claims.AccountID, "", "")
	return nil
}

func (s *authService) LoginUser(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	return s.login(ctx, domain.AccountUser, identifier, password)
}

func (s *authService) LoginPromotor(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	return s.login(ctx, domain.AccountPromotor, identifier, password)
}

func (s *authService) login(ctx context.Context, t domain.AccountType, identifier, password string) (*ports.LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("login %s: %w: identifier and password are required", t, domain.ErrValidation)
	}

	key := string(t) + ":" + strings.ToLower(identifier)
	blocked, err := s.deps.Limiter.Blocked(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("type", string(t)).Msg("login limiter check failed, allowing attempt")
	} else if blocked {
		return nil, fmt.Errorf("login %s: %w", t, domain.ErrTooManyAttempts)
	}

	account, err := s.repo(t).FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.recordFailure(ctx, key)
			s.audit(ctx, domain.EventLoginFailed, t, 0, identifier, "not_found")
		}
		return nil, fmt.Errorf("login %s: %w", t, err)
	}

	if s.requiresVerification(t) && !account.IsVerified {
		s.audit(ctx, domain.EventLoginFailed, t, account.ID, identifier, "unverified")
		return nil, fmt.Errorf("login %s: %w", t, domain.ErrUnverified)
	}

	if !s.deps.Hasher.Compare(account.PasswordHash, password) {
		s.recordFailure(ctx, key)
		s.audit(ctx, domain.EventLoginFailed, t, account.ID, identifier, "invalid_credentials")
		return nil, fmt.Errorf("login %s: %w", t, domain.ErrInvalidCredentials)
	}

	if err := s.deps.Limiter.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login limiter")
	}

	tkn, expiresAt, err := s.deps.Tokens.Issue(domain.TokenClaims{
		AccountID:   account.ID,
		AccountType: t,
		Purpose:     domain.PurposeSession,
	}, s.opts.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", t, err)
	}

	s.log.Info().Int64("account_id", account.ID).Str("type", string(t)).Msg("login succeeded")
	s.audit(ctx, domain.EventLoginSuccess, t, account.ID, "", "")

	return &ports.LoginResult{
		Token:     tkn,
		ExpiresAt: expiresAt,
		Account:   account.Sanitized(),
	}, nil
}

func (s *authService) recordFailure(ctx context.Context, key string) {
	if err := s.deps.Limiter.RecordFailure(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

// CheckSession resolves a session token to the account it names.
func (s *authService) CheckSession(ctx context.Context, raw string) (*ports.Session, error) {
	claims, err := s.deps.Tokens.Verify(raw, domain.PurposeSession)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !claims.AccountType.Valid() {
		return nil, fmt.Errorf("check session: %w: unknown account type", domain.ErrInvalidToken)
	}

	account, err := s.repo(claims.AccountType).FindByID(ctx, claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}

	return &ports.Session{Type: claims.AccountType, Account: account.Sanitized()}, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, t domain.AccountType, identifier string) error {
	if !t.Valid() {
		return fmt.Errorf("password reset: %w: unknown account type %q", domain.ErrValidation, t)
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return fmt.Errorf("password reset: %w: identifier is required", domain.ErrValidation)
	}

	account, err := s.repo(t).FindByIdentifier(ctx, identifier)
	if err != nil {
		return fmt.Errorf("password reset: %w", err)
	}

	tkn, _, err := s.deps.Tokens.Issue(domain.TokenClaims{
		AccountID:   account.ID,
		AccountType: t,
		Purpose:     domain.PurposeReset,
	}, s.opts.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("password reset: %w", err)
	}

	if err := s.deps.Mailer.SendPasswordReset(ctx, ports.PasswordResetMail{
		To:        account.Email,
		Name:      account.Username,
		Link:      s.opts.AppBaseURL + "/reset-password/" + url.PathEscape(tkn),
		ExpiresIn: s.opts.ResetTokenTTL,
	}); err != nil {
		return fmt.Errorf("password reset: send: %w", err)
	}
	s.audit(ctx, domain.EventResetRequest, t, account.ID, "", "")
	return nil
}

// ResetPassword redeems a reset token exactly once.
func (s *authService) ResetPassword(ctx context.Context, raw, password, confirmPassword string) error {
	if password == "" {
		return fmt.Errorf("reset password: %w: password is required", domain.ErrValidation)
	}
	if password != confirmPassword {
		return fmt.Errorf("reset password: %w: passwords do not match", domain.ErrValidation)
	}

	claims, err := s.deps.Tokens.Verify(raw, domain.PurposeReset)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if !claims.AccountType.Valid() {
		return fmt.Errorf("reset password: %w: unknown account type", domain.ErrInvalidToken)
	}

	repo := s.repo(claims.AccountType)
	if _, err := repo.FindByID(ctx, claims.AccountID); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	first, err := s.deps.Ledger.Consume(ctx, claims.ID, time.Until(claims.ExpiresAt))
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if !first {
		return fmt.Errorf("reset password: %w: already used", domain.ErrInvalidToken)
	}

	hash, err := s.deps.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := repo.UpdatePasswordHash(ctx, claims.AccountID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.log.Info().Int64("account_id", claims.AccountID).Str("type", string(claims.AccountType)).Msg("password reset")
	s.audit(ctx, domain.EventPasswordReset, claims.AccountType, claims.AccountID, "", "")
	return nil
}

// audit appends to the audit trail. A failed write is logged and never fails
// the operation.
func (s *authService) audit(ctx context.Context, kind domain.AuthEventKind, t domain.AccountType, id int64, identifier, reason string) {
	if s.deps.Audit == nil {
		return
	}
	err := s.deps.Audit.Record(ctx, &domain.AuthEvent{
		Kind:        kind,
		AccountType: t,
		AccountID:   id,
		Identifier:  strings.ToLower(identifier),
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("failed to record audit event")
	}
}

func (s *authService) repo(t domain.AccountType) ports.AccountRepository {
	if t == domain.AccountPromotor {
		return s.deps.Promotors
	}
	return s.deps.Users
}

func (s *authService) requiresVerification(t domain.AccountType) bool {
	return t == domain.AccountUser || s.opts.PromotorRequireVerification
}

func newRefCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
