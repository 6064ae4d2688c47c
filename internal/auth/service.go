package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/auth"
	"github.com/agendaja-app/agendaja-backend/pkg/config"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	"github.com/agendaja-app/agendaja-backend/pkg/security"
)

// CompanyFinder looks tenants up by their login email.
type CompanyFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.Company, error)
}

// RateLimiter enforces fixed-window request budgets.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ServiceParams wires the auth service dependencies.
type ServiceParams struct {
	Companies CompanyFinder
	Limiter   RateLimiter
	Logger    *logger.Logger
	JWT       config.JWTConfig
	RateLimit config.AuthRateLimitConfig
	Now       func() time.Time
}

// Service authenticates companies and issues access tokens.
type Service struct {
	companies CompanyFinder
	limiter   RateLimiter
	logger    *logger.Logger
	jwt       config.JWTConfig
	rateLimit config.AuthRateLimitConfig
	now       func() time.Time
}

// NewService validates dependencies and builds an auth Service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Companies == nil {
		return nil, errors.New("auth: company finder is required")
	}
	if params.Logger == nil {
		return nil, errors.New("auth: logger is required")
	}
	if params.JWT.Secret == "" {
		return nil, errors.New("auth: jwt config is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		companies: params.Companies,
		limiter:   params.Limiter,
		logger:    params.Logger,
		jwt:       params.JWT,
		rateLimit: params.RateLimit,
		now:       now,
	}, nil
}

// LoginInput carries the credentials plus the caller's address for limiting.
type LoginInput struct {
	Email    string
	Password string
	RemoteIP string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Company     *models.Company `json:"company"`
}

// Login verifies credentials and mints an access token. Failed lookups and
// bad passwords return the same error so the endpoint does not leak which
// emails exist.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	if err := s.allow(ctx, "login:email:"+email, s.rateLimit.LoginEmailLimit, s.rateLimit.LoginWindow); err != nil {
		return nil, err
	}
	if input.RemoteIP != "" {
		if err := s.allow(ctx, "login:ip:"+input.RemoteIP, s.rateLimit.LoginIPLimit, s.rateLimit.LoginWindow); err != nil {
			return nil, err
		}
	}

	company, err := s.companies.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load company")
	}
	if company == nil {
		return nil, invalidCredentials()
	}
	ok, err := security.VerifyPassword(input.Password, company.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		s.logger.Warn(s.logger.WithCompanyID(ctx, company.ID.String()), "login rejected: bad password")
		return nil, invalidCredentials()
	}

	now := s.now()
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		CompanyID: company.ID,
		Role:      enums.ActorRoleCompany,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.jwt.Expiration()),
		Company:     company,
	}, nil
}

// RefreshResult carries a re-issued access token.
type RefreshResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Refresh re-issues a token for an already-authenticated caller, extending
// the session without another password round trip.
func (s *Service) Refresh(ctx context.Context, companyID uuid.UUID, role enums.ActorRole) (*RefreshResult, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !role.IsValid() {
		role = enums.ActorRoleCompany
	}
	now := s.now()
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		CompanyID: companyID,
		Role:      role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &RefreshResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.jwt.Expiration()),
	}, nil
}

// AllowRegistration applies the registration rate limits for an email/IP pair.
func (s *Service) AllowRegistration(ctx context.Context, email, remoteIP string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := s.allow(ctx, "register:email:"+email, s.rateLimit.RegisterEmailLimit, s.rateLimit.RegisterWindow); err != nil {
			return err
		}
	}
	if remoteIP != "" {
		if err := s.allow(ctx, "register:ip:"+remoteIP, s.rateLimit.RegisterIPLimit, s.rateLimit.RegisterWindow); err != nil {
			return err
		}
	}
	return nil
}

// allow consults the limiter when one is configured. Limiter outages fail
// open: authentication still works when redis is down.
func (s *Service) allow(ctx context.Context, scope string, limit int, window time.Duration) error {
	if s.limiter == nil || limit <= 0 || window <= 0 {
		return nil
	}
	ok, _, err := s.limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		s.logger.Warn(ctx, "rate limiter unavailable: "+err.Error())
		return nil
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	}
	return nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
