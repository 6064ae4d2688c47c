package auth

import (
	"context"
	"io"
	"testing"
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

type stubFinder struct {
	findFn func(ctx context.Context, email string) (*models.Company, error)
}

func (s *stubFinder) FindByEmail(ctx context.Context, email string) (*models.Company, error) {
	if s.findFn == nil {
		return nil, nil
	}
	return s.findFn(ctx, email)
}

type stubLimiter struct {
	allow  bool
	err    error
	scopes []string
}

func (s *stubLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	s.scopes = append(s.scopes, scope)
	return s.allow, 1, s.err
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret!",
		Issuer:            "agendaja",
		ExpirationMinutes: 60,
	}
}

func testRateLimitConfig() config.AuthRateLimitConfig {
	return config.AuthRateLimitConfig{
		LoginWindow:     time.Minute,
		LoginEmailLimit: 5,
		LoginIPLimit:    20,
	}
}

// testClock pins the service clock for the whole test run. It stays close to
// the real clock so minted tokens survive ParseAccessToken's expiry check, and
// truncates to whole seconds to match JWT NumericDate precision.
var testClock = time.Now().UTC().Truncate(time.Second)

func fixedNow() time.Time {
	return testClock
}

func newTestService(t *testing.T, finder CompanyFinder, limiter RateLimiter) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Companies: finder,
		Limiter:   limiter,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		JWT:       testJWTConfig(),
		RateLimit: testRateLimitConfig(),
		Now:       fixedNow,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func hashedPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return hash
}

func TestLoginMintsValidToken(t *testing.T) {
	companyID := uuid.New()
	hash := hashedPassword(t, "s3cret-pass")
	finder := &stubFinder{
		findFn: func(ctx context.Context, email string) (*models.Company, error) {
			if email != "owner@salon.com" {
				t.Fatalf("expected normalized email, got %q", email)
			}
			return &models.Company{ID: companyID, Email: email, PasswordHash: hash, IsActive: true}, nil
		},
	}
	svc := newTestService(t, finder, nil)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "  Owner@Salon.COM ",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.TokenType != "Bearer" {
		t.Fatalf("expected bearer token, got %q", result.TokenType)
	}
	if got, want := result.ExpiresAt, fixedNow().Add(time.Hour); !got.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, got)
	}

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.CompanyID != companyID {
		t.Fatalf("expected company %s in claims, got %s", companyID, claims.CompanyID)
	}
	if claims.Role != enums.ActorRoleCompany {
		t.Fatalf("expected company role, got %s", claims.Role)
	}
}

func TestLoginBadPasswordAndUnknownEmailLookAlike(t *testing.T) {
	hash := hashedPassword(t, "right-pass")
	finder := &stubFinder{
		findFn: func(ctx context.Context, email string) (*models.Company, error) {
			if email == "known@salon.com" {
				return &models.Company{ID: uuid.New(), Email: email, PasswordHash: hash}, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(t, finder, nil)

	_, badPass := svc.Login(context.Background(), LoginInput{Email: "known@salon.com", Password: "wrong"})
	_, unknown := svc.Login(context.Background(), LoginInput{Email: "nobody@salon.com", Password: "wrong"})
	for _, err := range []error{badPass, unknown} {
		if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized error, got %v", err)
		}
	}
	if badPass.Error() != unknown.Error() {
		t.Fatalf("expected identical errors, got %q vs %q", badPass, unknown)
	}
}

func TestLoginRateLimited(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	svc := newTestService(t, &stubFinder{}, limiter)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@salon.com",
		Password: "pass",
		RemoteIP: "10.0.0.1",
	})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if len(limiter.scopes) != 1 || limiter.scopes[0] != "login:email:owner@salon.com" {
		t.Fatalf("expected email scope checked first, got %v", limiter.scopes)
	}
}

func TestLoginFailsOpenWhenLimiterErrors(t *testing.T) {
	hash := hashedPassword(t, "pass")
	limiter := &stubLimiter{allow: false, err: context.DeadlineExceeded}
	finder := &stubFinder{
		findFn: func(ctx context.Context, email string) (*models.Company, error) {
			return &models.Company{ID: uuid.New(), Email: email, PasswordHash: hash}, nil
		},
	}
	svc := newTestService(t, finder, limiter)

	if _, err := svc.Login(context.Background(), LoginInput{Email: "owner@salon.com", Password: "pass"}); err != nil {
		t.Fatalf("expected login to proceed when limiter is down, got %v", err)
	}
}

func TestAllowRegistrationScopes(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	svc := newTestService(t, &stubFinder{}, limiter)
	svc.rateLimit.RegisterWindow = 5 * time.Minute
	svc.rateLimit.RegisterEmailLimit = 3
	svc.rateLimit.RegisterIPLimit = 20

	if err := svc.AllowRegistration(context.Background(), "New@Salon.com", "10.0.0.1"); err != nil {
		t.Fatalf("AllowRegistration: %v", err)
	}
	want := []string{"register:email:new@salon.com", "register:ip:10.0.0.1"}
	if len(limiter.scopes) != len(want) {
		t.Fatalf("expected scopes %v, got %v", want, limiter.scopes)
	}
	for i := range want {
		if limiter.scopes[i] != want[i] {
			t.Fatalf("expected scope %q, got %q", want[i], limiter.scopes[i])
		}
	}
}

func TestRefreshReissuesToken(t *testing.T) {
	svc := newTestService(t, &stubFinder{}, &stubLimiter{allow: true})
	companyID := uuid.New()

	result, err := svc.Refresh(context.Background(), companyID, enums.ActorRoleCompany)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", result.TokenType)
	}
	if !result.ExpiresAt.Equal(fixedNow().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", result.ExpiresAt)
	}

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.CompanyID != companyID {
		t.Fatalf("expected company %s in claims, got %s", companyID, claims.CompanyID)
	}
}

func TestRefreshRequiresAuthenticatedCaller(t *testing.T) {
	svc := newTestService(t, &stubFinder{}, &stubLimiter{allow: true})

	_, err := svc.Refresh(context.Background(), uuid.Nil, enums.ActorRoleCompany)
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
