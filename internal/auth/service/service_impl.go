package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/iosworks/claimdesk/internal/auth/domain"
	"github.com/iosworks/claimdesk/internal/auth/password"
	"github.com/iosworks/claimdesk/internal/config"
	"github.com/iosworks/claimdesk/internal/tenant"
	pkgdb "github.com/iosworks/claimdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	GenID    *snowflake.Node
	Registry *tenant.Registry
}

// Service stores accounts in the configured auth tenant's store and issues
// HS256 bearer tokens.
type Service struct {
	cfg      config.Config
	log      *zap.Logger
	genID    *snowflake.Node
	registry *tenant.Registry
}

func New(p Params) domain.Service {
	return &Service{
		cfg:      p.Cfg,
		log:      p.Log.Named("auth.service"),
		genID:    p.GenID,
		registry: p.Registry,
	}
}

func (s *Service) store() (*gorm.DB, error) {
	return s.registry.Handle(s.cfg.AuthTenant)
}

func (s *Service) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, domain.ErrCredentialsRequired
	}

	db, err := s.store()
	if err != nil {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = domain.RoleUser
	}
	tenants := req.Tenants
	if len(tenants) == 0 {
		tenants = []string{s.cfg.AuthTenant}
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:        s.genID.Generate(),
		Email:     email,
		Password:  hash,
		Name:      strings.TrimSpace(req.Name),
		Role:      role,
		Tenants:   datatypes.NewJSONSlice(tenants),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) SignIn(ctx context.Context, req domain.SignInRequest) (*domain.SignInResult, error) {
	db, err := s.store()
	if err != nil {
		return nil, err
	}

	var user domain.User
	err = db.WithContext(ctx).Where("email = ?", strings.TrimSpace(req.Email)).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(req.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	tenants := []string(user.Tenants)
	if len(tenants) == 0 {
		tenants = []string{s.cfg.AuthTenant}
	}

	token, err := s.issueToken(&user, tenants)
	if err != nil {
		return nil, err
	}

	return &domain.SignInResult{
		Token: token,
		User: domain.UserView{
			ID:    user.ID.String(),
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
		Tenants:       tenants,
		DefaultTenant: tenants[0],
	}, nil
}

func (s *Service) issueToken(user *domain.User, tenants []string) (string, error) {
	now := time.Now()
	claims := domain.Claims{
		Email:   user.Email,
		Name:    user.Name,
		Role:    user.Role,
		Tenants: tenants,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Service) Authenticate(token string) (*domain.Claims, error) {
	var claims domain.Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	return &claims, nil
}
