package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/viakashmir/admin-console/internal"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	Operator(email string) (*Operator, error)
}

// OperatorRepository looks up operators and their password hashes.
type OperatorRepository interface {
	GetPasswordForEmail(email string) (passwordHash string, err error)
	GetOperator(email string) (*Operator, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(op *Operator) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(op *Operator) (token string, err error)
	ValidateToken(tokenString, kind string) (*Claims, error)
}

// ConfigOperators serves operators from configuration. Emails match
// case-insensitively.
type ConfigOperators struct {
	byEmail map[string]internal.Operator
}

func NewConfigOperators(ops []internal.Operator) *ConfigOperators {
	byEmail := make(map[string]internal.Operator, len(ops))
	for _, op := range ops {
		byEmail[strings.ToLower(op.Email)] = op
	}
	return &ConfigOperators{byEmail: byEmail}
}

func (c *ConfigOperators) GetPasswordForEmail(email string) (string, error) {
	op, ok := c.byEmail[strings.ToLower(email)]
	if !ok {
		return "", ErrUnknownOperator
	}
	return op.PasswordHash, nil
}

func (c *ConfigOperators) GetOperator(email string) (*Operator, error) {
	op, ok := c.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUnknownOperator
	}
	return &Operator{Email: op.Email, Permissions: append([]string(nil), op.Permissions...)}, nil
}

// Service is the main auth service with dependencies
type Service struct {
	repo           OperatorRepository
	tokenGenerator TokenGeneratorAPI
	logger         *slog.Logger
}

func NewService(repo OperatorRepository, tokenGen TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	storedHash, err := s.repo.GetPasswordForEmail(dto.Email)
	if err != nil {
		s.logger.Warn("login for unknown operator", "email", dto.Email)
		return AuthTokens{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(storedHash, dto.Password); err != nil {
		s.logger.Warn("login with wrong password", "email", dto.Email)
		return AuthTokens{}, ErrInvalidCredentials
	}

	op, err := s.repo.GetOperator(dto.Email)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}
	return s.issue(op)
}

// RefreshTokens validates the refresh token and issues a new pair. The
// operator's permissions are reloaded so config changes take effect.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken, kindRefresh)
	if err != nil {
		return AuthTokens{}, err
	}
	op, err := s.repo.GetOperator(claims.Email)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	return s.issue(op)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString, kindAccess)
}

func (s *Service) Operator(email string) (*Operator, error) {
	return s.repo.GetOperator(email)
}

func (s *Service) issue(op *Operator) (AuthTokens, error) {
	access, expiresAt, err := s.tokenGenerator.GenerateAccessToken(op)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.tokenGenerator.GenerateRefreshToken(op)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}
	s.logger.Info("operator signed in", "email", op.Email)
	return AuthTokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	now                func() time.Time
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		now:                time.Now,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(op *Operator) (string, time.Time, error) {
	expiresAt := j.now().Add(j.AccessTokenTTL)
	token, err := j.sign(op, kindAccess, expiresAt, j.AccessTokenSecret)
	return token, expiresAt, err
}

func (j *JWTTokenGenerator) GenerateRefreshToken(op *Operator) (string, error) {
	return j.sign(op, kindRefresh, j.now().Add(j.RefreshTokenTTL), j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(op *Operator, kind string, expiresAt time.Time, secret []byte) (string, error) {
	claims := &Claims{
		Email:       op.Email,
		Permissions: op.Permissions,
		Kind:        kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(j.now()),
			Subject:   op.Email,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateToken checks the signature with the secret for kind and rejects
// tokens of the other kind.
func (j *JWTTokenGenerator) ValidateToken(tokenString, kind string) (*Claims, error) {
	secret := j.AccessTokenSecret
	if kind == kindRefresh {
		secret = j.RefreshTokenSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
