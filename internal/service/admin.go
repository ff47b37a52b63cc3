package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/model"
	redisclient "github.com/adventjoy/calendar-server-go/internal/redis"
	"github.com/adventjoy/calendar-server-go/internal/repository"
	"github.com/adventjoy/calendar-server-go/internal/util"
)

const adminSessionTTL = 24 * time.Hour

// AdminService authenticates the operator and exposes the manual
// invalidation and force-unlock operations. Admin sessions live in
// Redis keyed by an HMAC of the session token, so the raw token is
// never stored either.
type AdminService struct {
	accessRepo    repository.AccessRepository
	redisClient   *redisclient.Client
	passwordHash  string
	sessionSecret string
}

func NewAdminService(
	accessRepo repository.AccessRepository,
	redisClient *redisclient.Client,
	passwordHash, sessionSecret string,
) *AdminService {
	return &AdminService{
		accessRepo:    accessRepo,
		redisClient:   redisClient,
		passwordHash:  passwordHash,
		sessionSecret: sessionSecret,
	}
}

// Configured reports whether an admin password has been set.
func (s *AdminService) Configured() bool {
	return s.passwordHash != ""
}

// Login checks the admin password and mints a session token.
func (s *AdminService) Login(ctx context.Context, password string) (string, error) {
	if !s.Configured() {
		return "", apperrors.Internal("Admin not configured")
	}
	if !util.CheckPasswordHash(password, s.passwordHash) {
		log.Warn().Msg("admin login: wrong password")
		return "", apperrors.Unauthorized("Invalid password")
	}

	token, err := util.GenerateLinkToken()
	if err != nil {
		return "", apperrors.Internal("Failed to generate session token").WithCause(err)
	}

	key := s.sessionKey(token)
	if err := s.redisClient.Set(ctx, key, time.Now().Format(time.RFC3339), adminSessionTTL).Err(); err != nil {
		return "", apperrors.Internal("Failed to store session").WithCause(err)
	}

	log.Info().Msg("admin logged in")
	return token, nil
}

// ValidateSession checks an admin session token against Redis.
func (s *AdminService) ValidateSession(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Unauthorized("Unauthorized")
	}
	err := s.redisClient.Get(ctx, s.sessionKey(token)).Err()
	if err == redis.Nil {
		return apperrors.Unauthorized("Unauthorized")
	}
	if err != nil {
		return apperrors.Internal("Session validation failed").WithCause(err)
	}
	return nil
}

// Logout removes an admin session.
func (s *AdminService) Logout(ctx context.Context, token string) error {
	return s.redisClient.Del(ctx, s.sessionKey(token)).Err()
}

// ListAccess returns access records for the admin overview.
func (s *AdminService) ListAccess(ctx context.Context, limit, offset int) ([]model.CalendarAccess, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	records, err := s.accessRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return records, nil
}

func (s *AdminService) sessionKey(token string) string {
	return fmt.Sprintf("admin_session:%s", util.HmacSHA256(s.sessionSecret, token))
}
