package auth

import (
	"context"
	"strings"
	"time"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/pkg/utils"
)

// Service issues and resolves session tokens. Credentials are checked elsewhere;
// this service only binds an email to a role.
type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

func (svc *Service) IssueToken(ctx context.Context, email string, role domain.Role) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", constants.NewValidationError("email is required")
	}

	token, err := utils.GenerateAuthToken(svc.secret, &utils.AuthTokenWrapper{Email: email, Role: string(role)}, svc.ttl)
	if err != nil {
		return "", err
	}

	logger.Debugf(ctx, "issued token for %s as %s", email, role)
	return token, nil
}

// Resolve returns the principal carried by token. Unknown roles resolve to explorer.
func (svc *Service) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, constants.ErrMissingAuthToken
	}

	wrapper, err := utils.ParseAuthToken(svc.secret, token)
	if err != nil {
		return nil, err
	}
	if wrapper.Email == "" {
		return nil, constants.ErrUnauthorized
	}

	role := domain.ParseRole(wrapper.Role)
	if string(role) != wrapper.Role {
		logger.Warnf(ctx, "token for %s carries unknown role %q, treated as %s", wrapper.Email, wrapper.Role, role)
	}
	return &domain.Principal{Email: wrapper.Email, Role: role}, nil
}
