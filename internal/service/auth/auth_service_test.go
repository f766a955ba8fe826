package auth

import (
	"context"
	"testing"
	"time"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndResolve(t *testing.T) {
	svc := NewService("s3cret", time.Hour)

	token, err := svc.IssueToken(context.Background(), "m@example.org", domain.RoleManager)
	require.NoError(t, err)

	p, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &domain.Principal{Email: "m@example.org", Role: domain.RoleManager}, p)
}

func TestResolveUnknownRoleFailsClosed(t *testing.T) {
	svc := NewService("s3cret", time.Hour)

	token, err := svc.IssueToken(context.Background(), "x@example.org", domain.Role("superuser"))
	require.NoError(t, err)

	p, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleExplorer, p.Role)
}

func TestResolveErrors(t *testing.T) {
	svc := NewService("s3cret", time.Hour)

	_, err := svc.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, constants.ErrMissingAuthToken)

	other, err := NewService("different", time.Hour).IssueToken(context.Background(), "a", domain.RoleManager)
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), other)
	assert.ErrorIs(t, err, constants.ErrUnauthorized)

	_, err = svc.IssueToken(context.Background(), " ", domain.RoleManager)
	var verr *constants.ValidationError
	assert.ErrorAs(t, err, &verr)
}
