package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/leanai/mumul-backend/pkg/auth"
	"github.com/leanai/mumul-backend/pkg/auth/session"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/enums"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID, subject string) (string, error)
	Rotate(ctx context.Context, oldAccessID, subject, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshRequest carries the (possibly expired) access token and its refresh token.
type RefreshRequest struct {
	Access  string `json:"access" validate:"required"`
	Refresh string `json:"refresh" validate:"required"`
}

// Issuer mints access tokens and keeps their refresh sessions in Redis.
// Both apps share it; Kind keeps tokens from crossing over.
type Issuer struct {
	jwtCfg   config.JWTConfig
	sessions sessionManager
	now      func() time.Time
}

// NewIssuer builds a token issuer.
func NewIssuer(jwtCfg config.JWTConfig, sessions sessionManager) (*Issuer, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &Issuer{jwtCfg: jwtCfg, sessions: sessions, now: time.Now}, nil
}

// Issue mints an access token for userID and opens a refresh session.
func (i *Issuer) Issue(ctx context.Context, userID uuid.UUID, kind enums.AccountKind, tenantID *uuid.UUID) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := pkgAuth.MintAccessToken(i.jwtCfg, i.now(), pkgAuth.AccessTokenPayload{
		UserID:   userID,
		Kind:     kind,
		TenantID: tenantID,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refresh, err := i.sessions.Generate(ctx, accessID, userID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh rotates the session behind an access token of the given kind.
func (i *Issuer) Refresh(ctx context.Context, kind enums.AccountKind, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(i.jwtCfg, req.Access)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	if claims.Kind != kind {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account type not allowed")
	}

	newAccessID, newRefresh, err := i.sessions.Rotate(ctx, claims.ID, claims.UserID.String(), req.Refresh)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}

	payload := claims.Payload()
	payload.JTI = newAccessID
	access, err := pkgAuth.MintAccessToken(i.jwtCfg, i.now(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{Access: access, Refresh: newRefresh}, nil
}

// Revoke closes the session of an access token id.
func (i *Issuer) Revoke(ctx context.Context, accessID string) error {
	if accessID == "" {
		return nil
	}
	if err := i.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
