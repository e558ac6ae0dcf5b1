package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/docpile-ai/docpile/app/core"
	"github.com/docpile-ai/docpile/pkg/errors"
	"github.com/docpile-ai/docpile/pkg/i18n"
	"github.com/docpile-ai/docpile/pkg/security"
	"github.com/docpile-ai/docpile/pkg/types"
)

const (
	TOKEN_CONTEXT_KEY   = "__docpile.access_token"
	LANGUAGE_KEY        = "__docpile.accept_language"
	SPACEID_CONTEXT_KEY = "__docpile.spaceid"
)

func InjectTokenClaim(ctx context.Context) (security.TokenClaims, bool) {
	val, ok := ctx.Value(TOKEN_CONTEXT_KEY).(security.TokenClaims)
	return val, ok
}

func InjectSpaceID(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(SPACEID_CONTEXT_KEY).(string)
	return val, ok
}

func InjectLanguage(ctx context.Context) string {
	if val, ok := ctx.Value(LANGUAGE_KEY).(string); ok && val != "" {
		return val
	}
	return types.LANGUAGE_EN_KEY
}

type UserInfo struct {
	claims security.TokenClaims
}

func SetupUserInfo(ctx context.Context, core *core.Core) UserInfo {
	claims, ok := InjectTokenClaim(ctx)
	if !ok {
		slog.Error("Not found user in context", slog.String("component", "logic.v1.SetupUserInfo"))
	}
	return UserInfo{claims: claims}
}

func (u UserInfo) GetUserInfo() security.TokenClaims {
	return u.claims
}

// VerifySpace rejects any operation against a space the token does not carry.
func (u UserInfo) VerifySpace(spaceID string) error {
	if spaceID == "" || !u.claims.HasSpace(spaceID) {
		return errors.New("UserInfo.VerifySpace", i18n.ERROR_WORKSPACE_NOT_PERMITTED, nil).Code(http.StatusForbidden)
	}
	return nil
}
