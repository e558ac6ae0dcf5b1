package security

import "github.com/docpile-ai/docpile/pkg/types"

// TokenClaims is what an access token resolves to. The pipeline trusts these
// claims, minting tokens is the surrounding platform's business.
type TokenClaims struct {
	User      string   `json:"user"`
	SpaceIDs  []string `json:"space_ids"`
	ExpiresAt int64    `json:"expires_at"`
}

func (c TokenClaims) HasSpace(spaceID string) bool {
	for _, v := range c.SpaceIDs {
		if v == spaceID {
			return true
		}
	}
	return false
}

func ClaimsFromAccessToken(token types.AccessToken) TokenClaims {
	return TokenClaims{
		User:      token.UserID,
		SpaceIDs:  token.SpaceIDs,
		ExpiresAt: token.ExpiresAt,
	}
}
