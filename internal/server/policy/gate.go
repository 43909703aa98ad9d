package policy

import (
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
)

// Verifier checks a raw session token.
type Verifier interface {
	Verify(token string) (auth.Claims, error)
}

// Decision is the gate outcome for one request. Err is nil when admitted,
// otherwise one of common.ErrMissingToken, common.ErrInvalidOrExpiredToken
// or common.ErrForbidden.
type Decision struct {
	Requirement Requirement
	Claims      *auth.Claims
	Err         error
}

func (d Decision) Admitted() bool { return d.Err == nil }

// Gate evaluates the table and, when a capability is required, the bearer
// token from the Authorization header.
type Gate struct {
	table    *Table
	verifier Verifier
}

func NewGate(table *Table, verifier Verifier) *Gate {
	return &Gate{table: table, verifier: verifier}
}

func (g *Gate) Authorize(method, path, authorization string) Decision {
	req := g.table.Evaluate(method, path)
	if req.Kind == Public {
		return Decision{Requirement: req}
	}

	token := BearerToken(authorization)
	if token == "" {
		return Decision{Requirement: req, Err: common.ErrMissingToken}
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		return Decision{Requirement: req, Err: common.ErrInvalidOrExpiredToken}
	}

	if req.Kind == RoleRequired && claims.Role != req.Role {
		return Decision{Requirement: req, Claims: &claims, Err: common.ErrForbidden}
	}
	return Decision{Requirement: req, Claims: &claims}
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively; any other scheme yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
