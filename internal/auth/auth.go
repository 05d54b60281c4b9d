// Package auth authenticates API bearer tokens and checks their scopes.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Scopes understood by the API. "*" grants everything; a :rw scope implies
// the matching :ro scope.
const (
	ScopeAll          = "*"
	ScopeSpawn        = "spawn:rw"
	ScopeProfilesRead = "profiles:ro"
	ScopeProcessRead  = "processes:ro"
	ScopeProcessWrite = "processes:rw"
	ScopeApprovalRead = "approvals:ro"
	ScopeApprovalRW   = "approvals:rw"
	ScopeEventsRead   = "events:ro"
)

// implies lists every known scope and the scopes it grants besides itself.
var implies = map[string][]string{
	ScopeAll:          nil,
	ScopeSpawn:        nil,
	ScopeProfilesRead: nil,
	ScopeProcessRead:  nil,
	ScopeProcessWrite: {ScopeProcessRead},
	ScopeApprovalRead: nil,
	ScopeApprovalRW:   {ScopeApprovalRead},
	ScopeEventsRead:   nil,
}

// ValidateScope rejects scope names the API does not know.
func ValidateScope(scope string) error {
	if _, ok := implies[strings.TrimSpace(scope)]; !ok {
		return fmt.Errorf("unknown scope %q", scope)
	}
	return nil
}

// TokenConfig is a bearer token with a set of scopes.
type TokenConfig struct {
	Token  string
	Scopes []string
}

// Principal is an authenticated caller. Name identifies which configured
// credential matched and is safe to log.
type Principal struct {
	Name   string
	scopes map[string]struct{}
}

// Has reports whether p holds "*" or any of required. No required scopes
// always passes.
func (p Principal) Has(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if _, ok := p.scopes[ScopeAll]; ok {
		return true
	}
	for _, s := range required {
		if _, ok := p.scopes[s]; ok {
			return true
		}
	}
	return false
}

type credential struct {
	token     []byte
	principal Principal
}

// Keyring holds the configured credentials.
type Keyring struct {
	creds []credential
}

// NewKeyring builds a keyring from the full-access api key (optional) and
// scoped tokens. Unknown scopes are an error.
func NewKeyring(apiKey string, tokens []TokenConfig) (*Keyring, error) {
	k := &Keyring{}
	if apiKey != "" {
		k.creds = append(k.creds, credential{
			token:     []byte(apiKey),
			principal: Principal{Name: "api_key", scopes: map[string]struct{}{ScopeAll: {}}},
		})
	}
	for i, t := range tokens {
		if strings.TrimSpace(t.Token) == "" {
			return nil, fmt.Errorf("tokens[%d]: empty token", i)
		}
		scopes := make(map[string]struct{})
		for _, s := range t.Scopes {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if err := ValidateScope(s); err != nil {
				return nil, fmt.Errorf("tokens[%d]: %w", i, err)
			}
			scopes[s] = struct{}{}
			for _, implied := range implies[s] {
				scopes[implied] = struct{}{}
			}
		}
		k.creds = append(k.creds, credential{
			token:     []byte(t.Token),
			principal: Principal{Name: fmt.Sprintf("tokens[%d]", i), scopes: scopes},
		})
	}
	return k, nil
}

// Authenticate matches a presented bearer token. Every credential is
// compared so timing does not reveal which one matched.
func (k *Keyring) Authenticate(presented string) (Principal, bool) {
	var (
		match Principal
		found bool
	)
	if presented == "" {
		return match, false
	}
	for _, c := range k.creds {
		if subtle.ConstantTimeCompare([]byte(presented), c.token) == 1 && !found {
			match, found = c.principal, true
		}
	}
	return match, found
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// ExtractBearerToken reads "Authorization: Bearer <token>".
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing Authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("invalid Authorization header format")
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errors.New("missing API key")
	}
	return token, nil
}
