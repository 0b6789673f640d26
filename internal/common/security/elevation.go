package security

import "crypto/subtle"

// ElevationPolicy decides whether a presented secret grants the admin role.
type ElevationPolicy interface {
	Permits(secret string) bool
}

type sharedSecretPolicy struct {
	secret []byte
}

// NewSharedSecretPolicy grants elevation to callers presenting secret.
// An empty secret disables elevation entirely.
func NewSharedSecretPolicy(secret string) ElevationPolicy {
	return &sharedSecretPolicy{secret: []byte(secret)}
}

func (p *sharedSecretPolicy) Permits(secret string) bool {
	if len(p.secret) == 0 || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare(p.secret, []byte(secret)) == 1
}
