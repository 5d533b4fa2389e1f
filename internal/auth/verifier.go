// Package auth resolves request principals from configured API keys.
package auth

import (
	"crypto/subtle"
	"errors"
	"os"
	"strings"
)

// Principal is the resolved caller identity.
type Principal struct {
	Tenant string
	Role   string // admin, viewer
}

// Verifier maps API keys to principals. With no keys configured the API
// is open and callers pick their tenant via headers.
type Verifier struct {
	keys map[string]Principal
}

// NewVerifierFromEnv parses API_KEYS: comma-separated entries of
// key[:tenant[:role]]. A bare key grants admin on the default tenant.
func NewVerifierFromEnv() *Verifier {
	return NewVerifier(os.Getenv("API_KEYS"))
}

func NewVerifier(spec string) *Verifier {
	v := &Verifier{keys: map[string]Principal{}}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		p := Principal{Tenant: "default", Role: "admin"}
		if len(parts) > 1 && parts[1] != "" {
			p.Tenant = strings.ToLower(parts[1])
		}
		if len(parts) > 2 && parts[2] != "" {
			p.Role = strings.ToLower(parts[2])
		}
		v.keys[parts[0]] = p
	}
	return v
}

// Enabled reports whether any keys are configured.
func (v *Verifier) Enabled() bool { return len(v.keys) > 0 }

// Verify resolves the principal for an API key.
func (v *Verifier) Verify(key string) (Principal, error) {
	// compare against every key so lookup time does not depend on a match
	var found *Principal
	for k := range v.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			p := v.keys[k]
			found = &p
		}
	}
	if found == nil {
		return Principal{}, errors.New("unknown API key")
	}
	return *found, nil
}
