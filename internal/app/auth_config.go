package app

import (
	"strings"

	"github.com/charlesng35/volunteerhub/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// BootstrapAdminEnabled reports whether an administrator should be provisioned at startup.
func (c AuthConfig) BootstrapAdminEnabled() bool {
	return strings.TrimSpace(c.Bootstrap.AdminEmail) != "" && c.Bootstrap.AdminPassword != ""
}
