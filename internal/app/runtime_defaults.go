package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/volunteerhub/pkg/crypto"
)

const jwtSecretBytes = 48

// ApplyRuntimeDefaults fills values the server cannot start without and settles
// settings that depend on each other. The returned map names every key it changed
// so callers can log them without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	applied := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		applied["auth.jwt.secret"] = true
	}

	bootstrap := &cfg.Auth.Bootstrap
	bootstrap.AdminEmail = strings.ToLower(strings.TrimSpace(bootstrap.AdminEmail))
	switch {
	case bootstrap.AdminEmail != "" && bootstrap.AdminPassword == "":
		return nil, fmt.Errorf("auth.bootstrap.admin_password is required when admin_email is set")
	case bootstrap.AdminEmail == "" && bootstrap.AdminPassword != "":
		return nil, fmt.Errorf("auth.bootstrap.admin_email is required when admin_password is set")
	}

	// volunteers are only emailed when an SMTP relay exists
	if cfg.Notifications.EmailEnabled && !cfg.Email.SMTP.Enabled {
		cfg.Notifications.EmailEnabled = false
		applied["notifications.email_enabled"] = true
	}

	return applied, nil
}
