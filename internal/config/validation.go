package config

import (
	"fmt"

	"ldapfs/internal/directory"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate = validator.New()

// Validate validates the configuration using struct tags plus custom rules
// that cannot be expressed in tags. A failure here is fatal and prevents
// mounting.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Visible mount names must be pairwise unique; the first collision
	// reports the offending entry.
	names := make(map[string]bool, len(cfg.Mounts))
	for i, m := range cfg.Mounts {
		if names[m.Name] {
			return fmt.Errorf("mounts[%d]: duplicate mount name %q", i, m.Name)
		}
		names[m.Name] = true
	}

	// Every base DN must be syntactically valid before we ever query it.
	for i, m := range cfg.Mounts {
		if err := directory.ValidateDN(m.BaseDN); err != nil {
			return fmt.Errorf("mounts[%d]: %w", i, err)
		}
		if m.BindDN != "" {
			if err := directory.ValidateDN(m.BindDN); err != nil {
				return fmt.Errorf("mounts[%d]: %w", i, err)
			}
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
