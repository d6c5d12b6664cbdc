package preset

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks p before it is written to any backend.
func Validate(p Preset) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return nil
}

// ValidateSection checks that a section kind is usable as a storage key.
func ValidateSection(section Section) error {
	if err := validate.Var(string(section), "required,alphanum,max=32"); err != nil {
		return fmt.Errorf("%w: section %q", ErrInvalidPreset, section)
	}
	return nil
}

// checkScope is the common precondition of every backend call.
func checkScope(userID string, section Section) error {
	if userID == "" {
		return ErrPermissionDenied
	}
	return ValidateSection(section)
}
