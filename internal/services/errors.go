package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStoreUnavailable marks failures to open, read, or write the outbox database.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrSchemaUnknown marks an on-disk layout the migrator refuses to guess about.
	ErrSchemaUnknown = errors.New("schema unknown")
	// ErrConfigurationMissing marks required settings that are absent at runtime.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrValidation marks input that fails structural checks.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStoreUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
