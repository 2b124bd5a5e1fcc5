package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation is returned when a write would break a schema
	// or input constraint, such as a line item referencing a missing menu item.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrStorageUnavailable wraps every other database failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// translate maps a gorm error onto the repository error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConstraintViolation), errors.Is(err, ErrStorageUnavailable):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated), isForeignKeyError(err):
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
}

// isForeignKeyError catches drivers that do not implement gorm's error translator.
func isForeignKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint")
}
