package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

// orNotFound converts a gorm missing-record error into the NotFound
// taxonomy, annotated with what was being looked up.
func orNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return err
}
