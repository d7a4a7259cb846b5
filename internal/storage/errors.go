package storage

import (
	"errors"

	"github.com/s/elearner/internal/apperr"
	"gorm.io/gorm"
)

// notFound turns gorm.ErrRecordNotFound into an apperr NotFound and leaves
// every other error untouched.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.CodeNotFound, message, err)
	}
	return err
}
