package service

import (
	"errors"

	"github.com/prince-mali2/Filmpire-backend/internal/apperror"
)

func isConflict(err error) bool { return errors.Is(err, apperror.ErrConflict) }

func isNotFound(err error) bool { return errors.Is(err, apperror.ErrNotFound) }
