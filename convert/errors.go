package convert

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedRecord   = errors.New("unrecognized record")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrUnterminatedLap      = errors.New("lap still open at end of activity")
	ErrOrphanLapSummary     = errors.New("lap summary without an open lap")
)

func missingField(kind, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrMissingRequiredField, kind, field)
}
