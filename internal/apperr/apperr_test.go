package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_New_KeepsMessageAndKind(t *testing.T) {
	err := New(ErrConflict, "time slot is already booked")

	assert.Equal(t, "time slot is already booked", err.Error())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func Test_KindOf_SeesThroughWrapping(t *testing.T) {
	notFound := New(ErrNotFound, "doctor not found")
	wrapped := fmt.Errorf("load doctor: %w", notFound)

	assert.Equal(t, ErrNotFound, KindOf(wrapped))
	assert.Equal(t, ErrValidation, KindOf(Validation("dayOfWeek must be between 0 and 6, got %d", 9)))
	assert.Nil(t, KindOf(errors.New("connection reset")))
}
