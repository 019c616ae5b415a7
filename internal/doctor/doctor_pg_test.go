package doctor_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/consultation-booking/internal/db/dbtest"
	"github.com/hackgods/consultation-booking/internal/doctor"
)

func Test_PgRepository_GetByID(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()

	id, owner := uuid.New(), uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO doctors (id, user_id, license_number, specialization, consultation_fee, is_available, rating)
		VALUES ($1, $2, 'LIC-1', 'Dermatology', 500, true, 4.5)
	`, id, owner)
	require.NoError(t, err)

	repo := doctor.NewPgRepository(pool)

	d, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner, d.OwnerUserID)
	assert.Equal(t, "Dermatology", d.Specialization)
	assert.Equal(t, 500.0, d.ConsultationFee)
	assert.True(t, d.IsAvailable)
	assert.Equal(t, 4.5, d.Rating)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, doctor.ErrDoctorNotFound)
}
