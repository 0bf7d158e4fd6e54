package repositories

import (
	"context"
	"errors"
	"testing"

	"MediCore/cache"
	"MediCore/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	cache.Store
}

func (failingStore) Delete(context.Context, ...string) error { return errors.New("redis down") }

func (failingStore) DeleteAll(context.Context, string) error { return errors.New("redis down") }

func seed(t *testing.T, store cache.Store, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, store.Set(context.Background(), k, "{}", 0))
	}
}

func cached(t *testing.T, store cache.Store, key string) bool {
	t.Helper()
	v, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	return v != ""
}

func TestPatientInvalidateDropsCachedAppointments(t *testing.T) {
	store := cache.NewMemory()
	seed(t, store, "patient_cache:pat-1", "patients_cache:1:20", "appointment_cache:apt-1", "doctor_cache:doc-1")

	r := &patientRepository{cache: store}
	r.invalidate(context.Background(), "pat-1")

	assert.False(t, cached(t, store, "patient_cache:pat-1"))
	assert.False(t, cached(t, store, "patients_cache:1:20"))
	assert.False(t, cached(t, store, "appointment_cache:apt-1"))
	assert.True(t, cached(t, store, "doctor_cache:doc-1"))
}

func TestDoctorInvalidateDropsCachedAppointments(t *testing.T) {
	store := cache.NewMemory()
	seed(t, store, "doctor_cache:doc-1", "doctors_cache::1:20", "appointment_cache:apt-1", "patient_cache:pat-1")

	r := &doctorRepository{cache: store}
	r.invalidate(context.Background(), "doc-1")

	assert.False(t, cached(t, store, "doctor_cache:doc-1"))
	assert.False(t, cached(t, store, "doctors_cache::1:20"))
	assert.False(t, cached(t, store, "appointment_cache:apt-1"))
	assert.True(t, cached(t, store, "patient_cache:pat-1"))
}

func TestDropCacheIgnoresStoreFailures(t *testing.T) {
	assert.NotPanics(t, func() {
		dropCache(context.Background(), failingStore{}, []string{"appointment_cache:apt-1"}, appointmentCachePattern)
	})
}

func TestAppointmentGetByIDServesCache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	r := &appointmentRepository{cache: store}
	require.NoError(t, cache.SetJSON(ctx, store, r.getAppointmentCacheKey("apt-1"),
		models.Appointment{ID: "apt-1", Status: models.StatusConfirmed}, AppointmentCacheExpiry))

	appointment, err := r.GetByID(ctx, "apt-1")
	require.NoError(t, err)
	require.NotNil(t, appointment)
	assert.Equal(t, models.StatusConfirmed, appointment.Status)
}
