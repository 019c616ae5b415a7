package availability

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/consultation-booking/internal/apperr"
	"github.com/hackgods/consultation-booking/internal/audit"
	"github.com/hackgods/consultation-booking/internal/auth"
	"github.com/hackgods/consultation-booking/internal/doctor"
)

type memRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]Slot
}

func newMemRepo() *memRepo {
	return &memRepo{slots: make(map[uuid.UUID]Slot)}
}

func (r *memRepo) Create(_ context.Context, s *Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.CreatedAt = time.Now().UTC()
	r.slots[s.ID] = *s
	return nil
}

func (r *memRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]Slot, error) {
	return r.filter(func(s Slot) bool { return s.DoctorID == doctorID }), nil
}

func (r *memRepo) ListRecurring(_ context.Context, doctorID uuid.UUID, dayOfWeek int, date time.Time) ([]Slot, error) {
	return r.filter(func(s Slot) bool {
		return s.DoctorID == doctorID && s.DayOfWeek == dayOfWeek && s.IsRecurring &&
			(s.ValidFrom == nil || !s.ValidFrom.After(date)) &&
			(s.ValidUntil == nil || !s.ValidUntil.Before(date))
	}), nil
}

func (r *memRepo) Delete(_ context.Context, slotID, doctorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok || s.DoctorID != doctorID {
		return ErrSlotNotFound
	}
	delete(r.slots, slotID)
	return nil
}

func (r *memRepo) filter(keep func(Slot) bool) []Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Slot, 0)
	for _, s := range r.slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

type doctorLookup map[uuid.UUID]*doctor.Doctor

func (l doctorLookup) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := l[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Record(_ context.Context, ev audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

type fixture struct {
	svc      *Service
	sink     *recordingSink
	doctorA  *doctor.Doctor
	doctorB  *doctor.Doctor
	ownerOfA auth.Principal
	ownerOfB auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a := &doctor.Doctor{ID: uuid.New(), OwnerUserID: uuid.New(), IsAvailable: true}
	b := &doctor.Doctor{ID: uuid.New(), OwnerUserID: uuid.New(), IsAvailable: true}

	owners, err := doctor.NewOwnerCache(doctorLookup{a.ID: a, b.ID: b}, 16)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	sink := &recordingSink{}

	return &fixture{
		svc:      NewService(newMemRepo(), owners, sink, logger),
		sink:     sink,
		doctorA:  a,
		doctorB:  b,
		ownerOfA: auth.Principal{ID: a.OwnerUserID, Role: auth.RoleDoctor},
		ownerOfB: auth.Principal{ID: b.OwnerUserID, Role: auth.RoleDoctor},
	}
}

func date(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := ParseDate(v)
	require.NoError(t, err)
	return d
}

func Test_CreateSlot_AppliesDefaults(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.CreateSlot(context.Background(), f.doctorA.ID, f.ownerOfA, SlotSpec{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, slot.ID)
	assert.Equal(t, DefaultTimezone, slot.Timezone)
	assert.True(t, slot.IsRecurring)
	assert.Nil(t, slot.ValidFrom)
	assert.False(t, slot.CreatedAt.IsZero())

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, audit.ActionSlotCreated, f.sink.events[0].Action)
	assert.Equal(t, slot.ID, *f.sink.events[0].ResourceID)
}

func Test_CreateSlot_Validation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]SlotSpec{
		"day too large":  {DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"},
		"negative day":   {DayOfWeek: -1, StartTime: "09:00", EndTime: "10:00"},
		"hour 24":        {DayOfWeek: 1, StartTime: "24:00", EndTime: "10:00"},
		"single digit":   {DayOfWeek: 1, StartTime: "9:00", EndTime: "10:00"},
		"bad end minute": {DayOfWeek: 1, StartTime: "09:00", EndTime: "10:60"},
	}
	for name, spec := range cases {
		_, err := f.svc.CreateSlot(context.Background(), f.doctorA.ID, f.ownerOfA, spec)
		assert.ErrorIs(t, err, apperr.ErrValidation, name)
	}
}

func Test_CreateSlot_DoesNotOrderStartAndEnd(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSlot(context.Background(), f.doctorA.ID, f.ownerOfA, SlotSpec{DayOfWeek: 3, StartTime: "18:00", EndTime: "08:00"})
	assert.NoError(t, err)
}

func Test_CreateSlot_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	spec := SlotSpec{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}

	_, err := f.svc.CreateSlot(context.Background(), f.doctorA.ID, f.ownerOfB, spec)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.CreateSlot(context.Background(), uuid.New(), f.ownerOfA, spec)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	slots, err := f.svc.ListSlots(context.Background(), f.doctorA.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Empty(t, f.sink.events)
}

func Test_ListSlots_OrderedByDayThenStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, spec := range []SlotSpec{
		{DayOfWeek: 3, StartTime: "09:00", EndTime: "10:00"},
		{DayOfWeek: 1, StartTime: "14:00", EndTime: "16:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
	} {
		_, err := f.svc.CreateSlot(ctx, f.doctorA.ID, f.ownerOfA, spec)
		require.NoError(t, err)
	}

	slots, err := f.svc.ListSlots(ctx, f.doctorA.ID)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, []string{"1 09:00", "1 14:00", "3 09:00"}, []string{
		describe(slots[0]), describe(slots[1]), describe(slots[2]),
	})
}

func describe(s Slot) string {
	return fmt.Sprintf("%d %s", s.DayOfWeek, s.StartTime)
}

func Test_ListAvailable_MatchesWeekdayAndWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	from, until := date(t, "2024-01-01"), date(t, "2024-01-31")
	slot, err := f.svc.CreateSlot(ctx, f.doctorA.ID, f.ownerOfA, SlotSpec{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", ValidFrom: &from, ValidUntil: &until,
	})
	require.NoError(t, err)

	monday, err := f.svc.ListAvailable(ctx, f.doctorA.ID, date(t, "2024-01-15"))
	require.NoError(t, err)
	require.Len(t, monday, 1)
	assert.Equal(t, slot.ID, monday[0].ID)

	tuesday, err := f.svc.ListAvailable(ctx, f.doctorA.ID, date(t, "2024-01-16"))
	require.NoError(t, err)
	assert.Empty(t, tuesday)

	lastDay, err := f.svc.ListAvailable(ctx, f.doctorA.ID, date(t, "2024-01-29"))
	require.NoError(t, err)
	assert.Len(t, lastDay, 1, "window bounds are inclusive")

	february, err := f.svc.ListAvailable(ctx, f.doctorA.ID, date(t, "2024-02-05"))
	require.NoError(t, err)
	assert.Empty(t, february)
}

func Test_ListAvailable_SkipsOneOffSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	once := false

	_, err := f.svc.CreateSlot(ctx, f.doctorA.ID, f.ownerOfA, SlotSpec{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", IsRecurring: &once})
	require.NoError(t, err)

	slots, err := f.svc.ListAvailable(ctx, f.doctorA.ID, date(t, "2024-01-15"))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func Test_DeleteSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slot, err := f.svc.CreateSlot(ctx, f.doctorA.ID, f.ownerOfA, SlotSpec{DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00"})
	require.NoError(t, err)

	err = f.svc.DeleteSlot(ctx, slot.ID, f.doctorA.ID, f.ownerOfB)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// B owns B, but the slot is not B's
	err = f.svc.DeleteSlot(ctx, slot.ID, f.doctorB.ID, f.ownerOfB)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, f.svc.DeleteSlot(ctx, slot.ID, f.doctorA.ID, f.ownerOfA))
	slots, err := f.svc.ListSlots(ctx, f.doctorA.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)

	err = f.svc.DeleteSlot(ctx, slot.ID, f.doctorA.ID, f.ownerOfA)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	last := f.sink.events[len(f.sink.events)-1]
	assert.Equal(t, audit.ActionSlotDeleted, last.Action)
	assert.Equal(t, slot.ID, *last.ResourceID)
}

func Test_ParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = ParseDate("15/01/2024")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
