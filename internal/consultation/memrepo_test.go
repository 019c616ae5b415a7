package consultation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/consultation-booking/internal/audit"
	"github.com/hackgods/consultation-booking/internal/doctor"
	redisclient "github.com/hackgods/consultation-booking/internal/redis"
)

// memRepo is a Repository whose transactions are fully serialized and applied
// to copies of the tables, so a failing fn leaves no trace.
type memRepo struct {
	mu            sync.Mutex
	doctors       map[uuid.UUID]*doctor.Doctor
	consultations map[uuid.UUID]Consultation
	payments      map[uuid.UUID]Payment // by consultation id

	failInsertPayment error
}

func newMemRepo(doctors ...*doctor.Doctor) *memRepo {
	r := &memRepo{
		doctors:       make(map[uuid.UUID]*doctor.Doctor),
		consultations: make(map[uuid.UUID]Consultation),
		payments:      make(map[uuid.UUID]Payment),
	}
	for _, d := range doctors {
		r.doctors[d.ID] = d
	}
	return r
}

func (r *memRepo) GetDetail(_ context.Context, id uuid.UUID) (*Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.consultations[id]
	if !ok {
		return nil, ErrConsultationNotFound
	}
	d := &Detail{Consultation: c}
	if doc, ok := r.doctors[c.DoctorID]; ok {
		d.Specialization = doc.Specialization
	}
	if p, ok := r.payments[id]; ok {
		d.Payment = &p
	}
	return d, nil
}

func (r *memRepo) List(_ context.Context, scope Scope, f ListFilter) ([]Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Consultation, 0)
	for _, c := range r.consultations {
		if scope.PatientID != nil && c.PatientID != *scope.PatientID {
			continue
		}
		if scope.DoctorUserID != nil && c.DoctorUserID != *scope.DoctorUserID {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.After(result[j].ScheduledAt) })

	if f.Offset >= len(result) {
		return []Consultation{}, nil
	}
	result = result[f.Offset:]
	if len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (r *memRepo) InTx(_ context.Context, fn func(tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx{repo: r, consultations: make(map[uuid.UUID]Consultation), payments: make(map[uuid.UUID]Payment)}
	for k, v := range r.consultations {
		tx.consultations[k] = v
	}
	for k, v := range r.payments {
		tx.payments[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}

	r.consultations = tx.consultations
	r.payments = tx.payments
	return nil
}

// put seeds a consultation with its payment.
func (r *memRepo) put(c Consultation, p Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consultations[c.ID] = c
	r.payments[c.ID] = p
}

func (r *memRepo) counts() (consultations, payments int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consultations), len(r.payments)
}

func (r *memRepo) activeAt(doctorID uuid.UUID, at time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.consultations {
		if c.DoctorID == doctorID && c.ScheduledAt.Equal(at) && c.Status.Active() {
			n++
		}
	}
	return n
}

type memTx struct {
	repo          *memRepo
	consultations map[uuid.UUID]Consultation
	payments      map[uuid.UUID]Payment
}

func (t *memTx) LockDoctor(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := t.repo.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (t *memTx) FindActive(_ context.Context, doctorID uuid.UUID, at time.Time) (*Consultation, error) {
	for _, c := range t.consultations {
		if c.DoctorID == doctorID && c.ScheduledAt.Equal(at) && c.Status.Active() {
			return &c, nil
		}
	}
	return nil, ErrConsultationNotFound
}

// violatesActiveIndex mirrors consultations_active_slot_uq.
func (t *memTx) violatesActiveIndex(c Consultation) bool {
	if !c.Status.Active() {
		return false
	}
	for id, other := range t.consultations {
		if id != c.ID && other.DoctorID == c.DoctorID && other.ScheduledAt.Equal(c.ScheduledAt) && other.Status.Active() {
			return true
		}
	}
	return false
}

func (t *memTx) InsertConsultation(_ context.Context, c *Consultation) error {
	if t.violatesActiveIndex(*c) {
		return ErrSlotAlreadyBooked
	}
	t.consultations[c.ID] = *c
	return nil
}

func (t *memTx) InsertPayment(_ context.Context, p *Payment) error {
	if t.repo.failInsertPayment != nil {
		return t.repo.failInsertPayment
	}
	t.payments[p.ConsultationID] = *p
	return nil
}

func (t *memTx) LockConsultation(_ context.Context, id uuid.UUID) (*Consultation, error) {
	c, ok := t.consultations[id]
	if !ok {
		return nil, ErrConsultationNotFound
	}
	return &c, nil
}

func (t *memTx) ApplyChanges(_ context.Context, id uuid.UUID, ch Changes) error {
	c, ok := t.consultations[id]
	if !ok {
		return ErrConsultationNotFound
	}
	if ch.Status != nil {
		c.Status = *ch.Status
	}
	if ch.StartedAt != nil {
		c.StartedAt = ch.StartedAt
	}
	if ch.EndedAt != nil {
		c.EndedAt = ch.EndedAt
	}
	if ch.Symptoms != nil {
		c.Symptoms = ch.Symptoms
	}
	if ch.Diagnosis != nil {
		c.Diagnosis = ch.Diagnosis
	}
	if ch.Notes != nil {
		c.Notes = ch.Notes
	}
	if t.violatesActiveIndex(c) {
		return ErrSlotAlreadyBooked
	}
	t.consultations[id] = c
	return nil
}

func (t *memTx) SetPaymentStatus(_ context.Context, consultationID uuid.UUID, status PaymentStatus) error {
	p, ok := t.payments[consultationID]
	if !ok {
		return errors.New("payment missing")
	}
	p.Status = status
	t.payments[consultationID] = p
	return nil
}

type noopLocker struct{}

func (noopLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(context.Context) error) error {
	return fn(ctx)
}

type busyLocker struct{}

func (busyLocker) WithBookingLock(context.Context, uuid.UUID, time.Time, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
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

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Action)
	}
	return out
}
