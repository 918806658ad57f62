package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/internal/repository"
	"github.com/noah-isme/club-api/pkg/calendar"
)

// memStore is a transactional in-memory stand-in for the scheduling tables.
// WithinTx serialises transactions and restores a snapshot on error, so tests
// observe the same all-or-nothing behaviour as the database.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	seq  int

	memData

	txCount    int
	lockCalls  []string
	failSlotAt int
	slotWrites int
}

type memData struct {
	resources     map[string]models.Resource
	courses       map[string]models.Course
	tiers         []models.PricingTier
	reservations  map[string]models.Reservation
	ledger        []models.LedgerEntry
	slots         []models.CourseSlot
	registrations map[string]models.Registration
	enrollments   []models.Enrollment
	weekdayCounts map[string]int
}

func newMemStore() *memStore {
	return &memStore{memData: memData{
		resources:     map[string]models.Resource{},
		courses:       map[string]models.Course{},
		reservations:  map[string]models.Reservation{},
		registrations: map[string]models.Registration{},
		weekdayCounts: map[string]int{},
	}}
}

func (d memData) clone() memData {
	out := memData{
		resources:     make(map[string]models.Resource, len(d.resources)),
		courses:       make(map[string]models.Course, len(d.courses)),
		tiers:         append([]models.PricingTier(nil), d.tiers...),
		reservations:  make(map[string]models.Reservation, len(d.reservations)),
		ledger:        append([]models.LedgerEntry(nil), d.ledger...),
		slots:         append([]models.CourseSlot(nil), d.slots...),
		registrations: make(map[string]models.Registration, len(d.registrations)),
		enrollments:   append([]models.Enrollment(nil), d.enrollments...),
		weekdayCounts: make(map[string]int, len(d.weekdayCounts)),
	}
	for k, v := range d.resources {
		out.resources[k] = v
	}
	for k, v := range d.courses {
		out.courses[k] = v
	}
	for k, v := range d.reservations {
		out.reservations[k] = v
	}
	for k, v := range d.registrations {
		out.registrations[k] = v
	}
	for k, v := range d.weekdayCounts {
		out.weekdayCounts[k] = v
	}
	return out
}

func (m *memStore) snapshot() memData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memData.clone()
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	before := m.snapshot()
	m.mu.Lock()
	m.txCount++
	m.mu.Unlock()
	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.memData = before
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) addResource(name string) models.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := models.Resource{ID: "res-" + name, Name: name, DefaultCapacity: 4, Active: true}
	m.resources[name] = r
	return r
}

func weekdayKey(courseID string, w calendar.Weekday) string {
	return fmt.Sprintf("%s/%d", courseID, w)
}

// resources

type memResources struct{ *memStore }

func (r memResources) FindByName(ctx context.Context, name string) (*models.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[name]
	if !ok || !res.Active {
		return nil, sql.ErrNoRows
	}
	return &res, nil
}

func (r memResources) Lock(ctx context.Context, exec sqlx.ExtContext, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockCalls = append(r.lockCalls, id)
	return nil
}

// courses

type memCourses struct{ *memStore }

func (c memCourses) Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	course.ID = c.nextID("course")
	course.Active = true
	course.RegisteredCount = 0
	course.CreatedAt = time.Now().UTC()
	c.courses[course.ID] = *course
	return nil
}

func (c memCourses) Replace(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	course.Active = true
	course.RegisteredCount = 0
	c.courses[course.ID] = *course
	return nil
}

func (c memCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	course, ok := c.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

func (c memCourses) LockActive(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	course, ok := c.courses[id]
	if !ok || !course.Active {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

func (c memCourses) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	course, ok := c.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	course.Active = false
	course.RegisteredCount = 0
	c.courses[id] = course
	return nil
}

// tiers

type memTiers struct{ *memStore }

func (t memTiers) CreateBatch(ctx context.Context, exec sqlx.ExtContext, tiers []models.PricingTier) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range tiers {
		tiers[i].ID = t.nextID("tier")
		tiers[i].Active = true
		t.tiers = append(t.tiers, tiers[i])
	}
	return nil
}

func (t memTiers) DeactivateByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.tiers {
		if t.tiers[i].CourseID == courseID {
			t.tiers[i].Active = false
		}
	}
	return nil
}

func (t memTiers) ListActiveByCourse(ctx context.Context, courseID string) ([]models.PricingTier, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.PricingTier
	for _, tier := range t.tiers {
		if tier.CourseID == courseID && tier.Active {
			out = append(out, tier)
		}
	}
	return out, nil
}

// reservations

type memReservations struct{ *memStore }

func (r memReservations) Create(ctx context.Context, exec sqlx.ExtContext, reservation *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation.ID = r.nextID("rsv")
	reservation.Status = models.ReservationStatusActive
	r.reservations[reservation.ID] = *reservation
	return nil
}

func (r memReservations) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rsv, ok := r.reservations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rsv, nil
}

func (r memReservations) Cancel(ctx context.Context, exec sqlx.ExtContext, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rsv, ok := r.reservations[id]
	if !ok || rsv.Status != models.ReservationStatusActive {
		return sql.ErrNoRows
	}
	rsv.Status = models.ReservationStatusCancelled
	r.reservations[id] = rsv
	return nil
}

func (r memReservations) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.reservations[id]; ok {
			delete(r.reservations, id)
			n++
		}
	}
	return n, nil
}

// ledger

type memLedger struct{ *memStore }

func (l memLedger) FindOverlapping(ctx context.Context, exec sqlx.ExtContext, resourceID string, day, start, end time.Time) ([]models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range l.ledger {
		if e.ResourceID == resourceID && e.InUse && e.Day.Equal(day) && e.StartAt.Before(end) && e.EndAt.After(start) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Create enforces the no-overlap rule the way the exclusion constraint does.
func (l memLedger) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	candidate := calendar.Window{Start: entry.StartAt, End: entry.EndAt}
	for _, e := range l.ledger {
		if e.ResourceID == entry.ResourceID && e.InUse && e.Window().Overlaps(candidate) {
			return fmt.Errorf("insert resource booking: %w", repository.ErrLedgerOverlap)
		}
	}
	entry.ID = l.nextID("ledger")
	entry.InUse = true
	l.ledger = append(l.ledger, *entry)
	return nil
}

func (l memLedger) DeleteMatching(ctx context.Context, exec sqlx.ExtContext, resourceID string, start, end time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.ledger[:0:0]
	var n int64
	for _, e := range l.ledger {
		if e.ResourceID == resourceID && e.InUse && e.StartAt.Equal(start) && e.EndAt.Equal(end) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	l.ledger = kept
	return n, nil
}

func (l memLedger) ReleaseByReservation(ctx context.Context, exec sqlx.ExtContext, reservationID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for i := range l.ledger {
		if l.ledger[i].ReservationID != nil && *l.ledger[i].ReservationID == reservationID && l.ledger[i].InUse {
			l.ledger[i].InUse = false
			n++
		}
	}
	return n, nil
}

// slots

type memSlots struct{ *memStore }

func (s memSlots) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.CourseSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slotWrites++
	if s.failSlotAt > 0 && s.slotWrites == s.failSlotAt {
		return fmt.Errorf("insert course slot: connection reset")
	}
	slot.ID = s.nextID("slot")
	s.slots = append(s.slots, *slot)
	return nil
}

func (s memSlots) ListByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.CourseSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CourseSlot
	for _, slot := range s.slots {
		if slot.CourseID == courseID {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (s memSlots) ListWeekdays(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]calendar.Weekday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[calendar.Weekday]bool{}
	var out []calendar.Weekday
	for _, slot := range s.slots {
		if slot.CourseID == courseID && !seen[slot.Weekday] {
			seen[slot.Weekday] = true
			out = append(out, slot.Weekday)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s memSlots) DeleteByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.slots[:0:0]
	var n int64
	for _, slot := range s.slots {
		if slot.CourseID == courseID {
			n++
			continue
		}
		kept = append(kept, slot)
	}
	s.slots = kept
	return n, nil
}

// enrollments

type memEnrollments struct{ *memStore }

func (e memEnrollments) CreateRegistration(ctx context.Context, exec sqlx.ExtContext, registration *models.Registration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, reg := range e.registrations {
		if reg.CourseID == registration.CourseID && reg.MemberID == registration.MemberID && reg.Status == models.EnrollmentStatusActive {
			return repository.ErrDuplicateRegistration
		}
	}
	registration.ID = e.nextID("reg")
	registration.Status = models.EnrollmentStatusActive
	e.registrations[registration.ID] = *registration
	return nil
}

func (e memEnrollments) CreateEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	enrollment.ID = e.nextID("enr")
	enrollment.Status = models.EnrollmentStatusActive
	e.enrollments = append(e.enrollments, *enrollment)
	return nil
}

func (e memEnrollments) ExistsActiveForMember(ctx context.Context, exec sqlx.ExtContext, courseID, memberID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, reg := range e.registrations {
		if reg.CourseID == courseID && reg.MemberID == memberID && reg.Status == models.EnrollmentStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (e memEnrollments) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, enr := range e.enrollments {
		if enr.ID == id && enr.Status == models.EnrollmentStatusActive {
			out := enr
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (e memEnrollments) ListActiveByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.ActiveEnrollment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []models.ActiveEnrollment
	for _, enr := range e.enrollments {
		if enr.CourseID != courseID || enr.Status != models.EnrollmentStatusActive {
			continue
		}
		reg := e.registrations[enr.RegistrationID]
		out = append(out, models.ActiveEnrollment{
			ID:             enr.ID,
			RegistrationID: enr.RegistrationID,
			MemberEmail:    reg.MemberEmail,
			MemberName:     reg.MemberName,
		})
	}
	return out, nil
}

func (e memEnrollments) CancelEnrollments(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var n int64
	for i := range e.enrollments {
		if wanted[e.enrollments[i].ID] && e.enrollments[i].Status == models.EnrollmentStatusActive {
			e.enrollments[i].Status = models.EnrollmentStatusCancelled
			n++
		}
	}
	return n, nil
}

func (e memEnrollments) CancelRegistrations(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var n int64
	for _, id := range ids {
		reg, ok := e.registrations[id]
		if ok && reg.Status == models.EnrollmentStatusActive {
			reg.Status = models.EnrollmentStatusCancelled
			e.registrations[id] = reg
			n++
		}
	}
	return n, nil
}

func (e memEnrollments) CountActiveInRegistration(ctx context.Context, exec sqlx.ExtContext, registrationID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, enr := range e.enrollments {
		if enr.RegistrationID == registrationID && enr.Status == models.EnrollmentStatusActive {
			count++
		}
	}
	return count, nil
}

// capacity counters mirror the conditional updates of CapacityRepository.

type memCapacity struct{ *memStore }

func (c memCapacity) IncrementRegistered(ctx context.Context, exec sqlx.ExtContext, courseID string, enforce bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	course, ok := c.courses[courseID]
	if !ok || !course.Active {
		return 0, repository.ErrCapacityReached
	}
	if enforce && course.Capacity > 0 && course.RegisteredCount >= course.Capacity {
		return 0, repository.ErrCapacityReached
	}
	course.RegisteredCount++
	c.courses[courseID] = course
	return course.RegisteredCount, nil
}

func (c memCapacity) DecrementRegistered(ctx context.Context, exec sqlx.ExtContext, courseID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	course := c.courses[courseID]
	if course.RegisteredCount > 0 {
		course.RegisteredCount--
	}
	c.courses[courseID] = course
	return nil
}

func (c memCapacity) IncrementWeekday(ctx context.Context, exec sqlx.ExtContext, courseID string, weekday calendar.Weekday) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	course, ok := c.courses[courseID]
	if !ok || !course.Active {
		return 0, repository.ErrCapacityReached
	}
	key := weekdayKey(courseID, weekday)
	if course.Capacity > 0 && c.weekdayCounts[key] >= course.Capacity {
		return 0, repository.ErrCapacityReached
	}
	c.weekdayCounts[key]++
	return c.weekdayCounts[key], nil
}

func (c memCapacity) DecrementWeekday(ctx context.Context, exec sqlx.ExtContext, courseID string, weekday calendar.Weekday) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := weekdayKey(courseID, weekday)
	if c.weekdayCounts[key] > 0 {
		c.weekdayCounts[key]--
	}
	return nil
}

func (c memCapacity) WeekdayCount(ctx context.Context, courseID string, weekday calendar.Weekday) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weekdayCounts[weekdayKey(courseID, weekday)], nil
}

func (c memCapacity) ResetCounts(ctx context.Context, exec sqlx.ExtContext, courseID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	course := c.courses[courseID]
	course.RegisteredCount = 0
	c.courses[courseID] = course
	for _, w := range calendar.Weekdays() {
		delete(c.weekdayCounts, weekdayKey(courseID, w))
	}
	return nil
}

// notifierStub records notification requests.

type notifierStub struct {
	mu    sync.Mutex
	calls []notifierCall
}

type notifierCall struct {
	course     models.Course
	recipients []models.Recipient
	reason     CancellationReason
}

func (n *notifierStub) NotifyCourseCancelled(ctx context.Context, course *models.Course, recipients []models.Recipient, reason CancellationReason) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifierCall{course: *course, recipients: recipients, reason: reason})
}

// fixture wires every service over one memStore.

type schedulingFixture struct {
	store        *memStore
	notifier     *notifierStub
	schedules    *CourseScheduleService
	enrollments  *EnrollmentService
	reservations *ReservationService
}

func newSchedulingFixture() *schedulingFixture {
	store := newMemStore()
	store.addResource("Court 1")
	store.addResource("Court 2")

	notifier := &notifierStub{}
	resources := NewResourceService(memResources{store}, nil, 0, nil)
	detector := NewConflictDetector(memLedger{store}, nil, nil)
	stores := ScheduleStores{
		Courses:      memCourses{store},
		Tiers:        memTiers{store},
		Reservations: memReservations{store},
		Slots:        memSlots{store},
		Enrollments:  memEnrollments{store},
		Capacity:     memCapacity{store},
	}
	return &schedulingFixture{
		store:        store,
		notifier:     notifier,
		schedules:    NewCourseScheduleService(store, stores, resources, detector, CourseScheduleOptions{Notifier: notifier}),
		enrollments:  NewEnrollmentService(store, memEnrollments{store}, memCapacity{store}, memCourses{store}, memSlots{store}, nil, nil, nil),
		reservations: NewReservationService(store, memReservations{store}, resources, detector, nil, nil, nil),
	}
}
