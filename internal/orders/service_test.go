package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condoops/backend/internal/models"
)

// fakeStore is an in-memory Store for lifecycle tests.
type fakeStore struct {
	orders     map[uuid.UUID]*models.ServiceOrder
	numbers    map[string]bool
	logs       []*models.StatusLogEntry
	seq        int
	dupInserts int // first dupInserts Insert calls fail with ErrDuplicateNumber
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  map[uuid.UUID]*models.ServiceOrder{},
		numbers: map[string]bool{},
	}
}

func (f *fakeStore) NextSequence(ctx context.Context, year int) (int, error) {
	return f.seq + 1, nil
}

func (f *fakeStore) Insert(ctx context.Context, o *models.ServiceOrder, entry *models.StatusLogEntry) error {
	if f.dupInserts > 0 {
		f.dupInserts--
		f.seq++
		return ErrDuplicateNumber
	}
	if f.numbers[o.Number] {
		return ErrDuplicateNumber
	}
	f.seq++
	f.numbers[o.Number] = true
	cp := *o
	f.orders[o.ID] = &cp
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) ApplyStatusChange(ctx context.Context, o *models.ServiceOrder, entry *models.StatusLogEntry) error {
	cp := *o
	f.orders[o.ID] = &cp
	f.logs = append(f.logs, entry)
	return nil
}

func newTestService(store *fakeStore, at time.Time) *Service {
	s := NewService(store)
	s.now = func() time.Time { return at }
	return s
}

func createParams() CreateParams {
	return CreateParams{
		CondominiumID: uuid.New(),
		CreatorID:     uuid.New(),
		Title:         "Vazamento na garagem",
		Description:   "Infiltração no teto da garagem, bloco B",
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	first, err := svc.Create(context.Background(), createParams())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	assert.Equal(t, "OS-2026-0001", first.Number)
	assert.Equal(t, "OS-2026-0002", second.Number)
	assert.Equal(t, models.StatusOpen, first.Status)
	assert.Equal(t, models.PriorityNormal, first.Priority)
	assert.Equal(t, models.TypeMaintenance, first.OrderType)
	assert.Nil(t, first.StartedAt)
	assert.Nil(t, first.CompletedAt)

	// every creation appends a log entry with an empty previous status
	require.Len(t, store.logs, 2)
	assert.Equal(t, "", store.logs[0].PreviousStatus)
	assert.Equal(t, models.StatusOpen, store.logs[0].NewStatus)
	assert.Equal(t, first.ID, store.logs[0].OrderID)
}

func TestCreateRetriesOnDuplicateNumber(t *testing.T) {
	store := newFakeStore()
	store.dupInserts = 2
	svc := newTestService(store, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	o, err := svc.Create(context.Background(), createParams())
	require.NoError(t, err)
	assert.Equal(t, "OS-2026-0003", o.Number)
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	store := newFakeStore()
	store.dupInserts = maxNumberAttempts
	svc := newTestService(store, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	_, err := svc.Create(context.Background(), createParams())
	assert.Error(t, err)
}

func TestCreateRejectsUnknownPriorityAndType(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	p := createParams()
	p.Priority = "Urgentíssima"
	_, err := svc.Create(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidPriority)

	p = createParams()
	p.OrderType = "Jardinagem"
	_, err = svc.Create(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestChangeStatusAppendsLog(t *testing.T) {
	store := newFakeStore()
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, at)
	o, err := svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	actor := uuid.New()
	updated, entry, err := svc.ChangeStatus(context.Background(), o.ID, actor, false, models.StatusInProgress, "iniciando")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, models.StatusOpen, entry.PreviousStatus)
	assert.Equal(t, models.StatusInProgress, entry.NewStatus)
	assert.Equal(t, actor, entry.UserID)
	require.NotNil(t, entry.Note)
	assert.Equal(t, "iniciando", *entry.Note)

	// creation entry plus the transition
	assert.Len(t, store.logs, 2)
	require.NotNil(t, updated.StartedAt)
	assert.Nil(t, updated.CompletedAt)
}

func TestChangeStatusSameStatusIsNoOp(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())
	o, err := svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	updated, entry, err := svc.ChangeStatus(context.Background(), o.ID, uuid.New(), false, models.StatusOpen, "")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, models.StatusOpen, updated.Status)
	assert.Len(t, store.logs, 1) // creation entry only
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	_, _, err := svc.ChangeStatus(context.Background(), uuid.New(), uuid.New(), false, "Pausada", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestChangeStatusStampsStartedAtOnce(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, start)
	o, err := svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	actor := uuid.New()
	updated, _, err := svc.ChangeStatus(context.Background(), o.ID, actor, false, models.StatusInProgress, "")
	require.NoError(t, err)
	require.NotNil(t, updated.StartedAt)
	assert.Equal(t, start, *updated.StartedAt)

	// leave Em Andamento and come back later; started_at must not move
	later := start.Add(48 * time.Hour)
	svc.now = func() time.Time { return later }
	_, _, err = svc.ChangeStatus(context.Background(), o.ID, actor, false, models.StatusAwaitingMaterial, "")
	require.NoError(t, err)
	updated, _, err = svc.ChangeStatus(context.Background(), o.ID, actor, false, models.StatusInProgress, "")
	require.NoError(t, err)
	require.NotNil(t, updated.StartedAt)
	assert.Equal(t, start, *updated.StartedAt)
}

func TestChangeStatusStampsCompletedAtOnce(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, start)
	o, err := svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	admin := uuid.New()
	done := start.Add(72 * time.Hour)
	svc.now = func() time.Time { return done }
	updated, _, err := svc.ChangeStatus(context.Background(), o.ID, admin, true, models.StatusCompleted, "")
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, done, *updated.CompletedAt)

	// admin reopens and completes again; completed_at keeps the first stamp
	svc.now = func() time.Time { return done.Add(24 * time.Hour) }
	_, _, err = svc.ChangeStatus(context.Background(), o.ID, admin, true, models.StatusInProgress, "")
	require.NoError(t, err)
	updated, _, err = svc.ChangeStatus(context.Background(), o.ID, admin, true, models.StatusCompleted, "")
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, done, *updated.CompletedAt)
}

func TestChangeStatusTerminalRequiresAdmin(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())
	o, err := svc.Create(context.Background(), createParams())
	require.NoError(t, err)

	admin := uuid.New()
	_, _, err = svc.ChangeStatus(context.Background(), o.ID, admin, true, models.StatusCancelled, "")
	require.NoError(t, err)

	_, _, err = svc.ChangeStatus(context.Background(), o.ID, uuid.New(), false, models.StatusOpen, "")
	assert.ErrorIs(t, err, ErrTerminal)

	updated, entry, err := svc.ChangeStatus(context.Background(), o.ID, admin, true, models.StatusOpen, "reaberta")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.StatusOpen, updated.Status)
}

func TestChangeStatusUnknownOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	_, _, err := svc.ChangeStatus(context.Background(), uuid.New(), uuid.New(), false, models.StatusInProgress, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
