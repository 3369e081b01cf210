package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/condoops/backend/internal/models"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidType     = errors.New("invalid order type")
	ErrTerminal        = errors.New("order is in a terminal status")
	ErrDuplicateNumber = errors.New("order number already taken")

	errNumberExhausted = errors.New("could not allocate order number")
)

// maxNumberAttempts bounds the retry loop when two creations race for the
// same sequence number.
const maxNumberAttempts = 5

// Store is the persistence surface the lifecycle service needs. The pgx
// repository implements it; tests use an in-memory fake.
type Store interface {
	// NextSequence returns max existing sequence for the year plus one.
	NextSequence(ctx context.Context, year int) (int, error)
	// Insert persists a new order together with its creation log entry.
	// Returns ErrDuplicateNumber when the generated number collided with
	// a concurrent insert.
	Insert(ctx context.Context, o *models.ServiceOrder, entry *models.StatusLogEntry) error
	Get(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error)
	// ApplyStatusChange updates the order row and appends the log entry
	// in one transaction.
	ApplyStatusChange(ctx context.Context, o *models.ServiceOrder, entry *models.StatusLogEntry) error
}

// Service owns order creation and the status lifecycle. All status
// mutations go through ChangeStatus so the audit log can never miss a
// transition.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateParams holds the fields of a new order.
type CreateParams struct {
	CondominiumID  uuid.UUID
	AreaID         *uuid.UUID
	AssigneeID     *uuid.UUID
	CreatorID      uuid.UUID
	VendorID       *uuid.UUID
	Title          string
	Description    string
	Priority       string
	OrderType      string
	Observations   *string
	EstimatedValue *float64
	ExpectedAt     *time.Time
}

// Create inserts a new open order with a fresh OS-<year>-<seq> number.
// The number column is unique, so a race between two creations surfaces
// as a duplicate insert and the loser retries with the next sequence.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.ServiceOrder, error) {
	if p.Priority == "" {
		p.Priority = models.PriorityNormal
	}
	if !models.ValidPriority(p.Priority) {
		return nil, ErrInvalidPriority
	}
	if p.OrderType == "" {
		p.OrderType = models.TypeMaintenance
	}
	if !models.ValidOrderType(p.OrderType) {
		return nil, ErrInvalidType
	}

	now := s.now().UTC()
	year := now.Year()

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		seq, err := s.store.NextSequence(ctx, year)
		if err != nil {
			return nil, err
		}
		o := &models.ServiceOrder{
			ID:             uuid.New(),
			Number:         fmt.Sprintf("OS-%d-%04d", year, seq),
			CondominiumID:  p.CondominiumID,
			AreaID:         p.AreaID,
			AssigneeID:     p.AssigneeID,
			CreatorID:      p.CreatorID,
			VendorID:       p.VendorID,
			Title:          p.Title,
			Description:    p.Description,
			Priority:       p.Priority,
			Status:         models.StatusOpen,
			OrderType:      p.OrderType,
			Observations:   p.Observations,
			EstimatedValue: p.EstimatedValue,
			ExpectedAt:     p.ExpectedAt,
			CreatedAt:      now,
		}
		// empty previous status marks the creation entry
		entry := &models.StatusLogEntry{
			ID:        uuid.New(),
			OrderID:   o.ID,
			NewStatus: models.StatusOpen,
			UserID:    p.CreatorID,
			ChangedAt: now,
		}
		err = s.store.Insert(ctx, o, entry)
		if errors.Is(err, ErrDuplicateNumber) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, errNumberExhausted
}

// ChangeStatus moves an order to a new status on behalf of actorID.
// Changing to the current status is a no-op and returns a nil log entry.
// Orders in a terminal status can only be moved by an admin. StartedAt
// and CompletedAt are stamped on the first transition into Em Andamento
// and Concluída respectively and never overwritten.
func (s *Service) ChangeStatus(ctx context.Context, orderID, actorID uuid.UUID, actorIsAdmin bool, newStatus string, note string) (*models.ServiceOrder, *models.StatusLogEntry, error) {
	if !models.ValidStatus(newStatus) {
		return nil, nil, ErrInvalidStatus
	}

	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.Status == newStatus {
		return o, nil, nil
	}
	if models.TerminalStatus(o.Status) && !actorIsAdmin {
		return nil, nil, ErrTerminal
	}

	now := s.now().UTC()
	previous := o.Status
	o.Status = newStatus
	if newStatus == models.StatusInProgress && o.StartedAt == nil {
		t := now
		o.StartedAt = &t
	}
	if newStatus == models.StatusCompleted && o.CompletedAt == nil {
		t := now
		o.CompletedAt = &t
	}

	entry := &models.StatusLogEntry{
		ID:             uuid.New(),
		OrderID:        o.ID,
		PreviousStatus: previous,
		NewStatus:      newStatus,
		UserID:         actorID,
		ChangedAt:      now,
	}
	if note != "" {
		entry.Note = &note
	}

	if err := s.store.ApplyStatusChange(ctx, o, entry); err != nil {
		return nil, nil, err
	}
	return o, entry, nil
}
