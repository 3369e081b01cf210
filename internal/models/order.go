package models

import (
	"time"

	"github.com/google/uuid"
)

// Service order statuses. Values are the wire and database representation.
const (
	StatusOpen             = "Aberta"
	StatusInProgress       = "Em Andamento"
	StatusAwaitingApproval = "Aguardando Aprovação"
	StatusAwaitingMaterial = "Aguardando Material"
	StatusCompleted        = "Concluída"
	StatusCancelled        = "Cancelada"
)

// Priorities.
const (
	PriorityHigh   = "Alta"
	PriorityNormal = "Normal"
	PriorityLow    = "Baixa"
)

// Order types.
const (
	TypeMaintenance  = "Manutenção"
	TypeRepair       = "Reparo"
	TypeInstallation = "Instalação"
	TypeCleaning     = "Limpeza"
	TypeOther        = "Outro"
)

// Attachment categories.
const (
	CategoryPhotoInitial  = "foto_inicial"
	CategoryPhotoProgress = "foto_andamento"
	CategoryPhotoFinal    = "foto_final"
	CategoryQuote         = "cotacao"
	CategoryOther         = "outro"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusAwaitingApproval, StatusAwaitingMaterial, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TerminalStatus reports whether s ends the order lifecycle.
func TerminalStatus(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityNormal || p == PriorityLow
}

// ValidOrderType reports whether t is a known order type.
func ValidOrderType(t string) bool {
	switch t {
	case TypeMaintenance, TypeRepair, TypeInstallation, TypeCleaning, TypeOther:
		return true
	}
	return false
}

// ValidAttachmentCategory reports whether c is a known attachment category.
func ValidAttachmentCategory(c string) bool {
	switch c {
	case CategoryPhotoInitial, CategoryPhotoProgress, CategoryPhotoFinal, CategoryQuote, CategoryOther:
		return true
	}
	return false
}

// ServiceOrder is a maintenance service order.
type ServiceOrder struct {
	ID             uuid.UUID  `json:"id"`
	Number         string     `json:"number"`
	CondominiumID  uuid.UUID  `json:"condominium_id"`
	AreaID         *uuid.UUID `json:"area_id,omitempty"`
	AssigneeID     *uuid.UUID `json:"assignee_id,omitempty"`
	CreatorID      uuid.UUID  `json:"creator_id"`
	VendorID       *uuid.UUID `json:"vendor_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	OrderType      string     `json:"order_type"`
	Observations   *string    `json:"observations,omitempty"`
	EstimatedValue *float64   `json:"estimated_value,omitempty"`
	FinalValue     *float64   `json:"final_value,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ExpectedAt     *time.Time `json:"expected_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// StatusLogEntry is one row of an order's status history.
type StatusLogEntry struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"order_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	UserID         uuid.UUID `json:"user_id"`
	UserName       string    `json:"user_name,omitempty"`
	Note           *string   `json:"note,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

// Comment is a free-text note on an order.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a file stored in S3 and linked to an order.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	FileName   string    `json:"file_name"`
	StorageKey string    `json:"-"`
	Category   string    `json:"category"`
	SizeBytes  *int64    `json:"size_bytes,omitempty"`
	MimeType   *string   `json:"mime_type,omitempty"`
	UserID     uuid.UUID `json:"user_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}
