package models

import (
	"time"

	"github.com/google/uuid"
)

// ManagementCompany administers one or more condominiums.
type ManagementCompany struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CNPJ      *string   `json:"cnpj,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Condominium is the tenant unit. Orders, areas and user scopes all hang off it.
type Condominium struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Address             *string   `json:"address,omitempty"`
	PostalCode          *string   `json:"postal_code,omitempty"`
	City                *string   `json:"city,omitempty"`
	State               *string   `json:"state,omitempty"`
	Phone               *string   `json:"phone,omitempty"`
	Email               *string   `json:"email,omitempty"`
	ManagementCompanyID uuid.UUID `json:"management_company_id"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Area is a physical location inside a condominium (pool, garage, hall).
type Area struct {
	ID            uuid.UUID `json:"id"`
	CondominiumID uuid.UUID `json:"condominium_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Vendor is an external service provider assignable to orders.
type Vendor struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CNPJCPF     *string   `json:"cnpj_cpf,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	ServiceType *string   `json:"service_type,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
