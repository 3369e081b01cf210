package tenants

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore mirrors the referential guards of the real repository: a
// condominium with orders or assigned users refuses deletion.
type fakeStore struct {
	condos           map[uuid.UUID]*models.Condominium
	ordersByCondo    map[uuid.UUID]int
	usersByCondo     map[uuid.UUID]int
	createCompanyErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		condos:        map[uuid.UUID]*models.Condominium{},
		ordersByCondo: map[uuid.UUID]int{},
		usersByCondo:  map[uuid.UUID]int{},
	}
}

func (f *fakeStore) ListCompanies(ctx context.Context) ([]models.ManagementCompany, error) {
	return nil, nil
}

func (f *fakeStore) CreateCompany(ctx context.Context, p CompanyParams) (*models.ManagementCompany, error) {
	if f.createCompanyErr != nil {
		return nil, f.createCompanyErr
	}
	return &models.ManagementCompany{ID: uuid.New(), Name: p.Name, Active: p.Active}, nil
}

func (f *fakeStore) UpdateCompany(ctx context.Context, id uuid.UUID, p CompanyParams) (*models.ManagementCompany, error) {
	return nil, ErrNotFound
}

func (f *fakeStore) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	return ErrNotFound
}

func (f *fakeStore) ListCondominiums(ctx context.Context, onlyIDs []uuid.UUID) ([]models.Condominium, error) {
	return nil, nil
}

func (f *fakeStore) GetCondominium(ctx context.Context, id uuid.UUID) (*models.Condominium, error) {
	if c, ok := f.condos[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStore) CreateCondominium(ctx context.Context, p CondominiumParams) (*models.Condominium, error) {
	c := &models.Condominium{ID: uuid.New(), Name: p.Name, ManagementCompanyID: p.ManagementCompanyID, Active: p.Active}
	f.condos[c.ID] = c
	return c, nil
}

func (f *fakeStore) UpdateCondominium(ctx context.Context, id uuid.UUID, p CondominiumParams) (*models.Condominium, error) {
	return nil, ErrNotFound
}

func (f *fakeStore) DeleteCondominium(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.condos[id]; !ok {
		return ErrNotFound
	}
	if f.ordersByCondo[id] > 0 || f.usersByCondo[id] > 0 {
		return ErrInUse
	}
	delete(f.condos, id)
	return nil
}

func (f *fakeStore) ListAreas(ctx context.Context, condominiumID uuid.UUID) ([]models.Area, error) {
	return nil, nil
}

func (f *fakeStore) CreateArea(ctx context.Context, p AreaParams) (*models.Area, error) {
	return nil, nil
}

func (f *fakeStore) UpdateArea(ctx context.Context, id uuid.UUID, name, description string) (*models.Area, error) {
	return nil, ErrNotFound
}

func (f *fakeStore) DeleteArea(ctx context.Context, id uuid.UUID) error {
	return ErrNotFound
}

func deleteCondominium(h *Handler, id string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/condominiums/"+id, nil)
	c.Params = gin.Params{{Key: "id", Value: id}}
	h.DeleteCondominium(c)
	c.Writer.WriteHeaderNow()
	return w
}

func TestDeleteCondominiumWithOrdersConflicts(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, zap.NewNop())
	condo := &models.Condominium{ID: uuid.New(), Name: "Residencial Aurora"}
	store.condos[condo.ID] = condo
	store.ordersByCondo[condo.ID] = 3

	w := deleteCondominium(h, condo.ID.String())

	assert.Equal(t, http.StatusConflict, w.Code)
	_, stillThere := store.condos[condo.ID]
	assert.True(t, stillThere)
}

func TestDeleteCondominiumWithUsersConflicts(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, zap.NewNop())
	condo := &models.Condominium{ID: uuid.New(), Name: "Residencial Aurora"}
	store.condos[condo.ID] = condo
	store.usersByCondo[condo.ID] = 1

	w := deleteCondominium(h, condo.ID.String())

	assert.Equal(t, http.StatusConflict, w.Code)
	_, stillThere := store.condos[condo.ID]
	assert.True(t, stillThere)
}

func TestDeleteCondominiumWithoutReferences(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, zap.NewNop())
	condo := &models.Condominium{ID: uuid.New(), Name: "Residencial Aurora"}
	store.condos[condo.ID] = condo

	w := deleteCondominium(h, condo.ID.String())

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.condos)
}

func TestDeleteCondominiumNotFound(t *testing.T) {
	h := NewHandler(newFakeStore(), zap.NewNop())
	w := deleteCondominium(h, uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCompanyDuplicateCNPJConflicts(t *testing.T) {
	store := newFakeStore()
	store.createCompanyErr = &pgconn.PgError{Code: "23505"}
	h := NewHandler(store, zap.NewNop())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"name":"Administradora Sul","cnpj":"12.345.678/0001-90"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/companies", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.CreateCompany(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
