package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func chartsRequest(query string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/charts"+query, nil)
	c.Set(middleware.ContextScope, middleware.AccessScope{IsAdmin: true})
	return c, w
}

func TestChartsRejectsUnknownGranularity(t *testing.T) {
	c, w := chartsRequest("?granularity=quarter")
	NewHandler(nil, zap.NewNop()).Charts(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChartsRejectsMalformedCondominiumID(t *testing.T) {
	c, w := chartsRequest("?condominium_id=not-a-uuid")
	NewHandler(nil, zap.NewNop()).Charts(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
