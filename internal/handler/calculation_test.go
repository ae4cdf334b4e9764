package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/secure-calc-api/internal/middleware"
	"github.com/iliyamo/secure-calc-api/internal/model"
	"github.com/iliyamo/secure-calc-api/internal/repository"
)

type mockCalcStore struct{ mock.Mock }

func (m *mockCalcStore) Create(ctx context.Context, c model.Calculation) (uint64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockCalcStore) GetByID(ctx context.Context, id uint64) (model.Calculation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Calculation), args.Error(1)
}

func (m *mockCalcStore) ListForUser(ctx context.Context, userID uint64, offset, limit int) ([]model.Calculation, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]model.Calculation), args.Error(1)
}

func (m *mockCalcStore) ListAll(ctx context.Context, offset, limit int) ([]model.Calculation, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]model.Calculation), args.Error(1)
}

func (m *mockCalcStore) Update(ctx context.Context, c model.Calculation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCalcStore) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

// newCalcCtx builds an echo context carrying an authenticated principal,
// the way JWTAuth would have left it.
func newCalcCtx(t *testing.T, method, target, body string, userID uint64, role model.Role) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, userID)
	c.Set(middleware.ContextRole, string(role))
	return c, rec
}

func TestCalcCreate_ComputesResult(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	store.On("Create", mock.MatchedBy(func(_ context.Context) bool { return true }),
		mock.MatchedBy(func(calc model.Calculation) bool {
			return calc.UserID == 1 && calc.Operation == "add" && calc.Result == 6
		})).Return(uint64(10), nil)
	store.On("GetByID", mock.Anything, uint64(10)).
		Return(model.Calculation{ID: 10, UserID: 1, Operation: "add", Operands: []float64{1, 2, 3}, Result: 6}, nil)

	c, rec := newCalcCtx(t, http.MethodPost, "/v1/calculations",
		`{"operation":"add","operands":[1,2,3]}`, 1, model.RoleUser)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":6`)
}

func TestCalcCreate_LegacyTwoOperandForm(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	store.On("Create", mock.Anything, mock.MatchedBy(func(calc model.Calculation) bool {
		return calc.Operation == "div" && calc.Result == 4
	})).Return(uint64(2), nil)
	store.On("GetByID", mock.Anything, uint64(2)).
		Return(model.Calculation{ID: 2, UserID: 1, Operation: "div", Operands: []float64{8, 2}, Result: 4}, nil)

	c, rec := newCalcCtx(t, http.MethodPost, "/v1/calculations",
		`{"type":"divide","a":8,"b":2}`, 1, model.RoleUser)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCalcCreate_DivisionByZeroPersistsNothing(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	c, rec := newCalcCtx(t, http.MethodPost, "/v1/calculations",
		`{"operation":"div","operands":[1,0]}`, 1, model.RoleUser)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCalcCreate_UnknownOperation(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	c, rec := newCalcCtx(t, http.MethodPost, "/v1/calculations",
		`{"operation":"pow","operands":[2,8]}`, 1, model.RoleUser)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCalcRead_ForeignRowReadsAsNotFound(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	store.On("GetByID", mock.Anything, uint64(5)).
		Return(model.Calculation{ID: 5, UserID: 99, Operation: "add", Operands: []float64{1, 1}, Result: 2}, nil)

	c, rec := newCalcCtx(t, http.MethodGet, "/v1/calculations/5", "", 1, model.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Read(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalcRead_AdminSeesForeignRow(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	store.On("GetByID", mock.Anything, uint64(5)).
		Return(model.Calculation{ID: 5, UserID: 99, Operation: "add", Operands: []float64{1, 1}, Result: 2}, nil)

	c, rec := newCalcCtx(t, http.MethodGet, "/v1/calculations/5", "", 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Read(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalcList_ScopedByRole(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	store.On("ListForUser", mock.Anything, uint64(1), 0, 100).
		Return([]model.Calculation{{ID: 1, UserID: 1}}, nil)
	store.On("ListAll", mock.Anything, 0, 100).
		Return([]model.Calculation{{ID: 1, UserID: 1}, {ID: 2, UserID: 2}}, nil)

	c, rec := newCalcCtx(t, http.MethodGet, "/v1/calculations", "", 1, model.RoleUser)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertCalled(t, "ListForUser", mock.Anything, uint64(1), 0, 100)

	c, rec = newCalcCtx(t, http.MethodGet, "/v1/calculations", "", 1, model.RoleAdmin)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertCalled(t, "ListAll", mock.Anything, 0, 100)
}

func TestCalcPatch_MergesAndRecomputes(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	existing := model.Calculation{ID: 7, UserID: 1, Operation: "add", Operands: []float64{4, 2}, Result: 6}
	store.On("GetByID", mock.Anything, uint64(7)).Return(existing, nil).Once()
	store.On("Update", mock.Anything, mock.MatchedBy(func(calc model.Calculation) bool {
		// Only the operation changed; operands carried over, result recomputed.
		return calc.Operation == "div" && calc.Result == 2
	})).Return(nil)
	store.On("GetByID", mock.Anything, uint64(7)).
		Return(model.Calculation{ID: 7, UserID: 1, Operation: "div", Operands: []float64{4, 2}, Result: 2}, nil)

	c, rec := newCalcCtx(t, http.MethodPatch, "/v1/calculations/7",
		`{"operation":"div"}`, 1, model.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Patch(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestCalcDelete_ForeignRowReadsAsNotFound(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	store.On("GetByID", mock.Anything, uint64(5)).
		Return(model.Calculation{ID: 5, UserID: 99}, nil)

	c, rec := newCalcCtx(t, http.MethodDelete, "/v1/calculations/5", "", 1, model.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCalcDelete_MissingRow(t *testing.T) {
	store := new(mockCalcStore)
	h := NewCalcHandler(store)

	store.On("GetByID", mock.Anything, uint64(404)).
		Return(model.Calculation{}, repository.ErrNotFound)

	c, rec := newCalcCtx(t, http.MethodDelete, "/v1/calculations/404", "", 1, model.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("404")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalcStateless(t *testing.T) {
	h := NewCalcHandler(new(mockCalcStore))

	cases := []struct {
		op     string
		a, b   string
		status int
		want   string
	}{
		{"add", "2", "3", http.StatusOK, `"result":5`},
		{"sub", "10", "4", http.StatusOK, `"result":6`},
		{"mul", "6", "7", http.StatusOK, `"result":42`},
		{"div", "9", "3", http.StatusOK, `"result":3`},
		{"div", "1", "0", http.StatusBadRequest, "division by zero"},
		{"pow", "2", "8", http.StatusBadRequest, "unsupported operation"},
		{"add", "x", "1", http.StatusBadRequest, "must be numbers"},
	}
	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/calc/"+tc.op+"?a="+tc.a+"&b="+tc.b, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("op")
		c.SetParamValues(tc.op)

		require.NoError(t, h.Stateless(c))
		assert.Equal(t, tc.status, rec.Code, "%s a=%s b=%s", tc.op, tc.a, tc.b)
		assert.Contains(t, rec.Body.String(), tc.want)
	}
}
