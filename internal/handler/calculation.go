package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-calc-api/internal/middleware"
	"github.com/iliyamo/secure-calc-api/internal/model"
	"github.com/iliyamo/secure-calc-api/internal/repository"
	"github.com/iliyamo/secure-calc-api/internal/service"
)

// CalcStore is the persistence surface the calculation handlers need.
// *repository.CalcRepo satisfies it; tests substitute mocks.
type CalcStore interface {
	Create(ctx context.Context, c model.Calculation) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Calculation, error)
	ListForUser(ctx context.Context, userID uint64, offset, limit int) ([]model.Calculation, error)
	ListAll(ctx context.Context, offset, limit int) ([]model.Calculation, error)
	Update(ctx context.Context, c model.Calculation) error
	Delete(ctx context.Context, id uint64) error
}

// CalcHandler implements the BREAD endpoints over calculations plus the
// stateless calculator routes.  Results are always computed here from
// the operands; a result field in the request body is ignored.
type CalcHandler struct {
	Store CalcStore
}

func NewCalcHandler(store CalcStore) *CalcHandler {
	return &CalcHandler{Store: store}
}

// ----- DTOs -----

// calcReq accepts both the list form {operation, operands} and the
// legacy two-operand form {type, a, b}.
type calcReq struct {
	Operation string    `json:"operation"`
	Operands  []float64 `json:"operands"`
	Type      string    `json:"type"`
	A         *float64  `json:"a"`
	B         *float64  `json:"b"`
}

// normalize resolves the two accepted request shapes into an operation
// and an operand list.
func (r calcReq) normalize() (string, []float64) {
	op := r.Operation
	if op == "" {
		op = r.Type
	}
	operands := r.Operands
	if len(operands) == 0 && r.A != nil && r.B != nil {
		operands = []float64{*r.A, *r.B}
	}
	return op, operands
}

// evaluate parses and computes a request, returning the validated
// operation, operands and result.
func evaluate(req calcReq) (service.Operation, []float64, float64, error) {
	rawOp, operands := req.normalize()
	op, err := service.ParseOperation(rawOp)
	if err != nil {
		return "", nil, 0, err
	}
	result, err := service.Compute(op, operands)
	if err != nil {
		return "", nil, 0, err
	}
	return op, operands, result, nil
}

// fetchOwned loads a calculation and applies the ownership policy: a
// row owned by someone else reads as not-found for non-admins, so
// resource ids cannot be probed across users.
func (h *CalcHandler) fetchOwned(ctx context.Context, caller model.User, id uint64) (model.Calculation, error) {
	calc, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return model.Calculation{}, err
	}
	if caller.Role != model.RoleAdmin && calc.UserID != caller.ID {
		return model.Calculation{}, repository.ErrNotFound
	}
	return calc, nil
}

// List returns the caller's calculations; admins see everyone's.
func (h *CalcHandler) List(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offset, limit := parsePage(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		calcs []model.Calculation
		err   error
	)
	if middleware.IsAdmin(c) {
		calcs, err = h.Store.ListAll(ctx, offset, limit)
	} else {
		calcs, err = h.Store.ListForUser(ctx, caller.ID, offset, limit)
	}
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, calcs)
}

// Create computes and persists a new calculation for the caller.
// Validation failures (division by zero included) happen before any row
// is written.
func (h *CalcHandler) Create(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req calcReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	op, operands, result, err := evaluate(req)
	if err != nil {
		return writeErr(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	calc := model.Calculation{
		UserID:    caller.ID,
		Operation: string(op),
		Operands:  operands,
		Result:    result,
	}
	id, err := h.Store.Create(ctx, calc)
	if err != nil {
		return writeErr(c, err)
	}
	created, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Read returns one calculation by id, subject to the ownership policy.
func (h *CalcHandler) Read(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	calc, err := h.fetchOwned(ctx, caller, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, calc)
}

// Update replaces operation and operands wholesale and recomputes the
// result.
func (h *CalcHandler) Update(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req calcReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	op, operands, result, err := evaluate(req)
	if err != nil {
		return writeErr(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	calc, err := h.fetchOwned(ctx, caller, id)
	if err != nil {
		return writeErr(c, err)
	}
	calc.Operation = string(op)
	calc.Operands = operands
	calc.Result = result
	if err := h.Store.Update(ctx, calc); err != nil {
		return writeErr(c, err)
	}
	updated, err := h.Store.GetByID(ctx, calc.ID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Patch updates operation and/or operands, keeping the other field, and
// recomputes the result from the merged state.
func (h *CalcHandler) Patch(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req calcReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	calc, err := h.fetchOwned(ctx, caller, id)
	if err != nil {
		return writeErr(c, err)
	}

	rawOp, operands := req.normalize()
	if rawOp == "" {
		rawOp = calc.Operation
	}
	if len(operands) == 0 {
		operands = calc.Operands
	}
	op, err := service.ParseOperation(rawOp)
	if err != nil {
		return writeErr(c, err)
	}
	result, err := service.Compute(op, operands)
	if err != nil {
		return writeErr(c, err)
	}

	calc.Operation = string(op)
	calc.Operands = operands
	calc.Result = result
	if err := h.Store.Update(ctx, calc); err != nil {
		return writeErr(c, err)
	}
	updated, err := h.Store.GetByID(ctx, calc.ID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes one calculation, subject to the ownership policy.
func (h *CalcHandler) Delete(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	calc, err := h.fetchOwned(ctx, caller, id)
	if err != nil {
		return writeErr(c, err)
	}
	if err := h.Store.Delete(ctx, calc.ID); err != nil {
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stateless handles GET /v1/calc/:op?a=&b= — pure computation, nothing
// persisted, no authentication.
func (h *CalcHandler) Stateless(c echo.Context) error {
	op, err := service.ParseOperation(c.Param("op"))
	if err != nil {
		return writeErr(c, err)
	}
	a, errA := strconv.ParseFloat(c.QueryParam("a"), 64)
	b, errB := strconv.ParseFloat(c.QueryParam("b"), 64)
	if errA != nil || errB != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query params a and b must be numbers"})
	}
	result, err := service.Compute(op, []float64{a, b})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"operation": string(op),
		"a":         a,
		"b":         b,
		"result":    result,
	})
}
