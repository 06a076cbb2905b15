package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hoshichaam/crm_loyalty_go/internal/middleware"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/services"
	response "github.com/hoshichaam/crm_loyalty_go/pkg/response"
)

// PointHandler: transaksi poin append-only, tidak ada PUT/DELETE.
type PointHandler struct {
	svc *services.PointService
}

func NewPointHandler(s *services.PointService) *PointHandler {
	return &PointHandler{svc: s}
}

// GET /api/points
func (h *PointHandler) List(c *fiber.Ctx) error {
	items, err := h.svc.List(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		return mapError(c, err)
	}
	return response.List(c, items)
}

// POST /api/points
func (h *PointHandler) Create(c *fiber.Ctx) error {
	var req models.CreatePointTransactionRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	out, err := h.svc.Record(c.UserContext(), middleware.Username(c), req)
	if err != nil {
		return mapError(c, err)
	}
	debugPrintln("POINT Record:", out.MemberID, out.TransactionType, out.Points)
	return response.Created(c, "Point transaction created successfully", out)
}

// GET /api/points/:id
func (h *PointHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, fiber.StatusNotFound, "Point transaction not found")
	}
	out, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}

// GET /api/points/member/:memberId
func (h *PointHandler) ByMember(c *fiber.Ctx) error {
	items, err := h.svc.ListByMember(c.UserContext(), c.Params("memberId"), c.QueryInt("limit", 100))
	if err != nil {
		return mapError(c, err)
	}
	return response.List(c, items)
}

// GET /api/points/statistics?member=MEM-001
func (h *PointHandler) Statistics(c *fiber.Ctx) error {
	out, err := h.svc.Statistics(c.UserContext(), c.Query("member"))
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}
