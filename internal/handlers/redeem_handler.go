package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/services"
	response "github.com/hoshichaam/crm_loyalty_go/pkg/response"
)

type RedeemHandler struct {
	svc *services.RedeemService
}

func NewRedeemHandler(s *services.RedeemService) *RedeemHandler {
	return &RedeemHandler{svc: s}
}

// GET /api/redeem?member=MEM-001
func (h *RedeemHandler) List(c *fiber.Ctx) error {
	items, err := h.svc.List(c.UserContext(), c.Query("member"), c.QueryInt("limit", 100))
	if err != nil {
		return mapError(c, err)
	}
	return response.List(c, items)
}

// POST /api/redeem
func (h *RedeemHandler) Create(c *fiber.Ctx) error {
	var req models.CreateRedeemRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	out, err := h.svc.Create(c.UserContext(), req)
	if err != nil {
		debugPrintln("REDEEM Create: failed", req.Member, req.Voucher, err)
		return mapError(c, err)
	}
	return response.Created(c, "Redemption successful", out)
}

func (h *RedeemHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, fiber.StatusNotFound, "Redeem transaction not found")
	}
	out, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}

// PUT /api/redeem/:id
func (h *RedeemHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, fiber.StatusNotFound, "Redeem transaction not found")
	}
	var req models.UpdateRedeemRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	out, err := h.svc.Update(c.UserContext(), id, req)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "Redeem status updated successfully", out)
}

// POST /api/redeem/:id/mark-used
func (h *RedeemHandler) MarkUsed(c *fiber.Ctx) error {
	return h.transition(c, h.svc.MarkUsed, "Redemption marked as used")
}

// POST /api/redeem/:id/cancel
func (h *RedeemHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.svc.Cancel, "Redemption cancelled successfully")
}

func (h *RedeemHandler) transition(c *fiber.Ctx, fn func(context.Context, int64) (services.RedeemDTO, error), msg string) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, fiber.StatusNotFound, "Redeem transaction not found")
	}
	out, err := fn(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, msg, out)
}

// GET /api/redeem/statistics?member=MEM-001
func (h *RedeemHandler) Statistics(c *fiber.Ctx) error {
	out, err := h.svc.Statistics(c.UserContext(), c.Query("member"))
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}
