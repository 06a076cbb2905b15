package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/services"
	response "github.com/hoshichaam/crm_loyalty_go/pkg/response"
)

type MemberHandler struct {
	svc *services.MemberService
}

func NewMemberHandler(s *services.MemberService) *MemberHandler {
	return &MemberHandler{svc: s}
}

// GET /api/members
func (h *MemberHandler) List(c *fiber.Ctx) error {
	items, err := h.svc.List(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		return mapError(c, err)
	}
	return response.List(c, items)
}

// POST /api/members
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req models.CreateMemberRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	out, err := h.svc.Create(c.UserContext(), req)
	if err != nil {
		return mapError(c, err)
	}
	debugPrintln("MEMBER Create:", out.ID, maskEmail(out.Email))
	return response.Created(c, "Member created successfully", out)
}

// GET /api/members/:id
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}

// PUT /api/members/:id
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateMemberRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	out, err := h.svc.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "Member updated successfully", out)
}

// DELETE /api/members/:id
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "Member deleted successfully", nil)
}

// GET /api/members/statistics
func (h *MemberHandler) Statistics(c *fiber.Ctx) error {
	out, err := h.svc.Statistics(c.UserContext())
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}
