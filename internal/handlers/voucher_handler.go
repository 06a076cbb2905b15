package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/services"
	response "github.com/hoshichaam/crm_loyalty_go/pkg/response"
)

type VoucherHandler struct {
	svc *services.VoucherService
}

func NewVoucherHandler(s *services.VoucherService) *VoucherHandler {
	return &VoucherHandler{svc: s}
}

func (h *VoucherHandler) List(c *fiber.Ctx) error {
	items, err := h.svc.List(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		return mapError(c, err)
	}
	return response.List(c, items)
}

func (h *VoucherHandler) Create(c *fiber.Ctx) error {
	var req models.CreateVoucherRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	out, err := h.svc.Create(c.UserContext(), req)
	if err != nil {
		return mapError(c, err)
	}
	return response.Created(c, "Voucher created successfully", out)
}

func (h *VoucherHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, fiber.StatusNotFound, "Voucher not found")
	}
	out, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}

func (h *VoucherHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, fiber.StatusNotFound, "Voucher not found")
	}
	var req models.UpdateVoucherRequest
	if err := parseBody(c, &req); err != nil {
		return mapError(c, err)
	}
	out, err := h.svc.Update(c.UserContext(), id, req)
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "Voucher updated successfully", out)
}

func (h *VoucherHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, fiber.StatusNotFound, "Voucher not found")
	}
	if err := h.svc.Delete(c.UserContext(), id); err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "Voucher deleted successfully", nil)
}

func (h *VoucherHandler) Statistics(c *fiber.Ctx) error {
	out, err := h.svc.Statistics(c.UserContext())
	if err != nil {
		return mapError(c, err)
	}
	return response.OK(c, "", out)
}
