package handlers

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hoshichaam/crm_loyalty_go/internal/services"
	response "github.com/hoshichaam/crm_loyalty_go/pkg/response"
)

// mapper error service -> envelope
func mapError(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case services.ErrValidation:
		return response.ValidationError(c, e.Msg, e.Fields)
	case services.ErrBusinessRule:
		if e.Field != "" {
			return response.ValidationError(c, e.Msg, map[string][]string{e.Field: {e.Msg}})
		}
		return response.Error(c, fiber.StatusBadRequest, e.Msg)
	case services.ErrUnauthorized:
		return response.Error(c, fiber.StatusUnauthorized, e.Msg)
	case services.ErrForbidden:
		return response.Error(c, fiber.StatusForbidden, e.Msg)
	case services.ErrNotFoundResource:
		return response.Error(c, fiber.StatusNotFound, e.Msg)
	case services.ErrConflict:
		return c.Status(fiber.StatusConflict).JSON(response.Envelope{
			Success: false,
			Message: e.Msg,
			Errors:  map[string][]string{e.Field: {e.Msg}},
		})
	default:
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		msg := "Internal server error"
		if isDev() {
			msg = err.Error()
		}
		return response.Error(c, fiber.StatusInternalServerError, msg)
	}
}

// parseBody: body JSON rusak dilaporkan seperti error validasi.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		debugPrintln("body parse error:", c.Path(), err)
		return services.ErrValidation{
			Msg:    "invalid request body",
			Fields: map[string][]string{"non_field_errors": {"Invalid JSON body."}},
		}
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	return id, err == nil && id > 0
}

func isDev() bool { return strings.EqualFold(os.Getenv("APP_ENV"), "development") }

func debugPrintln(a ...any) {
	if isDev() {
		fmt.Println(a...)
	}
}

// masking helper biar log aman
func maskEmail(e string) string {
	e = strings.TrimSpace(e)
	parts := strings.Split(e, "@")
	if len(parts) != 2 {
		if len(e) > 3 {
			return e[:3] + "***"
		}
		return "***"
	}
	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = local + "***"
	}
	return local + "@" + domain
}
