package response

import "github.com/gofiber/fiber/v2"

// Envelope standar biar konsisten: {success, message?, data?, count?, errors?}
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Count   *int                `json:"count,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// ---- Sukses ----
func OK(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

// List selalu mengirim data berupa array (bukan null) plus count.
func List[T any](c *fiber.Ctx, items []T) error {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: items, Count: &n})
}

// ---- Error umum ----
func Error(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(Envelope{Success: false, Message: msg})
}

// ---- Error validasi (field-based) ----
func ValidationError(c *fiber.Ctx, msg string, fields map[string][]string) error {
	if msg == "" {
		msg = "validation failed"
	}
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{Success: false, Message: msg, Errors: fields})
}
