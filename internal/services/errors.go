package services

import (
	"errors"

	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
	vld "github.com/hoshichaam/crm_loyalty_go/pkg/validator"
)

// ErrValidation: input salah bentuk atau tidak konsisten (400).
type ErrValidation struct {
	Msg    string
	Fields map[string][]string
}

func (e ErrValidation) Error() string { return e.Msg }

// ErrBusinessRule: poin kurang, stok habis, voucher tidak tersedia atau
// transisi status ilegal (400). Field opsional, ikut ke map errors.
type ErrBusinessRule struct {
	Field string
	Msg   string
}

func (e ErrBusinessRule) Error() string { return e.Msg }

type ErrNotFoundResource struct{ Msg string }

func (e ErrNotFoundResource) Error() string { return e.Msg }

type ErrUnauthorized struct{ Msg string }

func (e ErrUnauthorized) Error() string { return e.Msg }

type ErrForbidden struct{ Msg string }

func (e ErrForbidden) Error() string { return e.Msg }

type ErrConflict struct {
	Field string
	Msg   string
}

func (e ErrConflict) Error() string { return e.Msg }

func validate(in any) error {
	if fields, err := vld.ValidateStruct(in); err != nil {
		return ErrValidation{Msg: "Validation error", Fields: fields}
	}
	return nil
}

func fieldError(field, msg string) ErrValidation {
	return ErrValidation{Msg: msg, Fields: map[string][]string{field: {msg}}}
}

// translate memetakan error repo ke error service. Unique violation yang
// lolos pengecekan service (race) dilaporkan sebagai field error biasa.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var nf repositories.ErrNotFound
	if errors.As(err, &nf) {
		return ErrNotFoundResource{Msg: nf.Message}
	}
	var cf repositories.ErrConflict
	if errors.As(err, &cf) {
		return fieldError(cf.Field, cf.Message)
	}
	return err
}
