package models

import "github.com/shopspring/decimal"

// DiscountValue dicek manual di service (validator tidak kenal decimal.Decimal).
type CreateVoucherRequest struct {
	Code          string           `json:"code" validate:"required,max=50"`
	Name          string           `json:"name" validate:"required,max=255"`
	Description   string           `json:"description"`
	Type          string           `json:"type" validate:"omitempty,oneof=discount cashback freebie"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	PointsCost    *int             `json:"points_cost" validate:"required,gte=0,max=2147483647"`
	Stock         *int             `json:"stock" validate:"omitempty,gte=0,max=2147483647"`
	StartDate     string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string           `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status        string           `json:"status" validate:"omitempty,oneof=Active Inactive Expired"`
}

type UpdateVoucherRequest struct {
	Code          *string          `json:"code" validate:"omitempty,max=50"`
	Name          *string          `json:"name" validate:"omitempty,max=255"`
	Description   *string          `json:"description"`
	Type          *string          `json:"type" validate:"omitempty,oneof=discount cashback freebie"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	PointsCost    *int             `json:"points_cost" validate:"omitempty,gte=0,max=2147483647"`
	Stock         *int             `json:"stock" validate:"omitempty,gte=0,max=2147483647"`
	StartDate     *string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string          `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status        *string          `json:"status" validate:"omitempty,oneof=Active Inactive Expired"`
}
