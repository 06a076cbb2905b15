package models

type CreateRedeemRequest struct {
	Member  string `json:"member" validate:"required"`
	Voucher int64  `json:"voucher" validate:"required,gt=0"`
	// Pending (default) atau Completed, case-insensitive; dicek di service
	Status string `json:"status"`
}

type UpdateRedeemRequest struct {
	Status string `json:"status" validate:"required"`
}
