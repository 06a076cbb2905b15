package models

type CreatePointTransactionRequest struct {
	Member          string `json:"member" validate:"required"`
	TransactionType string `json:"transaction_type" validate:"required,oneof=earn redeem expire adjustment"`
	Points          *int   `json:"points" validate:"required,min=-2147483647,max=2147483647"`
	Description     string `json:"description"`
}
