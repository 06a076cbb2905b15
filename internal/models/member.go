package models

type CreateMemberRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,max=50,phone"`
	Address  string `json:"address"`
	JoinDate string `json:"join_date" validate:"omitempty,datetime=2006-01-02"`
	Status   string `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

// UpdateMemberRequest: field nil artinya tidak diubah. total_points dan
// tier_level sengaja tidak ada, keduanya hanya berubah lewat ledger.
type UpdateMemberRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=50,phone"`
	Address  *string `json:"address"`
	JoinDate *string `json:"join_date" validate:"omitempty,datetime=2006-01-02"`
	Status   *string `json:"status" validate:"omitempty,oneof=Active Inactive"`
}
