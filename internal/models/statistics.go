package models

type MemberStatistics struct {
	TotalMembers    int            `json:"total_members"`
	ActiveMembers   int            `json:"active_members"`
	InactiveMembers int            `json:"inactive_members"`
	ByTier          map[string]int `json:"by_tier"`
	TotalPoints     int64          `json:"total_points"`
}

type PointStatistics struct {
	TotalEarned       int64 `json:"total_earned"`
	TotalRedeemed     int64 `json:"total_redeemed"`
	TotalExpired      int64 `json:"total_expired"`
	TotalAdjusted     int64 `json:"total_adjusted"`
	NetPoints         int64 `json:"net_points"`
	TotalTransactions int   `json:"total_transactions"`
}

type VoucherStatistics struct {
	TotalVouchers  int            `json:"total_vouchers"`
	ActiveVouchers int            `json:"active_vouchers"`
	TotalStock     int64          `json:"total_stock"`
	ByType         map[string]int `json:"by_type"`
}

type RedeemStatistics struct {
	TotalRedeems        int   `json:"total_redeems"`
	PendingRedeems      int   `json:"pending_redeems"`
	CompletedRedeems    int   `json:"completed_redeems"`
	UsedRedeems         int   `json:"used_redeems"`
	CancelledRedeems    int   `json:"cancelled_redeems"`
	TotalPointsRedeemed int64 `json:"total_points_redeemed"`
}
