package loyalty

import (
	"errors"
	"fmt"
	"strings"
)

type RedeemStatus string

const (
	RedeemPending   RedeemStatus = "Pending"
	RedeemCompleted RedeemStatus = "Completed"
	RedeemCancelled RedeemStatus = "Cancelled"
	RedeemUsed      RedeemStatus = "Used"
)

var RedeemStatuses = []RedeemStatus{RedeemPending, RedeemCompleted, RedeemCancelled, RedeemUsed}

var (
	ErrInvalidTransition  = errors.New("invalid redemption status transition")
	ErrInsufficientPoints = errors.New("insufficient points for redemption")
	ErrVoucherUnavailable = errors.New("voucher is not available for redemption")
	ErrOutOfStock         = errors.New("voucher is out of stock")
)

// Effect tells the caller which side effects a transition carries.
type Effect int

const (
	EffectNone Effect = iota
	// EffectStatusOnly persists the new status, balances untouched.
	EffectStatusOnly
	// EffectMarkUsed persists Used and stamps used_date when still empty.
	EffectMarkUsed
	// EffectRefund gives points back to the member and restocks the voucher.
	EffectRefund
)

func ParseRedeemStatus(s string) (RedeemStatus, bool) {
	for _, st := range RedeemStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// IsInitialRedeemStatus reports whether a redemption may be created in st.
func IsInitialRedeemStatus(st RedeemStatus) bool {
	return st == RedeemPending || st == RedeemCompleted
}

// Holds reports whether a redemption in st still holds the member's points
// and one unit of voucher stock.
func Holds(st RedeemStatus) bool {
	return st == RedeemPending || st == RedeemCompleted
}

// PlanTransition is the only place that decides whether a redemption may move
// from current to target and what that move does.
// Cancelling twice is rejected; any other same-state move is a no-op.
func PlanTransition(current, target RedeemStatus) (Effect, error) {
	if current == target && target != RedeemCancelled {
		return EffectNone, nil
	}
	switch target {
	case RedeemCompleted:
		if current == RedeemPending {
			return EffectStatusOnly, nil
		}
	case RedeemUsed:
		if Holds(current) {
			return EffectMarkUsed, nil
		}
	case RedeemCancelled:
		if Holds(current) {
			return EffectRefund, nil
		}
	}
	return EffectNone, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
}

// CheckRedeemable validates the preconditions for a new redemption in a
// fixed order: points, availability, stock. available already covers
// stock > 0, so an empty voucher reports ErrVoucherUnavailable.
func CheckRedeemable(balance, cost int, available bool, stock int) error {
	if balance < cost {
		return ErrInsufficientPoints
	}
	if !available {
		return ErrVoucherUnavailable
	}
	if stock <= 0 {
		return ErrOutOfStock
	}
	return nil
}
