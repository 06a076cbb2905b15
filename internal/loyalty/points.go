// Package loyalty holds the bookkeeping rules of the loyalty program:
// tiers, point deltas, voucher status and the redemption state machine.
// Everything here is pure; persistence lives in internal/repositories and
// orchestration in internal/services.
package loyalty

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// Tiers dalam urutan naik, dipakai juga untuk statistik by_tier.
var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

const (
	silverThreshold   = 500
	goldThreshold     = 1000
	platinumThreshold = 2500
)

type TransactionType string

const (
	TxEarn       TransactionType = "earn"
	TxRedeem     TransactionType = "redeem"
	TxExpire     TransactionType = "expire"
	TxAdjustment TransactionType = "adjustment"
)

var TransactionTypes = []TransactionType{TxEarn, TxRedeem, TxExpire, TxAdjustment}

var (
	ErrInvalidSign     = errors.New("point sign does not match transaction type")
	ErrBalanceOverflow = errors.New("point balance exceeds the maximum")
)

// MaxBalance mengikuti kolom INTEGER members.total_points.
const MaxBalance = math.MaxInt32

// TierFor maps a balance to its tier.
func TierFor(points int) Tier {
	switch {
	case points >= platinumThreshold:
		return TierPlatinum
	case points >= goldThreshold:
		return TierGold
	case points >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// PointsToNextTier returns how many points are missing to reach the tier
// after the one the balance currently sits in. Platinum always returns 0.
func PointsToNextTier(points int) int {
	var next int
	switch TierFor(points) {
	case TierBronze:
		next = silverThreshold
	case TierSilver:
		next = goldThreshold
	case TierGold:
		next = platinumThreshold
	default:
		return 0
	}
	return max(0, next-points)
}

// ApplyDelta adds delta to balance, clamps at zero and recomputes the tier.
// A delta that would push the balance past MaxBalance is rejected and the
// balance is returned unchanged.
func ApplyDelta(balance, delta int) (int, Tier, error) {
	if delta > 0 && balance > MaxBalance-delta {
		return balance, TierFor(balance), fmt.Errorf("%w: %d + %d", ErrBalanceOverflow, balance, delta)
	}
	next := balance + delta
	if next < 0 {
		next = 0
	}
	return next, TierFor(next), nil
}

// ValidatePointSign rejects a redeem with positive points or an earn with
// negative points. Expire and adjustment accept either sign.
func ValidatePointSign(t TransactionType, points int) error {
	switch {
	case t == TxRedeem && points > 0:
		return fmt.Errorf("%w: redeem transactions must have negative points", ErrInvalidSign)
	case t == TxEarn && points < 0:
		return fmt.Errorf("%w: earn transactions must have positive points", ErrInvalidSign)
	}
	return nil
}

// NormalizePoints is the lenient counterpart of ValidatePointSign used at the
// API boundary: redeem values are forced negative, earn values positive.
func NormalizePoints(t TransactionType, points int) int {
	switch t {
	case TxRedeem:
		if points > 0 {
			return -points
		}
	case TxEarn:
		if points < 0 {
			return -points
		}
	}
	return points
}

func ParseTransactionType(s string) (TransactionType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range TransactionTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// FormatMemberID renders the human readable member code, MEM-001 and up.
func FormatMemberID(n int64) string {
	return fmt.Sprintf("MEM-%03d", n)
}
