package loyalty

import (
	"strings"
	"time"
)

type VoucherStatus string

const (
	VoucherActive   VoucherStatus = "Active"
	VoucherInactive VoucherStatus = "Inactive"
	VoucherExpired  VoucherStatus = "Expired"
)

type VoucherType string

const (
	VoucherDiscount VoucherType = "discount"
	VoucherCashback VoucherType = "cashback"
	VoucherFreebie  VoucherType = "freebie"
)

var VoucherTypes = []VoucherType{VoucherDiscount, VoucherCashback, VoucherFreebie}

const DateLayout = "2006-01-02"

// DateOnly drops the clock part and pins the calendar day to UTC so dates
// coming from the database and from time.Now compare by day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DeriveVoucherStatus recomputes the stored status from the validity window.
// Past end date wins over a future start date; otherwise the current status
// is kept as set by the operator.
func DeriveVoucherStatus(current VoucherStatus, start, end, today time.Time) VoucherStatus {
	today = DateOnly(today)
	switch {
	case DateOnly(end).Before(today):
		return VoucherExpired
	case DateOnly(start).After(today):
		return VoucherInactive
	}
	if current == "" {
		return VoucherActive
	}
	return current
}

// IsVoucherAvailable is evaluated on every read and never stored.
func IsVoucherAvailable(status VoucherStatus, stock int, start, end, today time.Time) bool {
	today = DateOnly(today)
	return status == VoucherActive &&
		stock > 0 &&
		!DateOnly(start).After(today) &&
		!DateOnly(end).Before(today)
}

func DaysUntilExpiry(end, today time.Time) int {
	days := int(DateOnly(end).Sub(DateOnly(today)).Hours() / 24)
	return max(0, days)
}

func ParseVoucherStatus(s string) (VoucherStatus, bool) {
	for _, st := range []VoucherStatus{VoucherActive, VoucherInactive, VoucherExpired} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

func ParseVoucherType(s string) (VoucherType, bool) {
	for _, vt := range VoucherTypes {
		if strings.EqualFold(string(vt), strings.TrimSpace(s)) {
			return vt, true
		}
	}
	return "", false
}
