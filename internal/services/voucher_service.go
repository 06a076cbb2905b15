package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

type VoucherService struct {
	repo repositories.VoucherRepo
	tx   repositories.Transactor
	now  func() time.Time
}

func NewVoucherService(r repositories.VoucherRepo, tx repositories.Transactor) *VoucherService {
	return &VoucherService{repo: r, tx: tx, now: time.Now}
}

type VoucherDTO struct {
	ID              int64            `json:"id"`
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Type            string           `json:"type"`
	DiscountValue   *decimal.Decimal `json:"discount_value"`
	PointsCost      int              `json:"points_cost"`
	Stock           int              `json:"stock"`
	StartDate       string           `json:"start_date"`
	EndDate         string           `json:"end_date"`
	Status          string           `json:"status"`
	IsAvailable     bool             `json:"is_available"`
	DaysUntilExpiry int              `json:"days_until_expiry"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// toVoucherDTO menghitung is_available dan days_until_expiry terhadap today.
func toVoucherDTO(v repositories.VoucherRecord, today time.Time) VoucherDTO {
	var discount *decimal.Decimal
	if v.DiscountValue.Valid {
		d := v.DiscountValue.Decimal
		discount = &d
	}
	return VoucherDTO{
		ID:              v.ID,
		Code:            v.Code,
		Name:            v.Name,
		Description:     v.Description,
		Type:            v.Type,
		DiscountValue:   discount,
		PointsCost:      v.PointsCost,
		Stock:           v.Stock,
		StartDate:       v.StartDate.Format(loyalty.DateLayout),
		EndDate:         v.EndDate.Format(loyalty.DateLayout),
		Status:          v.Status,
		IsAvailable:     loyalty.IsVoucherAvailable(loyalty.VoucherStatus(v.Status), v.Stock, v.StartDate, v.EndDate, today),
		DaysUntilExpiry: loyalty.DaysUntilExpiry(v.EndDate, today),
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func (s *VoucherService) checkCode(ctx context.Context, code string, excludeID int64) error {
	taken, err := s.repo.CodeTaken(ctx, code, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fieldError("code", "Voucher code already exists")
	}
	return nil
}

func checkDiscount(d *decimal.Decimal) error {
	if d != nil && d.IsNegative() {
		return fieldError("discount_value", "Ensure this value is greater than or equal to 0.")
	}
	return nil
}

func checkWindow(start, end time.Time) error {
	if end.Before(start) {
		return fieldError("end_date", "End date must be after start date")
	}
	return nil
}

// type dan status diterima case-insensitive, disimpan dalam bentuk kanonik.
func normalizeType(s string) string {
	if vt, ok := loyalty.ParseVoucherType(s); ok {
		return string(vt)
	}
	return s
}

func normalizeStatus(s string) string {
	if st, ok := loyalty.ParseVoucherStatus(s); ok {
		return string(st)
	}
	return s
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d.Round(2), Valid: true}
}

func (s *VoucherService) Create(ctx context.Context, in models.CreateVoucherRequest) (VoucherDTO, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Type = normalizeType(in.Type)
	in.Status = normalizeStatus(in.Status)
	if err := validate(in); err != nil {
		return VoucherDTO{}, err
	}
	if err := checkDiscount(in.DiscountValue); err != nil {
		return VoucherDTO{}, err
	}
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return VoucherDTO{}, err
	}
	end, err := parseDate("end_date", in.EndDate)
	if err != nil {
		return VoucherDTO{}, err
	}
	if err := checkWindow(start, end); err != nil {
		return VoucherDTO{}, err
	}
	if err := s.checkCode(ctx, in.Code, 0); err != nil {
		return VoucherDTO{}, err
	}

	typ := in.Type
	if typ == "" {
		typ = string(loyalty.VoucherDiscount)
	}
	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}
	today := s.now()
	v := repositories.VoucherRecord{
		Code:          in.Code,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Type:          typ,
		DiscountValue: nullDecimal(in.DiscountValue),
		PointsCost:    *in.PointsCost,
		Stock:         stock,
		StartDate:     start,
		EndDate:       end,
		Status:        string(loyalty.DeriveVoucherStatus(loyalty.VoucherStatus(in.Status), start, end, today)),
	}
	if err := s.repo.Create(ctx, nil, &v); err != nil {
		return VoucherDTO{}, translate(err)
	}
	return toVoucherDTO(v, today), nil
}

func (s *VoucherService) Get(ctx context.Context, id int64) (VoucherDTO, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return VoucherDTO{}, translate(err)
	}
	return toVoucherDTO(v, s.now()), nil
}

func (s *VoucherService) List(ctx context.Context, limit int) ([]VoucherDTO, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	today := s.now()
	out := make([]VoucherDTO, 0, len(rows))
	for _, v := range rows {
		out = append(out, toVoucherDTO(v, today))
	}
	return out, nil
}

// Update menerapkan field yang dikirim lalu menurunkan ulang status dari
// tanggal berlaku. Baris voucher dikunci selama update; stock hanya berubah
// kalau dikirim, dan itupun lewat AdjustStock supaya potongan dari redemption
// yang sedang berjalan tidak tertimpa.
func (s *VoucherService) Update(ctx context.Context, id int64, in models.UpdateVoucherRequest) (VoucherDTO, error) {
	if in.Type != nil {
		t := normalizeType(*in.Type)
		in.Type = &t
	}
	if in.Status != nil {
		st := normalizeStatus(*in.Status)
		in.Status = &st
	}
	if err := validate(in); err != nil {
		return VoucherDTO{}, err
	}
	if err := checkDiscount(in.DiscountValue); err != nil {
		return VoucherDTO{}, err
	}

	today := s.now()
	var v repositories.VoucherRecord
	err := s.tx.WithinTx(ctx, func(tx repositories.DBTX) error {
		var err error
		v, err = s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return translate(err)
		}

		if in.Code != nil {
			code := strings.TrimSpace(*in.Code)
			if err := s.checkCode(ctx, code, id); err != nil {
				return err
			}
			v.Code = code
		}
		if in.Name != nil {
			v.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			v.Description = *in.Description
		}
		if in.Type != nil {
			v.Type = *in.Type
		}
		if in.DiscountValue != nil {
			v.DiscountValue = nullDecimal(in.DiscountValue)
		}
		if in.PointsCost != nil {
			v.PointsCost = *in.PointsCost
		}
		if in.StartDate != nil {
			if v.StartDate, err = parseDate("start_date", *in.StartDate); err != nil {
				return err
			}
		}
		if in.EndDate != nil {
			if v.EndDate, err = parseDate("end_date", *in.EndDate); err != nil {
				return err
			}
		}
		if err := checkWindow(v.StartDate, v.EndDate); err != nil {
			return err
		}
		if in.Status != nil {
			v.Status = *in.Status
		}
		v.Status = string(loyalty.DeriveVoucherStatus(loyalty.VoucherStatus(v.Status), v.StartDate, v.EndDate, today))

		if err := s.repo.Update(ctx, tx, &v); err != nil {
			return translate(err)
		}
		if in.Stock != nil && *in.Stock != v.Stock {
			stock, err := s.repo.AdjustStock(ctx, tx, id, *in.Stock-v.Stock, today)
			if err != nil {
				return fieldError("stock", "Ensure this value is greater than or equal to 0.")
			}
			v.Stock = stock
		}
		return nil
	})
	if err != nil {
		return VoucherDTO{}, err
	}
	return toVoucherDTO(v, today), nil
}

func (s *VoucherService) Delete(ctx context.Context, id int64) error {
	return translate(s.repo.Delete(ctx, id))
}

func (s *VoucherService) Statistics(ctx context.Context) (models.VoucherStatistics, error) {
	return s.repo.Statistics(ctx)
}
