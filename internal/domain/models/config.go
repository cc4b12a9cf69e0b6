package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Метод округления наличных, который требует сертификация
const RoundingHalfUp = "HALF-UP"

var cashRoundingStep = decimal.RequireFromString("0.05")

// PosConfig — настройки точки продаж, проверяемые перед открытием сессии.
type PosConfig struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	FiscalDevice        string `json:"iface_fiscal_data_module"`      // имя устройства FDM; пусто — касса без модуля
	CertifiedIdentifier string `json:"certified_blackbox_identifier"` // идентификатор, уже закреплённый за кассой
	HRMode              bool   `json:"module_pos_hr"`
	DiscountModule      bool   `json:"discount_module"`

	CompanyStreet   string `json:"company_street"`
	CompanyRegistry string `json:"company_registry"`

	CashRounding   bool            `json:"cash_rounding"`
	RoundingStep   decimal.Decimal `json:"rounding"`
	RoundingMethod string          `json:"rounding_method"`

	PrinterConfigured bool `json:"printer_configured"`
	AutoPrint         bool `json:"iface_print_auto"`
	SkipPreview       bool `json:"iface_print_skip_screen"`

	WorkIn  Product `json:"work_in"`
	WorkOut Product `json:"work_out"`
}

// FiscalMode сообщает, что касса работает с фискальным модулем.
func (c PosConfig) FiscalMode() bool {
	return c.FiscalDevice != ""
}

// BlackboxIdentifier возвращает последние 14 символов имени устройства.
func (c PosConfig) BlackboxIdentifier() string {
	if len(c.FiscalDevice) <= 14 {
		return c.FiscalDevice
	}
	return c.FiscalDevice[len(c.FiscalDevice)-14:]
}

func configError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: ErrInvalidConfig, Message: fmt.Sprintf(format, args...)}
}

// CheckBeforeOpening проверяет готовность кассы к открытию сессии.
// employees учитываются только в режиме сотрудников.
func (c PosConfig) CheckBeforeOpening(user Cashier, employees []Cashier) error {
	if c.CertifiedIdentifier != "" && !c.FiscalMode() {
		return configError("Forbidden to start a certified Point of sale without blackbox")
	}
	if !c.FiscalMode() {
		return nil
	}
	if c.DiscountModule {
		return configError("Loyalty programs, gift card, reprint and global discounts cannot be used on a PoS associated with a blackbox.")
	}
	if user.INSZ == "" {
		return configError("The user must have a INSZ or BIS number.")
	}
	if c.CompanyStreet == "" {
		return configError("The address of the company must be filled.")
	}
	if c.CompanyRegistry == "" {
		return configError("The VAT number of the company must be filled.")
	}
	if !zeroTaxProduct(c.WorkIn) || !zeroTaxProduct(c.WorkOut) {
		return configError("The WORK IN/OUT products must have a taxes with 0%%.")
	}
	if c.HRMode {
		var missing []string
		for _, e := range employees {
			if e.INSZ == "" {
				missing = append(missing, e.Name)
			}
		}
		if len(missing) > 0 {
			return configError("%s must have an INSZ or BIS number.", strings.Join(missing, ", "))
		}
	}
	if !c.CashRounding {
		return configError("Cash rounding must be enabled")
	}
	if !c.RoundingStep.Equal(cashRoundingStep) || c.RoundingMethod != RoundingHalfUp {
		return configError("The rounding method must be set to 0.5 and HALF-UP")
	}
	if !c.PrinterConfigured {
		return configError("A printer must be connected")
	}
	if !c.AutoPrint {
		return configError("Automatic Receipt Printing must be activated")
	}
	if !c.SkipPreview {
		return configError("Skip Preview Screen must be activated")
	}
	return nil
}

func zeroTaxProduct(p Product) bool {
	t, ok := p.FirstTax()
	return ok && t.Amount.IsZero()
}
