package clock

import (
	"context"
	"fmt"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"

	"github.com/shopspring/decimal"
)

var (
	maxQuantity   = decimal.NewFromInt(models.MaxLineQuantity)
	quantityLimit = decimal.NewFromInt(models.MaxLineQuantity + 1)
)

// Guard проверяет фискальные условия продажи и отметки кассира.
// Без фискального модуля все проверки пропускаются.
type Guard struct {
	session *models.Session
	backend ports.SessionBackend
}

// NewGuard создает новый экземпляр Guard
func NewGuard(session *models.Session, backend ports.SessionBackend) *Guard {
	return &Guard{session: session, backend: backend}
}

// CheckAddProduct проверяет, можно ли добавить товар в заказ.
// force разрешает товары прихода и ухода (используется сервисом отметок).
func (g *Guard) CheckAddProduct(product models.Product, force bool) error {
	if !g.session.FiscalMode {
		return nil
	}
	if product.Price.IsNegative() {
		return models.NewValidationError(models.ErrNegativePrice)
	}
	tax, ok := product.FirstTax()
	if !ok {
		return models.NewValidationError(models.ErrNoTax)
	}
	if !g.session.IsCashierClocked() && product.ID != g.session.WorkIn.ID && !force {
		return models.NewClockError(models.ErrNotClockedIn, "")
	}
	if !tax.Letter.Valid() {
		return models.NewValidationError(models.ErrInvalidTax)
	}
	if g.session.IsWorkProduct(product.ID) && !force {
		return models.NewValidationError(models.ErrNotSellable)
	}
	return nil
}

// CheckQuantity отклоняет количество от 10000 по модулю: оно не помещается в четыре цифры PLU.
func (g *Guard) CheckQuantity(qty decimal.Decimal) error {
	if g.session.FiscalMode && qty.Abs().GreaterThanOrEqual(quantityLimit) {
		return models.NewValidationError(models.ErrQuantityTooLarge)
	}
	return nil
}

// ClampQuantity ограничивает ввод количества с клавиатуры значением 9999.
func (g *Guard) ClampQuantity(qty decimal.Decimal) decimal.Decimal {
	if g.session.FiscalMode && qty.GreaterThan(maxQuantity) {
		return maxQuantity
	}
	return qty
}

// CanMergeLines сообщает, можно ли прибавить количество к существующей строке.
func (g *Guard) CanMergeLines(line models.OrderLine) bool {
	return !g.session.FiscalMode || line.Quantity.LessThan(maxQuantity)
}

// AddProduct проверяет товар и добавляет его в заказ, объединяя с последней строкой, если это допустимо.
func (g *Guard) AddProduct(order *models.Order, product models.Product, qty decimal.Decimal, force bool) error {
	if err := g.CheckAddProduct(product, force); err != nil {
		return err
	}
	if err := g.CheckQuantity(qty); err != nil {
		return err
	}
	if g.session.FiscalMode {
		if (qty.IsNegative() && order.HasSaleLines()) || (qty.IsPositive() && order.HasRefundLines()) {
			return models.NewValidationError(models.ErrMixedOrder)
		}
	}

	if n := len(order.Lines); n > 0 {
		last := &order.Lines[n-1]
		merged := last.Quantity.Add(qty)
		if last.Product.ID == product.ID && last.PriceUnit.Equal(product.Price) &&
			g.CanMergeLines(*last) && g.CheckQuantity(merged) == nil {
			last.Quantity = merged
			return nil
		}
	}
	order.AddLine(models.NewOrderLine(product, qty))
	return nil
}

// CheckRefundLine запрещает возврат строк прихода и ухода.
func (g *Guard) CheckRefundLine(line models.OrderLine) error {
	if g.session.IsWorkProduct(line.Product.ID) {
		return models.NewValidationError(models.ErrWorkProductRefund)
	}
	return nil
}

// CheckValidateOrder проверяет заказ перед оплатой.
func (g *Guard) CheckValidateOrder(order *models.Order) error {
	if !g.session.FiscalMode {
		return nil
	}
	if order.Clock == models.ClockNone && !g.session.IsCashierClocked() {
		return models.NewClockError(models.ErrNotClockedIn, "")
	}
	if order.HasRefundLines() && order.HasSaleLines() {
		return models.NewValidationError(models.ErrMixedOrder)
	}
	return nil
}

// CheckChangeCashier запрещает смену кассира, пока текущий не отметил уход.
func (g *Guard) CheckChangeCashier() error {
	if g.session.FiscalMode && g.session.IsCashierClocked() {
		return models.NewClockError(models.ErrStillClockedIn, "You need to clock out before changing cashier.")
	}
	return nil
}

// CheckCloseRegister запрещает закрытие кассы, пока владелец сессии или любой кассир отмечен.
func (g *Guard) CheckCloseRegister(ctx context.Context) error {
	if !g.session.FiscalMode {
		return nil
	}
	clocked, err := g.backend.WorkStatus(ctx, g.session.ID, g.session.User.ID, false)
	if err != nil {
		return fmt.Errorf("failed to get work status: %w", err)
	}
	if clocked || len(g.session.ClockedIDs()) > 0 {
		return models.NewClockError(models.ErrStillClockedIn, "")
	}
	return nil
}

// Ограничения интерфейса кассы в фискальном режиме

func (g *Guard) PriceControlAllowed() bool       { return !g.session.FiscalMode }
func (g *Guard) LineQuantityChangeAllowed() bool { return !g.session.FiscalMode }
func (g *Guard) RefundAndSalesMixAllowed() bool  { return !g.session.FiscalMode }
func (g *Guard) CashMoveAllowed() bool           { return !g.session.FiscalMode }
func (g *Guard) DeleteOrderAllowed() bool        { return !g.session.FiscalMode }
