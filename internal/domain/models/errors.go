package models

import (
	"errors"

	"blackboxbe/pkg/fdm"
)

// Заголовки уведомлений пользователю
const (
	TitlePOSError      = "POS error"
	TitleBlackboxError = "Blackbox error"
)

// Причины отказа в продаже
var (
	ErrNegativePrice     = errors.New("negative price")
	ErrNoTax             = errors.New("product has no tax")
	ErrInvalidTax        = errors.New("invalid tax rate")
	ErrNotSellable       = errors.New("product is not sellable")
	ErrQuantityTooLarge  = errors.New("quantity does not fit the fiscal record")
	ErrWorkProductRefund = errors.New("work product cannot be refunded")
	ErrMixedOrder        = errors.New("refund and sale lines in one order")
	ErrUnsignedOrder     = errors.New("order is not signed")
	ErrInvalidConfig     = errors.New("invalid point of sale configuration")
	ErrInvalidINSZ       = errors.New("invalid INSZ or BIS number")
	ErrOrderRegistered   = errors.New("order is already registered")
	ErrOrderDeletion     = errors.New("registered order cannot be deleted")
	ErrNotFound          = errors.New("not found")
)

// Причины отказа, связанные с отметками кассира
var (
	ErrNotClockedIn      = errors.New("cashier is not clocked in")
	ErrStillClockedIn    = errors.New("cashier is still clocked in")
	ErrOrderNotEmpty     = errors.New("order is not empty")
	ErrClockStateChanged = errors.New("clock state differs from back office")
)

var messages = map[error]string{
	ErrNegativePrice:     "It's forbidden to sell product with negative price when using the black box.\nPerform a refund instead.",
	ErrNoTax:             "Product has no tax associated with it.",
	ErrInvalidTax:        "Product has an invalid tax amount. Only 21%, 12%, 6% and 0% are allowed.",
	ErrNotSellable:       "This product is not allowed to be sold",
	ErrQuantityTooLarge:  "The quantity cannot exceed 9999 when using the black box.",
	ErrWorkProductRefund: "Refunding work in/out product is not allowed.",
	ErrMixedOrder:        "Refunds and sales cannot be mixed in one order when using the black box.",
	ErrUnsignedOrder:     "The order has not been signed by the blackbox.",
	ErrInvalidINSZ:       "The INSZ or BIS number is not valid.",
	ErrOrderRegistered:   "Modifying registered orders is not allowed.",
	ErrOrderDeletion:     "Deleting of registered orders is not allowed.",
	ErrNotClockedIn:      "User must be clocked in.",
	ErrStillClockedIn:    "You need to clock out before closing the POS.",
	ErrOrderNotEmpty:     "Cannot clock in or out while the current order is not empty.",
	ErrClockStateChanged: "Your clock status was changed from another device. Please try again.",
}

// ValidationError — продажа нарушает фискальное условие; устройство не вызывается.
type ValidationError struct {
	Reason  error
	Message string
}

// NewValidationError создаёт ошибку со стандартным текстом для причины.
func NewValidationError(reason error) *ValidationError {
	return &ValidationError{Reason: reason, Message: messageFor(reason)}
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Reason }

// ClockError — нарушено условие отметки кассира.
type ClockError struct {
	Reason  error
	Message string
}

// NewClockError создаёт ошибку отметки. Пустой message заменяется стандартным текстом.
func NewClockError(reason error, message string) *ClockError {
	if message == "" {
		message = messageFor(reason)
	}
	return &ClockError{Reason: reason, Message: message}
}

func (e *ClockError) Error() string { return e.Message }
func (e *ClockError) Unwrap() error { return e.Reason }

// ReasonByText возвращает причину отказа по её тексту или nil.
// Используется при разборе ответов бэк-офиса.
func ReasonByText(text string) error {
	if text == ErrInvalidConfig.Error() {
		return ErrInvalidConfig
	}
	for reason := range messages {
		if reason.Error() == text {
			return reason
		}
	}
	return nil
}

func messageFor(reason error) string {
	if m, ok := messages[reason]; ok {
		return m
	}
	return reason.Error()
}

// Notice преобразует ошибку в заголовок и текст уведомления пользователю.
func Notice(err error) (title, body string) {
	var verr *ValidationError
	var cerr *ClockError
	var derr *fdm.DeviceError
	switch {
	case errors.As(err, &verr):
		return TitlePOSError, verr.Message
	case errors.As(err, &cerr):
		return TitlePOSError, cerr.Message
	case errors.As(err, &derr):
		return TitleBlackboxError, derr.Detail()
	case err == nil:
		return "", ""
	}
	return TitleBlackboxError, err.Error()
}
