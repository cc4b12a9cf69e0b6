package fdm

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected     = errors.New("fdm: device is not connected")
	ErrTimeout          = errors.New("fdm: timeout waiting for device response")
	ErrInvalidResponse  = errors.New("fdm: invalid response from device")
	ErrInvalidRecord    = errors.New("fdm: invalid fiscal record")
	ErrInvalidPin       = errors.New("fdm: PIN must contain only digits")
	ErrTransportClosed  = errors.New("fdm: transport is closed")
	ErrFrame            = errors.New("fdm: malformed serial frame")
	ErrLRCMismatch      = errors.New("fdm: LRC mismatch in serial frame")
	ErrFrameTooLarge    = errors.New("fdm: payload does not fit into a serial frame")
	ErrRemoteCallFailed = errors.New("fdm: IoT box call failed")
)

// DefaultErrorDetail показывается пользователю, если устройство не прислало описание ошибки.
const DefaultErrorDetail = "Internal blackbox error"

// DeviceError представляет ошибку, сообщённую фискальным модулем:
// либо статус подключения, отличный от "connected", либо код ошибки, отличный от "000000".
type DeviceError struct {
	Code   string
	Status string
}

func (e *DeviceError) Error() string {
	switch {
	case e.Code == "":
		return fmt.Sprintf("fdm: device status %q", e.Status)
	case e.Status == "":
		return fmt.Sprintf("fdm: device error %s", e.Code)
	default:
		return fmt.Sprintf("fdm: device error %s: %s", e.Code, e.Status)
	}
}

// PinRequired сообщает, что устройство ждёт ввода PIN-кода.
func (e *DeviceError) PinRequired() bool {
	return e.Code == ErrorCodePinRequired
}

// Detail возвращает описание ошибки для пользователя.
func (e *DeviceError) Detail() string {
	if e.Status != "" {
		return e.Status
	}
	return DefaultErrorDetail
}

// IsPinRequired проверяет, является ли err запросом PIN-кода.
func IsPinRequired(err error) bool {
	var de *DeviceError
	return errors.As(err, &de) && de.PinRequired()
}
