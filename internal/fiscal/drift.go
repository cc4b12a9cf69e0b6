package fiscal

import (
	"math"
	"time"

	"blackboxbe/internal/domain/models"
)

// MaxClockDrift — допустимое расхождение часов модуля и терминала.
const MaxClockDrift = 5 * time.Minute

// DriftStatus описывает состояние часов фискального модуля.
type DriftStatus int

const (
	DriftOk       DriftStatus = iota // Разница <= 5 минут
	DriftCritical                    // Разница > 5 минут
	DriftError                       // Ошибка парсинга или нет данных
)

func (s DriftStatus) String() string {
	switch s {
	case DriftOk:
		return "ok"
	case DriftCritical:
		return "critical"
	}
	return "error"
}

// CompareDeviceTime возвращает разницу между временем подписи модуля и временем терминала, а также статус.
func CompareDeviceTime(data models.BlackboxData, local time.Time) (time.Duration, DriftStatus) {
	deviceTime, err := data.ReceiptTime(local.Location())
	if err != nil {
		return 0, DriftError
	}

	diff := local.Sub(deviceTime)
	// Берем модуль разницы
	absDiff := time.Duration(math.Abs(float64(diff)))

	if absDiff > MaxClockDrift {
		return absDiff, DriftCritical
	}

	return absDiff, DriftOk
}
