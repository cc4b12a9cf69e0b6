package ports

// Logger определяет интерфейс для абстракции логирования.
// Дополнительные поля передаются парами ключ-значение.
type Logger interface {
	// Debug выводит отладочную информацию
	Debug(msg string, keysAndValues ...interface{})

	// Info выводит информационные сообщения
	Info(msg string, keysAndValues ...interface{})

	// Warn выводит предупреждения
	Warn(msg string, keysAndValues ...interface{})

	// Error выводит ошибки
	Error(msg string, keysAndValues ...interface{})

	// With возвращает логгер с постоянными полями
	With(keysAndValues ...interface{}) Logger

	// Sync сбрасывает буферы
	Sync() error
}

// LineLogger адаптирует Logger к построчному хуку пакетов pkg/*.
func LineLogger(l Logger) func(string) {
	return func(msg string) {
		l.Debug(msg)
	}
}
