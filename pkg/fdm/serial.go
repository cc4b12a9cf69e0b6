package fdm

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.bug.st/serial"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	stx          = 0x02
	etx          = 0x03
	maxFrameData = 0xFFFF
)

// SerialConfig определяет параметры подключения к модулю по COM-порту.
type SerialConfig struct {
	PortName    string
	BaudRate    int
	ReadTimeout time.Duration // таймаут одного чтения из порта
	Logger      func(string)
}

// SerialTransport обменивается с модулем кадрами STX + длина(LE) + данные + ETX + LRC.
// Данные — JSON запроса в кодировке Windows-1252.
type SerialTransport struct {
	cfg  SerialConfig
	mu   sync.Mutex
	port io.ReadWriteCloser
	open func() (io.ReadWriteCloser, error)
}

// NewSerialTransport создаёт транспорт; порт открывается при первой отправке
func NewSerialTransport(cfg SerialConfig) *SerialTransport {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 19200
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	t := &SerialTransport{cfg: cfg}
	t.open = t.openPort
	return t
}

// NewSerialTransportWithPort создаёт транспорт поверх уже открытого порта (для тестов)
func NewSerialTransportWithPort(cfg SerialConfig, port io.ReadWriteCloser) *SerialTransport {
	t := &SerialTransport{cfg: cfg, port: port}
	t.open = func() (io.ReadWriteCloser, error) {
		return nil, ErrTransportClosed
	}
	return t
}

func (t *SerialTransport) openPort() (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: t.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(t.cfg.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", t.cfg.PortName, err)
	}
	if err := p.SetReadTimeout(t.cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	return p, nil
}

// connectLocked открывает порт (должен вызываться только под мьютексом)
func (t *SerialTransport) connectLocked() error {
	if t.port != nil {
		return nil
	}

	var err error
	for i := 0; i < 2; i++ {
		t.port, err = t.open()
		if err == nil {
			return nil
		}
		t.port = nil
		t.log(fmt.Sprintf("COM open attempt %d failed: %v", i+1, err))
		time.Sleep(200 * time.Millisecond)
	}
	return err
}

// disconnectLocked закрывает порт (должен вызываться только под мьютексом)
func (t *SerialTransport) disconnectLocked() {
	if t.port != nil {
		t.port.Close()
		t.port = nil
	}
}

// Send отправляет запрос одним кадром и читает кадр ответа.
// Повторное открытие порта допускается только до записи кадра: записанный кадр не переотправляется,
// иначе модуль может зарегистрировать чек дважды.
func (t *SerialTransport) Send(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	data, err := encodeCP1252(payload)
	if err != nil {
		return nil, err
	}
	frame, err := encodeFrame(data)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.connectLocked(); err != nil {
		return nil, err
	}

	t.log(fmt.Sprintf(">> TX: %s", payload))

	if _, err := t.port.Write(frame); err != nil {
		t.disconnectLocked()
		return nil, fmt.Errorf("failed to write frame: %w", err)
	}

	raw, err := readFrame(ctx, t.port)
	if err != nil {
		t.disconnectLocked()
		return nil, err
	}

	text, err := decodeCP1252(raw)
	if err != nil {
		return nil, err
	}
	t.log(fmt.Sprintf("<< RX: %s", text))

	var resp Response
	if err := json.Unmarshal(text, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &resp, nil
}

// Close закрывает порт
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnectLocked()
	return nil
}

func (t *SerialTransport) log(msg string) {
	if t.cfg.Logger != nil {
		t.cfg.Logger(msg)
	}
}

// ListPorts возвращает отсортированный список COM-портов системы
func ListPorts() ([]string, error) {
	portsList, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(portsList)
	return portsList, nil
}

// encodeFrame упаковывает данные в кадр STX + длина + данные + ETX + LRC
func encodeFrame(data []byte) ([]byte, error) {
	if len(data) > maxFrameData {
		return nil, ErrFrameTooLarge
	}
	frame := make([]byte, 0, len(data)+5)
	frame = append(frame, stx)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(data)))
	frame = append(frame, data...)
	frame = append(frame, etx)
	frame = append(frame, calcLRC(frame))
	return frame, nil
}

// readFrame читает один кадр, пропуская байты до STX
func readFrame(ctx context.Context, r io.Reader) ([]byte, error) {
	b := make([]byte, 1)
	for {
		if err := readFull(ctx, r, b); err != nil {
			return nil, err
		}
		if b[0] == stx {
			break
		}
	}

	head := make([]byte, 2)
	if err := readFull(ctx, r, head); err != nil {
		return nil, err
	}
	size := int(binary.LittleEndian.Uint16(head))

	// данные + ETX + LRC
	body := make([]byte, size+2)
	if err := readFull(ctx, r, body); err != nil {
		return nil, err
	}
	if body[size] != etx {
		return nil, ErrFrame
	}

	lrc := calcLRC([]byte{stx}, head, body[:size+1])
	if lrc != body[size+1] {
		return nil, ErrLRCMismatch
	}
	return body[:size], nil
}

// readFull заполняет buf целиком. Порт по таймауту чтения возвращает 0 байт без ошибки,
// в этом случае ожидание продолжается до отмены контекста.
func readFull(ctx context.Context, r io.Reader, buf []byte) error {
	for off := 0; off < len(buf); {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf[off:])
		off += n
		if err != nil {
			if err == io.EOF && off < len(buf) {
				return fmt.Errorf("%w: unexpected end of data", ErrFrame)
			}
			if off < len(buf) {
				return err
			}
		}
	}
	return nil
}

func calcLRC(parts ...[]byte) byte {
	lrc := byte(0)
	for _, p := range parts {
		for _, b := range p {
			lrc ^= b
		}
	}
	return lrc
}

// encodeCP1252 конвертирует UTF-8 в Windows-1252
func encodeCP1252(b []byte) ([]byte, error) {
	res, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode WIN-1252: %w", err)
	}
	return res, nil
}

// decodeCP1252 конвертирует Windows-1252 в UTF-8
func decodeCP1252(b []byte) ([]byte, error) {
	res, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode WIN-1252: %w", err)
	}
	return res, nil
}
