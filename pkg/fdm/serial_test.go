package fdm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// fakePort — порт, отдающий заранее подготовленный ответ
type fakePort struct {
	written bytes.Buffer
	reply   *bytes.Reader
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.reply.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }
func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func mustFrame(t *testing.T, v any) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	frame, err := encodeFrame(payload)
	if err != nil {
		t.Fatalf("encodeFrame: %v", err)
	}
	return frame
}

func TestEncodeFrame(t *testing.T) {
	frame, err := encodeFrame([]byte("AB"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// STX, длина 2 (LE), 'A', 'B', ETX, LRC
	want := []byte{0x02, 0x02, 0x00, 'A', 'B', 0x03}
	lrc := byte(0)
	for _, b := range want {
		lrc ^= b
	}
	want = append(want, lrc)
	if !bytes.Equal(frame, want) {
		t.Errorf("encodeFrame() = % X, want % X", frame, want)
	}

	if _, err := encodeFrame(make([]byte, maxFrameData+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestReadFrame(t *testing.T) {
	frame, _ := encodeFrame([]byte(`{"a":1}`))

	t.Run("Шум перед STX пропускается", func(t *testing.T) {
		data := append([]byte{0xFF, 0x00, 0x03}, frame...)
		got, err := readFrame(context.Background(), bytes.NewReader(data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"a":1}` {
			t.Errorf("unexpected payload %q", got)
		}
	})

	t.Run("Неверный LRC", func(t *testing.T) {
		broken := append([]byte(nil), frame...)
		broken[len(broken)-1] ^= 0xFF
		_, err := readFrame(context.Background(), bytes.NewReader(broken))
		if !errors.Is(err, ErrLRCMismatch) {
			t.Errorf("expected ErrLRCMismatch, got %v", err)
		}
	})

	t.Run("Нет ETX", func(t *testing.T) {
		broken := append([]byte(nil), frame...)
		broken[len(broken)-2] = 0x00
		_, err := readFrame(context.Background(), bytes.NewReader(broken))
		if !errors.Is(err, ErrFrame) {
			t.Errorf("expected ErrFrame, got %v", err)
		}
	})

	t.Run("Обрыв данных", func(t *testing.T) {
		_, err := readFrame(context.Background(), bytes.NewReader(frame[:4]))
		if !errors.Is(err, ErrFrame) {
			t.Errorf("expected ErrFrame, got %v", err)
		}
	})
}

func TestSerialTransportSend(t *testing.T) {
	port := &fakePort{reply: bytes.NewReader(mustFrame(t, signedResponse()))}
	var logs []string
	transport := NewSerialTransportWithPort(SerialConfig{Logger: func(s string) { logs = append(logs, s) }}, port)

	client := New(Config{}, transport)
	signed, err := client.RegisterReceipt(context.Background(), validRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed.Signature == "" {
		t.Error("signature is missing")
	}

	// Проверяем отправленный кадр
	payload, err := readFrame(context.Background(), bytes.NewReader(port.written.Bytes()))
	if err != nil {
		t.Fatalf("written frame is malformed: %v", err)
	}
	var req struct {
		Action           string `json:"action"`
		HighLevelMessage Record `json:"high_level_message"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		t.Fatalf("written payload is not JSON: %v", err)
	}
	if req.Action != ActionRegisterReceipt || req.HighLevelMessage.PLU != "6056f327" {
		t.Errorf("unexpected request %+v", req)
	}
	if len(logs) == 0 {
		t.Error("exchange must be logged")
	}
}

func TestSerialTransportDoesNotResend(t *testing.T) {
	// Пустой ответ: кадр записан, ответа нет
	port := &fakePort{reply: bytes.NewReader(nil)}
	transport := NewSerialTransportWithPort(SerialConfig{}, port)

	_, err := transport.Send(context.Background(), Request{Action: ActionRegisterReceipt, HighLevelMessage: validRecord()})
	if err == nil {
		t.Fatal("expected error")
	}
	written := bytes.NewReader(port.written.Bytes())
	if _, err := readFrame(context.Background(), written); err != nil {
		t.Fatalf("written frame is malformed: %v", err)
	}
	if written.Len() != 0 {
		t.Errorf("frame must be written exactly once, %d extra bytes", written.Len())
	}
	if !port.closed {
		t.Error("port must be closed after a failed exchange")
	}

	// Порт закрыт, повторное открытие в тестовом транспорте невозможно
	if _, err := transport.Send(context.Background(), Request{}); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("expected ErrTransportClosed, got %v", err)
	}
}

func TestCP1252RoundTrip(t *testing.T) {
	encoded, err := encodeCP1252([]byte("Crème €"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encoded) != 7 {
		t.Errorf("expected single byte encoding, got % X", encoded)
	}
	decoded, err := decodeCP1252(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(decoded) != "Crème €" {
		t.Errorf("unexpected round trip result %q", decoded)
	}
}

// brokenPort — порт, отказывающий в записи
type brokenPort struct{ fakePort }

func (p *brokenPort) Write(b []byte) (int, error) { return 0, errors.New("device unplugged") }

func TestSerialTransportErrors(t *testing.T) {
	port := &brokenPort{fakePort{reply: bytes.NewReader(nil)}}
	transport := NewSerialTransportWithPort(SerialConfig{}, port)

	_, err := transport.Send(context.Background(), Request{Action: ActionRegisterReceipt})
	if err == nil || err.Error() != "failed to write frame: device unplugged" {
		t.Errorf("unexpected write error %v", err)
	}
	if !port.closed {
		t.Error("port must be closed after a failed write")
	}

	if _, err := encodeCP1252([]byte("日本")); err == nil || !strings.HasPrefix(err.Error(), "failed to encode WIN-1252: ") {
		t.Errorf("unexpected encode error %v", err)
	}
}
