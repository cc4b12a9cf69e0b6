package plu

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// HashLength — число шестнадцатеричных символов хеша PLU.
const HashLength = 8

// ErrInvalidVATLetter возвращается для строки без допустимой категории НДС.
var ErrInvalidVATLetter = errors.New("plu: invalid VAT letter (only A, B, C, D are allowed)")

// Hash вычисляет SHA-1 от конкатенации фрагментов и возвращает последние 8 hex-символов.
func Hash(fragments ...string) string {
	h := sha1.New()
	for _, f := range fragments {
		io.WriteString(h, f)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	return sum[len(sum)-HashLength:]
}

// Encode кодирует все строки заказа в порядке их следования.
func Encode(lines []Line, table UnitTable) ([]string, error) {
	fragments := make([]string, 0, len(lines))
	for i, line := range lines {
		f, err := EncodeLine(line, table)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		fragments = append(fragments, f)
	}
	return fragments, nil
}

// HashLines кодирует строки и возвращает хеш PLU заказа.
func HashLines(lines []Line, table UnitTable) (string, error) {
	fragments, err := Encode(lines, table)
	if err != nil {
		return "", err
	}
	return Hash(fragments...), nil
}
