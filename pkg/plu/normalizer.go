package plu

import (
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// translation — таблица замены символов для данных hash-and-sign.
// Группы применяются ровно в этом составе, латиница a-z дописывается в init.
var translation = map[rune]string{}

func init() {
	groups := []struct {
		chars string
		repl  string
	}{
		{"ÄÅÂÁÀâäáàã", "A"},
		{"Ææ", "AE"},
		{"ß", "SS"},
		{"çÇ", "C"},
		{"ÎÏÍÌïîìí", "I"},
		{"€", "E"},
		{"ÊËÉÈêëéè", "E"},
		{"ÛÜÚÙüûúù", "U"},
		{"ÔÖÓÒöôóò", "O"},
		{"Œœ", "OE"},
		{"ñÑ", "N"},
		{"ýÝÿ", "Y"},
	}
	for _, g := range groups {
		for _, r := range g.chars {
			translation[r] = g.repl
		}
	}
	for r := 'a'; r <= 'z'; r++ {
		translation[r] = string(r - 'a' + 'A')
	}
}

// tableTransformer заменяет руны по таблице translation, остальные копирует как есть.
type tableTransformer struct{ transform.NopResetter }

func (tableTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 && !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		if repl, ok := translation[r]; ok {
			if nDst+len(repl) > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += copy(dst[nDst:], repl)
		} else {
			if nDst+size > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		}
		nSrc += size
	}
	return nDst, nSrc, nil
}

// isForbidden: допустимы только A-Z и 0-9. Пробел тоже запрещён,
// он появляется только как дополнение поля описания.
func isForbidden(r rune) bool {
	return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
}

// NewNormalizer возвращает цепочку трансформеров: замена по таблице, затем удаление запрещённых символов.
// Цепочка хранит внутренние буферы, поэтому для каждой горутины нужен свой экземпляр.
func NewNormalizer() transform.Transformer {
	return transform.Chain(tableTransformer{}, runes.Remove(runes.Predicate(isForbidden)))
}

// Normalize приводит строку к алфавиту A-Z0-9.
// Функция идемпотентна: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	// Трансформеры цепочки не возвращают собственных ошибок
	res, _, err := transform.String(NewNormalizer(), s)
	if err != nil {
		return ""
	}
	return res
}
