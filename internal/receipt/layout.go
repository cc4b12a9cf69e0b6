package receipt

import (
	"strings"
	"unicode/utf8"
)

// Align — выравнивание строки чека.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Underline — подчёркивание строки чека.
type Underline int

const (
	UnderlineNone Underline = iota
	UnderlineText           // подчёркивается только текст
	UnderlineLine           // подчёркивается вся строка
)

// Props описывает свойства форматирования строки чека.
type Props struct {
	Align     Align
	Underline Underline
	Upper     bool
}

// Line — одна строка чека с текстом и настройками.
type Line struct {
	Text  string
	Props Props
}

// Text создаёт строку с выравниванием по левому краю.
func Text(s string) Line {
	return Line{Text: s}
}

// Title создаёт заголовок по центру прописными буквами.
func Title(s string) Line {
	return Line{Text: s, Props: Props{Align: AlignCenter, Upper: true}}
}

// Pair создаёт строку «подпись ... значение», разнесённые по краям.
func Pair(label, value string, width int) Line {
	gap := width - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if gap < 1 {
		gap = 1
	}
	return Line{Text: label + strings.Repeat(" ", gap) + value}
}

// Separator создаёт разделитель на всю ширину.
func Separator() Line {
	return Line{Props: Props{Underline: UnderlineLine}}
}

// Render выводит строки чека в текст заданной ширины.
func Render(lines []Line, width int) string {
	width = clamp(width, 20, 80)

	var b strings.Builder
	for _, l := range lines {
		text := l.Text
		if l.Props.Upper {
			text = strings.ToUpper(text)
		}
		for _, part := range wrap(text, width) {
			b.WriteString(pad(part, l.Props.Align, width))
			b.WriteByte('\n')
			if l.Props.Underline == UnderlineText && part != "" {
				b.WriteString(pad(strings.Repeat("-", utf8.RuneCountInString(part)), l.Props.Align, width))
				b.WriteByte('\n')
			}
		}
		if l.Props.Underline == UnderlineLine {
			b.WriteString(strings.Repeat("-", width))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// --- Helpers ---

func wrap(text string, width int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	return append(out, string(runes))
}

func pad(text string, align Align, width int) string {
	n := width - utf8.RuneCountInString(text)
	if n <= 0 {
		return text
	}
	switch align {
	case AlignCenter:
		left := n / 2
		return strings.Repeat(" ", left) + text
	case AlignRight:
		return strings.Repeat(" ", n) + text
	}
	return text
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
