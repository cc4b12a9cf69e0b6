package console

import (
	"context"
	"fmt"
	"io"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/receipt"
)

// DefaultPaperWidth — ширина чековой ленты в символах.
const DefaultPaperWidth = 42

// Printer печатает текстовый чек в поток вывода.
type Printer struct {
	out    io.Writer
	header receipt.Header
	width  int
}

func NewPrinter(out io.Writer, header receipt.Header, width int) *Printer {
	if width <= 0 {
		width = DefaultPaperWidth
	}
	return &Printer{out: out, header: header, width: width}
}

func (p *Printer) PrintReceipt(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := receipt.Render(receipt.Ticket(p.header, order, p.width), p.width)
	if _, err := io.WriteString(p.out, text); err != nil {
		return fmt.Errorf("ошибка печати чека %s: %w", order.Name, err)
	}
	return nil
}
