package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/receipt"
)

func TestPrompter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pin   string
		ok    bool
	}{
		{"PIN введён", "1234\n", "1234", true},
		{"PIN без перевода строки", "  4321", "4321", true},
		{"Пустой ввод", "\n", "", false},
		{"Конец ввода", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewReaderPrompter(strings.NewReader(tt.input), &out)

			pin, ok, err := p.PromptPin(context.Background(), "Enter PIN")
			require.NoError(t, err)
			assert.Equal(t, tt.pin, pin)
			assert.Equal(t, tt.ok, ok)
			assert.Contains(t, out.String(), "Enter PIN")
		})
	}
}

func TestNotifier(t *testing.T) {
	var out bytes.Buffer
	NewNotifier(&out, nil).Notify("Fiscal Data Module error", "device busy")
	assert.Contains(t, out.String(), "*** Fiscal Data Module error ***")
	assert.Contains(t, out.String(), "device busy")
}

func TestPrinter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, receipt.Header{ConfigName: "Bar"}, 0)

	order := &models.Order{
		Name: "Order 00001-0001",
		Lines: []models.OrderLine{
			models.NewOrderLine(models.Product{DisplayName: "Tea", Price: decimal.RequireFromString("3.00")}, decimal.NewFromInt(1)),
		},
	}
	require.NoError(t, p.PrintReceipt(context.Background(), order))
	assert.Contains(t, out.String(), "BAR")
	assert.Contains(t, out.String(), "Tea")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.PrintReceipt(ctx, order), context.Canceled)
}
