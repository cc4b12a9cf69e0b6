package receipt

import (
	"fmt"

	"github.com/shopspring/decimal"

	"blackboxbe/internal/domain/models"
)

// Header — реквизиты точки продаж в шапке чека.
type Header struct {
	ConfigName      string
	CompanyStreet   string
	CompanyRegistry string
	TerminalID      int64
	FDMIdentifier   string
	ServerVersion   string
}

// HeaderFromConfig заполняет шапку по настройкам кассы.
func HeaderFromConfig(c models.PosConfig, version string) Header {
	return Header{
		ConfigName:      c.Name,
		CompanyStreet:   c.CompanyStreet,
		CompanyRegistry: c.CompanyRegistry,
		TerminalID:      c.ID,
		FDMIdentifier:   c.CertifiedIdentifier,
		ServerVersion:   version,
	}
}

// Ticket раскладывает заказ в строки чека. Подписанная часть берётся из
// окончательной подписи, иначе из последнего предварительного чека.
func Ticket(h Header, order *models.Order, width int) []Line {
	lines := []Line{Title(h.ConfigName)}
	if h.CompanyStreet != "" {
		lines = append(lines, Line{Text: h.CompanyStreet, Props: Props{Align: AlignCenter}})
	}
	if h.CompanyRegistry != "" {
		lines = append(lines, Line{Text: "VAT: " + h.CompanyRegistry, Props: Props{Align: AlignCenter}})
	}

	data := signature(order)
	if data != nil && data.ReceiptType.ProForma() {
		lines = append(lines,
			Line{Text: "Pro Forma", Props: Props{Align: AlignCenter, Upper: true, Underline: UnderlineText}},
			Line{Text: "This is not a valid VAT ticket", Props: Props{Align: AlignCenter}},
		)
	}
	lines = append(lines, Text(order.Name), Text("Served by "+order.Cashier.Name), Separator())

	for _, l := range order.Lines {
		lines = append(lines, Text(l.Product.DisplayName))
		price := l.DisplayPrice().StringFixed(2)
		if letter := l.TaxLetter(); letter != "" {
			price += " " + string(letter)
		}
		lines = append(lines, Pair(fmt.Sprintf("  %s x %s", l.Quantity.String(), l.PriceUnit.StringFixed(2)), price, width))
	}

	lines = append(lines, Separator(), Pair("TOTAL", order.TotalWithTax().StringFixed(2)+" EUR", width))
	for _, d := range order.TaxDetails() {
		label := fmt.Sprintf("%s %s%%", d.Tax.Letter, d.Tax.Amount.String())
		lines = append(lines, Pair(label, fmt.Sprintf("%s on %s", round(d.Amount), round(d.Base)), width))
	}

	if data == nil {
		return lines
	}

	lines = append(lines,
		Separator(),
		Pair("FDM Date", data.Date+" "+data.Time, width),
		Pair("Ticket counters", data.TicketCounters, width),
		Pair("FDM number", data.FDMProductionNumber, width),
		Pair("VSC ID", data.VSCIdentificationNumber, width),
		Pair("Terminal", fmt.Sprintf("%d", h.TerminalID), width),
		Pair("PLU hash", data.PLUHash, width),
		Text("FDM signature"),
		Line{Text: data.Signature, Props: Props{Align: AlignCenter}},
	)
	if h.FDMIdentifier != "" {
		lines = append(lines, Pair("FDM ID", h.FDMIdentifier, width))
	}
	if h.ServerVersion != "" {
		lines = append(lines, Pair("POS version", h.ServerVersion, width))
	}
	return lines
}

func signature(order *models.Order) *models.BlackboxData {
	if order.Blackbox != nil {
		return order.Blackbox
	}
	if n := len(order.ProForma); n > 0 {
		return &order.ProForma[n-1]
	}
	return nil
}

func round(d decimal.Decimal) string {
	return d.StringFixed(2)
}
