package document

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/noah-isme/backend-facture/internal/totals"
)

var (
	mutedColor  = &props.Color{Red: 80, Green: 80, Blue: 80}
	headerColor = &props.Color{Red: 33, Green: 37, Blue: 41}
	whiteColor  = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// RenderPDF lays out a printable invoice or quote.
func RenderPDF(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)
	addPDFHeader(m, doc)
	addPDFLines(m, doc)
	addPDFTotals(m, doc)
	if doc.Notes != "" {
		m.AddRows(row.New(6))
		m.AddRows(text.NewRow(10, doc.Notes, props.Text{Size: 8, Color: mutedColor}))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func pdfTitle(doc Document) string {
	title := "Invoice"
	if doc.Kind == KindQuote {
		title = "Quote"
	}
	if doc.Number != "" {
		return title + " " + doc.Number
	}
	return title + " (" + string(doc.Status) + ")"
}

func addPDFHeader(m core.Maroto, doc Document) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(pdfTitle(doc), props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Left})),
		),
	)
	right := "Issued " + doc.IssueDate.Format(dateLayout)
	switch {
	case doc.DueDate != nil:
		right += " | Due " + doc.DueDate.Format(dateLayout)
	case doc.ValidUntil != nil:
		right += " | Valid until " + doc.ValidUntil.Format(dateLayout)
	}
	client := doc.ClientName
	if doc.ClientEmail != "" {
		client += " <" + doc.ClientEmail + ">"
	}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(text.New(client, props.Text{Size: 9, Color: mutedColor})),
			col.New(6).Add(text.New(right, props.Text{Size: 9, Align: align.Right, Color: mutedColor})),
		),
		row.New(4),
	)
}

func addPDFLines(m core.Maroto, doc Document) {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: whiteColor}
	headLeft := head
	headLeft.Align = align.Left
	cell := &props.Cell{BackgroundColor: headerColor}

	m.AddRows(
		row.New(8).Add(
			col.New(5).Add(text.New("Description", headLeft)).WithStyle(cell),
			col.New(1).Add(text.New("Qty", head)).WithStyle(cell),
			col.New(2).Add(text.New("Unit price", head)).WithStyle(cell),
			col.New(1).Add(text.New("VAT", head)).WithStyle(cell),
			col.New(1).Add(text.New("Disc.", head)).WithStyle(cell),
			col.New(2).Add(text.New("Amount", head)).WithStyle(cell),
		),
	)
	body := props.Text{Size: 8, Align: align.Right}
	for _, l := range doc.Lines {
		amount := l.Quantity.Mul(l.UnitPrice)
		m.AddRows(
			row.New(7).Add(
				col.New(5).Add(text.New(l.Description, props.Text{Size: 8})),
				col.New(1).Add(text.New(l.Quantity.String(), body)),
				col.New(2).Add(text.New(totals.FormatAmount(l.UnitPrice, doc.Currency), body)),
				col.New(1).Add(text.New(totals.FormatRate(l.VATRate), body)),
				col.New(1).Add(text.New(lineDiscountLabel(l, doc.Currency), body)),
				col.New(2).Add(text.New(totals.FormatAmount(amount, doc.Currency), body)),
			),
		)
	}
	m.AddRows(row.New(4))
}

func lineDiscountLabel(l Line, currency string) string {
	if l.Discount.IsZero() {
		return ""
	}
	if l.DiscountType == totals.Fixed {
		return totals.FormatAmount(l.Discount, currency)
	}
	return totals.FormatRate(l.Discount)
}

func addPDFTotals(m core.Maroto, doc Document) {
	label := props.Text{Size: 9, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}
	bold := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}

	summary := func(l, v string, style props.Text) core.Row {
		return row.New(6).Add(
			col.New(8).Add(text.New(l, style)),
			col.New(4).Add(text.New(v, style)),
		)
	}
	t := doc.Totals
	m.AddRows(summary("Subtotal", totals.FormatAmount(t.Subtotal, doc.Currency), label))
	if t.TotalDiscount.IsPositive() {
		m.AddRows(summary("Discount", "-"+totals.FormatAmount(t.TotalDiscount, doc.Currency), value))
	}
	m.AddRows(summary("Total excl. VAT", totals.FormatAmount(t.TotalWithoutVAT, doc.Currency), label))
	for _, b := range t.VATRates {
		desc := fmt.Sprintf("VAT %s on %s", totals.FormatRate(b.Rate), totals.FormatAmount(b.BaseAmount, doc.Currency))
		m.AddRows(summary(desc, totals.FormatAmount(b.Amount, doc.Currency), value))
	}
	m.AddRows(summary("Total incl. VAT", totals.FormatAmount(t.TotalWithVAT, doc.Currency), bold))
	if doc.Discount.Amount.IsPositive() {
		m.AddRows(text.NewRow(6, "Document discount: "+globalDiscountLabel(doc), props.Text{Size: 7, Align: align.Right, Color: mutedColor}))
	}
}

func globalDiscountLabel(doc Document) string {
	if doc.Discount.Type == totals.Fixed {
		return totals.FormatAmount(doc.Discount.Amount, doc.Currency)
	}
	return totals.FormatRate(doc.Discount.Amount)
}
