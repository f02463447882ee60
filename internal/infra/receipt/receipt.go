// Package receipt renders the PDF receipt attached to payment confirmations.
package receipt

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	colorPrimary = &props.Color{Red: 15, Green: 118, Blue: 110}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Data is everything printed on a receipt. Amounts arrive pre-formatted.
type Data struct {
	Brand        string
	ExternalID   string
	InvoiceID    string
	PaidAt       time.Time
	CustomerName string
	Email        string
	ProductName  string
	DisplayPrice string
	ExchangeRate string
	AmountIDR    string
	Provider     string
}

type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

func (g *Generator) Generate(d Data) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Receipt "+d.ExternalID, true).
		WithAuthor(d.Brand, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(d))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(d))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(itemRows(d)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(d))
	m.AddRows(line.NewRow(6))
	m.AddRows(footerRow(d))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("receipt %s: %w", d.ExternalID, err)
	}
	return doc.GetBytes(), nil
}

func headerRow(d Data) core.Row {
	paid := d.PaidAt
	if paid.IsZero() {
		paid = time.Now()
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(d.Brand, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Bali property and business advisory", props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("PAYMENT RECEIPT", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(d.ExternalID, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 7}),
			text.New("Paid: "+paid.Format("02 Jan 2006"), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
		),
	)
}

func customerRow(d Data) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("BILLED TO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(d.CustomerName, d.Email), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(d.Email, props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func itemRows(d Data) []core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Top: 2}))
	}
	return []core.Row{
		row.New(8).Add(
			h("Item", 6, align.Left),
			h("Price (USD)", 2, align.Right),
			h("Rate", 2, align.Right),
			h("Amount", 2, align.Right),
		),
		row.New(8).Add(
			col.New(6).Add(text.New(d.ProductName, props.Text{Size: 9, Top: 1})),
			col.New(2).Add(text.New(d.DisplayPrice, props.Text{Size: 9, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(d.ExchangeRate, props.Text{Size: 9, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(d.AmountIDR, props.Text{Size: 9, Align: align.Right, Top: 1})),
		),
	}
}

func totalRow(d Data) core.Row {
	return row.New(10).Add(
		col.New(8),
		col.New(2).Add(text.New("TOTAL PAID", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2})),
		col.New(2).Add(text.New(d.AmountIDR, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2, Color: colorPrimary})),
	)
}

func footerRow(d Data) core.Row {
	ref := "Reference " + d.ExternalID
	if d.InvoiceID != "" {
		ref += " · " + d.Provider + " invoice " + d.InvoiceID
	}
	return row.New(10).Add(
		col.New(12).Add(
			text.New(ref, props.Text{Size: 7, Color: colorGray}),
			text.New("This receipt confirms payment in Indonesian Rupiah. Prices are set in USD and converted at the rate shown.",
				props.Text{Size: 7, Top: 4, Color: colorGray}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
