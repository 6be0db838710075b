// Package pdf genera el comprobante de venta en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa              │  N° Venta + Fecha            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + NIT/CC + contacto │ Bodega / Pago         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA | Subtotal         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Total / Abonado / SALDO                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el ID de la venta + referencia al pedido     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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
	"github.com/shopspring/decimal"

	appbilling "github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.SalePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	companyName string
}

// NewMarotoPDFGenerator construye el generador. companyName encabeza el comprobante.
func NewMarotoPDFGenerator(companyName string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{companyName: companyName}
}

// GenerateSalePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateSalePDF(_ context.Context, doc appbilling.SaleDocument) ([]byte, error) {
	if doc.Sale == nil || doc.Customer == nil {
		return nil, fmt.Errorf("pdf: venta o cliente vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de venta", true).
		WithAuthor(g.companyName, true).
		Build()

	m := maroto.New(cfg)

	// Header principal
	m.AddRows(headerRow(doc.Sale, g.companyName))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	// Tabla de detalles
	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(doc.Lines)...)

	// Totales
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))

	// Footer
	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(doc.Sale)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa (izq) y N° de venta + fecha (der).
func headerRow(sale *entity.Sale, companyName string) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(companyName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Comprobante interno de venta", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(strings.ToUpper(sale.ID[:min(8, len(sale.ID))]), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+sale.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// customerRow: datos del cliente (izq) y bodega / forma de pago (der).
func customerRow(doc appbilling.SaleDocument) core.Row {
	c := doc.Customer
	warehouse := "—"
	if doc.Warehouse != nil {
		warehouse = doc.Warehouse.Name
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIT/CC: %s   |   Email: %s   |   Tel: %s",
				nonEmpty(c.TaxID, "—"),
				nonEmpty(c.Email, "—"),
				nonEmpty(c.Phone, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Bodega: "+warehouse, props.Text{Size: 8, Align: align.Right, Top: 6}),
			text.New("Pago: "+paymentLabel(doc.Sale.PaymentType), props.Text{Size: 8, Align: align.Right, Top: 11}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de detalles.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Cant.", 1, align.Center),
		h("Descripción del producto", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Subtotal", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea de venta.
func tableDetailRows(lines []appbilling.SaleLineForPDF) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		desc := l.ProductName
		if l.SKU != "" {
			desc = l.SKU + " · " + desc
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				formatQty(l.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				desc,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				formatMoney(l.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				l.TaxRate.StringFixed(0)+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				formatMoney(l.Subtotal),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: total, abonos y saldo alineados a la derecha.
func totalsRow(doc appbilling.SaleDocument) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Total:"),
			text.New("Abonado:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 6}),
			text.New("SALDO:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Right: 2, Top: 12,
			}),
		),
		col.New(3).Add(
			value(formatMoney(doc.Sale.Total), 0),
			value(formatMoney(doc.Paid), 6),
			text.New(formatMoney(doc.Balance), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Right: 1, Top: 12,
			}),
		),
	)
}

// footerRows: QR con el ID de la venta y referencia al pedido.
func footerRows(sale *entity.Sale) []core.Row {
	return []core.Row{
		row.New(30).Add(
			col.New(3).Add(code.NewQr(sale.ID, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(9).Add(
				text.New("Venta: "+sale.ID, props.Text{Size: 8, Top: 4, Left: 3, Color: colorGray}),
				text.New("Pedido: "+sale.OrderID, props.Text{Size: 8, Top: 10, Left: 3, Color: colorGray}),
				text.New("Estado: "+sale.Status, props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 18, Left: 3, Color: colorPrimary,
				}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func paymentLabel(t string) string {
	switch t {
	case entity.SalePaymentCredit:
		return "Crédito"
	case entity.SalePaymentCash:
		return "Contado"
	default:
		return t
	}
}

// formatQty muestra la cantidad sin ceros decimales sobrantes.
func formatQty(q decimal.Decimal) string {
	return q.String()
}

// formatMoney da formato $1.234.567,89.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	out := "$" + groupThousands(intPart) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

// groupThousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
