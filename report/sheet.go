package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/fruitline/fruitline/internal/dispatch"
)

//go:embed templates/*.html
var templates embed.FS

// SheetLine is one printed dispatch line with formatted amounts.
type SheetLine struct {
	No        int
	Product   string
	Quantity  string
	CostPrice string
	Total     string
}

// Sheet is the view model of a printed trip.
type Sheet struct {
	Trip       dispatch.Trip
	Status     string
	Lines      []SheetLine
	TotalItems string
	TotalValue string
	PrintedAt  string
}

// Renderer turns trips into HTML trip sheets.
type Renderer struct {
	tpl     *template.Template
	printer *message.Printer
	symbol  string
	loc     *time.Location
	now     func() time.Time
}

// NewRenderer parses the sheet template and prepares number formatting for
// locale (a BCP 47 tag such as "en-IN").
func NewRenderer(locale string) (*Renderer, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, conf := currency.FromTag(tag)
	if conf == language.No {
		unit = currency.INR
	}
	printer := message.NewPrinter(tag)
	tpl, err := template.ParseFS(templates, "templates/trip_sheet.html")
	if err != nil {
		return nil, fmt.Errorf("parse trip sheet template: %w", err)
	}
	return &Renderer{
		tpl:     tpl,
		printer: printer,
		symbol:  printer.Sprint(currency.Symbol(unit)),
		loc:     time.UTC,
		now:     time.Now,
	}, nil
}

// Money formats an amount with the locale's currency symbol and grouping.
func (r *Renderer) Money(v float64) string {
	return r.symbol + r.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

// Count formats an integer with the locale's grouping.
func (r *Renderer) Count(n int) string {
	return r.printer.Sprint(number.Decimal(n))
}

// Build prepares the view model. Totals are recomputed from the lines.
func (r *Renderer) Build(trip dispatch.Trip) Sheet {
	lines := make([]SheetLine, 0, len(trip.DispatchItems))
	for i, item := range trip.DispatchItems {
		name := item.ProductName
		if name == "" {
			name = item.ProductID
		}
		lines = append(lines, SheetLine{
			No:        i + 1,
			Product:   name,
			Quantity:  r.Count(item.Quantity),
			CostPrice: r.Money(item.CostPrice),
			Total:     r.Money(float64(item.Quantity) * item.CostPrice),
		})
	}
	value, count := dispatch.Totals(trip.DispatchItems)
	return Sheet{
		Trip:       trip,
		Status:     strings.ReplaceAll(string(trip.Status), "_", " "),
		Lines:      lines,
		TotalItems: r.Count(count),
		TotalValue: r.Money(value),
		PrintedAt:  r.now().In(r.loc).Format("02 Jan 2006 15:04 MST"),
	}
}

// HTML renders the trip sheet document.
func (r *Renderer) HTML(trip dispatch.Trip) (string, error) {
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, r.Build(trip)); err != nil {
		return "", fmt.Errorf("render trip sheet: %w", err)
	}
	return buf.String(), nil
}
