package notify

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"sort"
	"strings"
	texttemplate "text/template"

	"eadshop_back_end/internal/models"
	"eadshop_back_end/internal/utils"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

const confirmationSubject = "Conferma Ordine ead-shop"

type lineView struct {
	Name      string
	Options   string
	Quantity  int
	UnitPrice string
	LineTotal string
}

type orderView struct {
	OrderID   string
	Total     string
	Lines     []lineView
	Shipping  string
	StatusURL string
}

func newOrderView(order *models.Order, publicBaseURL string) orderView {
	v := orderView{
		OrderID:   order.OrderID,
		Total:     utils.FormatMinorUnits(order.TotalMinorUnits, order.Currency),
		StatusURL: utils.OrderStatusURL(publicBaseURL, order.OrderID),
		Shipping:  formatAddress(order.ShippingAddress),
	}
	for _, l := range order.Lines {
		v.Lines = append(v.Lines, lineView{
			Name:      l.Name,
			Options:   formatOptions(l.SelectedOptions),
			Quantity:  l.Quantity,
			UnitPrice: utils.FormatMinorUnits(l.UnitPriceMinorUnits, order.Currency),
			LineTotal: utils.FormatMinorUnits(l.LineTotalMinorUnits, order.Currency),
		})
	}
	return v
}

func renderHTML(v orderView) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, "order_confirmation.html", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderText(v orderView) (string, error) {
	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, "order_confirmation.txt", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatOptions(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	names := make([]string, 0, len(opts))
	for k := range opts {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+opts[k])
	}
	return strings.Join(parts, ", ")
}

func formatAddress(s *models.ShippingAddress) string {
	if s.IsZero() {
		return ""
	}
	var parts []string
	for _, p := range []string{s.Address.Line1, s.Address.Line2, s.Address.City, s.Address.PostalCode, s.Address.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
