package mailbox

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var priceDropTmpl = template.Must(template.ParseFS(templateFS, "templates/price_drop.html"))

// PriceDrop is the data rendered into the price-drop notification.
type PriceDrop struct {
	Name          string
	TripName      string
	PreviousPrice string
	NewPrice      string
	MoneySave     string
	Destination   string
	Dates         string
}

// Subject returns the email subject for the notification.
func (p PriceDrop) Subject() string {
	return "Price Drop Alert: " + p.TripName
}

// Render executes the price-drop template.
func (p PriceDrop) Render() (string, error) {
	var buf bytes.Buffer
	if err := priceDropTmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("rendering price drop email for %q: %w", p.TripName, err)
	}
	return buf.String(), nil
}
