// Package export renders a merged shopping list for download.
package export

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/go-pdf/fpdf"
)

const fontFamily = "DejaVu"

// DejaVu covers Latin, Greek and Cyrillic, unlike the cp1252 core fonts.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

// Format is a supported download format
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps the format query value, defaulting to text
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case "", FormatText:
		return FormatText, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported format %q", value)
	}
}

// ContentType is the media type of the attachment
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// FileName is the suggested download name
func (f Format) FileName() string {
	return "shopping_list." + string(f)
}

// Line formats one merged item as "{name} - {amount} {unit}"
func Line(item models.ShoppingListItem) string {
	return fmt.Sprintf("%s - %d %s", item.Name, item.Amount, item.MeasurementUnit)
}

// Write renders items in the given format
func Write(w io.Writer, format Format, items []models.ShoppingListItem) error {
	if format == FormatPDF {
		return WritePDF(w, items)
	}
	return WriteText(w, items)
}

// WriteText writes one line per item
func WriteText(w io.Writer, items []models.ShoppingListItem) error {
	bw := bufio.NewWriter(w)
	for _, item := range items {
		if _, err := bw.WriteString(Line(item) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WritePDF writes a single column A4 document
func WritePDF(w io.Writer, items []models.ShoppingListItem) error {
	pdf := renderPDF(items)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func renderPDF(items []models.ShoppingListItem) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(fontFamily, "", regularFont)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", boldFont)
	pdf.SetTitle("Shopping list", true)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 12, "Shopping list", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "", 12)
	if len(items) == 0 {
		pdf.CellFormat(0, 8, "Your shopping list is empty.", "", 1, "L", false, 0, "")
	}
	for _, item := range items {
		pdf.CellFormat(0, 8, Line(item), "", 1, "L", false, 0, "")
	}
	return pdf
}
