package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// LabelData is the content of a printable 4x6 inch traveler label.
type LabelData struct {
	TravelerID      int
	JobNumber       string
	PartNumber      string
	PartDescription string
	Revision        string
	Quantity        int
	Company         string
	Generated       string
	BarcodePNG      []byte
	QRPNG           []byte
}

const (
	labelWidthIn  = 4.0
	labelHeightIn = 6.0
	labelMarginIn = 0.25
)

// Label renders a traveler label PDF. Missing images leave an outlined box.
func Label(d LabelData) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           fpdf.SizeType{Wd: labelWidthIn, Ht: labelHeightIn},
	})
	pdf.SetMargins(labelMarginIn, labelMarginIn, labelMarginIn)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Offsets are measured from the bottom edge, like the label stock guides.
	at := func(fromBottom float64) float64 { return labelHeightIn - fromBottom }

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(labelMarginIn, at(5.5), "NEXUS TRAVELER")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(labelMarginIn, at(5.2), d.Company)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(labelMarginIn, at(4.8), "Job Number: "+d.JobNumber)
	pdf.Text(labelMarginIn, at(4.6), "Part Number: "+d.PartNumber)
	pdf.Text(labelMarginIn, at(4.4), "Description: "+d.PartDescription)
	pdf.Text(labelMarginIn, at(4.2), "Revision: "+d.Revision)
	pdf.Text(labelMarginIn, at(4.0), fmt.Sprintf("Quantity: %d", d.Quantity))

	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(labelMarginIn, at(3.6), "Barcode:")
	placeImage(pdf, "barcode", d.BarcodePNG, labelMarginIn, at(3.4), 3.5, 0.6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(labelMarginIn, at(2.4), fmt.Sprintf("Traveler ID: %d", d.TravelerID))

	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(labelMarginIn, at(2.0), "QR Code:")
	placeImage(pdf, "qr", d.QRPNG, labelMarginIn, at(2.0), 1.5, 1.5)

	generated := d.Generated
	if generated == "" {
		generated = "N/A"
	}
	pdf.Text(labelMarginIn, at(0.25), "Generated: "+generated)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: label pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func placeImage(pdf *fpdf.Fpdf, name string, data []byte, x, y, w, h float64) {
	if len(data) == 0 {
		pdf.Rect(x, y, w, h, "D")
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}
