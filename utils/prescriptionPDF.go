package utils

import (
	"fmt"
	"io"
	"time"

	"MediCore/models"

	"github.com/jung-kurt/gofpdf"
)

// PrescriptionDocument is everything printed on a prescription sheet.
type PrescriptionDocument struct {
	Prescription models.Prescription
	PatientName  string
	DoctorName   string
	Specialty    string
	License      string
	IssuedAt     time.Time
}

// WritePrescriptionPDF renders doc as an A4 PDF into w.
func WritePrescriptionPDF(w io.Writer, doc PrescriptionDocument) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Prescription "+doc.Prescription.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Prescription", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	line := func(label, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(value), "", 1, "L", false, 0, "")
	}
	line("Patient:", doc.PatientName)
	line("Doctor:", doc.DoctorName)
	if doc.Specialty != "" {
		line("Specialty:", doc.Specialty)
	}
	if doc.License != "" {
		line("License:", doc.License)
	}
	line("Issued:", doc.IssuedAt.Format("02 Jan 2006"))
	line("Reference:", doc.Prescription.ID)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Diagnosis", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, tr(doc.Prescription.Diagnosis), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	widths := []float64{55, 35, 45, 45}
	for i, h := range []string{"Medication", "Dosage", "Frequency", "Duration"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, m := range doc.Prescription.Medications {
		for i, v := range []string{m.Name, m.Dosage, m.Frequency, m.Duration} {
			pdf.CellFormat(widths[i], 7, tr(v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		if m.Instructions != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, tr(m.Instructions), "", "L", false)
			pdf.SetFont("Arial", "", 10)
		}
	}

	if doc.Prescription.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, tr(doc.Prescription.Notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render prescription pdf: %w", err)
	}
	return nil
}
