package certificate

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/models"
)

// DefaultIssuer signs the right-hand signature line.
const DefaultIssuer = "E-Learner"

// ErrNotCompleted is returned for enrollments without a completion date.
var ErrNotCompleted = apperr.NotFound("certificate requires a completed enrollment")

// Data is everything printed on a certificate.
type Data struct {
	Recipient   string
	CourseTitle string
	Instructor  string
	Issuer      string
	CompletedAt time.Time
}

// FromEnrollment collects certificate data. The course must have its
// instructor loaded.
func FromEnrollment(user models.User, course models.Course, enrollment models.CourseEnrollment, issuer string) (Data, error) {
	if enrollment.CompletedDate == nil {
		return Data{}, ErrNotCompleted
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return Data{
		Recipient:   user.DisplayName(),
		CourseTitle: course.Title,
		Instructor:  course.Instructor.Name,
		Issuer:      issuer,
		CompletedAt: enrollment.CompletedDate.UTC(),
	}, nil
}

// Render produces a single-page landscape PDF. Identical input gives
// identical bytes.
func Render(d Data) ([]byte, error) {
	pdf := document(d)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

func document(d Data) *fpdf.Fpdf {
	l := BuildLayout(d)

	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetCreationDate(d.CompletedAt)
	pdf.SetModificationDate(d.CompletedAt)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetCreator(d.Issuer, true)
	for _, f := range fontFiles {
		pdf.AddUTF8FontFromBytes(fontFamily, f.style, f.ttf)
	}
	pdf.AddPage()

	pdf.SetDrawColor(l.Border.Color.R, l.Border.Color.G, l.Border.Color.B)
	pdf.SetLineWidth(l.Border.Width)
	pdf.Rect(l.Border.Inset, l.Border.Inset, l.Width-2*l.Border.Inset, l.Height-2*l.Border.Inset, "D")

	for _, ln := range l.Lines {
		pdf.SetDrawColor(ln.Color.R, ln.Color.G, ln.Color.B)
		pdf.SetLineWidth(ln.Width)
		pdf.Line(ln.X1, ln.Y1, ln.X2, ln.Y2)
	}

	for _, t := range l.Texts {
		pdf.SetFont(t.Font.Family, t.Font.Style, t.Font.Size)
		pdf.SetTextColor(t.Color.R, t.Color.G, t.Color.B)
		pdf.Text(t.CenterX-pdf.GetStringWidth(t.Value)/2, t.Y, t.Value)
	}
	return pdf
}

// Generator renders certificates for a fixed issuing organization.
type Generator struct {
	Issuer string
}

func NewGenerator(issuer string) *Generator {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Generator{Issuer: issuer}
}

// Generate renders the PDF for a completed enrollment.
func (g *Generator) Generate(user models.User, course models.Course, enrollment models.CourseEnrollment) ([]byte, error) {
	d, err := FromEnrollment(user, course, enrollment, g.Issuer)
	if err != nil {
		return nil, err
	}
	return Render(d)
}

// Preview renders the PNG preview for a completed enrollment.
func (g *Generator) Preview(user models.User, course models.Course, enrollment models.CourseEnrollment) ([]byte, error) {
	d, err := FromEnrollment(user, course, enrollment, g.Issuer)
	if err != nil {
		return nil, err
	}
	return RenderPreview(d)
}

// Filename is the download name for a course certificate.
func Filename(courseTitle string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(courseTitle) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "course"
	}
	return "certificate_" + name + ".pdf"
}
