package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/go-pdf/fpdf"
)

// ErrUnsupportedImage means the cover format cannot be embedded in a PDF
var ErrUnsupportedImage = errors.New("unsupported cover image type")

// Layout constants in points on A4 paper
const (
	pageMargin      = 40.0
	titleFontSize   = 24.0
	titleLineHeight = 28.0
	headingFontSize = 16.0
	bodyFontSize    = 12.0
	bodyLineHeight  = 16.0
	listIndent      = 14.0
	fontFamily      = "Helvetica"
)

// Renderer writes a Document as an A4 PDF
type Renderer struct {
	creator string
}

// NewRenderer creates a new Renderer
func NewRenderer(creator string) *Renderer {
	return &Renderer{creator: creator}
}

// Render writes doc as a PDF to w
func (r *Renderer) Render(doc *Document, w io.Writer) error {
	if doc == nil {
		return ErrNoProduct
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(doc.Title, true)
	if r.creator != "" {
		pdf.SetCreator(r.creator, true)
	}
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	// Core fonts are cp1252; translate so accented Portuguese text renders
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, page := range doc.Pages {
		switch page.Kind {
		case CoverPage:
			if err := r.renderCover(pdf, page, i); err != nil {
				return err
			}
		case TextPage:
			r.renderText(pdf, page, tr)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	log.Printf("[EXPORT] Rendered %q: %d pages", doc.Filename, pdf.PageCount())
	return nil
}

func (r *Renderer) renderCover(pdf *fpdf.Fpdf, page Page, index int) error {
	if page.Cover == nil || len(page.Cover.Data) == 0 {
		return fmt.Errorf("%w: cover page has no image", ErrInvalidCover)
	}
	imageType, err := pdfImageType(page.Cover.MIMEType)
	if err != nil {
		return err
	}

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	name := fmt.Sprintf("cover-%d", index)
	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.Cover.Data))
	// Full bleed: the image fills the page regardless of margins
	pdf.ImageOptions(name, 0, 0, pageW, pageH, false, opts, 0, "")
	return nil
}

func (r *Renderer) renderText(pdf *fpdf.Fpdf, page Page, tr func(string) string) {
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	width := pageW - 2*pageMargin

	pdf.SetFont(fontFamily, "B", titleFontSize)
	pdf.MultiCell(width, titleLineHeight, tr(page.Title), "", "L", false)
	pdf.Ln(titleLineHeight)

	for _, block := range page.Blocks {
		switch block.Kind {
		case Heading:
			pdf.Ln(bodyLineHeight / 2)
			pdf.SetFont(fontFamily, "B", headingFontSize)
			pdf.MultiCell(width, headingFontSize+4, tr(block.Text), "", "L", false)
			pdf.Ln(bodyLineHeight / 4)
		case ListItem:
			pdf.SetFont(fontFamily, "", bodyFontSize)
			pdf.SetX(pageMargin + listIndent)
			pdf.MultiCell(width-listIndent, bodyLineHeight, tr("• "+block.Text), "", "L", false)
		default:
			pdf.SetFont(fontFamily, "", bodyFontSize)
			pdf.MultiCell(width, bodyLineHeight, tr(block.Text), "", "L", false)
			pdf.Ln(bodyLineHeight / 2)
		}
	}
}

// pdfImageType maps a MIME type to an fpdf image type
func pdfImageType(mimeType string) (string, error) {
	switch strings.ToLower(mimeType) {
	case "image/png", "":
		return "PNG", nil
	case "image/jpeg", "image/jpg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mimeType)
}
