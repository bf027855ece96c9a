package document

import (
	"errors"
	"fmt"
	"strings"

	"product-studio/internal/model"
)

var (
	// ErrNoProduct is returned when there is nothing to export
	ErrNoProduct = errors.New("no product to export")
	// ErrInvalidCover means the product's cover is not a decodable data URL
	ErrInvalidCover = errors.New("invalid cover image")
)

// PageKind distinguishes the cover page from text pages
type PageKind int

const (
	CoverPage PageKind = iota
	TextPage
)

// Page is one logical page of the exported document.
// A TextPage may flow onto further physical pages when rendered.
type Page struct {
	Kind   PageKind
	Cover  *model.CoverImage // CoverPage only
	Title  string            // TextPage only
	Blocks []Block           // TextPage only
}

// Document is the renderer-independent layout of an exported product
type Document struct {
	Title    string
	Filename string
	Pages    []Page
}

// Export lays out a product: the cover alone on page 1, then title and content.
// It is pure; the same product always yields an equal Document.
func Export(p *model.Product) (*Document, error) {
	if p == nil {
		return nil, ErrNoProduct
	}

	cover, err := model.ParseDataURL(p.CoverImageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCover, err)
	}

	return &Document{
		Title:    p.Title,
		Filename: Filename(p.Title),
		Pages: []Page{
			{Kind: CoverPage, Cover: &cover},
			{Kind: TextPage, Title: p.Title, Blocks: ParseContent(p.Content)},
		},
	}, nil
}

// Filename turns a title into "<words_joined_by_underscores>.pdf".
// Path separators are replaced so the name is safe in Content-Disposition.
func Filename(title string) string {
	title = strings.ReplaceAll(title, `"`, "")
	name := strings.Join(strings.Fields(title), "_")
	name = strings.NewReplacer("/", "-", `\`, "-").Replace(name)
	if name == "" {
		name = "produto"
	}
	return name + ".pdf"
}

// Text returns the textual content of every text page, one line per block.
// Cover pages contribute nothing.
func (d *Document) Text() string {
	var sb strings.Builder
	for _, page := range d.Pages {
		if page.Kind != TextPage {
			continue
		}
		sb.WriteString(page.Title)
		sb.WriteByte('\n')
		for _, b := range page.Blocks {
			sb.WriteString(b.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
