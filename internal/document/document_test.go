package document

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"strings"
	"testing"

	"product-studio/internal/model"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 60, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testProduct(t *testing.T) *model.Product {
	t.Helper()
	p, err := model.NewProduct(model.ProductText{
		Title:       "Guia do Freelancer Produtivo",
		Description: "Produtividade sem drama.",
		Price:       "R$ 27,90",
		Content:     "# Heading\n* item one\nplain paragraph",
	}, model.CoverImage{MIMEType: "image/png", Data: testPNG(t)})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Block
	}{
		{
			name:    "three kinds",
			content: "# Heading\n* item one\nplain paragraph",
			want: []Block{
				{Kind: Heading, Text: "Heading"},
				{Kind: ListItem, Text: "item one"},
				{Kind: Paragraph, Text: "plain paragraph"},
			},
		},
		{
			name:    "blank lines dropped",
			content: "\n\nfirst\n   \n\nsecond\n",
			want: []Block{
				{Kind: Paragraph, Text: "first"},
				{Kind: Paragraph, Text: "second"},
			},
		},
		{
			name:    "markers need a space",
			content: "#hashtag\n*bold*\n## Sub",
			want: []Block{
				{Kind: Paragraph, Text: "#hashtag"},
				{Kind: Paragraph, Text: "*bold*"},
				{Kind: Paragraph, Text: "## Sub"},
			},
		},
		{
			name:    "CRLF",
			content: "# Título\r\n* ação\r\n",
			want: []Block{
				{Kind: Heading, Text: "Título"},
				{Kind: ListItem, Text: "ação"},
			},
		},
		{
			name:    "empty",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseContent(tt.content); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseContent() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExportLayout(t *testing.T) {
	p := testProduct(t)

	doc, err := Export(p)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(doc.Pages))
	}

	cover := doc.Pages[0]
	if cover.Kind != CoverPage || cover.Cover == nil || len(cover.Blocks) != 0 || cover.Title != "" {
		t.Errorf("page 1 must hold only the cover: %+v", cover)
	}
	if !bytes.Equal(cover.Cover.Data, testPNG(t)) {
		t.Error("cover bytes differ from the product image")
	}

	text := doc.Pages[1]
	if text.Kind != TextPage || text.Title != p.Title {
		t.Errorf("page 2 = %+v", text)
	}
	wantBlocks := []Block{
		{Kind: Heading, Text: "Heading"},
		{Kind: ListItem, Text: "item one"},
		{Kind: Paragraph, Text: "plain paragraph"},
	}
	if !reflect.DeepEqual(text.Blocks, wantBlocks) {
		t.Errorf("blocks = %+v", text.Blocks)
	}

	if doc.Filename != "Guia_do_Freelancer_Produtivo.pdf" {
		t.Errorf("Filename = %q", doc.Filename)
	}
	if strings.Contains(doc.Text(), "# ") || strings.Contains(doc.Text(), "* ") {
		t.Errorf("markers leaked into text: %q", doc.Text())
	}
}

func TestExportIsDeterministic(t *testing.T) {
	p := testProduct(t)

	first, err := Export(p)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Export(p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Export produced different documents for the same product")
	}
	if first.Text() != second.Text() {
		t.Error("text content differs")
	}
}

func TestExportErrors(t *testing.T) {
	if _, err := Export(nil); !errors.Is(err, ErrNoProduct) {
		t.Errorf("nil product err = %v", err)
	}

	p := testProduct(t)
	p.CoverImageURL = "https://example.com/cover.png"
	if _, err := Export(p); !errors.Is(err, ErrInvalidCover) {
		t.Errorf("bad cover err = %v", err)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Foco Total", "Foco_Total.pdf"},
		{"  Foco \t  Total\n", "Foco_Total.pdf"},
		{"Antes/Depois", "Antes-Depois.pdf"},
		{`O "Guia"`, "O_Guia.pdf"},
		{"   ", "produto.pdf"},
		{`""`, "produto.pdf"},
		{`" "`, "produto.pdf"},
		{`"Guia" "Rápido"`, "Guia_Rápido.pdf"},
	}

	for _, tt := range tests {
		if got := Filename(tt.title); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	doc, err := Export(testProduct(t))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewRenderer("test").Render(doc, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestRenderUnsupportedImage(t *testing.T) {
	doc, err := Export(testProduct(t))
	if err != nil {
		t.Fatal(err)
	}
	doc.Pages[0].Cover.MIMEType = "image/webp"

	if err := NewRenderer("").Render(doc, &bytes.Buffer{}); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("err = %v, want ErrUnsupportedImage", err)
	}
}
