package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultCoverMIMEType is used when the image provider does not report one
const DefaultCoverMIMEType = "image/png"

// ErrIncompleteProduct is returned when a product would be built with a blank field
var ErrIncompleteProduct = errors.New("product is missing required fields")

// ProductText is the text half of a product as returned by the content generator
type ProductText struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Content     string `json:"content"` // minimal markup: "# " heading, "* " list item, else paragraph
}

// MissingFields returns the JSON names of blank fields, in schema order
func (t ProductText) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"title", t.Title},
		{"description", t.Description},
		{"price", t.Price},
		{"content", t.Content},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// CoverImage is a raw image payload returned by the cover generator
type CoverImage struct {
	MIMEType string
	Data     []byte
}

// DataURL encodes the image as a self-contained data URL
func (c CoverImage) DataURL() string {
	mimeType := c.MIMEType
	if mimeType == "" {
		mimeType = DefaultCoverMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// ParseDataURL decodes a base64 data URL back into a CoverImage
func ParseDataURL(url string) (CoverImage, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return CoverImage{}, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return CoverImage{}, fmt.Errorf("data URL has no payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return CoverImage{}, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return CoverImage{}, fmt.Errorf("failed to decode data URL: %w", err)
	}
	if mimeType == "" {
		mimeType = DefaultCoverMIMEType
	}
	return CoverImage{MIMEType: mimeType, Data: data}, nil
}

// Product is a fully generated digital product
type Product struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	Content       string `json:"content"`
	CoverImageURL string `json:"coverImageUrl"`
}

// NewProduct merges the text and cover results. Both halves must be complete.
func NewProduct(text ProductText, cover CoverImage) (*Product, error) {
	if missing := text.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteProduct, strings.Join(missing, ", "))
	}
	if len(cover.Data) == 0 {
		return nil, fmt.Errorf("%w: cover image", ErrIncompleteProduct)
	}

	return &Product{
		Title:         text.Title,
		Description:   text.Description,
		Price:         text.Price,
		Content:       text.Content,
		CoverImageURL: cover.DataURL(),
	}, nil
}
