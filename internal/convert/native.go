// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

var errNoText = errors.New("no text layer in PDF")

// NativeConverter extracts text with the pure-Go ledongthuc/pdf reader.
type NativeConverter struct{}

// Convert reads every page's plain text, separating pages with form feeds.
func (NativeConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	content, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	text, err := pdfText(ctx, content)
	if err != nil {
		return "", fmt.Errorf("converting %s: %w", pdfPath, err)
	}
	return text, nil
}

func pdfText(ctx context.Context, content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		buf.WriteString(text)
		if i < numPages-1 {
			buf.WriteByte('\f')
		}
	}
	if buf.Len() == 0 {
		return "", errNoText
	}
	return buf.String(), nil
}
