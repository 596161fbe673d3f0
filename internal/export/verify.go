package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrInvalidPDF = errors.New("rendered pdf failed verification")

// VerifyPDF parses a rendered PDF and returns its page count. A PDF without pages or without a text layer is rejected.
func VerifyPDF(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty output", ErrInvalidPDF)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	pages := reader.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if strings.TrimSpace(buf.String()) == "" {
		return 0, fmt.Errorf("%w: no text layer", ErrInvalidPDF)
	}
	return pages, nil
}
