package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docchat/internal/indexer"
)

// parsePDF extracts the plain text of every page, separated by form feeds.
// Pages without a text layer contribute nothing.
func parsePDF(r io.Reader, tempDir string) (string, indexer.Format, string, error) {
	// ledongthuc/pdf needs io.ReaderAt and the size.
	tmp, size, err := spool(r, tempDir, "docchat-pdf-*.pdf")
	if err != nil {
		return "", "", "", err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	reader, err := pdf.NewReader(tmp, size)
	if err != nil {
		return "", "", "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if i > 1 {
			sb.WriteString("\f")
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", "", "", fmt.Errorf("read page %d: %w", i, err)
		}
		sb.WriteString(text)
	}

	txt := strings.ToValidUTF8(sb.String(), "\uFFFD")
	return strings.ReplaceAll(txt, "\r\n", "\n"), indexer.FormatPDF, "", nil
}
