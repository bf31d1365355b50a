package extract

import (
	"io"

	"docchat/internal/indexer"
)

func parseText(r io.Reader, _ string) (string, indexer.Format, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", "", err
	}
	txt, err := decodeText(data)
	return txt, indexer.FormatText, "", err
}

// parseMarkdown keeps the source verbatim; headings and fences are found
// later by indexer.Analyze.
func parseMarkdown(r io.Reader, _ string) (string, indexer.Format, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", "", err
	}
	txt, err := decodeText(data)
	return txt, indexer.FormatMarkdown, "", err
}
