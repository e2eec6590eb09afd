package fetch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/docharvest/gateway/pkg/logger_i"
)

var extractLogger = logger_i.NewLogger("Extraction")

// extractContent picks an extractor from the content type, the URL extension
// and the leading bytes. Unknown payloads pass through as raw text.
func extractContent(url string, contentType string, body []byte) (string, error) {
	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))
	mediaType := strings.ToLower(strings.SplitN(contentType, ";", 2)[0])

	switch {
	case mediaType == "application/pdf" || ext == ".pdf" || bytes.HasPrefix(body, []byte("%PDF-")):
		return extractPDF(body)
	case isWordLike(mediaType, ext):
		return extractWordLike(body, ext)
	default:
		return string(body), nil
	}
}

func isWordLike(mediaType string, ext string) bool {
	switch ext {
	case ".docx", ".odt", ".rtf":
		return true
	}
	switch mediaType {
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.oasis.opendocument.text",
		"application/rtf", "text/rtf":
		return true
	}
	return false
}

func extractPDF(body []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		extractLogger.Error("Failed opening pdf payload", "error", err)
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			extractLogger.Error("Error parsing pdf page", "page", i, "error", err)
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// extractWordLike routes through the cat file readers, which only take paths.
func extractWordLike(body []byte, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "harvest-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed staging document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed staging document: %w", err)
	}
	tmp.Close()

	text, err := cat.File(tmp.Name())
	if err != nil {
		extractLogger.Error("Error extracting content from doc", "error", err)
		return "", fmt.Errorf("failed to extract document text: %w", err)
	}
	return text, nil
}

// protectExtract guards GetPlainText, which can hang on malformed pages.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		return "", errors.New("timeout extracting pdf page")
	}
}
