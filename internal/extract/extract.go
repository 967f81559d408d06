package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"recruit-backend/internal/shared/storage/object"
	"recruit-backend/internal/shared/telemetry"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidUTF8       = errors.New("text file is not valid utf-8")
)

// SupportedExtensions lists the accepted CV file extensions.
var SupportedExtensions = []string{".pdf", ".docx", ".doc", ".txt"}

// Supported reports whether ext (with leading dot, any case) can be extracted.
func Supported(ext string) bool {
	ext = normalizeExt(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}

// FromFile returns the best-effort plain text of the file at path. Any
// failure is logged and yields "".
func FromFile(ctx context.Context, path, ext string) string {
	ext = normalizeExt(ext)
	if ext == "" {
		ext = normalizeExt(filepath.Ext(path))
	}
	if !Supported(ext) {
		telemetry.Warn("extract.unsupported_format", map[string]any{"path": path, "ext": ext})
		return ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		telemetry.Error("extract.read_failed", map[string]any{"path": path, "ext": ext, "error": err.Error()})
		return ""
	}

	text, err := FromBytes(ctx, data, ext)
	if err != nil {
		telemetry.Error("extract.failed", map[string]any{"path": path, "ext": ext, "error": err.Error()})
		return ""
	}
	return text
}

// FromObject reads a stored object and extracts its text. The extension is
// taken from fileName.
func FromObject(ctx context.Context, store object.ObjectStore, storageKey, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", storageKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: read: %w", storageKey, err)
	}

	text, err := FromBytes(ctx, raw, filepath.Ext(fileName))
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", storageKey, err)
	}
	return text, nil
}

// FromBytes extracts text from an in-memory payload of the given extension.
// Legacy binary .doc payloads are read as DOCX and therefore fail.
func FromBytes(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch normalizeExt(ext) {
	case ".pdf":
		return extractPDF(data)
	case ".docx", ".doc":
		return extractDOCX(data)
	case ".txt":
		return extractTXT(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := openPDF(data)
	if err != nil {
		return "", err
	}
	pages := reader.NumPage()
	text, skipped := joinPages(pages, func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
	if len(skipped) > 0 {
		telemetry.Warn("extract.pdf.pages_skipped", map[string]any{"pages": skipped, "total": pages})
		if text == "" {
			return "", fmt.Errorf("pdf: all %d readable pages failed", len(skipped))
		}
	}
	return text, nil
}

// openPDF parses the PDF trailer. The parser panics on some malformed inputs.
func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader, err = nil, fmt.Errorf("pdf parse panic: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// joinPages concatenates pages 1..n, one per line. Pages that fail or panic
// are skipped and reported so one bad page does not lose the whole CV.
func joinPages(n int, pageText func(i int) (string, error)) (string, []int) {
	var (
		buf     strings.Builder
		skipped []int
	)
	for i := 1; i <= n; i++ {
		content, err := safePage(pageText, i)
		if err != nil {
			skipped = append(skipped, i)
			continue
		}
		buf.WriteString(content)
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String()), skipped
}

func safePage(pageText func(i int) (string, error), i int) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			content, err = "", fmt.Errorf("page %d panic: %v", i, r)
		}
	}()
	return pageText(i)
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return paragraphText(doc.Editable().GetContent())
}

// paragraphText joins the run texts of each w:p element with newlines.
func paragraphText(documentXML string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))
	var buf strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteString("\t")
			case "br":
				buf.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")), nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
