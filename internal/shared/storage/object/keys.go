package object

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ErrInvalidFileName is returned for empty names or names that try to
// escape the owner's namespace.
var ErrInvalidFileName = errors.New("invalid file name")

const maxFileNameRunes = 120

var cvContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain; charset=utf-8",
}

// OwnerPrefix maps an owner ID to a stable, path-safe directory name.
func OwnerPrefix(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:16])
}

// CleanFileName flattens an uploaded file name to a single path segment.
// Separators, whitespace and control characters become underscores; long
// names are shortened without losing the extension.
func CleanFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) || unicode.IsSpace(r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	clean := strings.Trim(b.String(), "._")
	if clean == "" {
		return "", ErrInvalidFileName
	}
	runes := []rune(clean)
	if len(runes) > maxFileNameRunes {
		ext := []rune(filepath.Ext(clean))
		if len(ext) >= maxFileNameRunes {
			ext = nil
		}
		clean = string(runes[:maxFileNameRunes-len(ext)]) + string(ext)
	}
	return clean, nil
}

// NewKey builds a unique storage key for a CV uploaded by ownerID.
func NewKey(ownerID, fileName string) (string, error) {
	clean, err := CleanFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(OwnerPrefix(ownerID), uuid.NewString()+"_"+clean), nil
}

// ContentType resolves the stored MIME type of a CV. Known CV extensions win
// over sniffing; DOCX files sniff as zip archives.
func ContentType(fileName string, head []byte) string {
	if ct, ok := cvContentTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return ct
	}
	return http.DetectContentType(head)
}
