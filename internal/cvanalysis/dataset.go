package cvanalysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"recruit-backend/internal/extract"
	"recruit-backend/internal/shared/telemetry"
)

// DefaultPerDomain caps the number of files read from each domain folder.
const DefaultPerDomain = 50

// DomainLabel turns a dataset folder name into a domain label.
func DomainLabel(folder string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(folder)), "-", "_")
}

// LoadDataset reads a labelled CV tree: every top-level folder of root is a
// domain, and up to perDomain supported files in it (sorted by name) are
// extracted into records. Files yielding no text are skipped.
func LoadDataset(ctx context.Context, root string, perDomain int) ([]Record, error) {
	if perDomain <= 0 {
		perDomain = DefaultPerDomain
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", root, err)
	}

	records := []Record{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		domain := DomainLabel(entry.Name())
		dir := filepath.Join(root, entry.Name())
		files, err := domainFiles(dir, perDomain)
		if err != nil {
			return nil, err
		}
		telemetry.Info("cv.dataset.domain", map[string]any{"domain": domain, "files": len(files)})

		for i, name := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			path := filepath.Join(dir, name)
			text := extract.FromFile(ctx, path, filepath.Ext(name))
			if strings.TrimSpace(text) == "" {
				telemetry.Warn("cv.dataset.empty_text", map[string]any{"path": path})
				continue
			}
			records = append(records, NewRecord(name, path, domain, text))
			telemetry.Info("cv.dataset.file", map[string]any{"domain": domain, "file": name, "index": i + 1, "of": len(files)})
		}
	}
	return records, nil
}

func domainFiles(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read domain folder %s: %w", dir, err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !extract.Supported(filepath.Ext(e.Name())) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}
