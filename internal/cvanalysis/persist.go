package cvanalysis

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"recruit-backend/internal/ml"
)

// Artifact file names inside a model directory.
const (
	VectorizerFile        = "vectorizer.json"
	DomainClassifierFile  = "domain_classifier.json"
	QualityClassifierFile = "quality_classifier.json"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type qualityArtifact struct {
	Classifier *ml.SVM `json:"classifier"`
	ScoreScale float64 `json:"score_scale"`
}

// Save writes the three model artifacts to dir. Each file is written to a
// temp file and renamed into place.
func (a *Analyzer) Save(dir string) error {
	if a == nil {
		return ErrNotTrained
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	artifacts := []struct {
		name  string
		value any
	}{
		{VectorizerFile, a.vectorizer},
		{DomainClassifierFile, a.domain},
		{QualityClassifierFile, qualityArtifact{Classifier: a.quality, ScoreScale: a.scoreScale}},
	}
	for _, art := range artifacts {
		if err := writeJSON(filepath.Join(dir, art.name), art.value); err != nil {
			return fmt.Errorf("save %s: %w", art.name, err)
		}
	}
	return nil
}

// Load reads the three artifacts from dir, validates each against its
// schema and returns a trained analyzer. A missing artifact yields an error
// wrapping os.ErrNotExist.
func Load(dir string) (*Analyzer, error) {
	var vec ml.Vectorizer
	if err := readArtifact(dir, VectorizerFile, &vec); err != nil {
		return nil, err
	}
	var forest ml.RandomForest
	if err := readArtifact(dir, DomainClassifierFile, &forest); err != nil {
		return nil, err
	}
	var quality qualityArtifact
	if err := readArtifact(dir, QualityClassifierFile, &quality); err != nil {
		return nil, err
	}

	if !vec.Fitted() || len(vec.Vocabulary) != len(vec.IDF) {
		return nil, fmt.Errorf("%w: vectorizer vocabulary and idf disagree", ErrInvalidModel)
	}
	for term, col := range vec.Vocabulary {
		if col >= len(vec.IDF) {
			return nil, fmt.Errorf("%w: term %q maps to column %d of %d", ErrInvalidModel, term, col, len(vec.IDF))
		}
	}
	if !forest.Fitted() {
		return nil, fmt.Errorf("%w: domain classifier has no trees", ErrInvalidModel)
	}
	if err := forest.Validate(len(vec.IDF)); err != nil {
		return nil, fmt.Errorf("%w: domain classifier: %v", ErrInvalidModel, err)
	}
	if quality.Classifier == nil || !quality.Classifier.Fitted() {
		return nil, fmt.Errorf("%w: quality classifier has no classes", ErrInvalidModel)
	}
	if len(quality.Classifier.Support) != len(quality.Classifier.Coef) {
		return nil, fmt.Errorf("%w: support vectors and coefficients disagree", ErrInvalidModel)
	}

	return &Analyzer{
		vectorizer: &vec,
		domain:     &forest,
		quality:    quality.Classifier,
		scoreScale: quality.ScoreScale,
	}, nil
}

func readArtifact(dir, name string, dst any) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := validateArtifact(name, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidModel, name, err)
	}
	return nil
}

func validateArtifact(name string, raw []byte) error {
	schema, err := schemaFS.ReadFile("schemas/" + strings.TrimSuffix(name, ".json") + ".schema.json")
	if err != nil {
		return fmt.Errorf("schema for %s: %w", name, err)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidModel, name, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrInvalidModel, name, strings.Join(msgs, "; "))
	}
	return nil
}

func writeJSON(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// IsMissing reports whether err comes from an absent model artifact.
func IsMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
