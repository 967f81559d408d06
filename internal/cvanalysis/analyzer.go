package cvanalysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"recruit-backend/internal/ml"
	"recruit-backend/internal/shared/telemetry"
)

// Quality labels predicted by the quality classifier.
const (
	QualityGood    = "good"
	QualityAverage = "average"

	goodQualityThreshold = 60.0
	randomSeed           = 42
	testFraction         = 0.2
)

// Record is one processed training document.
type Record struct {
	Filename        string
	Text            string
	RawText         string
	Skills          []string
	SkillsCount     int
	ExperienceYears int
	Domain          string
	WordCount       int
	FilePath        string
	QualityScore    float64
	QualityLabel    string
}

// NewRecord extracts the features of rawText and labels it with domain.
func NewRecord(filename, filePath, domain, rawText string) Record {
	cleaned := CleanText(rawText)
	skills := ExtractSkills(rawText)
	return Record{
		Filename:        filename,
		Text:            cleaned,
		RawText:         rawText,
		Skills:          skills,
		SkillsCount:     len(skills),
		ExperienceYears: ExtractExperienceYears(rawText),
		Domain:          domain,
		WordCount:       WordCount(cleaned),
		FilePath:        filePath,
	}
}

// Analysis is the classifier output for one CV.
type Analysis struct {
	Domain           string   `json:"domain"`
	DomainConfidence float64  `json:"domain_confidence"`
	Quality          string   `json:"quality"`
	QualityScore     float64  `json:"quality_score"`
	Skills           []string `json:"skills"`
	SkillsCount      int      `json:"skills_count"`
	ExperienceYears  int      `json:"experience_years"`
	WordCount        int      `json:"word_count"`
}

// TrainOptions tunes Train. Zero values select the defaults.
type TrainOptions struct {
	MaxFeatures int
	Trees       int
}

// TrainReport summarizes a training run. Accuracies are negative when no
// held-out evaluation was possible.
type TrainReport struct {
	Documents       int
	Domains         map[string]int
	DomainAccuracy  float64
	QualityAccuracy float64
	Records         []Record
}

// Analyzer bundles a fitted vectorizer with the domain and quality
// classifiers. A non-nil Analyzer is trained and never mutated; a nil
// *Analyzer is the untrained state.
type Analyzer struct {
	vectorizer *ml.Vectorizer
	domain     *ml.RandomForest
	quality    *ml.SVM
	scoreScale float64
}

// Train fits a new Analyzer on records. The returned report carries the
// records with their normalized quality score and label filled in.
func Train(ctx context.Context, records []Record, opts TrainOptions) (*Analyzer, TrainReport, error) {
	if len(records) == 0 {
		return nil, TrainReport{}, ErrEmptyDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, TrainReport{}, err
	}

	out := append([]Record(nil), records...)
	texts := make([]string, len(out))
	domains := make([]string, len(out))
	report := TrainReport{Documents: len(out), Domains: map[string]int{}, DomainAccuracy: -1, QualityAccuracy: -1}
	for i, r := range out {
		texts[i] = r.Text
		domains[i] = r.Domain
		report.Domains[r.Domain]++
	}

	vec := ml.NewVectorizer(opts.MaxFeatures)
	X, err := vec.FitTransform(texts)
	if err != nil {
		return nil, TrainReport{}, fmt.Errorf("vectorize: %w", err)
	}
	nFeatures := vec.Features()

	forest := ml.NewRandomForest(opts.Trees, randomSeed)
	if len(report.Domains) > 1 {
		train, test, ok := ml.StratifiedSplit(domains, testFraction, randomSeed)
		if ok {
			if err := forest.Fit(ml.Subset(X, train), ml.Subset(domains, train), nFeatures); err != nil {
				return nil, TrainReport{}, fmt.Errorf("fit domain classifier: %w", err)
			}
			report.DomainAccuracy = ml.Accuracy(forest.PredictAll(ml.Subset(X, test)), ml.Subset(domains, test))
			telemetry.Info("cv.train.domain_evaluated", map[string]any{"accuracy": report.DomainAccuracy, "test_size": len(test)})
		} else {
			telemetry.Warn("cv.train.domain_split_skipped", map[string]any{"documents": len(out), "domains": len(report.Domains)})
			if err := forest.Fit(X, domains, nFeatures); err != nil {
				return nil, TrainReport{}, fmt.Errorf("fit domain classifier: %w", err)
			}
		}
	} else {
		telemetry.Info("cv.train.single_domain", map[string]any{"documents": len(out)})
		if err := forest.Fit(X, domains, nFeatures); err != nil {
			return nil, TrainReport{}, fmt.Errorf("fit domain classifier: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, TrainReport{}, err
	}

	scale := 0.0
	for i := range out {
		out[i].QualityScore = rawQualityScore(out[i].SkillsCount, out[i].ExperienceYears, out[i].WordCount)
		scale = math.Max(scale, out[i].QualityScore)
	}
	labels := make([]string, len(out))
	for i := range out {
		if scale > 0 {
			out[i].QualityScore = out[i].QualityScore / scale * 100
		}
		out[i].QualityLabel = qualityLabel(out[i].QualityScore)
		labels[i] = out[i].QualityLabel
	}

	svm := ml.NewSVM(1)
	if distinct(labels) > 1 {
		train, test := ml.TrainTestSplit(len(out), testFraction, randomSeed)
		if distinct(ml.Subset(labels, train)) > 1 && len(test) > 0 {
			if err := svm.Fit(ml.Subset(X, train), ml.Subset(labels, train), nFeatures); err != nil {
				return nil, TrainReport{}, fmt.Errorf("fit quality classifier: %w", err)
			}
			report.QualityAccuracy = ml.Accuracy(svm.PredictAll(ml.Subset(X, test)), ml.Subset(labels, test))
			telemetry.Info("cv.train.quality_evaluated", map[string]any{"accuracy": report.QualityAccuracy, "test_size": len(test)})
		} else {
			telemetry.Warn("cv.train.quality_split_skipped", map[string]any{"documents": len(out)})
			if err := svm.Fit(X, labels, nFeatures); err != nil {
				return nil, TrainReport{}, fmt.Errorf("fit quality classifier: %w", err)
			}
		}
	} else {
		telemetry.Info("cv.train.single_quality_class", map[string]any{"documents": len(out), "label": labels[0]})
		if err := svm.Fit(X, labels, nFeatures); err != nil {
			return nil, TrainReport{}, fmt.Errorf("fit quality classifier: %w", err)
		}
	}

	report.Records = out
	telemetry.Info("cv.train.completed", map[string]any{"documents": len(out), "domains": len(report.Domains), "features": nFeatures})
	return &Analyzer{vectorizer: vec, domain: forest, quality: svm, scoreScale: scale}, report, nil
}

// Analyze classifies one CV text.
func (a *Analyzer) Analyze(text string) (Analysis, error) {
	if a == nil {
		return Analysis{}, ErrNotTrained
	}
	cleaned := CleanText(text)
	skills := ExtractSkills(text)
	years := ExtractExperienceYears(text)
	words := WordCount(cleaned)

	x := a.vectorizer.Transform(cleaned)
	domain, confidence := a.domain.Predict(x)

	return Analysis{
		Domain:           domain,
		DomainConfidence: clamp(confidence, 0, 1),
		Quality:          a.quality.Predict(x),
		QualityScore:     a.normalizeScore(rawQualityScore(len(skills), years, words)),
		Skills:           skills,
		SkillsCount:      len(skills),
		ExperienceYears:  years,
		WordCount:        words,
	}, nil
}

// Domains returns the labels the domain classifier can predict.
func (a *Analyzer) Domains() []string {
	if a == nil {
		return nil
	}
	out := append([]string(nil), a.domain.Classes...)
	sort.Strings(out)
	return out
}

func (a *Analyzer) normalizeScore(raw float64) float64 {
	if a.scoreScale > 0 {
		raw = raw / a.scoreScale * 100
	}
	return clamp(raw, 0, 100)
}

func rawQualityScore(skills, years, words int) float64 {
	return 0.4*float64(skills) + 0.3*float64(years) + 0.3*(float64(words)/100)
}

func qualityLabel(score float64) string {
	if score >= goodQualityThreshold {
		return QualityGood
	}
	return QualityAverage
}

func distinct(values []string) int {
	seen := map[string]struct{}{}
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
