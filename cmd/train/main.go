package main

// Train the CV analyzer from a labelled dataset (one folder per domain):
//   go run ./cmd/train -dataset ./dataset

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"recruit-backend/internal/cvanalysis"
	"recruit-backend/internal/modelregistry"
	"recruit-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	dataset := flag.String("dataset", "./dataset", "Dataset root with one folder per domain")
	perDomain := flag.Int("per-domain", cvanalysis.DefaultPerDomain, "Maximum files read per domain")
	modelDir := flag.String("out", cfg.ModelDir, "Directory for the model artifacts")
	snapshot := flag.String("snapshot", cfg.TrainingSnapshot, "CSV snapshot of the processed records")
	registryPath := flag.String("registry", cfg.ModelRegistryPath, "Model registry database (empty disables)")
	testDomains := flag.String("test", "information_technology,teacher,advocate", "Domains to print top candidates for after training")
	topN := flag.Int("top", 5, "Candidates printed per test domain")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := cvanalysis.LoadDataset(ctx, *dataset, *perDomain)
	if err != nil {
		exitErr(err.Error())
	}
	stats := cvanalysis.Stats(records)
	fmt.Printf("documents: %d\n", stats.Documents)
	for _, d := range stats.SortedDomains() {
		fmt.Printf("  %-28s %d\n", d, stats.ByDomain[d])
	}
	fmt.Printf("avg experience: %.1f years, avg skills: %.1f\n", stats.AvgExperience, stats.AvgSkills)

	analyzer, report, err := cvanalysis.Train(ctx, records, cvanalysis.TrainOptions{})
	if err != nil {
		exitErr(fmt.Sprintf("train: %v", err))
	}
	if err := analyzer.Save(*modelDir); err != nil {
		exitErr(fmt.Sprintf("save model: %v", err))
	}
	fmt.Printf("model saved to %s\n", *modelDir)
	printAccuracy("domain accuracy", report.DomainAccuracy)
	printAccuracy("quality accuracy", report.QualityAccuracy)

	if strings.TrimSpace(*snapshot) != "" {
		if err := cvanalysis.WriteSnapshot(*snapshot, report.Records); err != nil {
			exitErr(fmt.Sprintf("write snapshot: %v", err))
		}
		fmt.Printf("snapshot written to %s\n", *snapshot)
	}

	if strings.TrimSpace(*registryPath) != "" {
		if err := record(ctx, *registryPath, *modelDir, report); err != nil {
			exitErr(fmt.Sprintf("record run: %v", err))
		}
	}

	if len(report.Records) > 0 {
		sample, err := analyzer.Analyze(report.Records[0].RawText)
		if err == nil {
			fmt.Printf("sample %s: domain=%s confidence=%.2f quality=%.1f skills=%d\n",
				report.Records[0].Filename, sample.Domain, sample.DomainConfidence, sample.QualityScore, sample.SkillsCount)
		}
	}

	results := make([]cvanalysis.Result, 0, len(report.Records))
	for _, r := range report.Records {
		a, err := analyzer.Analyze(r.RawText)
		if err != nil {
			continue
		}
		results = append(results, cvanalysis.Result{Filename: r.Filename, Analysis: a})
	}
	for _, domain := range strings.Split(*testDomains, ",") {
		domain = cvanalysis.DomainLabel(domain)
		if domain == "" {
			continue
		}
		top := cvanalysis.TopCandidates(results, domain, *topN)
		fmt.Printf("top %d in %s:\n", len(top), domain)
		for i, c := range top {
			fmt.Printf("  %d. %s %.1f\n", i+1, c.Filename, c.QualityScore)
		}
	}
}

func record(ctx context.Context, path, modelDir string, report cvanalysis.TrainReport) error {
	reg, err := modelregistry.Open(ctx, path)
	if err != nil {
		return err
	}
	defer reg.Close()
	run, err := reg.Record(ctx, modelregistry.Run{
		Documents:       report.Documents,
		Domains:         report.Domains,
		DomainAccuracy:  accuracy(report.DomainAccuracy),
		QualityAccuracy: accuracy(report.QualityAccuracy),
		ModelDir:        modelDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered run %d version %s\n", run.ID, run.Version)
	return nil
}

func accuracy(v float64) *float64 {
	if v < 0 {
		return nil
	}
	return &v
}

func printAccuracy(label string, v float64) {
	if v < 0 {
		fmt.Printf("%s: n/a (fit on full set)\n", label)
		return
	}
	fmt.Printf("%s: %.3f\n", label, v)
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
