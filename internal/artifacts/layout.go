// Package artifacts owns the on-disk locations of reports, fitted transforms
// and models, and the per-run manifest.
package artifacts

import "path/filepath"

// Layout resolves the fixed file locations under the reports and artifacts roots.
type Layout struct {
	ReportsDir   string
	ArtifactsDir string
}

// NewLayout returns a Layout, defaulting empty roots to "reports" and "artifacts".
func NewLayout(reportsDir, artifactsDir string) Layout {
	if reportsDir == "" {
		reportsDir = "reports"
	}
	if artifactsDir == "" {
		artifactsDir = "artifacts"
	}
	return Layout{ReportsDir: reportsDir, ArtifactsDir: artifactsDir}
}

func (l Layout) CleaningReport() string {
	return filepath.Join(l.ReportsDir, "cleaning", "cleaning_report.json")
}

func (l Layout) CleaningMarkdown() string {
	return filepath.Join(l.ReportsDir, "cleaning", "cleaning_report.md")
}

func (l Layout) FeaturePipeline() string {
	return filepath.Join(l.ArtifactsDir, "feature_engineering", "pipeline.json")
}

func (l Layout) FeatureMetadata() string {
	return filepath.Join(l.ArtifactsDir, "feature_engineering", "metadata.json")
}

func (l Layout) Model() string {
	return filepath.Join(l.ArtifactsDir, "model", "model.json")
}

func (l Layout) TrainingReport() string {
	return filepath.Join(l.ArtifactsDir, "model", "training_report.json")
}

func (l Layout) EvaluationReport() string {
	return filepath.Join(l.ArtifactsDir, "evaluation", "evaluation_report.json")
}

func (l Layout) Manifest() string {
	return filepath.Join(l.ArtifactsDir, "run.json")
}
