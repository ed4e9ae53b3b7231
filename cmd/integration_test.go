package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so state does not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if strings.HasSuffix(fl.Value.Type(), "Slice") {
			fl.Changed = false
			return
		}
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCLI executes the root command with args and returns its error.
func execCLI(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	clnProtect = nil
	cbProtect = nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// mustExec is execCLI that fails the test on error.
func mustExec(t *testing.T, args ...string) {
	t.Helper()
	if err := execCLI(t, args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// isolate points HOME at a temp dir and returns the dir plus a config path inside it.
func isolate(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)
	return home, filepath.Join(home, "config.yaml")
}

func writeHousingCSV(t *testing.T, dir string) string {
	t.Helper()
	cities := []string{"Austin", "Boston", " boston "}
	var b strings.Builder
	b.WriteString("id,sqft,city,price\n")
	for i := 0; i < 40; i++ {
		sqft := 500 + 25*(i%15)
		price := float64(sqft)*0.2 + float64(10*(i%3))
		fmt.Fprintf(&b, "%d,%d,%s,%g\n", i+1, sqft, cities[i%3], price)
	}
	path := filepath.Join(dir, "housing.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func readJSONMap(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return m
}

func TestCLI_ConfigSet_Run_Evaluate(t *testing.T) {
	home, cfgPath := isolate(t)
	data := writeHousingCSV(t, home)
	reports := filepath.Join(home, "reports")
	arts := filepath.Join(home, "artifacts")
	cleaned := filepath.Join(home, "processed", "cleaned.csv")

	mustExec(t, "config", "set", "target_column", "price", "--config", cfgPath)
	mustExec(t, "config", "set", "reports_dir", reports, "--config", cfgPath)
	mustExec(t, "config", "set", "artifacts_dir", arts, "--config", cfgPath)
	mustExec(t, "config", "set", "cleaned_path", cleaned, "--config", cfgPath)

	mustExec(t, "run", "--data", data, "--trees", "5", "--folds", "3", "--config", cfgPath)

	for _, p := range []string{
		cleaned,
		filepath.Join(reports, "cleaning", "cleaning_report.json"),
		filepath.Join(reports, "cleaning", "cleaning_report.md"),
		filepath.Join(arts, "feature_engineering", "pipeline.json"),
		filepath.Join(arts, "feature_engineering", "metadata.json"),
		filepath.Join(arts, "model", "model.json"),
		filepath.Join(arts, "model", "training_report.json"),
		filepath.Join(arts, "evaluation", "evaluation_report.json"),
		filepath.Join(arts, "run.json"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected artifact %s: %v", p, err)
		}
	}
	ev := readJSONMap(t, filepath.Join(arts, "evaluation", "evaluation_report.json"))
	if ev["cv_folds"] != float64(3) {
		t.Fatalf("run cv_folds = %v, want 3", ev["cv_folds"])
	}

	// Re-score the persisted model with a different fold count.
	mustExec(t, "evaluate", "--folds", "4", "--config", cfgPath)
	ev = readJSONMap(t, filepath.Join(arts, "evaluation", "evaluation_report.json"))
	if ev["cv_folds"] != float64(4) {
		t.Fatalf("evaluate cv_folds = %v, want 4", ev["cv_folds"])
	}
	if ev["n_samples"] != float64(40) {
		t.Fatalf("n_samples = %v, want 40", ev["n_samples"])
	}
	scores, ok := ev["all_scores"].([]any)
	if !ok || len(scores) != 4 {
		t.Fatalf("all_scores = %v, want 4 entries", ev["all_scores"])
	}
}

func TestCLI_Clean_WritesReport(t *testing.T) {
	home, cfgPath := isolate(t)
	data := writeHousingCSV(t, home)
	out := filepath.Join(home, "out", "clean.csv")
	reports := filepath.Join(home, "rep")

	mustExec(t, "clean", data, "-o", out, "--reports-dir", reports, "-q", "--config", cfgPath)

	rep := readJSONMap(t, filepath.Join(reports, "cleaning", "cleaning_report.json"))
	dropped, _ := rep["id_like_columns_removed"].([]any)
	if len(dropped) != 1 || dropped[0] != "id" {
		t.Fatalf("id_like_columns_removed = %v, want [id]", rep["id_like_columns_removed"])
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read cleaned: %v", err)
	}
	if !strings.HasPrefix(string(b), "sqft,city,price\n") {
		t.Fatalf("unexpected cleaned header: %q", strings.SplitN(string(b), "\n", 2)[0])
	}
}

func TestCLI_CleanBatch_DuplicateNames(t *testing.T) {
	home, cfgPath := isolate(t)
	mustExec(t, "config", "set", "max_unique_ratio", "1", "--config", cfgPath)

	// Two CSV files with the same basename in different directories
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	for _, d := range []string{d1, d2} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	csv := "col1,col2\nA,1\nB,2\nC,3\nA,1\n"
	if err := os.WriteFile(filepath.Join(d1, "metrics.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write d1: %v", err)
	}
	if err := os.WriteFile(filepath.Join(d2, "metrics.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write d2: %v", err)
	}

	outDir := filepath.Join(home, "clean")
	reports := filepath.Join(home, "reports")
	mustExec(t, "clean-batch", filepath.Join(home, "d*", "metrics.csv"),
		"--out-dir", outDir, "--reports-dir", reports, "--quiet", "--config", cfgPath)

	for _, name := range []string{"metrics", "metrics__2"} {
		if _, err := os.Stat(filepath.Join(outDir, name+".cleaned.csv")); err != nil {
			t.Fatalf("missing cleaned output for %s: %v", name, err)
		}
		rep := readJSONMap(t, filepath.Join(reports, name, "cleaning", "cleaning_report.json"))
		if rep["duplicates_removed"] != float64(1) {
			t.Fatalf("%s duplicates_removed = %v, want 1", name, rep["duplicates_removed"])
		}
	}
}

func TestCLI_CleanBatch_NoMatches(t *testing.T) {
	home, cfgPath := isolate(t)
	err := execCLI(t, "clean-batch", filepath.Join(home, "nothing-*.csv"), "--config", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "no input files matched") {
		t.Fatalf("expected no-match error, got %v", err)
	}
}

func TestCLI_RunRejectsSingleFold(t *testing.T) {
	home, cfgPath := isolate(t)
	data := writeHousingCSV(t, home)
	err := execCLI(t, "run", "--data", data, "--target", "price", "--folds", "1", "--config", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "cv_folds") {
		t.Fatalf("expected cv_folds config error, got %v", err)
	}
}

func TestCLI_EvaluateRequiresPriorRun(t *testing.T) {
	home, cfgPath := isolate(t)
	mustExec(t, "config", "set", "artifacts_dir", filepath.Join(home, "artifacts"), "--config", cfgPath)
	err := execCLI(t, "evaluate", "--config", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "automl run") {
		t.Fatalf("expected hint to run the pipeline first, got %v", err)
	}
}

func TestCLI_ConfigSetRejectsUnknownKey(t *testing.T) {
	_, cfgPath := isolate(t)
	if err := execCLI(t, "config", "set", "no_such_key", "1", "--config", cfgPath); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := os.Stat(cfgPath); err == nil {
		t.Fatalf("config file should not be written on a rejected set")
	}
}
