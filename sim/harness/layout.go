package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/incident-sim/incident-sim/sim/incident"
)

// ResultsDirName names a sweep's output directory: results-<scenario>-<unixmillis>.
func ResultsDirName(scenario string, started time.Time) string {
	return fmt.Sprintf("results-%s-%d", scenario, started.UnixMilli())
}

// PrepareOutput creates the results directory under root, one <model>/sim
// directory per model, and copies the input files into it. It returns the
// results directory.
func PrepareOutput(root, scenario string, models []incident.ModelName, started time.Time, inputs ...string) (string, error) {
	dir := filepath.Join(root, ResultsDirName(scenario, started))
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("output directory %s already exists", dir)
	}
	for _, model := range models {
		if err := os.MkdirAll(ModelOutputDir(dir, model), 0o755); err != nil {
			return "", fmt.Errorf("creating output for model %s: %w", model, err)
		}
	}
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return "", fmt.Errorf("copying input: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, filepath.Base(in)), data, 0o644); err != nil {
			return "", fmt.Errorf("copying input: %w", err)
		}
	}
	return dir, nil
}
