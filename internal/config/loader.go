package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/bidsflow/bidsflow/internal/bids"
	"github.com/bidsflow/bidsflow/internal/models"
)

// LoadFromPath loads a dataset configuration from a local filesystem path.
func LoadFromPath(path string) (*models.GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return parse(data)
}

// LoadFromURL loads a dataset configuration from a remote URL.
func LoadFromURL(ctx context.Context, url string) (*models.GlobalConfig, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*models.GlobalConfig, error) {
	var cfg models.GlobalConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config JSON: %w", err)
	}

	// Sessions are inferred from visits when not given.
	if len(cfg.Sessions) == 0 {
		for _, visit := range cfg.Visits {
			cfg.Sessions = append(cfg.Sessions, bids.SessionToBids(visit))
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural invariants of a loaded configuration.
func Validate(cfg *models.GlobalConfig) error {
	if cfg.DatasetName == "" {
		return &models.SchemaError{Field: "DATASET_NAME", Reason: "must not be empty"}
	}

	if err := checkLabels("SESSIONS", cfg.Sessions); err != nil {
		return err
	}
	if err := checkLabels("VISITS", cfg.Visits); err != nil {
		return err
	}

	for _, coll := range []struct {
		field     string
		pipelines models.Pipelines
	}{
		{"BIDS", cfg.Bids},
		{"PROC_PIPELINES", cfg.ProcPipelines},
		{"TABULAR", cfg.Tabular},
	} {
		for name, versions := range coll.pipelines {
			if name == "" {
				return &models.SchemaError{
					Field:  coll.field,
					Reason: "pipeline name must not be empty",
				}
			}
			if len(versions) == 0 {
				return &models.SchemaError{
					Field:  fmt.Sprintf("%s.%s", coll.field, name),
					Reason: "no versions given",
				}
			}
			for version := range versions {
				if version == "" {
					return &models.SchemaError{
						Field:  fmt.Sprintf("%s.%s", coll.field, name),
						Reason: "version must not be empty",
					}
				}
			}
		}
	}

	return nil
}

func checkLabels(field string, labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for i, label := range labels {
		if label == "" {
			return &models.SchemaError{
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Reason: "label must not be empty",
			}
		}
		if _, ok := seen[label]; ok {
			return &models.SchemaError{
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Reason: fmt.Sprintf("duplicate label %q", label),
			}
		}
		seen[label] = struct{}{}
	}
	return nil
}
