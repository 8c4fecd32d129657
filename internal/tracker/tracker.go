// Package tracker verifies pipeline completion by globbing for the output
// files each pipeline stage is expected to produce.
package tracker

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bidsflow/bidsflow/internal/bids"
	"github.com/bidsflow/bidsflow/internal/layout"
	"github.com/bidsflow/bidsflow/internal/models"
	"github.com/bidsflow/bidsflow/internal/resolver"
)

// Status is the completion state for one tracker label.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFail    Status = "FAIL"
)

// Record is the tracking result for one participant/session.
type Record struct {
	ParticipantID   string
	BidsID          string
	Session         string
	PipelineName    string
	PipelineVersion string
	Statuses        map[string]Status
}

// Tracker checks pipeline completion for a set of participants and
// sessions.
type Tracker struct {
	Config      *models.GlobalConfig
	Layout      layout.Layout
	Kind        models.PipelineKind
	Pipeline    string
	Version     string
	Stage       string
	ExtraVars   map[string]string
	Concurrency int
}

// Run resolves the stage's tracker patterns per (participant, session) and
// checks them against the pipeline output directory. Results are sorted by
// participant then session.
func (t *Tracker) Run(ctx context.Context, participants, sessions []string) ([]Record, error) {
	stageCfg, err := resolver.LookupStage(t.Config, t.Kind, t.Pipeline, t.Version, t.Stage)
	if err != nil {
		return nil, err
	}
	if len(stageCfg.TrackerConfig) == 0 {
		return nil, &models.SchemaError{
			Field:  "TRACKER_CONFIG",
			Reason: fmt.Sprintf("no tracker config for pipeline %s %s", t.Pipeline, t.Version),
		}
	}

	outputDir := t.Layout.PipelineOutput(t.Pipeline, t.Version)

	slog.Debug("running tracker",
		"pipeline", t.Pipeline,
		"version", t.Version,
		"participants", len(participants),
		"sessions", len(sessions),
		"output_dir", outputDir)

	var records []Record
	var recordsMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	concurrency := t.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for _, participant := range participants {
		for _, session := range sessions {
			participant, session := participant, session
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				record, err := t.checkOne(stageCfg.TrackerConfig, outputDir, participant, session)
				if err != nil {
					return err
				}

				recordsMu.Lock()
				records = append(records, record)
				recordsMu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].ParticipantID != records[j].ParticipantID {
			return records[i].ParticipantID < records[j].ParticipantID
		}
		return records[i].Session < records[j].Session
	})
	return records, nil
}

func (t *Tracker) checkOne(trackerCfg models.TrackerConfig, outputDir, participant, session string) (Record, error) {
	runCtx := resolver.Context{
		BidsID:      bids.ParticipantToBidsID(participant),
		Session:     bids.SessionToBids(session),
		DatasetRoot: t.Layout.Root,
		Layout:      &t.Layout,
		Extra:       t.ExtraVars,
	}

	resolved, err := resolver.ResolveTracker(trackerCfg, runCtx)
	if err != nil {
		return Record{}, err
	}

	statuses := make(map[string]Status, len(resolved))
	for label, patterns := range resolved {
		statuses[label] = checkPatterns(outputDir, patterns)
	}

	slog.Debug("checked completion",
		"bids_id", runCtx.BidsID,
		"session", runCtx.Session,
		"statuses", statuses)

	return Record{
		ParticipantID:   participant,
		BidsID:          runCtx.BidsID,
		Session:         runCtx.Session,
		PipelineName:    t.Pipeline,
		PipelineVersion: t.Version,
		Statuses:        statuses,
	}, nil
}

// checkPatterns succeeds only if every pattern matches at least one path
// under the output directory.
func checkPatterns(outputDir string, patterns []string) Status {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(outputDir, pattern))
		if err != nil || len(matches) == 0 {
			return StatusFail
		}
	}
	return StatusSuccess
}

// WriteCSV writes tracking records as a status table. Tracker labels become
// columns, sorted, with the union of labels across records.
func WriteCSV(w io.Writer, records []Record) error {
	labelSet := make(map[string]struct{})
	for _, record := range records {
		for label := range record.Statuses {
			labelSet[label] = struct{}{}
		}
	}
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	cw := csv.NewWriter(w)
	header := append([]string{
		"participant_id",
		"bids_id",
		"session",
		"pipeline_name",
		"pipeline_version",
	}, labels...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing status table header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.ParticipantID,
			record.BidsID,
			record.Session,
			record.PipelineName,
			record.PipelineVersion,
		}
		for _, label := range labels {
			status, ok := record.Statuses[label]
			if !ok {
				status = StatusFail
			}
			row = append(row, string(status))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing status table row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
