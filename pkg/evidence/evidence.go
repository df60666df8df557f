// Package evidence persists an audit trail of routing decisions and
// pipeline runs as JSON bundles on disk.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/queryflow/pkg/artifact"
	"github.com/zen-systems/queryflow/pkg/pipeline"
	"github.com/zen-systems/queryflow/pkg/router"
	"github.com/zen-systems/queryflow/pkg/scoring"
)

// RunRecord captures run-level metadata for one query turn.
type RunRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Query       string    `json:"query"`
	TargetPaths []string  `json:"target_paths,omitempty"`
	Version     string    `json:"version,omitempty"`
}

// DecisionRecord captures how the router disposed of the query.
type DecisionRecord struct {
	Kind           string        `json:"kind"`
	Capability     string        `json:"capability,omitempty"`
	EffectiveQuery string        `json:"effective_query,omitempty"`
	Resumed        bool          `json:"resumed,omitempty"`
	KeywordMatch   string        `json:"keyword_match,omitempty"`
	ModeForced     bool          `json:"mode_forced,omitempty"`
	Scores         []ScoreRecord `json:"scores,omitempty"`
	Reasons        []string      `json:"reasons,omitempty"`
}

// ScoreRecord is one capability's similarity score.
type ScoreRecord struct {
	Capability string  `json:"capability"`
	Value      float64 `json:"value"`
}

// AttemptRecord captures one generate-execute attempt.
type AttemptRecord struct {
	Attempt     int    `json:"attempt"`
	ArtifactID  string `json:"artifact_id,omitempty"`
	Version     int    `json:"version,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Success     bool   `json:"success"`
	ExitCode    int    `json:"exit_code"`
	Stderr      string `json:"stderr,omitempty"`
}

// TurnRecord captures the terminal pipeline state for the turn.
type TurnRecord struct {
	FinalState   string          `json:"final_state"`
	RetryCount   int             `json:"retry_count"`
	ErrorHistory []string        `json:"error_history,omitempty"`
	Attempts     []AttemptRecord `json:"attempts,omitempty"`
	Response     string          `json:"response,omitempty"`
}

// Writer writes audit bundles under baseDir/<runID>/. Generated artifacts
// are archived content-addressed under baseDir/archive so attempt records
// can be traced back to the exact program that ran.
type Writer struct {
	baseDir string
	runDir  string
	runID   string
	store   *artifact.Store
}

// NewWriter creates a writer for a fresh run. The run ID is generated.
func NewWriter(baseDir string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	runID := uuid.NewString()
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}
	store, err := artifact.NewStore(filepath.Join(baseDir, "archive"))
	if err != nil {
		return nil, err
	}
	return &Writer{baseDir: baseDir, runDir: runDir, runID: runID, store: store}, nil
}

// RunID returns the generated run identifier.
func (w *Writer) RunID() string {
	return w.runID
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	if record.ID == "" {
		record.ID = w.runID
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteDecision writes the routing disposition to decision.json.
func (w *Writer) WriteDecision(decision *router.Decision) error {
	if decision == nil {
		return fmt.Errorf("decision is required")
	}
	return writeJSON(filepath.Join(w.runDir, "decision.json"), toDecisionRecord(decision))
}

// WriteTurn writes the terminal pipeline state to turn.json.
func (w *Writer) WriteTurn(st *pipeline.QueryState) error {
	if st == nil {
		return fmt.Errorf("query state is required")
	}
	record := TurnRecord{
		FinalState:   st.State.String(),
		RetryCount:   st.RetryCount,
		ErrorHistory: st.ErrorHistory,
		Response:     st.FinalResponse,
	}
	if st.Artifact != nil && st.ExecResult != nil {
		attempt := AttemptRecord{
			Attempt:    st.RetryCount + 1,
			ArtifactID: st.Artifact.ID,
			Version:    st.Artifact.Version,
			Success:    st.ExecResult.Success,
			ExitCode:   st.ExecResult.ExitCode,
			Stderr:     st.ExecResult.Stderr,
		}
		// Archiving failures never fail the turn record.
		if ref, err := w.store.Save(st.Artifact); err == nil {
			attempt.ContentHash = ref.SHA256
		}
		record.Attempts = append(record.Attempts, attempt)
	}
	return writeJSON(filepath.Join(w.runDir, "turn.json"), record)
}

func toDecisionRecord(d *router.Decision) DecisionRecord {
	record := DecisionRecord{
		Kind:           d.Kind.String(),
		EffectiveQuery: d.EffectiveQuery,
		Resumed:        d.Resumed,
		KeywordMatch:   d.KeywordMatch,
		ModeForced:     d.ModeForced,
		Reasons:        d.Reasons,
		Scores:         toScoreRecords(d.Scores),
	}
	if d.Capability != nil {
		record.Capability = d.Capability.Name()
	}
	return record
}

func toScoreRecords(scores []scoring.Score) []ScoreRecord {
	if len(scores) == 0 {
		return nil
	}
	records := make([]ScoreRecord, len(scores))
	for i, s := range scores {
		record := ScoreRecord{Value: s.Value}
		if s.Capability != nil {
			record.Capability = s.Capability.Name()
		}
		records[i] = record
	}
	return records
}

// Sink forwards pipeline events into the run's events.jsonl file. It
// implements pipeline.EventSink; write failures are dropped so auditing
// never affects the turn.
type Sink struct {
	path string
}

// NewSink creates an event sink appending to events.jsonl in the run dir.
func (w *Writer) NewSink() *Sink {
	return &Sink{path: filepath.Join(w.runDir, "events.jsonl")}
}

// Emit appends the event as one JSON line.
func (s *Sink) Emit(event pipeline.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	f.Write(append(data, '\n'))
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
