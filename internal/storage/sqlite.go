package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mpataki/agentprobe/internal/models"
	_ "modernc.org/sqlite"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP,
		agent_name TEXT NOT NULL,
		target_org TEXT NOT NULL,
		spec_path TEXT,
		test_api_name TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		passed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS case_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		name TEXT,
		utterance TEXT,
		expected_topic TEXT,
		actual_topic TEXT,
		expected_actions TEXT,
		actual_actions TEXT,
		outcome TEXT NOT NULL,
		message TEXT,
		UNIQUE(run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_case_results_run ON case_results(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Storage) CreateRun(run *models.TestRun) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (agent_name, target_org, spec_path, test_api_name, status, passed, failed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.AgentName, run.TargetOrg, run.SpecPath, run.TestAPIName, run.Status, run.Passed, run.Failed, run.Error,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Storage) GetRun(id int64) (*models.TestRun, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, completed_at, agent_name, target_org, spec_path, test_api_name, status, passed, failed, error
		 FROM runs WHERE id = ?`, id,
	)
	return scanRun(row.Scan)
}

func (s *Storage) UpdateRun(run *models.TestRun) error {
	_, err := s.db.Exec(
		`UPDATE runs SET completed_at = ?, spec_path = ?, test_api_name = ?, status = ?, passed = ?, failed = ?, error = ? WHERE id = ?`,
		run.CompletedAt, run.SpecPath, run.TestAPIName, run.Status, run.Passed, run.Failed, run.Error, run.ID,
	)
	return err
}

func (s *Storage) ListRuns(limit int) ([]*models.TestRun, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, completed_at, agent_name, target_org, spec_path, test_api_name, status, passed, failed, error
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.TestRun
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func scanRun(scan func(...any) error) (*models.TestRun, error) {
	var run models.TestRun
	var completedAt sql.NullTime
	var specPath, testAPIName, runErr sql.NullString

	err := scan(
		&run.ID, &run.CreatedAt, &completedAt, &run.AgentName, &run.TargetOrg,
		&specPath, &testAPIName, &run.Status, &run.Passed, &run.Failed, &runErr,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if specPath.Valid {
		run.SpecPath = specPath.String
	}
	if testAPIName.Valid {
		run.TestAPIName = testAPIName.String
	}
	if runErr.Valid {
		run.Error = runErr.String
	}

	return &run, nil
}

// ReplaceCaseResults swaps the stored per-case rows for a run in one
// transaction, so a re-run never leaves a mix of old and new cases.
func (s *Storage) ReplaceCaseResults(runID int64, cases []models.CaseRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM case_results WHERE run_id = ?`, runID); err != nil {
		return err
	}

	for i, c := range cases {
		expected, err := marshalActions(c.ExpectedActions)
		if err != nil {
			return err
		}
		actual, err := marshalActions(c.ActualActions)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO case_results (run_id, seq, name, utterance, expected_topic, actual_topic, expected_actions, actual_actions, outcome, message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i+1, c.Name, c.Utterance, c.ExpectedTopic, c.ActualTopic, expected, actual, c.Outcome, c.Message,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Storage) GetCaseResultsForRun(runID int64) ([]models.CaseRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, seq, name, utterance, expected_topic, actual_topic, expected_actions, actual_actions, outcome, message
		 FROM case_results WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []models.CaseRecord
	for rows.Next() {
		var c models.CaseRecord
		var name, utterance, expectedTopic, actualTopic, expected, actual, message sql.NullString

		err := rows.Scan(
			&c.ID, &c.RunID, &c.Seq, &name, &utterance, &expectedTopic,
			&actualTopic, &expected, &actual, &c.Outcome, &message,
		)
		if err != nil {
			return nil, err
		}

		c.Name = name.String
		c.Utterance = utterance.String
		c.ExpectedTopic = expectedTopic.String
		c.ActualTopic = actualTopic.String
		c.Message = message.String
		if expected.Valid {
			c.ExpectedActions = unmarshalActions(expected.String)
		}
		if actual.Valid {
			c.ActualActions = unmarshalActions(actual.String)
		}

		cases = append(cases, c)
	}

	return cases, rows.Err()
}

func (s *Storage) DeleteRun(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM case_results WHERE run_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func marshalActions(actions []string) (string, error) {
	if actions == nil {
		actions = []string{}
	}
	data, err := json.Marshal(actions)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalActions(data string) []string {
	var out []string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil
	}
	return out
}

// FormatTimeAgo renders a timestamp relative to now for list output.
func FormatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
