package deployreg

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/GontrandL/autoweave-agents/pkg/bridge"
)

const schema = `
CREATE TABLE IF NOT EXISTS deployments (
	agent_id   TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	workflow   TEXT NOT NULL,
	metadata   TEXT NOT NULL,
	manifests  TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	seq        INTEGER NOT NULL
);
`

// Store persists deployment records in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the registry database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping registry database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts one record.
func (s *Store) Save(rec *Record) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	manifests, err := json.Marshal(rec.Manifests)
	if err != nil {
		return fmt.Errorf("failed to encode manifests: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO deployments (agent_id, run_id, workflow, metadata, manifests, status, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			run_id = excluded.run_id,
			workflow = excluded.workflow,
			metadata = excluded.metadata,
			manifests = excluded.manifests,
			status = excluded.status`,
		rec.AgentID, rec.RunID, rec.Workflow, string(metadata), string(manifests),
		string(rec.Status), rec.CreatedAt.Format(time.RFC3339Nano), agentSeq(rec.AgentID))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", rec.AgentID, err)
	}
	return nil
}

// Delete removes one record by agent ID.
func (s *Store) Delete(agentID string) error {
	if _, err := s.db.Exec(`DELETE FROM deployments WHERE agent_id = ?`, agentID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", agentID, err)
	}
	return nil
}

// LoadAll returns all persisted records in insertion order, plus the next
// agent ID counter value.
func (s *Store) LoadAll() ([]Record, int, error) {
	rows, err := s.db.Query(`
		SELECT agent_id, run_id, workflow, metadata, manifests, status, created_at, seq
		FROM deployments ORDER BY seq ASC`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query deployments: %w", err)
	}
	defer rows.Close()

	var (
		records []Record
		maxSeq  int
	)
	for rows.Next() {
		var (
			rec                 Record
			metadata, manifests string
			status, createdAt   string
			seq                 int
		)
		if err := rows.Scan(&rec.AgentID, &rec.RunID, &rec.Workflow,
			&metadata, &manifests, &status, &createdAt, &seq); err != nil {
			return nil, 0, fmt.Errorf("failed to scan deployment row: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
			return nil, 0, fmt.Errorf("failed to decode metadata for %s: %w", rec.AgentID, err)
		}
		var set bridge.ManifestSet
		if err := json.Unmarshal([]byte(manifests), &set); err != nil {
			return nil, 0, fmt.Errorf("failed to decode manifests for %s: %w", rec.AgentID, err)
		}
		rec.Manifests = set
		rec.Status = Status(status)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		if seq > maxSeq {
			maxSeq = seq
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read deployments: %w", err)
	}
	return records, maxSeq + 1, nil
}

// agentSeq extracts the numeric counter from an "agent-<n>" ID.
func agentSeq(agentID string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(agentID, "agent-"))
	if err != nil {
		return 0
	}
	return n
}
