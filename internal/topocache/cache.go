// Package topocache keeps solver working graphs in a SQLite database so the
// intersection can be recomputed without refetching large solver
// descriptions.
package topocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/anneal-bench/anneal-bench/spinglass/compare"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// Cache is a compare.TopologyProvider that serves stored topologies younger
// than its TTL and falls through to the wrapped provider otherwise.
type Cache struct {
	db   *sql.DB
	next compare.TopologyProvider
	ttl  time.Duration
	now  func() time.Time
}

// Open opens or creates the cache database at path.
func Open(path string, next compare.TopologyProvider, ttl time.Duration) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening topology cache: %w", err)
	}
	c := &Cache{db: db, next: next, ttl: ttl, now: time.Now}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS topologies (
			solver TEXT PRIMARY KEY,
			family TEXT NOT NULL,
			shape TEXT NOT NULL,
			num_qubits INTEGER NOT NULL,
			qubits TEXT NOT NULL,
			couplers TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Topology implements compare.TopologyProvider.
func (c *Cache) Topology(ctx context.Context, solver string) (*topology.Hardware, error) {
	hw, fetched, err := c.load(ctx, solver)
	if err != nil {
		logrus.WithError(err).WithField("solver", solver).Warn("ignoring unreadable topology cache entry")
	}
	if hw != nil && c.now().Sub(fetched) < c.ttl {
		logrus.WithField("solver", solver).Debug("topology cache hit")
		return hw, nil
	}

	hw, err = c.next.Topology(ctx, solver)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, hw); err != nil {
		logrus.WithError(err).WithField("solver", solver).Warn("could not cache topology")
	}
	return hw, nil
}

// Purge removes every cached topology.
func (c *Cache) Purge(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM topologies`); err != nil {
		return fmt.Errorf("purging topology cache: %w", err)
	}
	return nil
}

func (c *Cache) load(ctx context.Context, solver string) (*topology.Hardware, time.Time, error) {
	var family, shape, qubits, couplers, fetchedAt string
	var numQubits int
	err := c.db.QueryRowContext(ctx,
		`SELECT family, shape, num_qubits, qubits, couplers, fetched_at FROM topologies WHERE solver = ?`,
		solver,
	).Scan(&family, &shape, &numQubits, &qubits, &couplers, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("querying topology: %w", err)
	}

	fetched, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing fetched_at: %w", err)
	}
	hw := &topology.Hardware{Solver: solver, Family: topology.Family(family), NumQubits: numQubits}
	var nodes []int
	var edges []topology.Edge
	if err := json.Unmarshal([]byte(shape), &hw.Shape); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing shape: %w", err)
	}
	if err := json.Unmarshal([]byte(qubits), &nodes); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing qubits: %w", err)
	}
	if err := json.Unmarshal([]byte(couplers), &edges); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing couplers: %w", err)
	}
	hw.Graph = topology.NewGraph(nodes, edges)
	return hw, fetched, nil
}

func (c *Cache) store(ctx context.Context, hw *topology.Hardware) error {
	shape, err := json.Marshal(hw.Shape)
	if err != nil {
		return err
	}
	qubits, err := json.Marshal(hw.Graph.Nodes())
	if err != nil {
		return err
	}
	couplers, err := json.Marshal(hw.Graph.Edges())
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO topologies (solver, family, shape, num_qubits, qubits, couplers, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(solver) DO UPDATE SET
			family = excluded.family,
			shape = excluded.shape,
			num_qubits = excluded.num_qubits,
			qubits = excluded.qubits,
			couplers = excluded.couplers,
			fetched_at = excluded.fetched_at`,
		hw.Solver, string(hw.Family), string(shape), hw.NumQubits, string(qubits), string(couplers),
		c.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storing topology for %s: %w", hw.Solver, err)
	}
	return nil
}
