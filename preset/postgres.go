package preset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS presets (
	user_id  TEXT NOT NULL,
	section  TEXT NOT NULL,
	name     TEXT NOT NULL,
	value    JSONB NOT NULL,
	position BIGSERIAL,
	PRIMARY KEY (user_id, section, name)
);
CREATE TABLE IF NOT EXISTS selected_presets (
	user_id TEXT NOT NULL,
	section TEXT NOT NULL,
	name    TEXT NOT NULL,
	PRIMARY KEY (user_id, section)
);`

// PostgresStore keeps presets in Postgres. Order is insertion order; an
// upsert of an existing name keeps its original position.
type PostgresStore struct {
	DB *sql.DB
}

var _ Store = (*PostgresStore)(nil)
var _ SelectionMemory = (*PostgresStore)(nil)

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error open connecting: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

// Migrate creates the tables if they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate presets schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

func (s *PostgresStore) List(ctx context.Context, userID string, section Section) ([]Preset, error) {
	if err := checkScope(userID, section); err != nil {
		return nil, err
	}
	query := `SELECT name, value FROM presets WHERE user_id = $1 AND section = $2 ORDER BY position`
	rows, err := s.DB.QueryContext(ctx, query, userID, string(section))
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	presets := []Preset{}
	for rows.Next() {
		var p Preset
		var raw []byte
		if err := rows.Scan(&p.Name, &raw); err != nil {
			return nil, unavailable(err)
		}
		if err := json.Unmarshal(raw, &p.Value); err != nil {
			return nil, unavailable(err)
		}
		if p.Value == nil {
			p.Value = []Record{}
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return presets, nil
}

func (s *PostgresStore) Save(ctx context.Context, userID string, section Section, p Preset) error {
	if err := checkScope(userID, section); err != nil {
		return err
	}
	if err := Validate(p); err != nil {
		return err
	}
	raw, err := json.Marshal(CloneRecords(p.Value))
	if err != nil {
		return err
	}
	query := `INSERT INTO presets (user_id, section, name, value) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, section, name) DO UPDATE SET value = EXCLUDED.value`
	if _, err := s.DB.ExecContext(ctx, query, userID, string(section), p.Name, raw); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string, section Section, name string) error {
	if err := checkScope(userID, section); err != nil {
		return err
	}
	query := `DELETE FROM presets WHERE user_id = $1 AND section = $2 AND name = $3`
	res, err := s.DB.ExecContext(ctx, query, userID, string(section), name)
	if err != nil {
		return unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Remember(ctx context.Context, userID string, section Section, name string) error {
	if err := checkScope(userID, section); err != nil {
		return err
	}
	var err error
	if name == "" {
		_, err = s.DB.ExecContext(ctx,
			`DELETE FROM selected_presets WHERE user_id = $1 AND section = $2`,
			userID, string(section))
	} else {
		_, err = s.DB.ExecContext(ctx,
			`INSERT INTO selected_presets (user_id, section, name) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, section) DO UPDATE SET name = EXCLUDED.name`,
			userID, string(section), name)
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *PostgresStore) Remembered(ctx context.Context, userID string, section Section) (string, error) {
	if err := checkScope(userID, section); err != nil {
		return "", err
	}
	var name string
	err := s.DB.QueryRowContext(ctx,
		`SELECT name FROM selected_presets WHERE user_id = $1 AND section = $2`,
		userID, string(section)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", unavailable(err)
	}
	return name, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
}
