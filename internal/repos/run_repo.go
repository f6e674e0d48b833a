package repos

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pedalhouse/internal/domain"
)

type RunRepo struct{ db *sqlx.DB }

func NewRunRepo(db *sqlx.DB) *RunRepo { return &RunRepo{db: db} }

func (r *RunRepo) Start(kind string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(`
	  INSERT INTO sync_runs(id, kind, status, started_at)
	  VALUES(?, ?, 'running', ?)
	`, id, kind, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *RunRepo) Finish(id, status string, total, succeeded, failed int, errMsg string) error {
	_, err := r.db.Exec(`
	  UPDATE sync_runs
	  SET status = ?, total = ?, succeeded = ?, failed = ?, error = ?, finished_at = ?
	  WHERE id = ?
	`, status, total, succeeded, failed, errMsg, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *RunRepo) Recent(limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.SyncRun
	err := r.db.Select(&out, `
	  SELECT id, kind, status, total, succeeded, failed, error,
	         COALESCE(started_at,'') AS started_at, finished_at
	  FROM sync_runs
	  ORDER BY started_at DESC
	  LIMIT ?
	`, limit)
	return out, err
}
