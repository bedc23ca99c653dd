package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robertmeta/vidcat/model"
)

// SaveDataset stores records under name, replacing any dataset with the
// same name. Record order is kept.
func (s *Store) SaveDataset(ctx context.Context, name, source string, records []model.RawRecord) (*model.Dataset, error) {
	if name == "" {
		return nil, errors.New("dataset name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	createdAt := now

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id, created_at FROM datasets WHERE name = ?", name).Scan(&id, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		result, err := tx.ExecContext(ctx,
			"INSERT INTO datasets (name, source, created_at, updated_at) VALUES (?, ?, ?, ?)",
			name, source, now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert dataset: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to get last insert ID: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up dataset: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			"UPDATE datasets SET source = ?, updated_at = ? WHERE id = ?", source, now, id,
		); err != nil {
			return nil, fmt.Errorf("failed to update dataset: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM videos WHERE dataset_id = ?", id); err != nil {
			return nil, fmt.Errorf("failed to clear dataset: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO videos (dataset_id, position, origin, video_id, title, channel, duration, views, likes, thumbnail, is_short)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			id, i, string(r.Origin), r.ID, r.Title, r.Channel, r.Duration, r.Views, r.Likes, r.Thumbnail, boolToInt(r.Short),
		); err != nil {
			return nil, fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &model.Dataset{
		ID:        id,
		Name:      name,
		Source:    source,
		Records:   len(records),
		CreatedAt: parseTime(createdAt),
		UpdatedAt: parseTime(now),
	}, nil
}

// LoadDataset returns the records of a dataset in stored order.
func (s *Store) LoadDataset(ctx context.Context, name string) ([]model.RawRecord, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM datasets WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT origin, video_id, title, channel, duration, views, likes, thumbnail, is_short
		 FROM videos WHERE dataset_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []model.RawRecord{}
	for rows.Next() {
		var (
			r      model.RawRecord
			origin string
			short  int
		)
		if err := rows.Scan(&origin, &r.ID, &r.Title, &r.Channel, &r.Duration, &r.Views, &r.Likes, &r.Thumbnail, &short); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Origin = model.Origin(origin)
		r.Short = short != 0
		records = append(records, r)
	}

	return records, rows.Err()
}

// ListDatasets returns all datasets with their record counts, by name.
func (s *Store) ListDatasets(ctx context.Context) ([]*model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.name, d.source, d.created_at, d.updated_at, COUNT(v.position)
		 FROM datasets d LEFT JOIN videos v ON v.dataset_id = d.id
		 GROUP BY d.id ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []*model.Dataset{}
	for rows.Next() {
		var (
			d                    model.Dataset
			createdAt, updatedAt string
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Source, &createdAt, &updatedAt, &d.Records); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		d.CreatedAt = parseTime(createdAt)
		d.UpdatedAt = parseTime(updatedAt)
		datasets = append(datasets, &d)
	}

	return datasets, rows.Err()
}

// DeleteDataset removes a dataset and its records.
func (s *Store) DeleteDataset(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM videos WHERE dataset_id = (SELECT id FROM datasets WHERE name = ?)", name,
	); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM datasets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if err := expectOne(result); err != nil {
		return fmt.Errorf("dataset %q: %w", name, err)
	}

	return tx.Commit()
}

// DatasetSource serves a stored dataset as a single static batch.
type DatasetSource struct {
	store *Store
	name  string
}

// Dataset returns a source over the named dataset.
func (s *Store) Dataset(name string) *DatasetSource {
	return &DatasetSource{store: s, name: name}
}

// Fetch returns every record of the dataset. The token is ignored.
func (d *DatasetSource) Fetch(ctx context.Context, _ string) (model.Batch, error) {
	records, err := d.store.LoadDataset(ctx, d.name)
	if err != nil {
		return model.Batch{}, err
	}
	return model.Batch{Records: records}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
