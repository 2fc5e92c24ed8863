package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resumator/internal/scrape"
)

const recordColumns = `id, url, platform, title, company, description, content_hash, trace, extracted_at, created_at`

// UpsertRecord stores rec, replacing any earlier extraction of the same URL.
func (db *DB) UpsertRecord(ctx context.Context, rec *scrape.JobRecord) (*StoredRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("record is required")
	}
	if rec.URL == "" {
		return nil, fmt.Errorf("record URL is required")
	}

	trace := rec.Trace
	if trace == nil {
		trace = []string{}
	}
	traceJSON, err := json.Marshal(trace)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trace: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO job_records (url, platform, title, company, description, content_hash, trace, extracted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     platform = $2,
		     title = $3,
		     company = $4,
		     description = $5,
		     content_hash = $6,
		     trace = $7,
		     extracted_at = NOW()
		 RETURNING `+recordColumns,
		rec.URL, string(rec.Platform), rec.Title, rec.Company, rec.Description,
		rec.ContentHash(), traceJSON,
	)
	stored, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert record: %w", err)
	}
	return stored, nil
}

// GetRecordByURL returns the stored record for url, or nil if there is none.
func (db *DB) GetRecordByURL(ctx context.Context, url string) (*StoredRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM job_records WHERE url = $1`, url)
	stored, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return stored, nil
}

// ListRecords returns stored records, newest extraction first.
func (db *DB) ListRecords(ctx context.Context, opts ListOptions) ([]StoredRecord, error) {
	opts = opts.normalized()

	var platform *string
	if opts.Platform != "" {
		p := string(opts.Platform)
		platform = &p
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM job_records
		 WHERE ($1::text IS NULL OR platform = $1)
		 ORDER BY extracted_at DESC
		 LIMIT $2 OFFSET $3`,
		platform, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []StoredRecord{}
	for rows.Next() {
		stored, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes the record for url. It reports whether a row was deleted.
func (db *DB) DeleteRecord(ctx context.Context, url string) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM job_records WHERE url = $1`, url)
	if err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanRecord(row pgx.Row) (*StoredRecord, error) {
	var r StoredRecord
	var platform string
	var traceJSON []byte
	if err := row.Scan(&r.ID, &r.URL, &platform, &r.Title, &r.Company, &r.Description,
		&r.ContentHash, &traceJSON, &r.ExtractedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Platform = scrape.Platform(platform)
	if traceJSON != nil {
		_ = json.Unmarshal(traceJSON, &r.Trace)
	}
	return &r, nil
}
