package papers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

const paperColumns = `
id, title, authors, abstract_text, full_text, doi, published_date,
source_url, storage_key, file_size, file_type, uploaded_at, processed_at, status, properties`

// Create inserts a new paper with its metadata snapshot.
func (r *PGRepo) Create(ctx context.Context, paper Paper) error {
	const query = `
INSERT INTO papers (
    id,
    title,
    authors,
    abstract_text,
    full_text,
    doi,
    published_date,
    source_url,
    storage_key,
    file_size,
    file_type,
    uploaded_at,
    processed_at,
    status,
    properties
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	authors, err := json.Marshal(paper.Authors)
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}
	props, err := marshalProps(paper.Metadata.Properties)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		paper.ID.String(),
		paper.Title,
		authors,
		nullString(paper.Abstract),
		nullString(paper.FullText),
		nullString(paper.DOI),
		nullTime(paper.PublishedDate),
		nullString(paper.Metadata.SourceURL),
		nullString(paper.Metadata.StorageKey),
		paper.Metadata.FileSize,
		paper.Metadata.FileType,
		paper.Metadata.UploadedAt,
		nullTime(paper.Metadata.ProcessedAt),
		string(paper.Metadata.Status),
		props,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("doi %q: %w", paper.DOI, ErrDuplicateDOI)
	}
	return err
}

// GetByID fetches a paper by id.
func (r *PGRepo) GetByID(ctx context.Context, id PaperID) (Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers WHERE id = $1`
	paper, err := scanPaper(r.DB.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Paper{}, ErrNotFound
		}
		return Paper{}, err
	}
	return paper, nil
}

// GetByDOI fetches a paper by DOI. Absence is reported via the bool, not an error.
func (r *PGRepo) GetByDOI(ctx context.Context, doi string) (Paper, bool, error) {
	if doi == "" {
		return Paper{}, false, nil
	}
	query := `SELECT ` + paperColumns + ` FROM papers WHERE doi = $1 LIMIT 1`
	paper, err := scanPaper(r.DB.QueryRowContext(ctx, query, doi))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Paper{}, false, nil
		}
		return Paper{}, false, err
	}
	return paper, true, nil
}

// ExistsByID reports whether a paper with this id is recorded.
func (r *PGRepo) ExistsByID(ctx context.Context, id PaperID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM papers WHERE id = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, id.String()).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ExistsByDOI reports whether a paper with this DOI is recorded.
func (r *PGRepo) ExistsByDOI(ctx context.Context, doi string) (bool, error) {
	if doi == "" {
		return false, nil
	}
	const query = `SELECT EXISTS (SELECT 1 FROM papers WHERE doi = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, doi).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ClaimForAnalysis performs the PENDING -> PROCESSING transition as a single
// conditional update, so exactly one of any number of concurrent callers wins
// even across service replicas.
func (r *PGRepo) ClaimForAnalysis(ctx context.Context, id PaperID) (bool, error) {
	const query = `
UPDATE papers
SET status = $1, processed_at = $2
WHERE id = $3 AND status = $4`
	res, err := r.DB.ExecContext(ctx, query, string(StatusProcessing), time.Now().UTC(), id.String(), string(StatusPending))
	if err != nil {
		return false, err
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if claimed == 0 {
		exists, err := r.ExistsByID(ctx, id)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

// CompleteAnalysis moves a PROCESSING paper to COMPLETED and stores the
// extracted full text.
func (r *PGRepo) CompleteAnalysis(ctx context.Context, id PaperID, fullText string, processedAt time.Time) error {
	const query = `
UPDATE papers
SET status = $1, full_text = $2, processed_at = $3
WHERE id = $4 AND status = $5`
	res, err := r.DB.ExecContext(ctx, query, string(StatusCompleted), nullString(fullText), processedAt, id.String(), string(StatusProcessing))
	if err != nil {
		return err
	}
	return checkFinished(res, id)
}

// FailAnalysis moves a PROCESSING paper to FAILED.
func (r *PGRepo) FailAnalysis(ctx context.Context, id PaperID, processedAt time.Time) error {
	const query = `
UPDATE papers
SET status = $1, processed_at = $2
WHERE id = $3 AND status = $4`
	res, err := r.DB.ExecContext(ctx, query, string(StatusFailed), processedAt, id.String(), string(StatusProcessing))
	if err != nil {
		return err
	}
	return checkFinished(res, id)
}

// checkFinished verifies a terminal-status update actually touched the row.
// Zero rows means the paper was no longer PROCESSING when the update ran.
func checkFinished(res sql.Result, id PaperID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("paper %s: %w", id, ErrNotProcessing)
	}
	return nil
}

// ListPending returns ids of papers awaiting analysis, oldest upload first.
func (r *PGRepo) ListPending(ctx context.Context, limit int) ([]PaperID, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
SELECT id FROM papers
WHERE status = $1
ORDER BY uploaded_at ASC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, string(StatusPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []PaperID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := ParsePaperID(raw)
		if err != nil {
			return nil, fmt.Errorf("bad paper id %q in papers table", raw)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FailStaleProcessing fails papers stuck in PROCESSING since before deadline.
func (r *PGRepo) FailStaleProcessing(ctx context.Context, deadline time.Time) (int, error) {
	const query = `
UPDATE papers
SET status = $1
WHERE status = $2 AND processed_at < $3`
	res, err := r.DB.ExecContext(ctx, query, string(StatusFailed), string(StatusProcessing), deadline)
	if err != nil {
		return 0, err
	}
	changed, err := res.RowsAffected()
	return int(changed), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (Paper, error) {
	var (
		rawID         string
		paper         Paper
		authors       []byte
		abstract      sql.NullString
		fullText      sql.NullString
		doi           sql.NullString
		publishedDate sql.NullTime
		sourceURL     sql.NullString
		storageKey    sql.NullString
		processedAt   sql.NullTime
		status        string
		props         []byte
	)
	err := row.Scan(
		&rawID,
		&paper.Title,
		&authors,
		&abstract,
		&fullText,
		&doi,
		&publishedDate,
		&sourceURL,
		&storageKey,
		&paper.Metadata.FileSize,
		&paper.Metadata.FileType,
		&paper.Metadata.UploadedAt,
		&processedAt,
		&status,
		&props,
	)
	if err != nil {
		return Paper{}, err
	}

	id, err := ParsePaperID(rawID)
	if err != nil {
		return Paper{}, fmt.Errorf("bad paper id %q in papers table", rawID)
	}
	paper.ID = id

	if err := json.Unmarshal(authors, &paper.Authors); err != nil {
		return Paper{}, fmt.Errorf("unmarshal authors: %w", err)
	}
	if abstract.Valid {
		paper.Abstract = abstract.String
	}
	if fullText.Valid {
		paper.FullText = fullText.String
	}
	if doi.Valid {
		paper.DOI = doi.String
	}
	if publishedDate.Valid {
		t := publishedDate.Time
		paper.PublishedDate = &t
	}
	if sourceURL.Valid {
		paper.Metadata.SourceURL = sourceURL.String
	}
	if storageKey.Valid {
		paper.Metadata.StorageKey = storageKey.String
	}
	if processedAt.Valid {
		t := processedAt.Time
		paper.Metadata.ProcessedAt = &t
	}
	paper.Metadata.Status = ProcessingStatus(status)
	if len(props) > 0 {
		if err := json.Unmarshal(props, &paper.Metadata.Properties); err != nil {
			return Paper{}, fmt.Errorf("unmarshal properties: %w", err)
		}
	}
	return paper, nil
}

func marshalProps(props map[string]string) ([]byte, error) {
	if len(props) == 0 {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	return data, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
