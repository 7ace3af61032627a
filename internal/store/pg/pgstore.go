package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"labvault.app/internal/reports"
)

// Store implements reports.Store on PostgreSQL. Parameters live in a JSONB
// column; they are always written and read as a unit with their report.
type Store struct {
	db *sql.DB
}

var _ reports.Store = (*Store)(nil)

// Open connects to Postgres with pool defaults tuned for the API workload.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing database handle (tests use sqlmock through here).
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Create(ctx context.Context, r *reports.Report) error {
	params, err := json.Marshal(r.Parameters)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into reports(id, user_id, report_date, original_file_name, file_type,
			file_url, file_public_id, processing_status, lab_name, parameters)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, r.ID, r.UserID, r.ReportDate, r.OriginalFileName, r.FileType,
		r.FileURL, r.FilePublicID, string(r.ProcessingStatus), nullable(r.LabName), params)
	return err
}

func (s *Store) Find(ctx context.Context, id string) (*reports.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, user_id, report_date, original_file_name, file_type, file_url,
			file_public_id, processing_status, lab_name, parameters, created_at
		from reports where id=$1
	`, id)
	return scanReport(row)
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]*reports.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, report_date, original_file_name, file_type, file_url,
			file_public_id, processing_status, lab_name, parameters, created_at
		from reports where user_id=$1 order by created_at desc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*reports.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SetResults(ctx context.Context, id string, labName string, reportDate time.Time, params []reports.Parameter) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		update reports
		set processing_status=$2, lab_name=$3, report_date=$4, parameters=$5, updated_at=now()
		where id=$1
	`, id, string(reports.StatusCompleted), nullable(labName), reportDate, payload)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SetStatus(ctx context.Context, id string, status reports.ProcessingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`update reports set processing_status=$2, updated_at=now() where id=$1`,
		id, string(status))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from reports where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*reports.Report, error) {
	var (
		r       reports.Report
		status  string
		labName sql.NullString
		params  []byte
	)
	err := row.Scan(&r.ID, &r.UserID, &r.ReportDate, &r.OriginalFileName, &r.FileType,
		&r.FileURL, &r.FilePublicID, &status, &labName, &params, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.ProcessingStatus = reports.ProcessingStatus(status)
	r.LabName = labName.String
	r.Parameters = []reports.Parameter{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &r.Parameters); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return reports.ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
