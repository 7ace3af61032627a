package pg

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"labvault.app/internal/reports"
)

func TestCreateSerializesParameters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into reports").
		WithArgs("rep-1", "user-1", sqlmock.AnyArg(), "cbc.pdf", "pdf",
			"https://media.test/cbc.pdf", "media-1", "PROCESSING", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := New(db)
	err = store.Create(context.Background(), &reports.Report{
		ID:               "rep-1",
		UserID:           "user-1",
		ReportDate:       time.Now().UTC(),
		OriginalFileName: "cbc.pdf",
		FileType:         "pdf",
		FileURL:          "https://media.test/cbc.pdf",
		FilePublicID:     "media-1",
		ProcessingStatus: reports.StatusProcessing,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindDeserializesParameters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	params, _ := json.Marshal([]reports.Parameter{
		{ID: "p1", Name: "Hemoglobin", Value: "13.2", Status: reports.ParameterNormal, RiskLevel: reports.RiskLow},
	})
	now := time.Now().UTC()
	mock.ExpectQuery("select id, user_id, report_date, .* from reports where id=").
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "report_date", "original_file_name", "file_type", "file_url",
			"file_public_id", "processing_status", "lab_name", "parameters", "created_at",
		}).AddRow("rep-1", "user-1", now, "cbc.pdf", "pdf", "https://media.test/cbc.pdf",
			"media-1", "COMPLETED", "City Lab", params, now))

	store := New(db)
	report, err := store.Find(context.Background(), "rep-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if report.ProcessingStatus != reports.StatusCompleted {
		t.Fatalf("unexpected status: %s", report.ProcessingStatus)
	}
	if report.LabName != "City Lab" {
		t.Fatalf("unexpected lab name: %q", report.LabName)
	}
	if len(report.Parameters) != 1 || report.Parameters[0].Name != "Hemoglobin" {
		t.Fatalf("unexpected parameters: %+v", report.Parameters)
	}
}

func TestFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, user_id, report_date, .* from reports where id=").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "report_date", "original_file_name", "file_type", "file_url",
			"file_public_id", "processing_status", "lab_name", "parameters", "created_at",
		}))

	store := New(db)
	if _, err := store.Find(context.Background(), "missing"); !errors.Is(err, reports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStatusRequiresRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update reports set processing_status").
		WithArgs("missing", "FAILED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := New(db)
	err = store.SetStatus(context.Background(), "missing", reports.StatusFailed)
	if !errors.Is(err, reports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from reports where id=").
		WithArgs("rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := New(db)
	if err := store.Delete(context.Background(), "rep-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
