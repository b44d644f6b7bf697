package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

func TestRunRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO runs").
		WithArgs("r-1", "/in/app-42", "/out/app-42", string(domain.RunPending), "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), &domain.Run{
		ID:          "r-1",
		InputFolder: "/in/app-42",
		OutputDir:   "/out/app-42",
		Status:      domain.RunPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)
	rows := sqlmock.NewRows([]string{"id", "input_folder", "output_dir", "status", "error_message", "created_at", "updated_at"}).
		AddRow("r-1", "/in/app-42", nil, string(domain.RunCompleted), nil, time.Now(), time.Now())

	mock.ExpectQuery("FROM runs").
		WithArgs("r-1").
		WillReturnRows(rows)

	run, err := repo.GetByID(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if run.Status != domain.RunCompleted {
		t.Fatalf("unexpected status: %s", run.Status)
	}
	if run.OutputDir != "" || run.Error != "" {
		t.Fatalf("null columns must scan as empty strings, got %+v", run)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)
	mock.ExpectQuery("FROM runs").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "input_folder", "output_dir", "status", "error_message", "created_at", "updated_at"}))

	if _, err := repo.GetByID(context.Background(), "missing"); err == nil {
		t.Fatal("expected not-found error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunRepositoryCompleteStoresResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)
	mock.ExpectExec("UPDATE runs").
		WithArgs("r-1", string(domain.RunCompleted), "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Complete(context.Background(), "r-1", &domain.UnifiedResult{RunID: "r-1"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunRepositoryFailOnMissingRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)
	mock.ExpectExec("UPDATE runs").
		WithArgs("missing", string(domain.RunFailed), "boom", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Fail(context.Background(), "missing", "boom"); err == nil {
		t.Fatal("expected error for missing run")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
