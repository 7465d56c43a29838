package repository

import (
	"context"
	stderrors "errors"
	"testing"

	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func testTime() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestTallyForPosition_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	queryErr := stderrors.New("database is locked")
	mock.ExpectQuery("SELECT (.+) FROM candidates").WillReturnError(queryErr)

	if _, err := repo.TallyForPosition(ctx, 1, 1); !stderrors.Is(err, queryErr) {
		t.Errorf("expected query error to propagate, got %v", err)
	}
}

func TestListPositions_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "election_id", "title", "seats"}).
		AddRow("not-a-number", 1, "Chairperson", 1)
	mock.ExpectQuery("SELECT (.+) FROM positions").WillReturnRows(rows)

	if _, err := repo.ListPositions(ctx, 1); err == nil {
		t.Error("expected scan error, got nil")
	}
}

func TestMarkCodeUsed_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	execErr := stderrors.New("disk I/O error")
	mock.ExpectExec("UPDATE voting_codes").WillReturnError(execErr)

	if err := repo.MarkCodeUsed(ctx, 1, testTime()); !stderrors.Is(err, execErr) {
		t.Errorf("expected exec error to propagate, got %v", err)
	}
}

func TestCompleteCertification_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	beginErr := stderrors.New("connection closed")
	mock.ExpectBegin().WillReturnError(beginErr)

	err = repo.CompleteCertification(ctx, "run-x", "registrar", testTime(), "hash", nil, nil, nil)
	if !stderrors.Is(err, beginErr) {
		t.Errorf("expected begin error to propagate, got %v", err)
	}
}
