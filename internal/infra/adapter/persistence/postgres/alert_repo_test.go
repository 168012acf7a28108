package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"alerthub/internal/domain/entity"
	"alerthub/internal/infra/adapter/persistence/postgres"
)

func alertRow(a *entity.Alert) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "message_body", "severity", "delivery_kind", "visibility",
		"reminder_frequency", "reminder_enabled", "starts_at", "expires_at",
		"is_active", "is_archived", "created_by", "created_at", "updated_at",
	}).AddRow(
		a.ID, a.Title, a.MessageBody, a.Severity, a.DeliveryKind, a.Visibility,
		a.ReminderFrequency, a.ReminderEnabled, a.StartsAt, a.ExpiresAt,
		a.Active, a.Archived, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
}

func sampleAlert() *entity.Alert {
	return &entity.Alert{
		ID:                1,
		Title:             "db maintenance",
		MessageBody:       "primary failover at 02:00 UTC",
		Severity:          entity.SeverityWarning,
		DeliveryKind:      entity.KindEmail,
		Visibility:        entity.VisibilityOrganization,
		ReminderFrequency: 4,
		ReminderEnabled:   true,
		Active:            true,
		CreatedBy:         1,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
}

func TestAlertRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := sampleAlert()
	mock.ExpectQuery(`FROM alerts`).
		WithArgs(int64(1)).
		WillReturnRows(alertRow(want))

	repo := postgres.NewAlertRepo(db)
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.Title != want.Title || got.ReminderFrequency != 4 {
		t.Fatalf("Get = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAlertRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM alerts`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := postgres.NewAlertRepo(db)
	_, err := repo.Get(context.Background(), 99)
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Get err=%v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAlertRepo_ListReminderEligible(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`reminder_enabled = TRUE`)).
		WillReturnRows(alertRow(sampleAlert()))

	repo := postgres.NewAlertRepo(db)
	got, err := repo.ListReminderEligible(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("ListReminderEligible err=%v len=%d", err, len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAlertRepo_Create_RejectsInvalid(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := postgres.NewAlertRepo(db)
	bad := sampleAlert()
	bad.Severity = "urgent"
	var vErr *entity.ValidationError
	if err := repo.Create(context.Background(), bad); !errors.As(err, &vErr) {
		t.Fatalf("Create err=%v, want ValidationError", err)
	}
}

func TestAlertRepo_Archive(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE alerts SET is_archived = TRUE`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewAlertRepo(db)
	if err := repo.Archive(context.Background(), 1); err != nil {
		t.Fatalf("Archive err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
