package circuitbreaker

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDBCircuitBreaker_QueryContext verifies query results pass through a
// closed breaker.
func TestDBCircuitBreaker_QueryContext(t *testing.T) {
	// Arrange
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT id FROM alerts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	dcb := NewDBCircuitBreaker(db)

	// Act
	rows, err := dcb.QueryContext(context.Background(), "SELECT id FROM alerts")

	// Assert
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())

	var id int64
	require.NoError(t, rows.Scan(&id))
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDBCircuitBreaker_ExecContext verifies statement results pass through.
func TestDBCircuitBreaker_ExecContext(t *testing.T) {
	// Arrange
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("UPDATE alert_statuses").
		WillReturnResult(sqlmock.NewResult(0, 3))

	dcb := NewDBCircuitBreaker(db)

	// Act
	result, err := dcb.ExecContext(context.Background(), "UPDATE alert_statuses SET snoozed = FALSE")

	// Assert
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDBCircuitBreaker_OpensAfterConsecutiveFailures verifies sustained
// query failures trip the breaker and subsequent calls fail fast.
func TestDBCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	// Arrange
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	boom := errors.New("connection refused")
	for i := 0; i < 5; i++ {
		mock.ExpectQuery("SELECT").WillReturnError(boom)
	}

	dcb := NewDBCircuitBreaker(db)

	// Act
	for i := 0; i < 5; i++ {
		_, err := dcb.QueryContext(context.Background(), "SELECT 1")
		require.Error(t, err)
	}

	// Assert
	assert.True(t, dcb.IsOpen())
	assert.Equal(t, gobreaker.StateOpen, dcb.State())

	_, err = dcb.QueryContext(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

// TestDBCircuitBreaker_QueryRowContext verifies single-row queries pass
// through unprotected, since sql.Row defers errors to Scan.
func TestDBCircuitBreaker_QueryRowContext(t *testing.T) {
	// Arrange
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	dcb := NewDBCircuitBreaker(db)

	// Act
	var count int64
	err = dcb.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM deliveries").Scan(&count)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}

// TestDBCircuitBreaker_DB verifies the raw pool stays reachable for callers
// that must bypass the breaker.
func TestDBCircuitBreaker_DB(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	dcb := NewDBCircuitBreaker(db)

	assert.Same(t, db, dcb.DB())
}
