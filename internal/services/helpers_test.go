package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNormaliseIDs(t *testing.T) {
	require.Nil(t, normaliseIDs(nil))
	require.Equal(t, []string{"cooking", "driving"}, normaliseIDs([]string{" cooking", "driving", "", "cooking "}))
}

func TestParseAndFormatDate(t *testing.T) {
	parsed, err := parseDate("2025-07-02")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), *parsed)
	require.Equal(t, "2025-07-02", formatDate(parsed))

	empty, err := parseDate("  ")
	require.NoError(t, err)
	require.Nil(t, empty)
	require.Equal(t, "", formatDate(nil))

	_, err = parseDate("07/02/2025")
	require.Error(t, err)
}

func TestIsUniqueConstraintError(t *testing.T) {
	require.False(t, isUniqueConstraintError(nil))
	require.True(t, isUniqueConstraintError(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)))
	require.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	require.True(t, isUniqueConstraintError(&mysql.MySQLError{Number: 1062}))
	require.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: assignments.event_id")))
	require.False(t, isUniqueConstraintError(errors.New("FOREIGN KEY constraint failed")))
	require.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
}
