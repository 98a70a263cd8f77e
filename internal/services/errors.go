package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
)

var (
	// ErrEventNotFound indicates the event is absent or, on read paths, soft-deleted.
	ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)
	// ErrVolunteerNotFound indicates no volunteer account exists for the identifier.
	ErrVolunteerNotFound = apperrors.New("VOLUNTEER_NOT_FOUND", "Volunteer not found", http.StatusNotFound)
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrAlreadyAssigned is returned when the (event, volunteer) pair is already assigned.
	ErrAlreadyAssigned = apperrors.New("ALREADY_ASSIGNED", "Volunteer is already assigned to this event", http.StatusConflict)
	// ErrTransactionFailed hides storage failures during assignment.
	ErrTransactionFailed = apperrors.New("TRANSACTION_FAILED", "Assignment could not be completed", http.StatusInternalServerError)
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "An account with this email already exists", http.StatusConflict)
	// ErrUnknownSkill is returned when a skill label is not in the directory.
	ErrUnknownSkill = apperrors.New("UNKNOWN_SKILL", "Skill is not in the directory", http.StatusBadRequest)
	// ErrSkillExists is returned when adding a label that is already in the directory.
	ErrSkillExists = apperrors.New("SKILL_EXISTS", "Skill already exists", http.StatusConflict)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "duplicate entry")
}
