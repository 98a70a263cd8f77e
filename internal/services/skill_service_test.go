package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/volunteerhub/internal/database"
	apperrors "github.com/charlesng35/volunteerhub/pkg/errors"
)

func TestSkillServiceListAndCreate(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewSkillService(db)
	require.NoError(t, err)
	ctx := context.Background()

	skills, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, skills, len(database.DefaultSkills))
	for i := 1; i < len(skills); i++ {
		require.Less(t, skills[i-1].Name, skills[i].Name)
	}

	created, err := svc.Create(ctx, " carpentry ", "Basic woodwork")
	require.NoError(t, err)
	require.Equal(t, "carpentry", created.Name)

	_, err = svc.Create(ctx, "carpentry", "")
	require.ErrorIs(t, err, ErrSkillExists)

	_, err = svc.Create(ctx, "  ", "")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestResolveSkills(t *testing.T) {
	db := openServiceTestDB(t)

	labels, err := resolveSkills(db, []string{"driving", " driving", "cooking", ""})
	require.NoError(t, err)
	require.Equal(t, []string{"driving", "cooking"}, labels)

	labels, err = resolveSkills(db, nil)
	require.NoError(t, err)
	require.Empty(t, labels)

	_, err = resolveSkills(db, []string{"cooking", "juggling"})
	require.ErrorIs(t, err, ErrUnknownSkill)
	require.Contains(t, err.Error(), "juggling")
}
