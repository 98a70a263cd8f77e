package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	id, err := uuid.Parse(base.ID)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(7), id.Version())
}

func TestBaseModelIDsSortByCreation(t *testing.T) {
	var first, second BaseModel
	require.NoError(t, first.BeforeCreate(nil))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, second.BeforeCreate(nil))
	require.Less(t, first.ID, second.ID)
}

func TestBaseModelBeforeCreateNormalisesTimestamps(t *testing.T) {
	chicago := time.FixedZone("CDT", -5*60*60)
	supplied := time.Date(2025, 7, 2, 8, 0, 0, 0, chicago)

	base := BaseModel{CreatedAt: supplied}
	require.NoError(t, base.BeforeCreate(nil))
	require.Equal(t, time.UTC, base.CreatedAt.Location())
	require.True(t, base.CreatedAt.Equal(supplied))
	require.True(t, base.UpdatedAt.IsZero())
}

func TestBaseModelBeforeCreateKeepsExistingID(t *testing.T) {
	base := BaseModel{ID: "fixed"}
	require.NoError(t, base.BeforeCreate(nil))
	require.Equal(t, "fixed", base.ID)
}

func TestEmbeddedModelsUseBaseBeforeCreate(t *testing.T) {
	cases := []struct {
		name  string
		model func() *BaseModel
	}{
		{"user", func() *BaseModel { u := &User{}; return &u.BaseModel }},
		{"event", func() *BaseModel { e := &Event{}; return &e.BaseModel }},
		{"history", func() *BaseModel { h := &VolunteerHistory{}; return &h.BaseModel }},
		{"notification", func() *BaseModel { n := &Notification{}; return &n.BaseModel }},
		{"email_verification", func() *BaseModel { v := &EmailVerification{}; return &v.BaseModel }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base := tc.model()
			require.NoError(t, base.BeforeCreate(nil))
			require.NotEmpty(t, base.ID)
		})
	}
}

func TestSkillNames(t *testing.T) {
	profile := &VolunteerProfile{
		UserID: "v1",
		Skills: []ProfileSkill{{UserID: "v1", SkillName: "cooking"}, {UserID: "v1", SkillName: "driving"}},
	}
	require.Equal(t, []string{"cooking", "driving"}, profile.SkillNames())

	event := &Event{Date: time.Now(), Skills: []EventSkill{{EventID: "e1", SkillName: "first-aid"}}}
	require.Equal(t, []string{"first-aid"}, event.SkillNames())

	var nilProfile *VolunteerProfile
	require.Nil(t, nilProfile.SkillNames())
}
