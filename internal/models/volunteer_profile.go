package models

import "time"

// VolunteerProfile holds the personal details, skills and availability window of a
// volunteer. It shares its primary key with the owning User.
type VolunteerProfile struct {
	UserID string `gorm:"primaryKey;type:uuid" json:"user_id"`

	FullName    string `gorm:"type:varchar(50)" json:"full_name"`
	Address1    string `gorm:"type:varchar(100)" json:"address1"`
	Address2    string `gorm:"type:varchar(100)" json:"address2"`
	City        string `gorm:"type:varchar(100)" json:"city"`
	State       string `gorm:"type:varchar(2)" json:"state"`
	Zip         string `gorm:"type:varchar(10)" json:"zip"`
	Preferences string `gorm:"type:text" json:"preferences"`

	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`

	Skills []ProfileSkill `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"skills,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SkillNames flattens the profile skill rows into labels.
func (p *VolunteerProfile) SkillNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.SkillName)
	}
	return names
}

// ProfileSkill links a volunteer profile to a directory skill.
type ProfileSkill struct {
	UserID    string `gorm:"primaryKey;type:uuid" json:"user_id"`
	SkillName string `gorm:"primaryKey;type:varchar(64)" json:"skill"`
}
