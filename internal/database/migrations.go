package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/volunteerhub/internal/models"
)

// DefaultSkills seeds the skill directory on first start.
var DefaultSkills = []models.Skill{
	{Name: "cooking", Description: "Meal preparation and food handling"},
	{Name: "cleaning", Description: "Site cleanup and sanitation"},
	{Name: "first-aid", Description: "Basic first aid and CPR"},
	{Name: "driving", Description: "Transport of people or goods"},
	{Name: "tutoring", Description: "Teaching and homework help"},
	{Name: "event-setup", Description: "Venue setup and teardown"},
	{Name: "fundraising", Description: "Donor outreach and collection"},
	{Name: "translation", Description: "Interpreting and translation"},
	{Name: "logistics", Description: "Inventory and supply coordination"},
	{Name: "childcare", Description: "Supervising children during events"},
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Skill{},
		&models.VolunteerProfile{},
		&models.ProfileSkill{},
		&models.Event{},
		&models.EventSkill{},
		&models.Assignment{},
		&models.VolunteerHistory{},
		&models.Notification{},
		&models.EmailVerification{},
	)
}

// SeedData populates the default skill directory. Existing labels are left untouched.
func SeedData(db *gorm.DB) error {
	skills := make([]models.Skill, len(DefaultSkills))
	copy(skills, DefaultSkills)
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&skills).Error
}
