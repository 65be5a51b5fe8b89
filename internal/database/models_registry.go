package database

import "creatorpulse/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.TikTokVideo{},
		&models.TikTokProfile{},
		&models.InstagramProfile{},
		&models.InstagramPost{},
	}
}
