package database

import "fitstream/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Comment{},
		&models.Reaction{},
		&models.Video{},
		&models.Favorite{},
		&models.UserProgress{},
	}
}
