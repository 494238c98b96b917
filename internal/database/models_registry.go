package database

import "github.com/rmeditanala/blogml/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.UserInteraction{},
		&models.ActivityLog{},
	}
}
