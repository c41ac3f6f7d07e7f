package models

import "gorm.io/gorm"

// registerModels returns all models that need migration, parents first.
func registerModels() []interface{} {
	return []interface{}{
		&User{},
		&RoleTemplate{},

		// Dialogue graph
		&Scenario{},
		&Role{},
		&Flow{},
		&Node{},
		&Option{},
		&Connection{},

		&ImportRecord{},
	}
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addInitialNodeIndex,
	}
	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// addInitialNodeIndex enforces at most one initial node per flow at the storage level.
// Both postgres and sqlite support partial unique indexes.
func addInitialNodeIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_flow_initial
		ON nodes(flow_id)
		WHERE is_initial = true
	`).Error
}
