package pkg

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// NewReadDB shares the gorm connection pool with sqlx for raw read queries.
// The gorm postgres driver registers itself as "pgx".
func NewReadDB(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlx.NewDb(sqlDB, "pgx"), nil
}
