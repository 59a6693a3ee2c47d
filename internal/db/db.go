package db

import (
	"fmt"

	"crmpush/internal/auth"
	"crmpush/internal/logging"
	"crmpush/internal/push"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logging.NewGorm(log),
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&push.PushJob{},
		&push.Contact{},
		&auth.APIClient{},
	); err != nil {
		return err
	}

	stmts := []string{
		// GET /push?status= lists newest first
		`create index if not exists idx_push_jobs_status_id on push_jobs(status, id desc);`,
		`create index if not exists idx_contacts_job_status on contacts(job_id, status);`,
		`create index if not exists idx_contacts_hubspot on contacts(hubspot_id) where hubspot_id is not null;`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
