package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"bookline/internal/repository"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_invitations",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.InvitationModel{}); err != nil {
					return err
				}
				indexes := []string{
					// One live invitation per pair; resolved invitations do not block new ones.
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_pending_pair ON invitations (organization_id, provider_id) WHERE status = 'PENDING'`,
					`CREATE INDEX IF NOT EXISTS idx_invitations_expiry ON invitations (expires_at) WHERE status = 'PENDING'`,
					`CREATE INDEX IF NOT EXISTS idx_invitations_provider ON invitations (provider_id)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.InvitationModel{})
			},
		},
		{
			ID: "000002_create_connections",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ConnectionModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_pair ON connections (organization_id, provider_id)`,
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_invitation ON connections (invitation_id)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ConnectionModel{})
			},
		},
		{
			ID: "000003_create_notification_tasks",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.TaskModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_correlation_key ON notification_tasks (correlation_key)`,
					`CREATE INDEX IF NOT EXISTS idx_tasks_retry ON notification_tasks (next_attempt_at) WHERE status = 'FAILED_RETRYABLE'`,
					`CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON notification_tasks (status, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_tasks_entity ON notification_tasks (entity_id)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.TaskModel{})
			},
		},
		{
			ID: "000004_create_delivery_attempts",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.AttemptModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_attempts_task_id ON delivery_attempts (task_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.AttemptModel{})
			},
		},
		{
			ID: "000005_create_verification_tokens",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.TokenModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_tokens_subject ON verification_tokens (subject_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.TokenModel{})
			},
		},
		{
			ID: "000006_create_parties",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.PartyModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.PartyModel{})
			},
		},
	})

	return m.Migrate()
}
