package domain

import "time"

// DeliveryAttempt is one ledger row recording a single delivery attempt for a
// notification task. The ledger is append-only.
type DeliveryAttempt struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	TaskID        string  `gorm:"type:uuid;not null"`
	AttemptNumber int     `gorm:"not null"`
	StatusCode    *int    `gorm:"type:int"`
	ProviderMsgID *string `gorm:"type:varchar(255)"`
	ResponseBody  *string `gorm:"type:text"`
	Error         *string `gorm:"type:text"`
	CreatedAt     time.Time
}
