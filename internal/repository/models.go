package repository

import (
	"time"

	"bookline/internal/domain"
)

// InvitationModel is the persistence model for the invitations table.
type InvitationModel struct {
	ID              string                  `gorm:"type:uuid;primaryKey"`
	OrganizationID  string                  `gorm:"type:uuid;not null"`
	ProviderID      string                  `gorm:"type:uuid;not null"`
	Status          domain.InvitationStatus `gorm:"type:varchar(20);not null"`
	RejectionReason *string                 `gorm:"type:text"`
	ExpiresAt       time.Time               `gorm:"not null"`
	RespondedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (InvitationModel) TableName() string {
	return "invitations"
}

// ConnectionModel is the persistence model for the connections table.
type ConnectionModel struct {
	ID             string                  `gorm:"type:uuid;primaryKey"`
	OrganizationID string                  `gorm:"type:uuid;not null"`
	ProviderID     string                  `gorm:"type:uuid;not null"`
	Status         domain.ConnectionStatus `gorm:"type:varchar(20);not null"`
	InvitationID   string                  `gorm:"type:uuid;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ConnectionModel) TableName() string {
	return "connections"
}

// TaskModel is the persistence model for the notification_tasks table.
type TaskModel struct {
	ID             string               `gorm:"type:uuid;primaryKey"`
	CorrelationKey string               `gorm:"type:varchar(255);not null"`
	EntityType     domain.EntityType    `gorm:"type:varchar(20);not null"`
	EntityID       string               `gorm:"type:uuid;not null"`
	EventType      domain.EventType     `gorm:"type:varchar(40);not null"`
	Channel        domain.Channel       `gorm:"type:varchar(10);not null"`
	RecipientRole  domain.RecipientRole `gorm:"type:varchar(20);not null"`
	Recipient      string               `gorm:"type:varchar(255);not null"`
	TemplateID     string               `gorm:"type:varchar(100);not null"`
	Variables      string               `gorm:"type:text"`
	Status         domain.TaskStatus    `gorm:"type:varchar(20);not null"`
	AttemptCount   int                  `gorm:"not null;default:0"`
	MaxAttempts    int                  `gorm:"not null;default:5"`
	LastError      *string              `gorm:"type:text"`
	ProviderMsgID  *string              `gorm:"type:varchar(255)"`
	NextAttemptAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (TaskModel) TableName() string {
	return "notification_tasks"
}

// AttemptModel is the persistence model for delivery_attempts.
type AttemptModel struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	TaskID        string  `gorm:"type:uuid;not null"`
	AttemptNumber int     `gorm:"not null"`
	StatusCode    *int    `gorm:"type:int"`
	ProviderMsgID *string `gorm:"type:varchar(255)"`
	ResponseBody  *string `gorm:"type:text"`
	Error         *string `gorm:"type:text"`
	CreatedAt     time.Time
}

func (AttemptModel) TableName() string {
	return "delivery_attempts"
}

// TokenModel is the persistence model for verification_tokens.
type TokenModel struct {
	Token      string              `gorm:"type:varchar(64);primaryKey"`
	SubjectID  string              `gorm:"type:uuid;not null"`
	Purpose    domain.TokenPurpose `gorm:"type:varchar(30);not null"`
	Status     domain.TokenStatus  `gorm:"type:varchar(20);not null"`
	ExpiresAt  time.Time           `gorm:"not null"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

func (TokenModel) TableName() string {
	return "verification_tokens"
}

// PartyModel is the persistence model for parties.
type PartyModel struct {
	ID        string           `gorm:"type:uuid;primaryKey"`
	Kind      domain.PartyKind `gorm:"type:varchar(20);not null"`
	Name      string           `gorm:"type:varchar(255);not null"`
	Email     string           `gorm:"type:varchar(255);not null"`
	Phone     *string          `gorm:"type:varchar(32)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PartyModel) TableName() string {
	return "parties"
}

func invitationModelFromDomain(i *domain.Invitation) *InvitationModel {
	if i == nil {
		return nil
	}

	return &InvitationModel{
		ID:              i.ID,
		OrganizationID:  i.OrganizationID,
		ProviderID:      i.ProviderID,
		Status:          i.Status,
		RejectionReason: i.RejectionReason,
		ExpiresAt:       i.ExpiresAt,
		RespondedAt:     i.RespondedAt,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func invitationModelToDomain(m *InvitationModel) *domain.Invitation {
	if m == nil {
		return nil
	}

	return &domain.Invitation{
		ID:              m.ID,
		OrganizationID:  m.OrganizationID,
		ProviderID:      m.ProviderID,
		Status:          m.Status,
		RejectionReason: m.RejectionReason,
		ExpiresAt:       m.ExpiresAt,
		RespondedAt:     m.RespondedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func connectionModelFromDomain(c *domain.Connection) *ConnectionModel {
	if c == nil {
		return nil
	}

	return &ConnectionModel{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		ProviderID:     c.ProviderID,
		Status:         c.Status,
		InvitationID:   c.InvitationID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func connectionModelToDomain(m *ConnectionModel) *domain.Connection {
	if m == nil {
		return nil
	}

	return &domain.Connection{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		ProviderID:     m.ProviderID,
		Status:         m.Status,
		InvitationID:   m.InvitationID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func taskModelFromDomain(t *domain.NotificationTask) *TaskModel {
	if t == nil {
		return nil
	}

	return &TaskModel{
		ID:             t.ID,
		CorrelationKey: t.CorrelationKey,
		EntityType:     t.EntityType,
		EntityID:       t.EntityID,
		EventType:      t.EventType,
		Channel:        t.Channel,
		RecipientRole:  t.RecipientRole,
		Recipient:      t.Recipient,
		TemplateID:     t.TemplateID,
		Variables:      t.Variables,
		Status:         t.Status,
		AttemptCount:   t.AttemptCount,
		MaxAttempts:    t.MaxAttempts,
		LastError:      t.LastError,
		ProviderMsgID:  t.ProviderMsgID,
		NextAttemptAt:  t.NextAttemptAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func taskModelToDomain(m *TaskModel) *domain.NotificationTask {
	if m == nil {
		return nil
	}

	return &domain.NotificationTask{
		ID:             m.ID,
		CorrelationKey: m.CorrelationKey,
		EntityType:     m.EntityType,
		EntityID:       m.EntityID,
		EventType:      m.EventType,
		Channel:        m.Channel,
		RecipientRole:  m.RecipientRole,
		Recipient:      m.Recipient,
		TemplateID:     m.TemplateID,
		Variables:      m.Variables,
		Status:         m.Status,
		AttemptCount:   m.AttemptCount,
		MaxAttempts:    m.MaxAttempts,
		LastError:      m.LastError,
		ProviderMsgID:  m.ProviderMsgID,
		NextAttemptAt:  m.NextAttemptAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func attemptModelFromDomain(a *domain.DeliveryAttempt) *AttemptModel {
	if a == nil {
		return nil
	}

	return &AttemptModel{
		ID:            a.ID,
		TaskID:        a.TaskID,
		AttemptNumber: a.AttemptNumber,
		StatusCode:    a.StatusCode,
		ProviderMsgID: a.ProviderMsgID,
		ResponseBody:  a.ResponseBody,
		Error:         a.Error,
		CreatedAt:     a.CreatedAt,
	}
}

func attemptModelToDomain(m *AttemptModel) *domain.DeliveryAttempt {
	if m == nil {
		return nil
	}

	return &domain.DeliveryAttempt{
		ID:            m.ID,
		TaskID:        m.TaskID,
		AttemptNumber: m.AttemptNumber,
		StatusCode:    m.StatusCode,
		ProviderMsgID: m.ProviderMsgID,
		ResponseBody:  m.ResponseBody,
		Error:         m.Error,
		CreatedAt:     m.CreatedAt,
	}
}

func tokenModelFromDomain(t *domain.VerificationToken) *TokenModel {
	if t == nil {
		return nil
	}

	return &TokenModel{
		Token:      t.Token,
		SubjectID:  t.SubjectID,
		Purpose:    t.Purpose,
		Status:     t.Status,
		ExpiresAt:  t.ExpiresAt,
		ConsumedAt: t.ConsumedAt,
		CreatedAt:  t.CreatedAt,
	}
}

func tokenModelToDomain(m *TokenModel) *domain.VerificationToken {
	if m == nil {
		return nil
	}

	return &domain.VerificationToken{
		Token:      m.Token,
		SubjectID:  m.SubjectID,
		Purpose:    m.Purpose,
		Status:     m.Status,
		ExpiresAt:  m.ExpiresAt,
		ConsumedAt: m.ConsumedAt,
		CreatedAt:  m.CreatedAt,
	}
}

func partyModelToDomain(m *PartyModel) *domain.Party {
	if m == nil {
		return nil
	}

	return &domain.Party{
		ID:        m.ID,
		Kind:      m.Kind,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func partyModelFromDomain(p *domain.Party) *PartyModel {
	if p == nil {
		return nil
	}

	return &PartyModel{
		ID:        p.ID,
		Kind:      p.Kind,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
