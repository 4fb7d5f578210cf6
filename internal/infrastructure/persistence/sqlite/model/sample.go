package model

type Sample struct {
	SampleID     uint64  `gorm:"column:sample_id;primaryKey;autoIncrement"`
	CustomerName string  `gorm:"column:customer_name;type:text;not null"`
	TicketID     string  `gorm:"column:ticket_id;type:text;not null"`
	FormType     string  `gorm:"column:form_type;type:text;not null"`
	Status       string  `gorm:"column:status;type:text;not null;index"`
	AssignedTo   *string `gorm:"column:assigned_to;type:text;index"`
	Priority     *string `gorm:"column:priority;type:text"`
	MetadataJSON string  `gorm:"column:metadata_json;type:text;not null;default:'{}'"`
	SkipReason   *string `gorm:"column:skip_reason;type:text"`
	HasDraft     bool    `gorm:"column:has_draft;not null;default:0"`
	UploadedAt   string  `gorm:"column:uploaded_at;type:text;not null"`
	UpdatedAt    string  `gorm:"column:updated_at;type:text;not null"`
}

func (Sample) TableName() string {
	return "samples"
}
