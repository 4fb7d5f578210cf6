package model

type CompletedAudit struct {
	SampleID    uint64 `gorm:"column:sample_id;primaryKey"`
	FormType    string `gorm:"column:form_type;type:text;not null"`
	AnswersJSON string `gorm:"column:answers_json;type:text;not null"`
	RemarksJSON string `gorm:"column:remarks_json;type:text;not null"`
	Score       int    `gorm:"column:score;not null"`
	Fatal       bool   `gorm:"column:fatal;not null;default:0"`
	CompletedBy string `gorm:"column:completed_by;type:text;not null"`
	CompletedAt string `gorm:"column:completed_at;type:text;not null"`
}

func (CompletedAudit) TableName() string {
	return "completed_audits"
}
