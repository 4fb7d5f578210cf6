package model

type Draft struct {
	SampleID    uint64 `gorm:"column:sample_id;primaryKey"`
	AnswersJSON string `gorm:"column:answers_json;type:text;not null"`
	RemarksJSON string `gorm:"column:remarks_json;type:text;not null"`
	SavedAt     string `gorm:"column:saved_at;type:text;not null"`
}

func (Draft) TableName() string {
	return "drafts"
}
