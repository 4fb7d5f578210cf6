package model

type SkipRecord struct {
	SkipID    uint64 `gorm:"column:skip_id;primaryKey;autoIncrement"`
	SampleID  uint64 `gorm:"column:sample_id;not null;index"`
	SkippedBy string `gorm:"column:skipped_by;type:text;not null"`
	Reason    string `gorm:"column:reason;type:text;not null"`
	SkippedAt string `gorm:"column:skipped_at;type:text;not null"`
}

func (SkipRecord) TableName() string {
	return "skip_records"
}
