package model

type DeletionRecord struct {
	DeletionID   string `gorm:"column:deletion_id;type:text;primaryKey"`
	SampleID     uint64 `gorm:"column:sample_id;not null;index"`
	DeletedBy    string `gorm:"column:deleted_by;type:text;not null"`
	DeletedAt    string `gorm:"column:deleted_at;type:text;not null"`
	SnapshotJSON string `gorm:"column:snapshot_json;type:text;not null"`
}

func (DeletionRecord) TableName() string {
	return "deletion_records"
}
