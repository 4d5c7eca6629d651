package filestorage

import "estate_marketplace_backend/internal/common"

// CollectionName is the change-stream name of stored file records.
const CollectionName = "files"

// StoredFile records one uploaded object.
type StoredFile struct {
	common.BaseModel
	Bucket       string `gorm:"type:varchar(64);not null;index" json:"bucket"`
	Path         string `gorm:"type:varchar(255);not null" json:"-"`
	ContentType  string `gorm:"type:varchar(128)" json:"content_type"`
	Size         int64  `json:"size"`
	OriginalName string `gorm:"type:varchar(255)" json:"original_name"`
	URL          string `gorm:"-" json:"url"`
}

func (StoredFile) TableName() string { return "stored_files" }
