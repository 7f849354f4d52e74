package model

import "time"

// FileRecord is one row of the files table. Rows are written once at the end
// of a successful upload and never updated.
type FileRecord struct {
	FileName   string    `gorm:"column:file_name;type:text" json:"file_name"`
	FileSize   int64     `gorm:"column:file_size" json:"file_size"`
	UploadDate time.Time `gorm:"column:upload_date" json:"upload_date"`
	// S3URL is the signed URL minted at upload time. It expires on its own
	// schedule; fresh links come from the download endpoint.
	S3URL string `gorm:"column:s3_url;type:text" json:"s3_url"`
}

func (FileRecord) TableName() string {
	return "files"
}

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}
