package incident

import (
	"path/filepath"
	"strings"
	"time"
)

// IncidentID tipe untuk Incident
type IncidentID string

// Snapshot is a read-only view of an incident at the moment analysis
// starts. The pipeline never mutates it.
type Snapshot struct {
	ID           IncidentID   `json:"id"`
	Title        string       `json:"title,omitempty"`
	Description  string       `json:"description,omitempty"`
	IncidentType string       `json:"incident_type,omitempty"`
	Severity     string       `json:"severity"`
	Attachments  []Attachment `json:"attachments,omitempty"`
}

// Attachment metadata for a file attached to an incident
type Attachment struct {
	FileID          string    `json:"file_id"`
	Filename        string    `json:"filename"`
	FileType        string    `json:"file_type"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
}

// imageExtensions accepted when the MIME type is missing or wrong
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImage reports whether the attachment is an image. Upstream metadata
// is unreliable, so both the MIME type and the filename extension are
// checked.
func (a Attachment) IsImage() bool {
	if strings.HasPrefix(strings.ToLower(a.FileType), "image/") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(a.Filename))
	return imageExtensions[ext]
}

// FirstImage returns the first image attachment, if any. Multiple images
// are not aggregated; only the first one feeds OCR.
func (s *Snapshot) FirstImage() (Attachment, bool) {
	for _, a := range s.Attachments {
		if a.IsImage() {
			return a, true
		}
	}
	return Attachment{}, false
}
