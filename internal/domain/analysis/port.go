package analysis

import "context"

// TextExtractor port (interface untuk OCR/vision providers)
type TextExtractor interface {
	ExtractText(ctx context.Context, imageURL, incidentID string) (string, error)
}

// ClassifyContext carries the contextual metadata sent alongside the
// combined evidence so the downstream service can weight image evidence
// without re-deriving it.
type ClassifyContext struct {
	HasImage     bool   `json:"has_image"`
	ImageText    string `json:"image_text,omitempty"`
	IncidentType string `json:"incident_type,omitempty"`
	Severity     string `json:"severity,omitempty"`
}

// ClassifyRequest is the payload submitted to the classification service
type ClassifyRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Context     ClassifyContext `json:"context"`
}

// Classifier port (interface untuk the incident-classification service)
type Classifier interface {
	Analyze(ctx context.Context, req ClassifyRequest) (*Result, error)
}

// Repository port for persisting and querying analysis runs
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Record, error)
	LatestByIncident(ctx context.Context, tenant string, incidentID string) (*Record, error)
}
