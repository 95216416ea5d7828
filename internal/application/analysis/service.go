package analysis

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/guardline/incident-ai/internal/domain/analysis"
	"github.com/guardline/incident-ai/internal/domain/incident"
)

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service implements the incident AI-analysis use case: gather evidence,
// best-effort OCR, combine, classify, persist. One running analysis per
// incident; duplicates are rejected before any network call.
type Service struct {
	OCR          domain.TextExtractor
	Classifier   domain.Classifier
	History      domain.Repository // optional, best effort
	ResolveURL   domain.URLResolver
	AllowedRoles []string
	Clock        Clock

	mu       sync.Mutex
	inFlight map[incident.IncidentID]struct{}
}

func NewService(ocr domain.TextExtractor, classifier domain.Classifier, history domain.Repository, resolve domain.URLResolver, allowedRoles []string) *Service {
	if len(allowedRoles) == 0 {
		allowedRoles = []string{"security_team", "admin"}
	}
	return &Service{
		OCR:          ocr,
		Classifier:   classifier,
		History:      history,
		ResolveURL:   resolve,
		AllowedRoles: allowedRoles,
		Clock:        SystemClock{},
		inFlight:     make(map[incident.IncidentID]struct{}),
	}
}

// Command untuk trigger analysis
type AnalyzeCommand struct {
	TenantID string
	Role     string
	Incident *incident.Snapshot
}

// AnalyzeResult pairs the classification output with the evidence that
// produced it, so callers can tell a low-confidence fallback apart from
// a real run over thin evidence.
type AnalyzeResult struct {
	Result   *domain.Result        `json:"result"`
	Evidence domain.EvidenceBundle `json:"evidence"`
}

func (s *Service) roleAllowed(role string) bool {
	for _, r := range s.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// begin reserves the in-flight slot for an incident. Second caller loses.
func (s *Service) begin(id incident.IncidentID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Service) end(id incident.IncidentID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// Analyze runs the full pipeline over one incident snapshot.
//
// OCR failures are swallowed and the pipeline continues with empty image
// text; classification failures are terminal. When the combined evidence
// is empty the canned low-confidence result is returned and the
// classifier is never invoked.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*AnalyzeResult, error) {
	// entry guard: incident + role, before any network work
	if cmd.Incident == nil {
		return nil, domain.ErrNoIncident
	}
	if !s.roleAllowed(cmd.Role) {
		return nil, domain.ErrPermissionDenied
	}
	if !s.begin(cmd.Incident.ID) {
		return nil, domain.ErrInFlight
	}
	defer s.end(cmd.Incident.ID)

	inc := cmd.Incident

	// gather evidence
	imageURL, hasImage := domain.ExtractImageEvidence(inc, s.ResolveURL)

	// best-effort OCR; a failure here must never abort the analysis
	imageText := ""
	if hasImage && s.OCR != nil {
		text, err := s.OCR.ExtractText(ctx, imageURL, string(inc.ID))
		if err != nil {
			log.Printf("image text extraction failed for incident=%s: %v", inc.ID, err)
		} else {
			imageText = text
		}
	}

	bundle := domain.Combine(inc.Title, inc.Description, imageText)
	bundle.HasImage = hasImage

	if !bundle.Sufficient {
		result := domain.InsufficientEvidenceResult()
		s.record(cmd.TenantID, inc.ID, result)
		return &AnalyzeResult{Result: result, Evidence: bundle}, nil
	}

	result, err := s.Classifier.Analyze(ctx, domain.ClassifyRequest{
		Title:       inc.Title,
		Description: bundle.CombinedText,
		Context: domain.ClassifyContext{
			HasImage:     bundle.HasImage,
			ImageText:    bundle.ImageText,
			IncidentType: inc.IncidentType,
			Severity:     inc.Severity,
		},
	})
	if err != nil {
		// single attempt, no retry; surface the classifier's message
		return nil, err
	}

	s.record(cmd.TenantID, inc.ID, result)
	return &AnalyzeResult{Result: result, Evidence: bundle}, nil
}

// record persists a finished run for audit. Best effort: a failed save
// never fails an analysis that already succeeded.
func (s *Service) record(tenant string, id incident.IncidentID, result *domain.Result) {
	if s.History == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		log.Printf("analysis history marshal failed for incident=%s: %v", id, err)
		return
	}
	rec := &domain.Record{
		ID:         domain.RecordID(uuid.New().String()),
		TenantID:   tenant,
		IncidentID: string(id),
		Result:     string(raw),
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.History.Save(context.Background(), rec); err != nil {
		log.Printf("analysis history save failed for incident=%s: %v", id, err)
	}
}

// Latest returns the most recent stored run for an incident
func (s *Service) Latest(ctx context.Context, tenant string, incidentID string) (*domain.Record, error) {
	if s.History == nil {
		return nil, domain.ErrHistoryDisabled
	}
	return s.History.LatestByIncident(ctx, tenant, incidentID)
}

// ListAnalyses returns a page of stored runs ordered newest first
func (s *Service) ListAnalyses(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if s.History == nil {
		return nil, domain.ErrHistoryDisabled
	}
	return s.History.Paginate(ctx, tenant, page, pageSize)
}
