package analysis

import (
	"context"
	"errors"
	"testing"

	domain "github.com/guardline/incident-ai/internal/domain/analysis"
	"github.com/guardline/incident-ai/internal/domain/incident"
)

type fakeOCR struct {
	text    string
	err     error
	calls   int
	lastURL string
}

func (f *fakeOCR) ExtractText(ctx context.Context, imageURL, incidentID string) (string, error) {
	f.calls++
	f.lastURL = imageURL
	return f.text, f.err
}

type fakeClassifier struct {
	result  *domain.Result
	err     error
	calls   int
	lastReq domain.ClassifyRequest

	// optional synchronization for concurrency tests
	started chan struct{}
	release chan struct{}
}

func (f *fakeClassifier) Analyze(ctx context.Context, req domain.ClassifyRequest) (*domain.Result, error) {
	f.calls++
	f.lastReq = req
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	return f.result, f.err
}

type fakeHistory struct {
	saved []*domain.Record
	err   error
}

func (f *fakeHistory) Save(ctx context.Context, rec *domain.Record) error {
	f.saved = append(f.saved, rec)
	return f.err
}

func (f *fakeHistory) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	return f.saved, nil
}

func (f *fakeHistory) LatestByIncident(ctx context.Context, tenant string, incidentID string) (*domain.Record, error) {
	if len(f.saved) == 0 {
		return nil, errors.New("not found")
	}
	return f.saved[len(f.saved)-1], nil
}

func classifiedResult(score float64) *domain.Result {
	return &domain.Result{
		Categories: []domain.CategoryGuess{
			{Category: "unauthorized_access", Confidence: 0.9, Reasoning: "credential material in evidence"},
		},
		Severity: domain.SeverityGuess{Severity: "high", Confidence: 0.8, Reasoning: "exposed password"},
		MitigationStrategies: []domain.MitigationStep{
			{Strategy: "Reset credentials", Priority: 1, EstimatedTime: "1h", ResourcesRequired: []string{"IT"}},
		},
		ConfidenceScore: score,
	}
}

func setupService(ocr *fakeOCR, cls *fakeClassifier, hist *fakeHistory) *Service {
	return NewService(ocr, cls, hist, func(id, name string) string {
		return "https://files.local/" + id + "/" + name
	}, nil)
}

func TestAnalyzeInsufficientEvidenceSkipsClassifier(t *testing.T) {
	ocr := &fakeOCR{}
	cls := &fakeClassifier{result: classifiedResult(0.9)}
	svc := setupService(ocr, cls, &fakeHistory{})

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Role:     "admin",
		Incident: &incident.Snapshot{ID: "inc-1"},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if cls.calls != 0 {
		t.Fatalf("classifier must never be invoked with empty input, got %d calls", cls.calls)
	}
	if res.Result.ConfidenceScore != 0.1 {
		t.Fatalf("expected canned confidence 0.1, got %v", res.Result.ConfidenceScore)
	}
	if res.Result.Categories[0].Category != "unknown" || res.Result.Severity.Severity != "unknown" {
		t.Fatalf("expected unknown/unknown canned result, got %+v", res.Result)
	}
	if res.Evidence.Sufficient {
		t.Fatalf("expected insufficient evidence flag")
	}
}

func TestAnalyzeTitleOnly(t *testing.T) {
	cls := &fakeClassifier{result: classifiedResult(0.7)}
	svc := setupService(&fakeOCR{}, cls, &fakeHistory{})

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Role:     "security_team",
		Incident: &incident.Snapshot{ID: "inc-1", Title: "X"},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Evidence.CombinedText != "X" {
		t.Fatalf("expected combined text X, got %q", res.Evidence.CombinedText)
	}
	if !res.Evidence.Sufficient {
		t.Fatalf("title alone must be sufficient")
	}
	if cls.calls != 1 {
		t.Fatalf("expected one classifier call, got %d", cls.calls)
	}
}

func TestAnalyzeSwallowsOCRFailure(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("ocr transport down")}
	cls := &fakeClassifier{result: classifiedResult(0.7)}
	svc := setupService(ocr, cls, &fakeHistory{})

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Role:     "admin",
		Incident: &incident.Snapshot{
			ID:    "inc-1",
			Title: "Broken badge reader",
			Attachments: []incident.Attachment{
				{FileID: "f1", Filename: "door.png", FileType: "image/png"},
			},
		},
	})
	if err != nil {
		t.Fatalf("OCR failure must not fail the pipeline: %v", err)
	}
	if ocr.calls != 1 {
		t.Fatalf("expected one OCR attempt, got %d", ocr.calls)
	}
	if cls.calls != 1 {
		t.Fatalf("pipeline must still reach the classifier, got %d calls", cls.calls)
	}
	if cls.lastReq.Context.ImageText != "" {
		t.Fatalf("expected empty image text after OCR failure, got %q", cls.lastReq.Context.ImageText)
	}
	if !cls.lastReq.Context.HasImage {
		t.Fatalf("has_image must stay true even when OCR failed")
	}
	if res.Result.ConfidenceScore != 0.7 {
		t.Fatalf("unexpected result: %+v", res.Result)
	}
}

func TestAnalyzeClassifierFailureIsTerminal(t *testing.T) {
	cls := &fakeClassifier{err: &domain.ServiceError{StatusCode: 429, Detail: "rate limited"}}
	svc := setupService(&fakeOCR{}, cls, &fakeHistory{})

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Role:     "admin",
		Incident: &incident.Snapshot{ID: "inc-1", Title: "Phishing email"},
	})
	if err == nil {
		t.Fatalf("expected classifier failure to propagate")
	}
	if err.Error() != "rate limited" {
		t.Fatalf("expected surfaced message %q, got %q", "rate limited", err.Error())
	}
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T", err)
	}
	if cls.calls != 1 {
		t.Fatalf("expected a single attempt, no retry; got %d calls", cls.calls)
	}
}

func TestAnalyzePermissionDenied(t *testing.T) {
	ocr := &fakeOCR{}
	cls := &fakeClassifier{result: classifiedResult(0.9)}
	svc := setupService(ocr, cls, &fakeHistory{})

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Role:     "user",
		Incident: &incident.Snapshot{ID: "inc-1", Title: "X"},
	})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if ocr.calls != 0 || cls.calls != 0 {
		t.Fatalf("no network calls may happen on permission failure")
	}
}

func TestAnalyzeNilIncident(t *testing.T) {
	svc := setupService(&fakeOCR{}, &fakeClassifier{}, &fakeHistory{})
	_, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Role: "admin"})
	if !errors.Is(err, domain.ErrNoIncident) {
		t.Fatalf("expected ErrNoIncident, got %v", err)
	}
}

func TestAnalyzeRejectsConcurrentDuplicate(t *testing.T) {
	cls := &fakeClassifier{
		result:  classifiedResult(0.9),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	ocr := &fakeOCR{}
	svc := setupService(ocr, cls, &fakeHistory{})

	snap := &incident.Snapshot{ID: "inc-1", Title: "Tailgating at gate 3"}
	done := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Role: "admin", Incident: snap})
		done <- err
	}()

	<-cls.started // first invocation is now submitting

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Role: "admin", Incident: snap})
	if !errors.Is(err, domain.ErrInFlight) {
		t.Fatalf("expected ErrInFlight for duplicate, got %v", err)
	}
	if cls.calls != 1 || ocr.calls != 0 {
		t.Fatalf("duplicate must not start new network work (classifier=%d ocr=%d)", cls.calls, ocr.calls)
	}

	close(cls.release)
	if err := <-done; err != nil {
		t.Fatalf("first invocation failed: %v", err)
	}

	// slot is free again after completion; disarm the synchronization so
	// the follow-up call runs straight through
	cls.started = nil
	if _, err := svc.Analyze(context.Background(), AnalyzeCommand{TenantID: "acme", Role: "admin", Incident: snap}); err != nil {
		t.Fatalf("expected follow-up analysis to run, got %v", err)
	}
	if cls.calls != 2 {
		t.Fatalf("expected the follow-up to reach the classifier, got %d calls", cls.calls)
	}
}

func TestAnalyzeEndToEndWithImageEvidence(t *testing.T) {
	ocr := &fakeOCR{text: "password: admin123"}
	cls := &fakeClassifier{result: classifiedResult(0.85)}
	hist := &fakeHistory{}
	svc := setupService(ocr, cls, hist)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Role:     "security_team",
		Incident: &incident.Snapshot{
			ID:          "inc-9",
			Title:       "Suspicious login",
			Description: "",
			Severity:    "medium",
			Attachments: []incident.Attachment{
				{FileID: "f1", Filename: "evidence.png", FileType: "image/png"},
			},
		},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if ocr.lastURL != "https://files.local/inc-9/evidence.png" {
		t.Fatalf("unexpected resolved image URL: %q", ocr.lastURL)
	}
	if res.Evidence.CombinedText != "Suspicious login password: admin123" {
		t.Fatalf("unexpected combined text: %q", res.Evidence.CombinedText)
	}
	if cls.lastReq.Description != "Suspicious login password: admin123" {
		t.Fatalf("classifier must receive the combined payload, got %q", cls.lastReq.Description)
	}
	if cls.lastReq.Context.Severity != "medium" || !cls.lastReq.Context.HasImage {
		t.Fatalf("unexpected classify context: %+v", cls.lastReq.Context)
	}
	if res.Result.ConfidenceScore != 0.85 {
		t.Fatalf("expected confidence 0.85, got %v", res.Result.ConfidenceScore)
	}
	if len(hist.saved) != 1 {
		t.Fatalf("expected one history record, got %d", len(hist.saved))
	}
	if hist.saved[0].IncidentID != "inc-9" || hist.saved[0].TenantID != "acme" {
		t.Fatalf("unexpected history record: %+v", hist.saved[0])
	}
}

func TestAnalyzeHistorySaveFailureIsSilent(t *testing.T) {
	hist := &fakeHistory{err: errors.New("db down")}
	cls := &fakeClassifier{result: classifiedResult(0.6)}
	svc := setupService(&fakeOCR{}, cls, hist)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		TenantID: "acme",
		Role:     "admin",
		Incident: &incident.Snapshot{ID: "inc-1", Title: "X"},
	})
	if err != nil {
		t.Fatalf("history failure must not fail the analysis: %v", err)
	}
	if res.Result.ConfidenceScore != 0.6 {
		t.Fatalf("unexpected result: %+v", res.Result)
	}
}

func TestReadEndpointsWithoutHistory(t *testing.T) {
	svc := NewService(&fakeOCR{}, &fakeClassifier{result: classifiedResult(0.5)}, nil, nil, nil)

	if _, err := svc.Latest(context.Background(), "acme", "inc-1"); !errors.Is(err, domain.ErrHistoryDisabled) {
		t.Fatalf("expected ErrHistoryDisabled from Latest, got %v", err)
	}
	if _, err := svc.ListAnalyses(context.Background(), "acme", 1, 10); !errors.Is(err, domain.ErrHistoryDisabled) {
		t.Fatalf("expected ErrHistoryDisabled from ListAnalyses, got %v", err)
	}
}
