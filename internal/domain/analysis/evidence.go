package analysis

import (
	"strings"

	"github.com/guardline/incident-ai/internal/domain/incident"
)

// URLResolver turns an attachment reference into an addressable URL.
// How the URL is composed is a deployment concern (object store, CDN,
// plain base path), so it is injected at construction.
type URLResolver func(incidentID, filename string) string

// ExtractImageEvidence picks the first image attachment and resolves an
// addressable URL for it. File IDs that are already absolute URLs are
// used verbatim. Pure data transformation, no I/O.
func ExtractImageEvidence(s *incident.Snapshot, resolve URLResolver) (string, bool) {
	att, ok := s.FirstImage()
	if !ok {
		return "", false
	}
	if strings.HasPrefix(att.FileID, "http") {
		return att.FileID, true
	}
	if resolve == nil {
		return "", false
	}
	return resolve(string(s.ID), att.Filename), true
}

// Combine merges title, description, and OCR text into one payload.
// Fixed order, empty parts dropped, single-space joined. Deterministic.
func Combine(title, description, imageText string) EvidenceBundle {
	parts := make([]string, 0, 3)
	for _, p := range []string{title, description, imageText} {
		if t := strings.TrimSpace(p); t != "" {
			parts = append(parts, t)
		}
	}
	combined := strings.Join(parts, " ")
	// HasImage is filled in by the orchestrator, which knows whether an
	// image was found regardless of whether OCR produced any text.
	return EvidenceBundle{
		CombinedText: combined,
		ImageText:    strings.TrimSpace(imageText),
		Sufficient:   combined != "",
	}
}
