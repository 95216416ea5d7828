package prompt

import "fmt"

// GetOCRSystemPrompt instructs the vision model to behave as a plain OCR
// engine. Plain text only; the combiner downstream expects raw text, not
// markdown or commentary.
func GetOCRSystemPrompt() string {
	return `You are an OCR engine. Extract every piece of readable text from the image exactly as written, preserving line order. Output plain text only: no markdown, no commentary, no descriptions of the image. If the image contains no readable text, output nothing at all.`
}

// GetOCRUserPrompt builds the user message for one extraction.
func GetOCRUserPrompt(incidentID string) string {
	return fmt.Sprintf("Extract all readable text from the attached image. The image is evidence for security incident %s.", incidentID)
}
