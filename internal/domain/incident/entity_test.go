package incident

import "testing"

func TestIsImageByMimeType(t *testing.T) {
	a := Attachment{FileID: "f1", Filename: "capture.bin", FileType: "image/png"}
	if !a.IsImage() {
		t.Fatalf("expected image for MIME type image/png")
	}
}

func TestIsImageByExtensionWhenMimeWrong(t *testing.T) {
	// upstream metadata is unreliable; the extension check must catch this
	a := Attachment{FileID: "f1", Filename: "evidence.JPG", FileType: "application/octet-stream"}
	if !a.IsImage() {
		t.Fatalf("expected image for .jpg extension despite wrong MIME type")
	}
}

func TestIsImageRejectsNonImages(t *testing.T) {
	for _, a := range []Attachment{
		{Filename: "report.pdf", FileType: "application/pdf"},
		{Filename: "notes.txt", FileType: "text/plain"},
		{Filename: "archive.zip", FileType: ""},
	} {
		if a.IsImage() {
			t.Fatalf("expected %s not to be classified as image", a.Filename)
		}
	}
}

func TestFirstImagePicksFirstMatchOnly(t *testing.T) {
	s := &Snapshot{
		ID: "inc-1",
		Attachments: []Attachment{
			{FileID: "f1", Filename: "report.pdf", FileType: "application/pdf"},
			{FileID: "f2", Filename: "first.png", FileType: "image/png"},
			{FileID: "f3", Filename: "second.jpg", FileType: "image/jpeg"},
		},
	}
	att, ok := s.FirstImage()
	if !ok {
		t.Fatalf("expected an image attachment")
	}
	if att.FileID != "f2" {
		t.Fatalf("expected first image f2, got %s", att.FileID)
	}
}

func TestFirstImageNoneFound(t *testing.T) {
	s := &Snapshot{ID: "inc-1", Attachments: []Attachment{{Filename: "report.pdf", FileType: "application/pdf"}}}
	if _, ok := s.FirstImage(); ok {
		t.Fatalf("expected no image attachment")
	}
}
