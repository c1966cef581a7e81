package mimetypes

import (
	"testing"
)

func TestIsAvatar(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		wantMIME MIME
		want     bool
	}{
		{"PNG", "image/png", ImagePNG, true},
		{"JPEG", "image/jpeg", ImageJPEG, true},
		{"JPEG with charset noise", "image/jpeg; charset=binary", ImageJPEG, true},
		{"GIF", "image/gif", ImageGIF, true},
		{"WebP", "image/webp", ImageWebP, true},

		{"SVG rejected", "image/svg+xml", Unknown, false},
		{"Plain text rejected", "text/plain; charset=utf-8", Unknown, false},
		{"Octet stream rejected", "application/octet-stream", Unknown, false},
		{"Invalid MIME", "not a mime", Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IsAvatar(tt.detected)
			if ok != tt.want || got != tt.wantMIME {
				t.Errorf("IsAvatar(%q) = (%q, %v); want (%q, %v)", tt.detected, got, ok, tt.wantMIME, tt.want)
			}
		})
	}
}
