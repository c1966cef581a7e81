package mimetypes

import "mime"

type MIME string

const (
	Unknown   MIME = "unknown"
	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWebP MIME = "image/webp"
)

// IsAvatar reports whether a sniffed content type is accepted for avatar
// uploads. Only raster image formats the backend can serve are allowed.
func IsAvatar(detected string) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	switch m := MIME(mt); m {
	case ImagePNG, ImageJPEG, ImageGIF, ImageWebP:
		return m, true
	default:
		return Unknown, false
	}
}
