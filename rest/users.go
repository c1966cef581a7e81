package rest

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"chat-client/domain"
	"chat-client/domain/mimetypes"
	"chat-client/errors"

	"github.com/gabriel-vasile/mimetype"
)

// Profile is the backend's user profile document.
type Profile struct {
	AboutMe      string `json:"aboutme"`
	AvatarURL    string `json:"avatarUrl"`
	OnlineStatus bool   `json:"online_status"`
	Timezone     string `json:"timezone"`
}

// ProfileUpdate carries partial fields; nil means leave unchanged.
type ProfileUpdate struct {
	AboutMe   *string `json:"aboutme,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Timezone  *string `json:"timezone,omitempty"`
}

func (c *Client) GetProfile(ctx context.Context, name domain.UserID) (Profile, error) {
	var p Profile
	path := fmt.Sprintf("/users/%s", url.PathEscape(string(name)))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name domain.UserID, update ProfileUpdate) (Profile, error) {
	var p Profile
	path := fmt.Sprintf("/users/%s", url.PathEscape(string(name)))
	if err := c.do(ctx, http.MethodPut, path, nil, update, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// UpdateAvatar sniffs the image bytes before upload; anything that is not a
// raster image is rejected with a user-facing validation error, not sent to
// the backend. The accepted image travels as a data URL in the avatar field.
func (c *Client) UpdateAvatar(ctx context.Context, name domain.UserID, image []byte) (Profile, error) {
	detected := mimetype.Detect(image)
	mt, ok := mimetypes.IsAvatar(detected.String())
	if !ok {
		return Profile{}, &errors.ValidationError{
			Field:  "avatar",
			Reason: fmt.Sprintf("unsupported image type %s", detected.String()),
		}
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mt, base64.StdEncoding.EncodeToString(image))
	return c.UpdateProfile(ctx, name, ProfileUpdate{AvatarURL: &dataURL})
}
