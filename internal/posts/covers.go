package posts

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var coverDataURL = regexp.MustCompile(`^data:(image/[a-z0-9.+-]+);base64,([A-Za-z0-9+/=\s]+)$`)

var coverExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func coverPrefix(postID uuid.UUID) string {
	return fmt.Sprintf("covers/%s/", postID)
}

// offloadCover uploads a base64 data-URL cover to storage and returns its
// public URL. Anything else, including disallowed types, undecodable data and
// failed uploads, is returned unchanged.
func (s *Service) offloadCover(ctx context.Context, postID uuid.UUID, cover string) string {
	if s.storage == nil || cover == "" {
		return cover
	}
	m := coverDataURL.FindStringSubmatch(cover)
	if m == nil {
		return cover
	}
	contentType := m[1]
	ext, ok := coverExtensions[contentType]
	if !ok {
		return cover
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		s.logger.Warn("cover image is not valid base64", "post_id", postID, "error", err)
		return cover
	}

	key := coverPrefix(postID) + uuid.NewString() + ext
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		s.logger.Warn("upload cover image failed", "post_id", postID, "key", key, "error", err)
		return cover
	}
	return s.s3PublicURL(key)
}

// storedCoverKey returns the object key behind a cover URL this service
// produced for postID.
func (s *Service) storedCoverKey(postID uuid.UUID, cover string) (string, bool) {
	base := s.s3PublicURL("")
	if !strings.HasPrefix(cover, base) {
		return "", false
	}
	key := strings.TrimPrefix(cover, base)
	if !strings.HasPrefix(key, coverPrefix(postID)) {
		return "", false
	}
	return key, true
}

// dropReplacedCover deletes the stored object behind old once a write has
// moved the post to a different cover.
func (s *Service) dropReplacedCover(ctx context.Context, postID uuid.UUID, old, current string) {
	if s.storage == nil || old == current {
		return
	}
	key, ok := s.storedCoverKey(postID, old)
	if !ok {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("delete replaced cover failed", "post_id", postID, "key", key, "error", err)
	}
}
