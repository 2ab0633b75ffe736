package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/filex"
	"github.com/dmitrijs2005/studioportal/internal/netx"
	"github.com/gabriel-vasile/mimetype"
)

const (
	avatarKind     = "avatar"
	maxAvatarBytes = 5 << 20
)

// Avatar uploads an image file and makes it the profile picture. By default
// the bytes go straight to object storage through a presigned URL; direct
// sends them through the portal server instead.
func (a *App) Avatar(ctx context.Context, path string, direct bool) error {
	data, err := filex.ReadLimited(path, maxAvatarBytes)
	if err != nil {
		return err
	}
	contentType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%s is not an image (%s)", path, contentType)
	}

	var obj *models.StoredObject
	if direct {
		obj, err = a.api.Upload(ctx, avatarKind, filepath.Base(path), contentType, data)
		if err != nil {
			return err
		}
	} else {
		obj, err = a.api.PresignUpload(ctx, avatarKind, contentType, int64(len(data)))
		if err != nil {
			return err
		}
		if err := netx.UploadToPresignedURL(ctx, a.hc, obj.UploadURL, contentType, data); err != nil {
			return err
		}
	}

	p, err := a.api.SetAvatar(ctx, obj.URL)
	if err != nil {
		return err
	}
	a.profiles.Set(p)
	a.printf("Avatar updated: %s\n", p.AvatarURL)
	return nil
}
