package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/portal"
)

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (models.TokenPair, error) {
	var pair models.TokenPair
	r, err := jsonRequest(http.MethodPost, c.endpoint(nil, "auth", path), body, false)
	if err != nil {
		return pair, err
	}
	if err := c.send(ctx, r, "", &pair); err != nil {
		return pair, err
	}
	if err := c.tokens.Save(ctx, pair); err != nil {
		return pair, err
	}
	return pair, nil
}

// SignUp creates an account and stores the issued tokens.
func (c *Client) SignUp(ctx context.Context, email, password, username string) (models.TokenPair, error) {
	return c.authenticate(ctx, "signup", map[string]string{
		"email": email, "password": password, "username": username,
	})
}

// Login stores the issued tokens on success.
func (c *Client) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	return c.authenticate(ctx, "login", map[string]string{"email": email, "password": password})
}

// Logout revokes the stored refresh token on the server and forgets the
// local tokens. The local tokens are dropped even when the server call
// fails; that error is still returned.
func (c *Client) Logout(ctx context.Context) error {
	pair, err := c.tokens.Load(ctx)
	if err != nil {
		return err
	}
	if pair.Empty() {
		return nil
	}

	r, err := jsonRequest(http.MethodPost, c.endpoint(nil, "auth", "logout"),
		map[string]string{"refresh_token": pair.RefreshToken}, true)
	if err != nil {
		return err
	}
	callErr := c.do(ctx, r, nil)
	if IsAuthError(callErr) {
		// Nothing left to revoke server-side.
		callErr = nil
	}
	return errors.Join(callErr, c.tokens.Clear(ctx))
}

// Session returns the session of the stored access token, with the caller's
// profile when one exists.
func (c *Client) Session(ctx context.Context) (*models.SessionInfo, error) {
	var out models.SessionInfo
	if err := c.get(ctx, c.endpoint(nil, "session"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, url: url, authed: true}, out)
}

func (c *Client) call(ctx context.Context, method, url string, in, out any) error {
	r, err := jsonRequest(method, url, in, true)
	if err != nil {
		return err
	}
	return c.do(ctx, r, out)
}

func (c *Client) Profile(ctx context.Context, id string) (*portal.Profile, error) {
	var p portal.Profile
	if err := c.get(ctx, c.endpoint(nil, "profiles", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*portal.Profile, error) {
	var p portal.Profile
	if err := c.call(ctx, http.MethodPatch, c.endpoint(nil, "profiles", "me"), upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) MarkWelcomeSeen(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, c.endpoint(nil, "profiles", "me", "welcome"), nil, nil)
}

func (c *Client) SetAvatar(ctx context.Context, avatarURL string) (*portal.Profile, error) {
	var p portal.Profile
	err := c.call(ctx, http.MethodPut, c.endpoint(nil, "profiles", "me", "avatar"),
		map[string]string{"url": avatarURL}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SkillCatalog(ctx context.Context) ([]models.Skill, error) {
	var out []models.Skill
	if err := c.get(ctx, c.endpoint(nil, "skills"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MySkills(ctx context.Context) ([]models.Skill, error) {
	var out []models.Skill
	if err := c.get(ctx, c.endpoint(nil, "me", "skills"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetSkill adds (on) or removes a skill and returns the resulting list.
func (c *Client) SetSkill(ctx context.Context, skillID string, on bool) ([]models.Skill, error) {
	method := http.MethodDelete
	if on {
		method = http.MethodPut
	}
	var out []models.Skill
	if err := c.call(ctx, method, c.endpoint(nil, "me", "skills", skillID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Teams(ctx context.Context) ([]models.Team, error) {
	var out []models.Team
	if err := c.get(ctx, c.endpoint(nil, "teams"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Messages lists recent messages of a team. limit <= 0 uses the server default.
func (c *Client) Messages(ctx context.Context, teamID string, limit int) ([]models.Message, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out []models.Message
	if err := c.get(ctx, c.endpoint(q, "teams", teamID, "messages"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PostMessage(ctx context.Context, teamID, body string) (*models.Message, error) {
	var m models.Message
	err := c.call(ctx, http.MethodPost, c.endpoint(nil, "teams", teamID, "messages"),
		map[string]string{"body": body}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// PresignUpload reserves an object key and returns a URL the caller PUTs
// the bytes to with the same content type.
func (c *Client) PresignUpload(ctx context.Context, kind, contentType string, size int64) (*models.StoredObject, error) {
	var obj models.StoredObject
	err := c.call(ctx, http.MethodPost, c.endpoint(nil, "uploads", kind, "presign"),
		map[string]any{"content_type": contentType, "size": size}, &obj)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// Upload sends data through the server as a multipart "file" part.
func (c *Client) Upload(ctx context.Context, kind, filename, contentType string, data []byte) (*models.StoredObject, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	r := request{
		method:      http.MethodPost,
		url:         c.endpoint(nil, "uploads", kind),
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		authed:      true,
	}
	var obj models.StoredObject
	if err := c.do(ctx, r, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}
