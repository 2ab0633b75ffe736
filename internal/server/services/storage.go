package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	sc "github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/google/uuid"
)

const presignTTL = 15 * time.Minute

const (
	KindAvatar = "avatar"
	KindLogo   = "logo"
)

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// StoredObject describes an uploaded object. UploadURL and ExpiresAt are only
// set for presigned uploads.
type StoredObject struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	UploadURL string    `json:"upload_url,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

type StorageService struct {
	config *sc.Config
}

func NewStorageService(cfg *sc.Config) *StorageService {
	return &StorageService{config: cfg}
}

// StorageKey builds "<kind>s/<userID>/<uuid><ext>".
func StorageKey(kind, userID, ext string) string {
	return fmt.Sprintf("%ss/%s/%v%s", kind, userID, uuid.New(), ext)
}

func (s *StorageService) publicURL(key string) string {
	return strings.TrimRight(s.config.ObjectBaseURL(), "/") + "/" + s.config.S3Bucket + "/" + key
}

// check authorizes kind for actor and returns the file extension for
// contentType.
func (s *StorageService) check(actor *portal.Session, kind, contentType string, size int64) (string, error) {
	switch kind {
	case KindAvatar:
		if err := requireUser(actor); err != nil {
			return "", err
		}
	case KindLogo:
		if err := requireAdmin(actor); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: unknown upload kind %q", common.ErrorValidation, kind)
	}
	ext, ok := imageExt[normalizeContentType(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %q", common.ErrorValidation, contentType)
	}
	if size <= 0 || size > s.config.MaxUploadBytes {
		return "", fmt.Errorf("%w: size must be between 1 and %d bytes", common.ErrorValidation, s.config.MaxUploadBytes)
	}
	return ext, nil
}

func normalizeContentType(ct string) string {
	return strings.ToLower(strings.TrimSpace(ct))
}

func (s *StorageService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Upload stores body directly. size must be the exact body length.
func (s *StorageService) Upload(ctx context.Context, actor *portal.Session, kind, contentType string, size int64, body io.Reader) (*StoredObject, error) {
	ext, err := s.check(actor, kind, contentType, size)
	if err != nil {
		return nil, err
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	key := StorageKey(kind, actor.UserID, ext)
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.S3Bucket),
		Key:           aws.String(key),
		Body:          io.LimitReader(body, size),
		ContentType:   aws.String(normalizeContentType(contentType)),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return &StoredObject{Key: key, URL: s.publicURL(key)}, nil
}

// PresignUpload returns a URL the caller can PUT the object to within
// presignTTL.
func (s *StorageService) PresignUpload(ctx context.Context, actor *portal.Session, kind, contentType string, size int64) (*StoredObject, error) {
	ext, err := s.check(actor, kind, contentType, size)
	if err != nil {
		return nil, err
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	key := StorageKey(kind, actor.UserID, ext)
	// ContentLength and ContentType are signed, so the PUT must match both.
	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.S3Bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(normalizeContentType(contentType)),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &StoredObject{
		Key:       key,
		URL:       s.publicURL(key),
		UploadURL: req.URL,
		ExpiresAt: time.Now().Add(presignTTL),
	}, nil
}
