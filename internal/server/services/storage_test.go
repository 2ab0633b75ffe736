package services

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/studioportal/internal/common"
	sc "github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorageSvc() *StorageService {
	return NewStorageService(&sc.Config{
		S3Region:       "us-east-1",
		S3AccessKey:    "minioadmin",
		S3SecretKey:    "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "portal",
		PublicBaseURL:  "https://cdn.example.com/",
		MaxUploadBytes: 1024,
	})
}

// stubS3 replaces the AWS seams for the duration of the test.
func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origPresign := putObject, presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		putObject = origPut
		presignPutObject = origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("BaseEndpoint not applied")
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

var keyRe = regexp.MustCompile(`^avatars/u-alice/[0-9a-f-]{36}\.png$`)

func TestStorageService_Upload(t *testing.T) {
	stubS3(t)
	var got *s3.PutObjectInput
	var body string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		got = in
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		body = string(b)
		return &s3.PutObjectOutput{}, nil
	}

	obj, err := newStorageSvc().Upload(context.Background(), alice, KindAvatar, "image/png", 5, strings.NewReader("hello"))
	require.NoError(t, err)

	assert.Regexp(t, keyRe, obj.Key)
	assert.Equal(t, "https://cdn.example.com/portal/"+obj.Key, obj.URL)
	assert.Empty(t, obj.UploadURL)
	require.NotNil(t, got)
	assert.Equal(t, "portal", aws.ToString(got.Bucket))
	assert.Equal(t, "image/png", aws.ToString(got.ContentType))
	assert.Equal(t, "hello", body)
}

func TestStorageService_Upload_PutError(t *testing.T) {
	stubS3(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("put-fail")
	}

	_, err := newStorageSvc().Upload(context.Background(), alice, KindAvatar, "image/png", 1, strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put-fail")
}

func TestStorageService_PresignUpload(t *testing.T) {
	stubS3(t)
	var got *s3.PutObjectInput
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		got = in
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, presignTTL, po.Expires)
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/portal/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc"}, nil
	}

	before := time.Now()
	obj, err := newStorageSvc().PresignUpload(context.Background(), alice, KindAvatar, "IMAGE/PNG", 100)
	require.NoError(t, err)

	assert.Regexp(t, keyRe, obj.Key)
	assert.Contains(t, obj.UploadURL, obj.Key)
	require.NotNil(t, got)
	assert.Equal(t, int64(100), aws.ToInt64(got.ContentLength))
	assert.Equal(t, "image/png", aws.ToString(got.ContentType))
	assert.WithinDuration(t, before.Add(presignTTL), obj.ExpiresAt, time.Minute)
}

func TestStorageService_PresignUpload_Errors(t *testing.T) {
	stubS3(t)
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}
	_, err := newStorageSvc().PresignUpload(context.Background(), alice, KindAvatar, "image/png", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presign-put-fail")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = newStorageSvc().PresignUpload(context.Background(), alice, KindAvatar, "image/png", 10)
	require.EqualError(t, err, "load-fail")
}

func TestStorageService_Check(t *testing.T) {
	svc := newStorageSvc()

	tests := []struct {
		name        string
		kind        string
		contentType string
		size        int64
		wantErr     error
	}{
		{"avatar ok", KindAvatar, "image/jpeg", 10, nil},
		{"logo needs admin", KindLogo, "image/png", 10, common.ErrorForbidden},
		{"unknown kind", "banner", "image/png", 10, common.ErrorValidation},
		{"not an image", KindAvatar, "application/pdf", 10, common.ErrorValidation},
		{"too large", KindAvatar, "image/png", 1025, common.ErrorValidation},
		{"empty", KindAvatar, "image/png", 0, common.ErrorValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.check(alice, tt.kind, tt.contentType, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	ext, err := svc.check(admin, KindLogo, "image/webp", 10)
	require.NoError(t, err)
	assert.Equal(t, ".webp", ext)

	_, err = svc.check(admin, KindLogo, "image/svg+xml", 10)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.check(nil, KindAvatar, "image/png", 10)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
