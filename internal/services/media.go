package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	appconfig "umrah-companion-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const signatureTTL = 5 * time.Minute

// MediaService issues upload signatures for chat images and stores dua
// audio files in object storage.
type MediaService struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string
}

// NewMediaService creates a new media service
func NewMediaService(cfg appconfig.MediaConfig) (*MediaService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		s3Client:  s3Client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
	}, nil
}

// UploadSignature is a time-limited grant for a direct browser upload
type UploadSignature struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// SignChatUpload issues a presigned PUT URL for a chat image. The
// dashboard uploads the file directly to storage and sends the resulting
// public URL over the chat channel.
func (s *MediaService) SignChatUpload(ctx context.Context, groupID, filename, contentType string) (*UploadSignature, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf("chat/%s/%s%s", groupID, uuid.New().String(), path.Ext(filename))

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = signatureTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload signature: %w", err)
	}

	return &UploadSignature{
		UploadURL: request.URL,
		PublicURL: fmt.Sprintf("%s/%s", s.publicURL, key),
		Key:       key,
		ExpiresIn: int(signatureTTL.Seconds()),
	}, nil
}

// StoreDuaAudio uploads a dua audio file and returns its public URL
func (s *MediaService) StoreDuaAudio(ctx context.Context, duaID, filename, contentType string, body io.Reader) (string, error) {
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	key := fmt.Sprintf("duas/%s%s", duaID, path.Ext(filename))

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}
