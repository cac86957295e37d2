package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"github.com/dmitrijs2005/reportdesk/internal/logging"
	"github.com/dmitrijs2005/reportdesk/internal/metrics"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(ctx context.Context, c *s3.Client, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// SessionSource yields the session whose token authorizes storage calls.
type SessionSource interface {
	GetSession(ctx context.Context) (*models.Session, error)
}

type S3Config struct {
	BaseURL string
	AnonKey string
	Region  string
}

// S3Storage uploads through the backend's S3-compatible endpoint. The
// project ref and anon key act as the key pair and the user's access token
// as the session token, so row-level policies still apply.
type S3Storage struct {
	cfg      S3Config
	ref      string
	sessions SessionSource
	logger   logging.Logger
	recorder metrics.Recorder
}

var _ Storage = (*S3Storage)(nil)

func NewS3Storage(cfg S3Config, sessions SessionSource, logger logging.Logger, recorder metrics.Recorder) (*S3Storage, error) {
	ref, err := ProjectRef(cfg.AnonKey)
	if err != nil {
		return nil, fmt.Errorf("s3 storage: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = logging.Discard()
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &S3Storage{cfg: cfg, ref: ref, sessions: sessions, logger: logger, recorder: recorder}, nil
}

func (s *S3Storage) endpoint() string {
	return s.cfg.BaseURL + "/storage/v1/s3"
}

func (s *S3Storage) client(ctx context.Context, token string) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.ref,
			s.cfg.AnonKey,
			token,
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.endpoint())
		o.UsePathStyle = true
	}), nil
}

func (s *S3Storage) Upload(ctx context.Context, bucket, path string, file models.ProofFile) (_ string, err error) {
	started := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		s.recorder.RecordBackendCall("s3_upload", outcome, time.Since(started))
	}()

	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrNoSession
	}

	c, err := s.client(ctx, session.AccessToken)
	if err != nil {
		return "", err
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}

	_, err = putObject(ctx, c, &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(path),
		Body:         bytes.NewReader(file.Data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
		// refuse to replace an existing object
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		s.logger.Debug(ctx, "s3 upload failed", "bucket", bucket, "path", path, "error", err)
		if class := classifyS3Error(err); class != nil {
			return "", fmt.Errorf("upload %s: %w: %w", path, class, err)
		}
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return path, nil
}

func (s *S3Storage) PublicURL(bucket, path string) string {
	return PublicObjectURL(s.cfg.BaseURL, bucket, path)
}

func classifyS3Error(err error) error {
	var re interface{ HTTPStatusCode() int }
	if !errors.As(err, &re) {
		return nil
	}
	switch re.HTTPStatusCode() {
	case http.StatusConflict, http.StatusPreconditionFailed:
		return ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}
