package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dberezin/ipotrack/internal/common"
	sc "github.com/dberezin/ipotrack/internal/server/config"
	"github.com/dberezin/ipotrack/internal/server/models"
	"github.com/dberezin/ipotrack/internal/server/repositories/repomanager"
)

// presignExpiry bounds how long an issued document URL stays usable.
const presignExpiry = 15 * time.Minute

// Test seams for the S3 presign client.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ApplicationService manages IPO application records and their supporting
// documents. Documents never pass through the server: clients upload and
// download via short-lived presigned URLs.
type ApplicationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewApplicationService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *ApplicationService {
	return &ApplicationService{
		db:          db,
		repomanager: m,
		config:      cfg,
	}
}

// CreateApplicationInput carries the IPO application form fields.
type CreateApplicationInput struct {
	CompanyName   string
	CompanySymbol string
	IssueSize     float64
	PricePerShare float64
	TotalShares   int64
}

// Create stores a new application owned by userID, status Pending. When the
// client omits total shares, it is derived from issue size and price,
// matching the form's own calculation.
func (s *ApplicationService) Create(ctx context.Context, userID string, input CreateApplicationInput) (*models.Application, error) {

	if input.CompanyName == "" || input.CompanySymbol == "" {
		return nil, common.ErrorInvalidInput
	}

	totalShares := input.TotalShares
	if totalShares == 0 && input.PricePerShare > 0 {
		totalShares = int64(input.IssueSize / input.PricePerShare)
	}

	repo := s.repomanager.Applications(s.db)

	app, err := repo.Create(ctx, &models.Application{
		UserID:        userID,
		CompanyName:   input.CompanyName,
		CompanySymbol: input.CompanySymbol,
		IssueSize:     input.IssueSize,
		PricePerShare: input.PricePerShare,
		TotalShares:   totalShares,
		Status:        models.ApplicationStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating application: %w", err)
	}

	return app, nil
}

// List returns the applications owned by userID, newest first.
func (s *ApplicationService) List(ctx context.Context, userID string) ([]*models.Application, error) {
	repo := s.repomanager.Applications(s.db)

	apps, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}

	return apps, nil
}

func getRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("documents/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ApplicationService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// NewDocumentUploadURL allocates a storage key for the application's
// supporting document, records it, and returns the key with a presigned PUT
// URL. Applications owned by other users yield ErrorNotFound.
func (s *ApplicationService) NewDocumentUploadURL(ctx context.Context, userID, applicationID string) (string, string, error) {

	repo := s.repomanager.Applications(s.db)

	if _, err := repo.GetByID(ctx, userID, applicationID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", "", common.ErrorNotFound
		}
		return "", "", fmt.Errorf("error finding application: %w", err)
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := getRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	if err := repo.SetDocumentKey(ctx, userID, applicationID, key); err != nil {
		return "", "", fmt.Errorf("error recording document key: %w", err)
	}

	return key, req.URL, nil
}

// DocumentDownloadURL returns a presigned GET URL for the application's
// stored document. Applications without a document yield ErrorNotFound.
func (s *ApplicationService) DocumentDownloadURL(ctx context.Context, userID, applicationID string) (string, error) {

	repo := s.repomanager.Applications(s.db)

	app, err := repo.GetByID(ctx, userID, applicationID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("error finding application: %w", err)
	}
	if app.DocumentKey == nil {
		return "", common.ErrorNotFound
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    app.DocumentKey,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
