package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dberezin/ipotrack/internal/common"
	"github.com/dberezin/ipotrack/internal/server/models"
	"github.com/dberezin/ipotrack/internal/server/repositories/repomanager"
)

func newApplicationService(t *testing.T) *ApplicationService {
	t.Helper()
	cfg := testConfig()
	cfg.S3Bucket = "documents"
	cfg.S3Region = "us-east-1"
	return NewApplicationService(nil, repomanager.NewInMemoryRepositoryManager(), cfg)
}

// stubPresign replaces the S3 seams for the duration of a test.
func stubPresign(t *testing.T, putURL, getURL string) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewClient := newS3ClientFromConfig
	origNewPresign := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewClient
		newS3PresignClient = origNewPresign
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return nil
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return nil
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: putURL}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: getURL}, nil
	}
}

func TestCreateApplication(t *testing.T) {
	s := newApplicationService(t)
	ctx := context.Background()

	app, err := s.Create(ctx, "u-1", CreateApplicationInput{
		CompanyName:   "Acme Corp",
		CompanySymbol: "ACME",
		IssueSize:     1000000,
		PricePerShare: 25,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if app.Status != models.ApplicationStatusPending {
		t.Fatalf("status = %q, want Pending", app.Status)
	}
	if app.TotalShares != 40000 {
		t.Fatalf("derived total shares = %d, want 40000", app.TotalShares)
	}

	apps, err := s.List(ctx, "u-1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(apps) != 1 || apps[0].ID != app.ID {
		t.Fatalf("unexpected list: %+v", apps)
	}

	// Another user's listing stays empty.
	other, err := s.List(ctx, "u-2")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty list for u-2, got %d", len(other))
	}
}

func TestCreateApplication_InvalidInput(t *testing.T) {
	s := newApplicationService(t)

	_, err := s.Create(context.Background(), "u-1", CreateApplicationInput{CompanySymbol: "ACME"})
	if !errors.Is(err, common.ErrorInvalidInput) {
		t.Fatalf("expected ErrorInvalidInput, got %v", err)
	}
}

func TestDocumentUploadAndDownloadURL(t *testing.T) {
	s := newApplicationService(t)
	stubPresign(t, "http://signed/put", "http://signed/get")
	ctx := context.Background()

	app, err := s.Create(ctx, "u-1", CreateApplicationInput{
		CompanyName: "Acme Corp", CompanySymbol: "ACME", IssueSize: 1e6, PricePerShare: 25,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	key, url, err := s.NewDocumentUploadURL(ctx, "u-1", app.ID)
	if err != nil {
		t.Fatalf("NewDocumentUploadURL error: %v", err)
	}
	if key == "" || url != "http://signed/put" {
		t.Fatalf("unexpected key/url: %q / %q", key, url)
	}

	got, err := s.DocumentDownloadURL(ctx, "u-1", app.ID)
	if err != nil {
		t.Fatalf("DocumentDownloadURL error: %v", err)
	}
	if got != "http://signed/get" {
		t.Fatalf("download url = %q", got)
	}
}

func TestDocumentURL_OwnershipAndAbsence(t *testing.T) {
	s := newApplicationService(t)
	stubPresign(t, "http://signed/put", "http://signed/get")
	ctx := context.Background()

	app, err := s.Create(ctx, "u-1", CreateApplicationInput{
		CompanyName: "Acme Corp", CompanySymbol: "ACME", IssueSize: 1e6, PricePerShare: 25,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Another user cannot touch the application.
	if _, _, err := s.NewDocumentUploadURL(ctx, "u-2", app.ID); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound for foreign upload, got %v", err)
	}

	// No document attached yet.
	if _, err := s.DocumentDownloadURL(ctx, "u-1", app.ID); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound before upload, got %v", err)
	}
}

func TestStorageKeysAreUnique(t *testing.T) {
	k1 := getRandomStorageKey()
	k2 := getRandomStorageKey()
	if !strings.HasPrefix(k1, "documents/") {
		t.Fatalf("key %q lacks documents/ prefix", k1)
	}
	if k1 == k2 {
		t.Fatalf("storage keys must be unique: %q", k1)
	}
}
