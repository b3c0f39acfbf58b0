package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/datacleaner/internal/server/config"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/repomanager"
)

type noopRepoMgr struct{ repomanager.RepositoryManager }

func newSvcForPresign(t *testing.T) (*CleaningService, *sql.DB) {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New err: %v", err)
	}
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "exports",
	}
	return NewCleaningService(db, &noopRepoMgr{}, nil, cfg), db
}

func Test_getPresignClient_SuccessAndError(t *testing.T) {
	svc, db := newSvcForPresign(t)
	defer db.Close()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		if len(optFns) == 0 {
			t.Fatalf("expected config options")
		}
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

	var capturedBaseEndpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil {
			t.Fatalf("BaseEndpoint not set")
		}
		capturedBaseEndpoint = *opts.BaseEndpoint
		return &s3.Client{}
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		if c == nil {
			t.Fatalf("nil client passed to presign")
		}
		return &s3.PresignClient{}
	}

	pc, err := svc.getPresignClient()
	if err != nil {
		t.Fatalf("getPresignClient err: %v", err)
	}
	if pc == nil {
		t.Fatalf("nil presign client")
	}
	if capturedBaseEndpoint != "http://127.0.0.1:9000" {
		t.Fatalf("BaseEndpoint mismatch: %q", capturedBaseEndpoint)
	}

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	pc, err = svc.getPresignClient()
	if err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v (pc=%v)", err, pc)
	}
}

func TestGetPresignedPutURL_ErrorFromPresign(t *testing.T) {
	svc, db := newSvcForPresign(t)
	defer db.Close()

	origLoad, origNewS3, origNewPre, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient, presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}

	_, err := svc.getPresignedPutURL(context.Background(), "exports/2025/3/1/key.csv")
	if err == nil || err.Error() != "presign-put-fail" {
		t.Fatalf("want presign-put-fail, got %v", err)
	}
}

func TestGetPresignedGetURL_ErrorFromPresign(t *testing.T) {
	svc, db := newSvcForPresign(t)
	defer db.Close()

	origLoad, origNewS3, origNewPre, origGet := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-get-fail")
	}

	_, err := svc.getPresignedGetURL(context.Background(), "exports/2025/3/1/key.csv")
	if err == nil || err.Error() != "presign-get-fail" {
		t.Fatalf("want presign-get-fail, got %v", err)
	}
}

func TestPresignedURLs_ErrorFromClientFactory(t *testing.T) {
	svc, db := newSvcForPresign(t)
	defer db.Close()

	orig := loadDefaultAWSConfig
	defer func() { loadDefaultAWSConfig = orig }()
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	if _, err := svc.getPresignedPutURL(context.Background(), "any-key"); err == nil || err.Error() != "load-fail" {
		t.Fatalf("put: want load-fail, got %v", err)
	}
	if _, err := svc.getPresignedGetURL(context.Background(), "any-key"); err == nil || err.Error() != "load-fail" {
		t.Fatalf("get: want load-fail, got %v", err)
	}
}
