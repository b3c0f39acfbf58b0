package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/cleanengine"
	"github.com/dmitrijs2005/datacleaner/internal/common"
	"github.com/dmitrijs2005/datacleaner/internal/dbx"
	"github.com/dmitrijs2005/datacleaner/internal/filex"
	"github.com/dmitrijs2005/datacleaner/internal/netx"
	sc "github.com/dmitrijs2005/datacleaner/internal/server/config"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

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

// maxHistoryLimit caps how many processing records one History call returns.
const maxHistoryLimit = 50

// CleanUpload is one file submitted for cleaning. FileType may be empty, in
// which case it is detected from the filename extension.
type CleanUpload struct {
	Filename string
	FileType string
	Data     []byte
}

// CleanResult reports one finished cleaning run: the persisted bookkeeping
// row, the stored export artifacts, and how long the engine took.
type CleanResult struct {
	Record    *models.ProcessingRecord
	Artifacts []*models.ExportArtifact
	Duration  time.Duration
}

// ArtifactContent tells the transport layer how to serve a download: either
// redirect to a presigned object-storage URL or stream a spooled file.
type ArtifactContent struct {
	RedirectURL string
	Path        string
	Format      string
}

// CleaningService submits uploads to the external cleaning engine, stores the
// exports it returns, and keeps the per-run processing history.
type CleaningService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	engine      cleanengine.Engine
	config      *sc.Config

	now func() time.Time
}

func NewCleaningService(db *sql.DB, m repomanager.RepositoryManager, engine cleanengine.Engine, cfg *sc.Config) *CleaningService {
	return &CleaningService{
		db:          db,
		repomanager: m,
		engine:      engine,
		config:      cfg,
		now:         time.Now,
	}
}

// GetRandomStorageKey builds a dated, collision-free object key for one
// export artifact.
func GetRandomStorageKey(format string) string {
	d := time.Now()
	return fmt.Sprintf("exports/%d/%d/%d/%v.%s", d.Year(), d.Month(), d.Day(), uuid.New(), extensionForFormat(format))
}

func extensionForFormat(format string) string {
	if format == "excel" {
		return "xlsx"
	}
	return format
}

// Clean runs one upload through the engine and persists the outcome: every
// export the engine returns is written to object storage (or the local spool)
// first, then the processing record and its artifact rows commit in a single
// transaction. Engine rejections surface as cleanengine.ErrUnsupportedFormat
// and cleanengine.ErrParse.
func (s *CleaningService) Clean(ctx context.Context, userID string, upload *CleanUpload, opts cleanengine.Options) (*CleanResult, error) {
	fileType := upload.FileType
	if fileType == "" {
		fileType = filex.DetectFileType(upload.Filename)
	}
	if fileType == "" {
		return nil, fmt.Errorf("%w: %s", cleanengine.ErrUnsupportedFormat, upload.Filename)
	}

	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	if len(opts.ExportFormats) == 0 {
		opts.ExportFormats = []string{"csv", "json", "excel"}
	}

	started := s.now()
	result, err := s.engine.Clean(ctx, &cleanengine.CleanRequest{
		Filename: upload.Filename,
		FileType: fileType,
		Data:     upload.Data,
		Options:  opts,
	})
	if err != nil {
		return nil, err
	}
	duration := s.now().Sub(started)

	stored := make([]*models.ExportArtifact, 0, len(result.Exports))
	for _, exp := range result.Exports {
		key, backend, err := s.storeExport(ctx, exp)
		if err != nil {
			return nil, fmt.Errorf("error storing export: %v", err)
		}
		stored = append(stored, &models.ExportArtifact{
			UserID:         userID,
			Format:         exp.Format,
			StorageKey:     key,
			StorageBackend: backend,
			SizeBytes:      int64(len(exp.Data)),
		})
	}

	record := &models.ProcessingRecord{
		UserID:           userID,
		Filename:         upload.Filename,
		FileType:         fileType,
		RowsIn:           result.RowsIn,
		RowsOut:          result.RowsOut,
		ProcessingTimeMs: duration.Milliseconds(),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Processing(tx).Create(ctx, record)
		if err != nil {
			return err
		}
		record = created

		for i, artifact := range stored {
			artifact.RecordID = created.ID
			ca, err := s.repomanager.Artifacts(tx).Create(ctx, artifact)
			if err != nil {
				return err
			}
			stored[i] = ca
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error recording processing run: %v", err)
	}

	return &CleanResult{Record: record, Artifacts: stored, Duration: duration}, nil
}

// History returns the user's most recent processing records, newest first.
// The limit is clamped to maxHistoryLimit.
func (s *CleaningService) History(ctx context.Context, userID string, limit int64) ([]*models.ProcessingRecord, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := s.repomanager.Processing(s.db).ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %v", err)
	}
	return records, nil
}

// RecordArtifacts lists the export artifacts of one processing run, limited
// to those owned by the calling user.
func (s *CleaningService) RecordArtifacts(ctx context.Context, userID string, recordID string) ([]*models.ExportArtifact, error) {
	artifacts, err := s.repomanager.Artifacts(s.db).ListByRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("error loading artifacts: %v", err)
	}
	owned := make([]*models.ExportArtifact, 0, len(artifacts))
	for _, a := range artifacts {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	return owned, nil
}

// OpenArtifact authorizes a download and tells the caller how to serve it.
// Artifacts that are not the user's own present as common.ErrorNotFound.
func (s *CleaningService) OpenArtifact(ctx context.Context, userID string, artifactID string) (*ArtifactContent, error) {
	artifact, err := s.repomanager.Artifacts(s.db).GetByID(ctx, artifactID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading artifact: %v", err)
	}
	if artifact.UserID != userID {
		return nil, common.ErrorNotFound
	}

	if artifact.StorageBackend == models.StorageBackendS3 {
		url, err := s.getPresignedGetURL(ctx, artifact.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("error presigning download: %v", err)
		}
		return &ArtifactContent{RedirectURL: url, Format: artifact.Format}, nil
	}
	return &ArtifactContent{Path: artifact.StorageKey, Format: artifact.Format}, nil
}

// --- storage below ---

// storeExport writes one export's bytes out and reports where they went:
// object storage when an S3 endpoint is configured, the local spool otherwise.
func (s *CleaningService) storeExport(ctx context.Context, exp cleanengine.Export) (string, string, error) {
	if s.config.S3BaseEndpoint != "" {
		key := GetRandomStorageKey(exp.Format)
		url, err := s.getPresignedPutURL(ctx, key)
		if err != nil {
			return "", "", err
		}
		if err := netx.UploadToPresignedURL(ctx, url, exp.Data); err != nil {
			return "", "", err
		}
		return key, models.StorageBackendS3, nil
	}

	dir, err := filex.EnsureSubDir(s.config.ExportDir)
	if err != nil {
		return "", "", err
	}
	name := fmt.Sprintf("%v.%s", uuid.New(), extensionForFormat(exp.Format))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, exp.Data, 0o660); err != nil {
		return "", "", err
	}
	return path, models.StorageBackendLocal, nil
}

func (s *CleaningService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
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

func (s *CleaningService) getPresignedPutURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *CleaningService) getPresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
