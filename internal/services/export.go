package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/config"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/netx"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	uploadToPresignedURL = netx.UploadToPresignedURL
)

const presignExpiry = 15 * time.Minute

// AuditExport is the document written by AuditExporter.
type AuditExport struct {
	ExportedAt time.Time              `json:"exported_at"`
	Owner      string                 `json:"owner"`
	Logs       []models.AuditLogEntry `json:"logs"`
	History    []models.AuditEvent    `json:"history"`
}

// AuditExporter writes a user's audit log and history to object storage as
// one JSON document.
type AuditExporter struct {
	checkboxes *CheckboxService
	config     *config.Config
	httpClient netx.HTTPClient
	log        logging.Logger
	now        func() time.Time
}

func NewAuditExporter(checkboxes *CheckboxService, cfg *config.Config, httpClient netx.HTTPClient, log logging.Logger) *AuditExporter {
	return &AuditExporter{
		checkboxes: checkboxes,
		config:     cfg,
		httpClient: httpClient,
		log:        log.With("module", "export"),
		now:        time.Now,
	}
}

// StorageKey returns a fresh object key under audit/<yyyy>/<mm>/<dd>/.
func StorageKey(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("audit/%04d/%02d/%02d/%s.json", now.Year(), int(now.Month()), now.Day(), uuid.New())
}

func (e *AuditExporter) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(e.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.S3RootUser,
			e.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// Export uploads the audit log and history of email (everyone when empty)
// and returns the object key.
func (e *AuditExporter) Export(ctx context.Context, email string) (string, error) {
	if !e.config.ExportEnabled() {
		return "", common.ErrExportDisabled
	}

	logs, err := e.checkboxes.Logs(ctx, email)
	if err != nil {
		return "", err
	}
	history, err := e.checkboxes.History(ctx, email, "")
	if err != nil {
		return "", err
	}

	now := e.now().UTC()
	body, err := json.Marshal(AuditExport{ExportedAt: now, Owner: email, Logs: logs, History: history})
	if err != nil {
		return "", fmt.Errorf("encode audit export: %w", err)
	}

	pc, err := e.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := e.config.S3Bucket
	key := StorageKey(now)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String("application/json"),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	if err := uploadToPresignedURL(ctx, e.httpClient, req.URL, "application/json", body); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	e.log.Info(ctx, "audit exported", "email", email, "key", key, "entries", len(logs), "events", len(history))
	return key, nil
}
