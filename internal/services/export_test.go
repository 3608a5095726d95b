package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPresign(t *testing.T, url string, presignErr error) *string {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		require.NotNil(t, o.BaseEndpoint)
		assert.True(t, o.UsePathStyle)
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }

	var key string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "audit", aws.ToString(in.Bucket))
		key = aws.ToString(in.Key)
		if presignErr != nil {
			return nil, presignErr
		}
		return &v4.PresignedHTTPRequest{URL: url, Method: http.MethodPut}, nil
	}
	return &key
}

func newExporter(t *testing.T) (*AuditExporter, *fixture) {
	t.Helper()
	f := newFixture(t)
	f.cfg.S3Bucket = "audit"
	e := NewAuditExporter(f.checkboxes, f.cfg, nil, logging.Nop())
	e.now = func() time.Time { return fixedNow }
	return e, f
}

func TestExport_UploadsDocument(t *testing.T) {
	ctx := context.Background()

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, f := newExporter(t)
	presignedKey := stubPresign(t, srv.URL+"/audit/object", nil)

	_, err := f.checkboxes.SetState(ctx, "john@company.com", "john_1", true)
	require.NoError(t, err)
	_, err = f.checkboxes.SetState(ctx, "john@company.com", "john_1", false)
	require.NoError(t, err)
	_, err = f.checkboxes.SetState(ctx, "sarah@company.com", "sarah_1", true)
	require.NoError(t, err)

	key, err := e.Export(ctx, "john@company.com")
	require.NoError(t, err)
	assert.Equal(t, *presignedKey, key)
	assert.Regexp(t, regexp.MustCompile(`^audit/2024/03/15/[0-9a-f-]{36}\.json$`), key)

	var doc AuditExport
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "john@company.com", doc.Owner)
	assert.Equal(t, fixedNow, doc.ExportedAt)
	assert.Len(t, doc.Logs, 1)
	assert.Len(t, doc.History, 2)
}

func TestExport_Disabled(t *testing.T) {
	f := newFixture(t)
	e := NewAuditExporter(f.checkboxes, f.cfg, nil, logging.Nop())

	_, err := e.Export(context.Background(), "john@company.com")
	require.ErrorIs(t, err, common.ErrExportDisabled)
}

func TestExport_PresignError(t *testing.T) {
	e, _ := newExporter(t)
	stubPresign(t, "", errors.New("no creds"))

	_, err := e.Export(context.Background(), "john@company.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no creds")
}

func TestExport_UploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	e, _ := newExporter(t)
	stubPresign(t, srv.URL, nil)

	_, err := e.Export(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestExport_ThroughPortal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, f := newExporter(t)
	stubPresign(t, srv.URL, nil)
	p := NewPortal(f.accounts, f.catalog, f.checkboxes, logging.Nop(), WithExporter(e))

	key, err := p.ExportAudit(context.Background(), "mike@company.com")
	require.NoError(t, err)
	assert.NotEmpty(t, key)
}

func TestStorageKey(t *testing.T) {
	assert.Regexp(t, `^audit/2024/03/15/.+\.json$`, StorageKey(fixedNow))
	assert.NotEqual(t, StorageKey(fixedNow), StorageKey(fixedNow))
}
