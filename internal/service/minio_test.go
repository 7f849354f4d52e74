package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMinioStore_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewMinioStore(MinioOptions{Bucket: "uploads"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewMinioStore(MinioOptions{Endpoint: "localhost:9000"}, zap.NewNop())
	assert.Error(t, err)
}

func TestMinioStore_PresignGet(t *testing.T) {
	store, err := NewMinioStore(MinioOptions{
		Endpoint:        "http://localhost:9000",
		Bucket:          "uploads",
		Region:          "us-east-1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UseSSL:          true,
	}, zap.NewNop())
	require.NoError(t, err)

	link, err := store.PresignGet(context.Background(), "report.pdf", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	// the scheme in the endpoint wins over UseSSL
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/uploads/report.pdf", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}
