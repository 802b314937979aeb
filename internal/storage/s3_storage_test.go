package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey(MenuImageFolder, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "menu/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	other, err := ObjectKey(MenuImageFolder, "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = ObjectKey(MenuImageFolder, "application/pdf")
	assert.ErrorIs(t, err, ErrContentTypeNotAllowed)
}

func TestPresignMenuImage(t *testing.T) {
	s := NewS3Storage(context.Background(), S3Options{
		Region:          "ap-southeast-1",
		Bucket:          "cafe-menu",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		BaseURL:         "https://cdn.example.com/",
		PresignExpiry:   5 * time.Minute,
	})

	resp, err := s.PresignMenuImage(context.Background(), "latte.jpeg", "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, resp.UploadURL, "cafe-menu")
	assert.Contains(t, resp.UploadURL, "X-Amz-Signature")
	assert.Equal(t, "https://cdn.example.com/"+resp.Key, resp.FileURL)
	assert.True(t, strings.HasSuffix(resp.Key, ".jpg"))

	_, err = s.PresignMenuImage(context.Background(), "notes.txt", "text/plain")
	assert.ErrorIs(t, err, ErrContentTypeNotAllowed)
}

func TestFileURL_Direct(t *testing.T) {
	s := NewS3Storage(context.Background(), S3Options{
		Region: "ap-southeast-1", Bucket: "cafe-menu",
		AccessKeyID: "a", SecretAccessKey: "b",
	})
	assert.Equal(t, "https://cafe-menu.s3.ap-southeast-1.amazonaws.com/menu/x.png", s.FileURL("menu/x.png"))
}
