package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	name, err := ObjectName("/chat/", "image/png", now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "chat/"))
	assert.True(t, strings.HasSuffix(name, "-20240301123000.png"))

	name, err = ObjectName("", "image/jpeg", now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "uploads/"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	_, err = ObjectName("chat", "application/pdf", now)
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/bucket/chat/a.png", PublicURL("bucket", "chat/a.png"))
}
