package web

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ServesIndex(t *testing.T) {
	f, err := FS().Open("index.html")
	require.NoError(t, err)
	defer f.Close()

	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/v1/session/register")
	assert.Contains(t, string(body), "/v1/ws")
}
