package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskbench/internal/testutil"
)

func TestListBuiltin_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "list")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	testutil.AssertJSONGolden(t, "list_builtin", resp.Data)
}

func TestListCatalogFile_Text(t *testing.T) {
	out, err := execute(t, "list", "--catalog", "testdata/catalog.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Counter")
	assert.Contains(t, out, "Contact")
	assert.Regexp(t, `3\s+Free play\s+default\s+no\s+no`, out)
}

func TestListMissingCatalog(t *testing.T) {
	out, err := execute(t, "list", "--catalog", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}

func TestListInvalidCatalog(t *testing.T) {
	out, err := execute(t, "list", "--catalog", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeCatalog+"]")
}
