package testutil

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// Golden returns a goldie instance reading testdata/golden/<name>.golden.
// Run tests with -update to rewrite the files.
func Golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// AssertJSONGolden marshals v with two-space indentation and compares it
// to the named golden file.
func AssertJSONGolden(t *testing.T, name string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	Golden(t).Assert(t, name, append(data, '\n'))
}
