package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractastical/icombinators/internal/harness"
)

func TestCheckDefaultCatalog(t *testing.T) {
	out, _, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Check Summary: 8 passed, 0 failed, 1 skipped, 9 total")
}

func TestCheckUserCatalogJSON(t *testing.T) {
	out, _, err := execute(t, "check", "--catalog", "../../testdata/molecules", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string              `json:"status"`
		Data   harness.CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 10, resp.Data.Total)
	assert.Equal(t, 9, resp.Data.Passed)
}

func TestCheckFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong.cue", `package wrong

molecule: wrong_steps: {
	mol: "FRIN a\nA a b c\nT c"
	expect: steps: 4
}
`)

	out, _, err := execute(t, "check", "--catalog", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_steps")
	assert.Contains(t, out, "steps 1, want 4")
	assert.Contains(t, out, "8 passed, 1 failed, 1 skipped, 10 total")

	out, _, err = execute(t, "check", "--catalog", dir, "--format", "json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCheckFailed, resp.Error.Code)
}
