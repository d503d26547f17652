package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKPICommandJSON(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := KPICommand(context.Background(), KPIOptions{Format: FormatJSON, Stdout: stdout, Stderr: stderr})
	require.Equal(t, 0, code, stderr.String())

	var summary []KPISummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.Len(t, summary, 4)
	assert.Equal(t, "22.940\u00a0€", summary[0].Value)
	assert.Equal(t, "+6.3%", summary[0].Delta)
	assert.Equal(t, "275.280\u00a0€", summary[1].Value)
	assert.Equal(t, "24.7%", summary[2].Value)
	assert.Equal(t, "3.65%", summary[3].Value)
}

func TestKPICommandTable(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := KPICommand(context.Background(), KPIOptions{Range: "3m", Segment: "smb", Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, 0, code)
	out := stdout.String()
	assert.Contains(t, out, "Range: 3m  Segment: SMB")
	assert.Contains(t, out, "Conversion Rate")
}

func TestKPICommandCSV(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := KPICommand(context.Background(), KPIOptions{Format: FormatCSV, Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout.String(), "Metric,Value,Delta"))
}

func TestKPICommandRejectsUnknownInputs(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := KPICommand(context.Background(), KPIOptions{Range: "2y", Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "2y")

	code = KPICommand(context.Background(), KPIOptions{Format: "xml", Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)})
	assert.Equal(t, 2, code)

	code = KPICommand(context.Background(), KPIOptions{Fixture: filepath.Join(t.TempDir(), "missing.yaml"), Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)})
	assert.Equal(t, 1, code)
}

func TestKPICommandPlaceholdersFromFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.yaml")
	fixture := "revenue:\n  - period: \"2025-09\"\n    mrr: 1000\n    new_mrr: 100\n    churn_mrr: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := KPICommand(context.Background(), KPIOptions{Fixture: path, Format: FormatJSON, Stdout: stdout, Stderr: stderr})
	require.Equal(t, 0, code, stderr.String())

	var summary []KPISummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, "1.000\u00a0€", summary[0].Value)
	assert.Empty(t, summary[0].Delta)
	assert.NotEmpty(t, summary[0].Note)
	assert.Equal(t, "—", summary[2].Value)
}

func TestRootCommandRunsKPI(t *testing.T) {
	root := NewRootCommand()
	stdout := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"kpi", "-o", "json", "--range", "12m"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, stdout.String(), `"id":"mrr"`)
}

func TestRootCommandPropagatesExitCode(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"kpi", "--segment", "Startup"})
	err := root.ExecuteContext(context.Background())
	var exitErr ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestCacheCLIBump(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewCacheCLI(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = c.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestCacheCommandUsesEnvironment(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())

	root := NewRootCommand()
	stdout := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetArgs([]string{"cache", "bump"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, "cache version 1\n", stdout.String())
}

func TestNewCacheCLIRequiresClient(t *testing.T) {
	_, err := NewCacheCLI(nil)
	assert.Error(t, err)
}
