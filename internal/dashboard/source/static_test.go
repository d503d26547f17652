package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soule-smart/dashboard/internal/dashboard"
)

func TestDefaultDatasetKPIs(t *testing.T) {
	data, err := DefaultDataset()
	require.NoError(t, err)
	require.Len(t, data.Revenue, 9)
	require.Len(t, data.Channels, 5)
	require.Len(t, data.Segments, 3)
	require.Len(t, data.Events, 4)

	kpis := dashboard.DeriveKPIs(data.Revenue, data.Channels)
	assert.Equal(t, "22.940\u00a0€", kpis[0].Value)
	assert.Equal(t, "+6.3%", dashboard.FormatDelta(*kpis[0].Delta))
	assert.Equal(t, "275.280\u00a0€", kpis[1].Value)
	assert.Equal(t, "24.7%", kpis[2].Value)
	assert.Equal(t, "3.65%", kpis[3].Value)
}

func TestParseFixtureRejectsUnknownFields(t *testing.T) {
	_, err := ParseFixture(strings.NewReader("revenue:\n  - { period: \"2025-01\", mrr: 1, bogus: 2 }\n"))
	assert.Error(t, err)
}

func TestParseFixtureRejectsInvalidRecords(t *testing.T) {
	_, err := ParseFixture(strings.NewReader("revenue:\n  - { period: \"2025-01\", mrr: 1, churn_mrr: 10 }\n"))
	assert.ErrorIs(t, err, dashboard.ErrInvalidRecord)

	_, err = ParseFixture(strings.NewReader("events:\n  - { id: x, date: \"2025-01-01\", event: a, kpi: b, impact: great }\n"))
	assert.ErrorIs(t, err, dashboard.ErrInvalidRecord)
}

func TestLoadFixtureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	content := "revenue:\n  - { period: \"2025-01\", mrr: 100 }\n  - { period: \"2025-02\", mrr: 200 }\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	data, err := LoadFixtureFile(path)
	require.NoError(t, err)
	require.Len(t, data.Revenue, 2)

	_, err = LoadFixtureFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStaticReturnsCopies(t *testing.T) {
	data, err := DefaultDataset()
	require.NoError(t, err)
	src := NewStatic(data)
	assert.Equal(t, "static-"+Fingerprint(data), src.Name())

	points, err := src.Revenue(context.Background())
	require.NoError(t, err)
	points[0].MRR = -1

	again, err := src.Revenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(12400), again[0].MRR)

	svc := dashboard.NewService(src, nil)
	snap, err := svc.Snapshot(context.Background(), dashboard.State{Range: dashboard.Range3M, Segment: dashboard.SegmentAll})
	require.NoError(t, err)
	assert.Len(t, snap.Revenue, 3)
	assert.Equal(t, "2025-09", snap.Revenue[2].Period)
}

func TestStaticNameTracksFixtureContent(t *testing.T) {
	data, err := DefaultDataset()
	require.NoError(t, err)
	same, err := DefaultDataset()
	require.NoError(t, err)
	assert.Equal(t, NewStatic(data).Name(), NewStatic(same).Name())

	changed, err := ParseFixture(strings.NewReader("revenue:\n  - { period: \"2030-01\", mrr: 100 }\n  - { period: \"2030-02\", mrr: 200 }\n"))
	require.NoError(t, err)
	assert.NotEqual(t, NewStatic(data).Name(), NewStatic(changed).Name())
}

func TestStaticFixturesDoNotShareCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := dashboard.NewCache(client, time.Minute)
	ctx := context.Background()

	demo, err := DefaultDataset()
	require.NoError(t, err)
	first, err := dashboard.NewService(NewStatic(demo), cache).Dataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-09", first.Revenue[len(first.Revenue)-1].Period)

	changed, err := ParseFixture(strings.NewReader("revenue:\n  - { period: \"2030-01\", mrr: 100 }\n  - { period: \"2030-02\", mrr: 200 }\n"))
	require.NoError(t, err)
	second, err := dashboard.NewService(NewStatic(changed), cache).Dataset(ctx)
	require.NoError(t, err)
	require.Len(t, second.Revenue, 2)
	assert.Equal(t, "2030-02", second.Revenue[1].Period)
}
