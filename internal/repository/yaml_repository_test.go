package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpots = `# Southern Germany
rotation:
  enabled: true
  interval_seconds: 45

spots:
  # best in the afternoon
  Walensee:
    provider: windy
    lat: 47.12
    lon: 9.20
    directions: [W, SW]
    windy:
      zoom: 11
      units_wind: kt
  Gardasee:
    provider: windfinder
    windfinder:
      widget_src: "https://www.windfinder.com/widget/forecast/js/torbole"
  Bodensee:
    lat: 47.5
    lon: 9.5 # Lindau

views:
  - name: south
    spots: [Walensee, Gardasee]
    show_dwd: true
`

func writeSpots(t *testing.T, content string) (string, *YAMLRepository) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	repo, err := NewYAMLRepository(path)
	require.NoError(t, err)
	return path, repo.(*YAMLRepository)
}

func countBackups(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), BackupSuffix) {
			n++
		}
	}
	return n
}

func TestNewYAMLRepository_EmptyPath(t *testing.T) {
	_, err := NewYAMLRepository("")
	assert.Error(t, err)
}

func TestYAMLRepository_Load(t *testing.T) {
	_, repo := writeSpots(t, sampleSpots)

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, doc.Rotation.Enabled)
	assert.Equal(t, 45, doc.Rotation.IntervalSeconds)
	assert.Equal(t, []string{"Walensee", "Gardasee", "Bodensee"}, doc.Spots.Names())

	walensee, ok := doc.Spots.Find("Walensee")
	require.True(t, ok)
	lat, lon, err := walensee.Coordinates()
	require.NoError(t, err)
	assert.Equal(t, 47.12, lat)
	assert.Equal(t, 9.2, lon)
	assert.Equal(t, []string{"W", "SW"}, walensee.Directions)
	assert.Equal(t, 11, walensee.WindyOptions().Zoom)

	require.Len(t, doc.Views, 1)
	assert.True(t, doc.Views[0].WantsCharts())
}

func TestYAMLRepository_Load_Defaults(t *testing.T) {
	_, repo := writeSpots(t, "spots:\n  A: {lat: 1, lon: 2}\n")

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.False(t, doc.Rotation.Enabled)
	assert.Equal(t, DefaultRotationInterval, doc.Rotation.IntervalSeconds)
	assert.Empty(t, doc.Views)
}

func TestYAMLRepository_Load_EmptySpots(t *testing.T) {
	_, repo := writeSpots(t, "rotation:\n  enabled: false\n")

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Spots)
	assert.Empty(t, doc.Spots)
}

func TestYAMLRepository_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "spots: [unclosed\n"},
		{"empty file", ""},
		{"top level list", "- a\n- b\n"},
		{"duplicate spot", "spots:\n  A: {lat: 1, lon: 2}\n  A: {lat: 3, lon: 4}\n"},
		{"interval too short", "rotation:\n  interval_seconds: 1\n"},
		{"view without name", "views:\n  - spots: [A]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo := writeSpots(t, tt.content)
			_, err := repo.Load(context.Background())
			assert.Error(t, err)
		})
	}
}

const spotsWithBadEntry = `spots:
  Good:
    lat: 47.5
    lon: 9.5
  Bad:
    lat: north # typo
    lon: 9.2
  Scalar:
    lat: 46.1
    lon: 8.9
    directions: W
`

func TestYAMLRepository_Load_KeepsUndecodableSpots(t *testing.T) {
	_, repo := writeSpots(t, spotsWithBadEntry)

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Good", "Bad", "Scalar"}, doc.Spots.Names())
	assert.Empty(t, doc.Spots[0].Invalid)
	assert.Contains(t, doc.Spots[1].Invalid, "north")
	assert.NotEmpty(t, doc.Spots[2].Invalid)
	assert.Equal(t, []string{"Bad", "Scalar"}, doc.Spots.Invalid())
}

func TestYAMLRepository_SaveKeepsUndecodableSpotText(t *testing.T) {
	path, repo := writeSpots(t, spotsWithBadEntry)
	ctx := context.Background()

	doc, err := repo.Load(ctx)
	require.NoError(t, err)

	doc.Spots = append(doc.Spots, Spot{Name: "Silvaplana", Lat: floatPtr(46.45), Lon: floatPtr(9.79)})
	require.NoError(t, repo.Save(ctx, doc))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "lat: north # typo")
	assert.Contains(t, string(out), "directions: W")
	assert.Contains(t, string(out), "Silvaplana:")

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Good", "Bad", "Scalar", "Silvaplana"}, reloaded.Spots.Names())
	assert.Equal(t, []string{"Bad", "Scalar"}, reloaded.Spots.Invalid())
}

func TestYAMLRepository_SaveIntoEmptyFlowMapping(t *testing.T) {
	path, repo := writeSpots(t, "# Spots shown on the dashboard.\nrotation:\n  enabled: false\n  interval_seconds: 30\nspots: {}\n")
	ctx := context.Background()

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, doc.Spots)

	doc.Spots = SpotList{
		{Name: "Bodensee", Lat: floatPtr(47.5), Lon: floatPtr(9.5)},
		{Name: "Walensee", Lat: floatPtr(47.12), Lon: floatPtr(9.2), Directions: []string{"W"}},
	}
	require.NoError(t, repo.Save(ctx, doc))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)
	assert.NotContains(t, text, "{")
	assert.Contains(t, text, "spots:\n  Bodensee:\n    lat: 47.5\n")
	assert.Contains(t, text, "\n  Walensee:\n")
	assert.Contains(t, text, "# Spots shown on the dashboard.")
}

func TestYAMLRepository_Load_FileNotFound(t *testing.T) {
	repo, err := NewYAMLRepository(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	_, err = repo.Load(context.Background())
	assert.Error(t, err)
}

func TestYAMLRepository_Load_CancelledContext(t *testing.T) {
	_, repo := writeSpots(t, sampleSpots)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestYAMLRepository_SaveLoadRoundTrip(t *testing.T) {
	path, repo := writeSpots(t, sampleSpots)
	ctx := context.Background()

	first, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, countBackups(t, filepath.Dir(path)))

	require.NoError(t, repo.Save(ctx, first))

	second, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, AreDocumentsEqual(first, second))
	assert.Equal(t, 1, countBackups(t, filepath.Dir(path)))

	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, sampleSpots, string(backup))
}

func TestYAMLRepository_SaveKeepsCommentsAndStyle(t *testing.T) {
	path, repo := writeSpots(t, sampleSpots)
	ctx := context.Background()

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, doc))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "# Southern Germany")
	assert.Contains(t, text, "# best in the afternoon")
	assert.Contains(t, text, "# Lindau")
	assert.Contains(t, text, "lon: 9.20")
	assert.Contains(t, text, "[W, SW]")
	assert.Contains(t, text, "show_dwd: true")
	assert.NotContains(t, text, "show_charts")
	assert.Less(t, strings.Index(text, "rotation:"), strings.Index(text, "spots:"))
}

func TestYAMLRepository_SaveReorderAndEdit(t *testing.T) {
	path, repo := writeSpots(t, sampleSpots)
	ctx := context.Background()

	doc, err := repo.Load(ctx)
	require.NoError(t, err)

	doc.Spots = SpotList{doc.Spots[2], doc.Spots[0], doc.Spots[1]}
	doc.Spots[0].Lat = floatPtr(47.55)
	require.NoError(t, repo.Save(ctx, doc))

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bodensee", "Walensee", "Gardasee"}, reloaded.Spots.Names())
	lat, _, err := reloaded.Spots[0].Coordinates()
	require.NoError(t, err)
	assert.Equal(t, 47.55, lat)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "# best in the afternoon")
}

func TestYAMLRepository_SaveRenameKeepsBody(t *testing.T) {
	path, repo := writeSpots(t, sampleSpots)
	ctx := context.Background()

	doc, err := repo.Load(ctx)
	require.NoError(t, err)

	doc.Spots[2].Name = "Lindau"
	require.NoError(t, repo.Save(ctx, doc))

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Walensee", "Gardasee", "Lindau"}, reloaded.Spots.Names())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Lindau:")
	assert.NotContains(t, string(out), "Bodensee:")
	assert.Contains(t, string(out), "# Lindau")
}

func TestYAMLRepository_SaveDeleteAndAdd(t *testing.T) {
	_, repo := writeSpots(t, sampleSpots)
	ctx := context.Background()

	doc, err := repo.Load(ctx)
	require.NoError(t, err)

	doc.Spots = append(doc.Spots[:1], doc.Spots[2:]...)
	doc.Spots = append(doc.Spots, Spot{Name: "Silvaplana", Lat: floatPtr(46.45), Lon: floatPtr(9.79)})
	require.NoError(t, repo.Save(ctx, doc))

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Walensee", "Bodensee", "Silvaplana"}, reloaded.Spots.Names())
}

func TestYAMLRepository_SaveBackupOverwritten(t *testing.T) {
	path, repo := writeSpots(t, sampleSpots)
	ctx := context.Background()

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, doc))

	afterFirst, err := os.ReadFile(path)
	require.NoError(t, err)

	doc.Rotation.Enabled = false
	require.NoError(t, repo.Save(ctx, doc))

	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, string(afterFirst), string(backup))
	assert.Equal(t, 1, countBackups(t, filepath.Dir(path)))
}

func TestYAMLRepository_SaveWithoutPriorLoad(t *testing.T) {
	path, repo := writeSpots(t, sampleSpots)

	doc := &Document{Rotation: Rotation{IntervalSeconds: 30}, Spots: SpotList{{Name: "A", Lat: floatPtr(1), Lon: floatPtr(2)}}}
	require.NoError(t, repo.Save(context.Background(), doc))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "# Southern Germany")
	assert.NotContains(t, string(out), "Walensee")
}

func TestYAMLRepository_Save_NilDocument(t *testing.T) {
	_, repo := writeSpots(t, sampleSpots)
	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestYAMLRepository_Save_ValidationError(t *testing.T) {
	path, repo := writeSpots(t, sampleSpots)

	doc := &Document{Rotation: Rotation{IntervalSeconds: 1}}
	assert.Error(t, repo.Save(context.Background(), doc))

	_, err := os.Stat(path + BackupSuffix)
	assert.True(t, os.IsNotExist(err), "no backup expected when validation fails")
}

// mockCacheStore implements CacheStore for testing
type mockCacheStore struct {
	doc      Document
	err      error
	replaced bool
}

func (m *mockCacheStore) Snapshot() (Document, error) {
	if m.err != nil {
		return Document{}, m.err
	}
	return m.doc, nil
}

func (m *mockCacheStore) Replace(doc Document) error {
	m.doc = doc
	m.err = nil
	m.replaced = true
	return nil
}

func TestYAMLRepository_WatcherCallback_ReloadsOnChange(t *testing.T) {
	_, repo := writeSpots(t, sampleSpots)
	store := &mockCacheStore{doc: Document{Rotation: Rotation{IntervalSeconds: 30}, Spots: SpotList{}}}

	repo.MakeWatcherCallback(store)()

	assert.True(t, store.replaced)
	assert.Len(t, store.doc.Spots, 3)
}

func TestYAMLRepository_WatcherCallback_SkipsWhenSame(t *testing.T) {
	_, repo := writeSpots(t, sampleSpots)
	doc, err := repo.Load(context.Background())
	require.NoError(t, err)

	store := &mockCacheStore{doc: *doc}
	repo.MakeWatcherCallback(store)()

	assert.False(t, store.replaced)
}

func TestYAMLRepository_WatcherCallback_KeepsStoreOnBrokenFile(t *testing.T) {
	_, repo := writeSpots(t, "spots: [broken\n")
	store := &mockCacheStore{doc: Document{Spots: SpotList{{Name: "keep"}}}}

	repo.MakeWatcherCallback(store)()

	assert.False(t, store.replaced)
	assert.Equal(t, "keep", store.doc.Spots[0].Name)
}

func TestYAMLRepository_WatcherCallback_RecoversUnavailableStore(t *testing.T) {
	_, repo := writeSpots(t, sampleSpots)
	store := &mockCacheStore{err: errors.New("spots file unavailable")}

	repo.MakeWatcherCallback(store)()

	assert.True(t, store.replaced)
	assert.NoError(t, store.err)
	assert.Len(t, store.doc.Spots, 3)
}
