package systems

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
	"github.com/spaghettifunk/relight/engine/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type stubProvider struct {
	light metadata.LightDescriptor
}

func (p *stubProvider) LightData() metadata.LightDescriptor { return p.light }

func lightAt(x float32) metadata.LightDescriptor {
	return metadata.LightDescriptor{Position: math.NewVec3(x, 0, 0), Intensity: 1, Color: math.NewVec3One()}
}

type stubView struct {
	frame int64
	items []timeline.Item
	err   error
	panic bool
	calls int
}

func (v *stubView) CurrentFrame() (int64, error) {
	v.calls++
	if v.panic {
		panic("host went away")
	}
	return v.frame, v.err
}

func (v *stubView) Items() ([]timeline.Item, error) { return v.items, nil }

type stubItem struct {
	start, length int64
	effects       []timeline.EffectModel
}

func (i *stubItem) Layer() int                      { return 0 }
func (i *stubItem) Start() int64                    { return i.start }
func (i *stubItem) Length() int64                   { return i.length }
func (i *stubItem) Effects() []timeline.EffectModel { return i.effects }
func (i *stubItem) Children() []timeline.Item       { return nil }

type stubLightModel struct {
	id    int
	light metadata.LightDescriptor
}

func (m *stubLightModel) Label() string          { return "light" }
func (m *stubLightModel) ConfiguredLightID() int { return m.id }
func (m *stubLightModel) SampleLight(int64, int64, animation.Rational) metadata.LightDescriptor {
	return m.light
}

func newTestLightSystem(t *testing.T, scan bool) *LightSystem {
	t.Helper()
	ls, err := NewLightSystem(&LightSystemConfig{FallbackScan: scan})
	require.NoError(t, err)
	require.NoError(t, ls.Initialize())
	return ls
}

func TestLightSystemDefault(t *testing.T) {
	ls := newTestLightSystem(t, true)
	light, tier := ls.Resolve(42)
	assert.Equal(t, LightTierDefault, tier)
	assert.Equal(t, metadata.DefaultLight(), light)
	assert.Equal(t, math.NewVec3(0, 0, 200), light.Position)
}

func TestLightSystemProviderIsCalledLive(t *testing.T) {
	ls := newTestLightSystem(t, false)
	p := &stubProvider{light: lightAt(1)}
	ls.Register(3, p, lightAt(1))

	p.light = lightAt(2)
	light, tier := ls.Resolve(3)
	assert.Equal(t, LightTierProvider, tier)
	assert.Equal(t, lightAt(2), light)
}

func TestLightSystemMostRecentRegistrationWins(t *testing.T) {
	ls := newTestLightSystem(t, false)
	a := &stubProvider{light: lightAt(1)}
	b := &stubProvider{light: lightAt(2)}

	ls.Register(0, a, a.light)
	ls.Register(0, b, b.light)
	assert.Equal(t, lightAt(2), ls.LightData(0))

	// Re-registering a present provider does not move it.
	ls.Register(0, a, a.light)
	assert.Equal(t, 2, ls.ProviderCount(0))
	assert.Equal(t, lightAt(2), ls.LightData(0))

	ls.Unregister(0, b)
	assert.Equal(t, lightAt(1), ls.LightData(0))
}

func TestLightSystemBackupOutlivesProviders(t *testing.T) {
	ls := newTestLightSystem(t, false)
	p := &stubProvider{light: lightAt(1)}
	ls.Register(5, p, lightAt(1))
	ls.UpdateData(5, lightAt(9))
	ls.Unregister(5, p)

	assert.Zero(t, ls.ProviderCount(5))
	light, tier := ls.Resolve(5)
	assert.Equal(t, LightTierBackup, tier)
	assert.Equal(t, lightAt(9), light)

	// Double unregister is a no-op.
	ls.Unregister(5, p)
	ls.Unregister(77, p)
	assert.Equal(t, lightAt(9), ls.LightData(5))
}

func TestLightSystemUpdateDataWithoutProvider(t *testing.T) {
	ls := newTestLightSystem(t, false)
	ls.UpdateData(8, lightAt(4))
	light, tier := ls.Resolve(8)
	assert.Equal(t, LightTierBackup, tier)
	assert.Equal(t, lightAt(4), light)
}

func TestLightSystemFallbackScan(t *testing.T) {
	ls := newTestLightSystem(t, true)
	want := lightAt(33)
	view := &stubView{frame: 4, items: []timeline.Item{
		&stubItem{start: 0, length: 10, effects: []timeline.EffectModel{&stubLightModel{id: 6, light: want}}},
	}}
	ls.AttachTimeline(view)

	light, tier := ls.Resolve(6)
	assert.Equal(t, LightTierScan, tier)
	assert.Equal(t, want, light)

	_, tier = ls.Resolve(7)
	assert.Equal(t, LightTierDefault, tier)
	assert.False(t, ls.Stats().ScanDisabled, "a clean miss keeps the scan enabled")
}

func TestLightSystemScanDisabledByConfig(t *testing.T) {
	ls := newTestLightSystem(t, false)
	view := &stubView{}
	ls.AttachTimeline(view)
	_, tier := ls.Resolve(1)
	assert.Equal(t, LightTierDefault, tier)
	assert.Zero(t, view.calls)
}

func TestLightSystemScanFailureDisablesPermanently(t *testing.T) {
	for name, view := range map[string]*stubView{
		"error": {err: errors.New("no project")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			ls := newTestLightSystem(t, true)
			ls.AttachTimeline(view)

			light, tier := ls.Resolve(1)
			assert.Equal(t, LightTierDefault, tier)
			assert.Equal(t, metadata.DefaultLight(), light)
			assert.True(t, ls.Stats().ScanDisabled)

			// Healing the host does not bring the scan back.
			view.err, view.panic = nil, false
			ls.Resolve(1)
			assert.Equal(t, 1, view.calls)
		})
	}
}

func TestLightSystemNilViewDoesNotDisable(t *testing.T) {
	ls := newTestLightSystem(t, true)
	ls.AttachTimeline(nil)
	_, tier := ls.Resolve(1)
	assert.Equal(t, LightTierDefault, tier)
	assert.False(t, ls.Stats().ScanDisabled)
}

func TestLightSystemStats(t *testing.T) {
	ls := newTestLightSystem(t, false)
	p := &stubProvider{light: lightAt(1)}
	ls.Register(1, p, p.light)
	ls.UpdateData(2, lightAt(2))

	ls.LightData(1)
	ls.LightData(1)
	ls.LightData(2)
	ls.LightData(3)

	stats := ls.Stats()
	assert.Equal(t, uint64(2), stats.Provider)
	assert.Equal(t, uint64(1), stats.Backup)
	assert.Equal(t, uint64(0), stats.Scan)
	assert.Equal(t, uint64(1), stats.Default)
}

func TestLightSystemShutdownClears(t *testing.T) {
	ls := newTestLightSystem(t, false)
	ls.Register(1, &stubProvider{}, lightAt(1))
	require.NoError(t, ls.Shutdown())
	_, tier := ls.Resolve(1)
	assert.Equal(t, LightTierDefault, tier)
}

// Random register/unregister sequences against a simple ordered model.
func TestLightSystemRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(20240611))
	providers := make([]*stubProvider, 6)
	for i := range providers {
		providers[i] = &stubProvider{light: lightAt(float32(i + 1))}
	}

	for round := 0; round < 50; round++ {
		ls := newTestLightSystem(t, false)
		var active []*stubProvider
		var lastData metadata.LightDescriptor
		published := false

		for step := 0; step < 200; step++ {
			p := providers[rng.Intn(len(providers))]
			switch rng.Intn(3) {
			case 0:
				data := lightAt(float32(rng.Intn(1000)))
				ls.Register(0, p, data)
				lastData, published = data, true
				if indexOf(active, p) < 0 {
					active = append(active, p)
				}
			case 1:
				ls.Unregister(0, p)
				if i := indexOf(active, p); i >= 0 {
					active = append(active[:i], active[i+1:]...)
				}
			case 2:
				data := lightAt(float32(rng.Intn(1000)))
				ls.UpdateData(0, data)
				lastData, published = data, true
			}

			light, tier := ls.Resolve(0)
			switch {
			case len(active) > 0:
				require.Equal(t, LightTierProvider, tier)
				require.Equal(t, active[len(active)-1].light, light)
			case published:
				require.Equal(t, LightTierBackup, tier)
				require.Equal(t, lastData, light)
			default:
				require.Equal(t, LightTierDefault, tier)
			}
			require.Equal(t, len(active), ls.ProviderCount(0))
		}
	}
}

func indexOf(ps []*stubProvider, p *stubProvider) int {
	for i, q := range ps {
		if q == p {
			return i
		}
	}
	return -1
}
