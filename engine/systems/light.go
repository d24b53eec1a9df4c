package systems

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
	"github.com/spaghettifunk/relight/engine/timeline"
)

type LightSystemConfig struct {
	/** @brief Scan the host timeline when no provider or snapshot exists for a light. */
	FallbackScan bool
}

// LightTier says which resolution step answered a LightData call.
type LightTier uint8

const (
	LightTierProvider LightTier = iota
	LightTierBackup
	LightTierScan
	LightTierDefault
	lightTierCount
)

func (t LightTier) String() string {
	switch t {
	case LightTierProvider:
		return "provider"
	case LightTierBackup:
		return "backup"
	case LightTierScan:
		return "scan"
	default:
		return "default"
	}
}

type LightStats struct {
	Provider     uint64
	Backup       uint64
	Scan         uint64
	Default      uint64
	ScanDisabled bool
}

type lightRegistration struct {
	provider metadata.LightProvider
	seq      uint64
}

/**
 * @brief The light directory. Maps a light ID to the providers currently able
 * to report it, plus the last data published for it. Providers are compared by
 * identity and must be comparable (pointer types).
 */
type LightSystem struct {
	Config *LightSystemConfig

	mu        sync.Mutex
	providers map[int][]lightRegistration
	backup    map[int]metadata.LightDescriptor
	seq       uint64
	view      timeline.View

	scanDisabled atomic.Bool
	hits         [lightTierCount]atomic.Uint64
}

func NewLightSystem(config *LightSystemConfig) (*LightSystem, error) {
	if config == nil {
		return nil, fmt.Errorf("func NewLightSystem - %w: config is nil", core.ErrInvalidConfig)
	}
	return &LightSystem{
		Config:    config,
		providers: make(map[int][]lightRegistration),
		backup:    make(map[int]metadata.LightDescriptor),
	}, nil
}

func (ls *LightSystem) Initialize() error {
	core.LogDebug("light system initialized (fallback scan: %t)", ls.Config.FallbackScan)
	return nil
}

func (ls *LightSystem) Shutdown() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.providers = make(map[int][]lightRegistration)
	ls.backup = make(map[int]metadata.LightDescriptor)
	ls.view = nil
	return nil
}

// AttachTimeline sets the host view used by the fallback scan. Passing nil
// detaches it; lookups then skip the scan without disabling it.
func (ls *LightSystem) AttachTimeline(view timeline.View) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.view = view
}

// Register adds provider to id's active set if it is not there yet, and
// overwrites id's snapshot with data.
func (ls *LightSystem) Register(id int, provider metadata.LightProvider, data metadata.LightDescriptor) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.backup[id] = data
	if provider == nil {
		return
	}
	for _, r := range ls.providers[id] {
		if r.provider == provider {
			return
		}
	}
	ls.seq++
	ls.providers[id] = append(ls.providers[id], lightRegistration{provider: provider, seq: ls.seq})
}

// UpdateData overwrites id's snapshot without touching its providers.
func (ls *LightSystem) UpdateData(id int, data metadata.LightDescriptor) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.backup[id] = data
}

// Unregister removes provider from id's active set. The snapshot is kept.
func (ls *LightSystem) Unregister(id int, provider metadata.LightProvider) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	regs, ok := ls.providers[id]
	if !ok {
		return
	}
	for i, r := range regs {
		if r.provider == provider {
			regs = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(regs) == 0 {
		delete(ls.providers, id)
		return
	}
	ls.providers[id] = regs
}

// ProviderCount returns how many providers are active for id.
func (ls *LightSystem) ProviderCount(id int) int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return len(ls.providers[id])
}

// LightData resolves the current state of light id: the most recently
// registered live provider, else the last published snapshot, else a scan of
// the host timeline, else the default light.
func (ls *LightSystem) LightData(id int) metadata.LightDescriptor {
	light, _ := ls.Resolve(id)
	return light
}

// Resolve is LightData that also reports which tier answered.
func (ls *LightSystem) Resolve(id int) (metadata.LightDescriptor, LightTier) {
	ls.mu.Lock()
	provider := ls.latestLocked(id)
	snapshot, hasSnapshot := ls.backup[id]
	view := ls.view
	ls.mu.Unlock()

	// Providers are called outside the lock so one may look up another light.
	if provider != nil {
		return provider.LightData(), ls.hit(LightTierProvider)
	}
	if hasSnapshot {
		return snapshot, ls.hit(LightTierBackup)
	}
	if ls.Config.FallbackScan && view != nil && !ls.scanDisabled.Load() {
		if light, found := ls.scan(view, id); found {
			return light, ls.hit(LightTierScan)
		}
	}
	return metadata.DefaultLight(), ls.hit(LightTierDefault)
}

func (ls *LightSystem) latestLocked(id int) metadata.LightProvider {
	var latest lightRegistration
	for _, r := range ls.providers[id] {
		if r.seq > latest.seq {
			latest = r
		}
	}
	return latest.provider
}

func (ls *LightSystem) scan(view timeline.View, id int) (light metadata.LightDescriptor, found bool) {
	defer func() {
		if r := recover(); r != nil {
			ls.disableScan(fmt.Errorf("%w: timeline scan panicked: %v", core.ErrHostUnavailable, r))
			light, found = metadata.LightDescriptor{}, false
		}
	}()

	var err error
	light, found, err = timeline.FindLight(view, id)
	if err != nil {
		ls.disableScan(fmt.Errorf("%w: %w", core.ErrHostUnavailable, err))
		return metadata.LightDescriptor{}, false
	}
	return light, found
}

// disableScan turns the fallback scan off for the rest of the process.
func (ls *LightSystem) disableScan(err error) {
	if ls.scanDisabled.CompareAndSwap(false, true) {
		core.LogWarn("timeline scan disabled: %s", err)
	}
}

func (ls *LightSystem) hit(tier LightTier) LightTier {
	ls.hits[tier].Add(1)
	return tier
}

func (ls *LightSystem) Stats() LightStats {
	return LightStats{
		Provider:     ls.hits[LightTierProvider].Load(),
		Backup:       ls.hits[LightTierBackup].Load(),
		Scan:         ls.hits[LightTierScan].Load(),
		Default:      ls.hits[LightTierDefault].Load(),
		ScanDisabled: ls.scanDisabled.Load(),
	}
}
