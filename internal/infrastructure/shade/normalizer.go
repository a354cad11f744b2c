package shade

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/beautycare/backend/internal/domain"
)

// mapEntry is the on-disk shape of one shade_map.json value
type mapEntry struct {
	ShadeID   string `json:"shade_id"`
	Hex       string `json:"hex,omitempty"`
	Undertone string `json:"undertone,omitempty"`
	Depth     string `json:"depth,omitempty"`
	Finish    string `json:"finish,omitempty"`
}

// Normalizer maps free-form shade names onto canonical shade records and
// keeps the neighbor graph used for out-of-stock fallback.
type Normalizer struct {
	mapPath       string
	neighborsPath string

	mu        sync.RWMutex
	shades    map[string]domain.ShadeInfo // keyed by normalized raw name
	byID      map[string]domain.ShadeInfo
	neighbors map[string][]string
	fuzzyKeys []string // longest first, then lexical
}

// NewNormalizer loads the shade map and neighbor files. Missing files fall
// back to the built-in defaults; malformed files are an error.
func NewNormalizer(mapPath, neighborsPath string) (*Normalizer, error) {
	n := &Normalizer{
		mapPath:       mapPath,
		neighborsPath: neighborsPath,
		shades:        make(map[string]domain.ShadeInfo),
		neighbors:     make(map[string][]string),
	}

	entries, err := readJSON[map[string]mapEntry](mapPath)
	if err != nil {
		return nil, fmt.Errorf("shade map %s: %w", mapPath, err)
	}
	for raw, e := range entries {
		n.shades[domain.NormalizeText(raw)] = domain.ShadeInfo{
			ShadeID:   e.ShadeID,
			RawName:   raw,
			Undertone: domain.Undertone(strings.ToLower(e.Undertone)),
			Depth:     domain.Depth(strings.ToLower(e.Depth)),
			Finish:    strings.ToLower(e.Finish),
			Hex:       e.Hex,
		}
	}
	if len(n.shades) == 0 {
		for raw, info := range defaultShades {
			info.RawName = raw
			n.shades[raw] = info
		}
	}

	neighbors, err := readJSON[map[string][]string](neighborsPath)
	if err != nil {
		return nil, fmt.Errorf("shade neighbors %s: %w", neighborsPath, err)
	}
	if len(neighbors) == 0 {
		neighbors = make(map[string][]string, len(defaultNeighbors))
		for id, ns := range defaultNeighbors {
			neighbors[id] = append([]string(nil), ns...)
		}
	}
	n.neighbors = neighbors

	n.reindex()

	log.Info().
		Int("shades", len(n.shades)).
		Int("neighbors", len(n.neighbors)).
		Msg("Shade normalizer loaded")

	return n, nil
}

// readJSON decodes a JSON file; a missing file or empty path yields the zero value
func readJSON[T any](path string) (T, error) {
	var out T
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

// reindex rebuilds the id index and fuzzy key order. Caller holds the write lock.
func (n *Normalizer) reindex() {
	keys := make([]string, 0, len(n.shades))
	for k := range n.shades {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	n.fuzzyKeys = keys

	// Lexical walk so the id index is independent of map order
	lexical := append([]string(nil), keys...)
	sort.Strings(lexical)
	n.byID = make(map[string]domain.ShadeInfo, len(keys))
	for _, k := range lexical {
		info := n.shades[k]
		if _, exists := n.byID[info.ShadeID]; !exists {
			n.byID[info.ShadeID] = info
		}
	}
}

// Normalize resolves a raw shade name. Exact case-insensitive matches win,
// then substring matches in either direction, then a synthesized unknown id
// derived from the name. An empty name yields an empty record.
func (n *Normalizer) Normalize(raw string) domain.ShadeInfo {
	key := domain.NormalizeText(raw)
	if key == "" {
		return domain.ShadeInfo{}
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if info, ok := n.shades[key]; ok {
		return info
	}

	for _, k := range n.fuzzyKeys {
		if strings.Contains(k, key) || strings.Contains(key, k) {
			return n.shades[k]
		}
	}

	return domain.ShadeInfo{ShadeID: UnknownID(key), RawName: raw}
}

// UnknownID returns the deterministic id for an unmapped shade name
func UnknownID(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("unknown_%03d", h.Sum32()%1000)
}

// ByID returns the canonical record for a shade id
func (n *Normalizer) ByID(shadeID string) (domain.ShadeInfo, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	info, ok := n.byID[shadeID]
	return info, ok
}

// GetShadeNeighbors returns the adjacent shade ids, nearest first
func (n *Normalizer) GetShadeNeighbors(shadeID string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.neighbors[shadeID]...)
}

// SeasonUniversals returns the safe default shade ids for a season
func (n *Normalizer) SeasonUniversals(season domain.Season) []string {
	if ids, ok := seasonUniversals[domain.Season(strings.ToLower(string(season)))]; ok {
		return append([]string(nil), ids...)
	}
	return append([]string(nil), neutralUniversals...)
}

// AddShade registers or replaces a mapping for a raw name
func (n *Normalizer) AddShade(raw string, info domain.ShadeInfo) error {
	key := domain.NormalizeText(raw)
	if key == "" || info.ShadeID == "" {
		return fmt.Errorf("%w: shade name and id are required", domain.ErrInvalidRequest)
	}
	info.RawName = raw

	n.mu.Lock()
	defer n.mu.Unlock()
	n.shades[key] = info
	n.reindex()
	return nil
}

// SetNeighbors replaces the neighbor list of a shade id
func (n *Normalizer) SetNeighbors(shadeID string, neighborIDs []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.neighbors[shadeID] = append([]string(nil), neighborIDs...)
}

// Save writes the shade map and neighbor graph back to their files
func (n *Normalizer) Save() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := make(map[string]mapEntry, len(n.shades))
	for _, info := range n.shades {
		entries[info.RawName] = mapEntry{
			ShadeID:   info.ShadeID,
			Hex:       info.Hex,
			Undertone: string(info.Undertone),
			Depth:     string(info.Depth),
			Finish:    info.Finish,
		}
	}

	if err := writeJSON(n.mapPath, entries); err != nil {
		return fmt.Errorf("save shade map: %w", err)
	}
	if err := writeJSON(n.neighborsPath, n.neighbors); err != nil {
		return fmt.Errorf("save shade neighbors: %w", err)
	}
	return nil
}

// writeJSON writes indented JSON through a temp file and rename
func writeJSON(path string, v any) error {
	if path == "" {
		return errors.New("empty path")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
