package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CatalogReloader reloads the catalog when its file changed
type CatalogReloader interface {
	ReloadIfChanged(ctx context.Context) (bool, error)
}

// CatalogWatcher polls the catalog file and swaps in a new snapshot when it
// changes. A failed reload keeps the previous snapshot.
type CatalogWatcher struct {
	catalog  CatalogReloader
	interval time.Duration
}

// NewCatalogWatcher constructs a CatalogWatcher
func NewCatalogWatcher(catalog CatalogReloader, interval time.Duration) *CatalogWatcher {
	return &CatalogWatcher{catalog: catalog, interval: interval}
}

// Start runs the poll loop until ctx is canceled
func (w *CatalogWatcher) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Catalog watcher disabled")
		return
	}

	log.Info().Dur("interval", w.interval).Msg("Starting catalog watcher")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Catalog watcher stopped")
			return
		}
	}
}

func (w *CatalogWatcher) run(ctx context.Context) {
	changed, err := w.catalog.ReloadIfChanged(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Catalog reload failed, keeping previous snapshot")
		return
	}
	if changed {
		log.Info().Msg("Catalog reloaded after file change")
	}
}
