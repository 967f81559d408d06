package cvanalysis

import (
	"sync/atomic"

	"recruit-backend/internal/shared/telemetry"
)

// Holder shares the current analyzer across requests. Readers get an
// immutable snapshot; Swap and Reload replace it atomically.
type Holder struct {
	current atomic.Pointer[Analyzer]
	dir     string
}

// NewHolder returns a holder for artifacts in dir, initially untrained.
func NewHolder(dir string) *Holder {
	return &Holder{dir: dir}
}

// Current returns the live analyzer or nil when untrained.
func (h *Holder) Current() *Analyzer {
	return h.current.Load()
}

// Trained reports whether an analyzer is loaded.
func (h *Holder) Trained() bool {
	return h.current.Load() != nil
}

// Swap installs a as the live analyzer.
func (h *Holder) Swap(a *Analyzer) {
	h.current.Store(a)
}

// Reload loads the artifacts from the holder's directory and swaps them in.
// On failure the live analyzer is left untouched.
func (h *Holder) Reload() error {
	a, err := Load(h.dir)
	if err != nil {
		if IsMissing(err) {
			telemetry.Warn("cv.model.not_found", map[string]any{"dir": h.dir})
		} else {
			telemetry.Error("cv.model.load_failed", map[string]any{"dir": h.dir, "error": err.Error()})
		}
		return err
	}
	h.current.Store(a)
	telemetry.Info("cv.model.loaded", map[string]any{"dir": h.dir, "domains": a.Domains()})
	return nil
}

// Dir returns the artifact directory.
func (h *Holder) Dir() string {
	return h.dir
}
