package moldata

import "time"

// Bulk initialization execution modes reported to an Observer.
const (
	InitParallel   = "parallel"
	InitSequential = "sequential"
	InitFallback   = "fallback"
)

// Scaler sources reported to an Observer.
const (
	ScalerSupplied = "supplied"
	ScalerCached   = "cached"
	ScalerFitted   = "fitted"
)

// Observer receives dataset events.  Implementations must be safe for
// concurrent use.
type Observer interface {
	DatapointBuilt(ok bool)
	PretrainInitialized(mode string, elapsed time.Duration)
	PoolFallback()
	MaskRegenerated(strategy string, count int)
	FeaturesNormalized(source string)
}

type nopObserver struct{}

func (nopObserver) DatapointBuilt(bool)                      {}
func (nopObserver) PretrainInitialized(string, time.Duration) {}
func (nopObserver) PoolFallback()                             {}
func (nopObserver) MaskRegenerated(string, int)               {}
func (nopObserver) FeaturesNormalized(string)                 {}

// NopObserver discards every event.
func NopObserver() Observer { return nopObserver{} }

//Personal.AI order the ending
