package filterbank

import (
	"fmt"
	"sync"
)

// Params fully determines a Set of filter banks. Two equal Params values
// always produce numerically identical banks, which is what makes the
// cache safe.
type Params struct {
	SampleRate int `json:"sample_rate"`
	NumBins    int `json:"num_bins"`

	MelBands   int     `json:"mel_bands"`
	MelMinFreq float64 `json:"mel_min_freq"`
	MelMaxFreq float64 `json:"mel_max_freq"`

	ChromaBins    int     `json:"chroma_bins"`
	ChromaMinFreq float64 `json:"chroma_min_freq"`
	ChromaMaxFreq float64 `json:"chroma_max_freq"`

	BarkBands int `json:"bark_bands"`
	ERBBands  int `json:"erb_bands"`
}

// Set bundles the four banks every extractor draws from
type Set struct {
	Mel    *Bank
	Chroma *Bank
	Bark   *Bank
	ERB    *Bank
}

// NewSet builds all four banks from params
func NewSet(params Params) (*Set, error) {
	nyquist := float64(params.SampleRate) / 2.0

	mel, err := NewMelBank(params.MelBands, params.NumBins, params.SampleRate, params.MelMinFreq, params.MelMaxFreq)
	if err != nil {
		return nil, fmt.Errorf("building mel bank: %w", err)
	}

	chroma, err := NewChromaBank(params.ChromaBins, params.NumBins, params.SampleRate, params.ChromaMinFreq, params.ChromaMaxFreq)
	if err != nil {
		return nil, fmt.Errorf("building chroma bank: %w", err)
	}

	bark, err := NewBarkBank(params.BarkBands, params.NumBins, params.SampleRate, 20.0, nyquist)
	if err != nil {
		return nil, fmt.Errorf("building bark bank: %w", err)
	}

	erb, err := NewERBBank(params.ERBBands, params.NumBins, params.SampleRate, 20.0, nyquist)
	if err != nil {
		return nil, fmt.Errorf("building erb bank: %w", err)
	}

	return &Set{
		Mel:    mel,
		Chroma: chroma,
		Bark:   bark,
		ERB:    erb,
	}, nil
}

// Cache memoizes bank sets keyed by their Params. Banks are immutable, so
// a cached Set may be shared by any number of readers.
type Cache struct {
	mu   sync.Mutex
	sets map[Params]*Set
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		sets: make(map[Params]*Set),
	}
}

// Get returns the cached Set for params, building it on first use
func (c *Cache) Get(params Params) (*Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.sets[params]; ok {
		return set, nil
	}

	set, err := NewSet(params)
	if err != nil {
		return nil, err
	}

	c.sets[params] = set
	return set, nil
}

// Len returns the number of cached sets
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets)
}
