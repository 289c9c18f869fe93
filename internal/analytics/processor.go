package analytics

import (
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
)

// Processor builds the base dataset of a page from raw loader output.
type Processor struct {
	page       string
	normalizer *Normalizer
	now        func() time.Time
}

func NewProcessor(page string, cfg NormalizerConfig) *Processor {
	return &Processor{
		page:       page,
		normalizer: NewNormalizer(cfg),
		now:        time.Now,
	}
}

// Build normalizes rows, derives calendar fields and returns the immutable
// base dataset. Zero rows produce an empty dataset.
func (p *Processor) Build(rows []domain.RawRow) *domain.Dataset {
	records := p.normalizer.Normalize(rows)
	DeriveAll(records)

	return &domain.Dataset{
		Page:      p.page,
		Records:   records,
		Sentinels: p.normalizer.Sentinels(),
		LoadedAt:  p.now().UTC(),
	}
}

// Sentinels exposes the placeholder labels of the page's dimensions.
func (p *Processor) Sentinels() map[string]string {
	return p.normalizer.Sentinels()
}
