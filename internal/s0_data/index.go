package s0_data

import "github.com/wonny/sectorscope/internal/contracts"

// IndexEntry is what the Index knows about one ticker
type IndexEntry struct {
	SectorKey   string
	SectorLabel string
	Stock       contracts.CanonicalStock
}

// Index is a read-only ticker/sector lookup built once from a dataset snapshot.
// Safe for concurrent reads; rebuild it to pick up a new dataset.
type Index struct {
	byTicker   map[string]IndexEntry
	bySector   map[string][]string
	sectorKeys []string
}

// NewIndex flattens the dataset with the same percent semantics as Flatten.
// A ticker listed under several sectors keeps its first occurrence.
func NewIndex(dataset *contracts.Dataset) *Index {
	idx := &Index{
		byTicker:   make(map[string]IndexEntry),
		bySector:   make(map[string][]string),
		sectorKeys: make([]string, 0),
	}
	if dataset == nil {
		return idx
	}

	for _, sector := range dataset.Sectors {
		if sector.Node == nil || !sector.Node.HasStocks {
			continue
		}

		// Flatten one sector at a time to remember which key each stock came from
		single := &contracts.Dataset{Sectors: []contracts.SectorEntry{sector}}
		flat := Flatten(single)
		label := FormatSectorName(sector.Key, sector.Node.SectorName)

		symbols := make([]string, 0, len(flat.Stocks))
		for _, stock := range flat.Stocks {
			symbols = append(symbols, stock.Symbol)
			if _, seen := idx.byTicker[stock.Symbol]; seen {
				continue
			}
			idx.byTicker[stock.Symbol] = IndexEntry{
				SectorKey:   sector.Key,
				SectorLabel: label,
				Stock:       stock,
			}
		}

		if _, seen := idx.bySector[sector.Key]; !seen {
			idx.sectorKeys = append(idx.sectorKeys, sector.Key)
		}
		idx.bySector[sector.Key] = append(idx.bySector[sector.Key], symbols...)
	}

	return idx
}

// SectorKeys returns sector keys in dataset order
func (i *Index) SectorKeys() []string {
	out := make([]string, len(i.sectorKeys))
	copy(out, i.sectorKeys)
	return out
}

// SymbolsBySector returns the tickers of a sector key in dataset order
func (i *Index) SymbolsBySector(sectorKey string) []string {
	symbols := i.bySector[sectorKey]
	out := make([]string, len(symbols))
	copy(out, symbols)
	return out
}

// Lookup returns the entry of a ticker
func (i *Index) Lookup(ticker string) (IndexEntry, bool) {
	entry, ok := i.byTicker[ticker]
	return entry, ok
}

// StockName returns the company name, falling back to the ticker
func (i *Index) StockName(ticker string) string {
	if entry, ok := i.byTicker[ticker]; ok {
		return entry.Stock.DisplayName()
	}
	return ticker
}

// Len returns the number of distinct tickers
func (i *Index) Len() int {
	return len(i.byTicker)
}
