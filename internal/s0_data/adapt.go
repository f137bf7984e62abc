package s0_data

import (
	"encoding/json"
	"fmt"

	"github.com/wonny/sectorscope/internal/contracts"
)

// SectorPayload is the single-sector shape returned by the research collaborator
type SectorPayload struct {
	Sector    string            `json:"sector"`
	SectorKey string            `json:"sector_key"`
	SectorETF json.RawMessage   `json:"sector_etf,omitempty"`
	Stocks    []json.RawMessage `json:"stocks"`
}

type payloadStock struct {
	contracts.RawStockRecord
	Symbol string
}

// HumanizeSectorKey turns "information_technology" into "Information Technology"
func HumanizeSectorKey(sectorKey string) string {
	return titleWords(sectorKey)
}

// AdaptSectorPayload converts a single-sector payload into a one-sector Dataset.
// Entries without a symbol are skipped; a repeated symbol keeps its first position and last values.
func AdaptSectorPayload(payload *SectorPayload) *contracts.Dataset {
	label := payload.Sector
	if label == "" {
		label = HumanizeSectorKey(payload.SectorKey)
	}

	node := &contracts.SectorNode{
		SectorName: &label,
		HasStocks:  true,
		Stocks:     make([]contracts.StockEntry, 0, len(payload.Stocks)),
	}
	if len(payload.SectorETF) > 0 {
		var probe contracts.SectorNode
		wrapped := append(append([]byte(`{"sector_etf":`), payload.SectorETF...), '}')
		if json.Unmarshal(wrapped, &probe) == nil {
			node.SectorETF = probe.SectorETF
		}
	}

	seen := make(map[string]int, len(payload.Stocks))
	for _, raw := range payload.Stocks {
		stock, ok := decodePayloadStock(raw)
		if !ok {
			continue
		}
		rec := stock.RawStockRecord
		if i, dup := seen[stock.Symbol]; dup {
			node.Stocks[i].Raw = &rec
			continue
		}
		seen[stock.Symbol] = len(node.Stocks)
		node.Stocks = append(node.Stocks, contracts.StockEntry{Symbol: stock.Symbol, Raw: &rec})
	}

	return &contracts.Dataset{
		Sectors: []contracts.SectorEntry{{Key: payload.SectorKey, Node: node}},
	}
}

func decodePayloadStock(raw json.RawMessage) (payloadStock, bool) {
	var out payloadStock
	var head struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.Symbol == "" {
		return out, false
	}
	if err := out.RawStockRecord.UnmarshalJSON(raw); err != nil {
		return out, false
	}
	out.Symbol = head.Symbol
	return out, true
}

// DecodePayload accepts a full dataset ({"sectors": ...}), a single-sector payload,
// or either wrapped in a {"data": ...} cache envelope
func DecodePayload(text string) (*contracts.Dataset, error) {
	var probe map[string]json.RawMessage
	if _, err := ParseJSONLenient(text, &probe); err != nil {
		return nil, err
	}

	if _, ok := probe["sector"]; !ok {
		if data, ok := probe["data"]; ok && !isJSONNull(data) {
			return DecodePayload(string(data))
		}
	}

	body, err := json.Marshal(probe)
	if err != nil {
		return nil, fmt.Errorf("re-encode payload: %w", err)
	}
	if _, ok := probe["sectors"]; ok {
		// decode from the extracted text so sector order survives
		var ds contracts.Dataset
		if _, err := ParseJSONLenient(text, &ds); err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		return &ds, nil
	}

	var payload SectorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode sector payload: %w", err)
	}
	if payload.SectorKey == "" && payload.Sector == "" {
		return nil, fmt.Errorf("payload has neither sectors nor sector_key")
	}
	return AdaptSectorPayload(&payload), nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
