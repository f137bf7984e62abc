package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawNumber is a lenient numeric field from an external payload.
// Accepts a JSON number, a numeric string or null; anything else is kept as Text and marked malformed.
type RawNumber struct {
	Present bool    // key present and not null
	Valid   bool    // parsed into a finite Value
	Value   float64 // only meaningful when Valid
	Text    string  // original text of a string or non-numeric token
}

// RawNum returns a valid RawNumber
func RawNum(v float64) RawNumber {
	return RawNumber{Present: true, Valid: true, Value: v}
}

// RawText returns a RawNumber carrying unparsed text (e.g. a "lo-hi" price range)
func RawText(s string) RawNumber {
	n := RawNumber{Present: true, Text: s}
	if v, ok := parseFinite(s); ok {
		n.Valid = true
		n.Value = v
	}
	return n
}

// Malformed reports whether the field was supplied but could not be parsed
func (n RawNumber) Malformed() bool {
	return n.Present && !n.Valid
}

// Ptr returns the parsed value or nil
func (n RawNumber) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// UnmarshalJSON never fails: malformed input is recorded, not rejected
func (n *RawNumber) UnmarshalJSON(data []byte) error {
	*n = RawNumber{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			*n = RawNumber{Present: true, Text: string(trimmed)}
			return nil
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		*n = RawText(s)
	default:
		n.Present = true
		if v, ok := parseFinite(string(trimmed)); ok {
			n.Valid = true
			n.Value = v
		} else {
			n.Text = string(trimmed)
		}
	}
	return nil
}

// MarshalJSON writes a number, the original text, or null
func (n RawNumber) MarshalJSON() ([]byte, error) {
	switch {
	case n.Valid && n.Text == "":
		return json.Marshal(n.Value)
	case n.Present:
		return json.Marshal(n.Text)
	default:
		return []byte("null"), nil
	}
}

func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	// ParseFloat accepts "Inf"/"NaN" spellings; only plain numerals count
	if strings.ContainsAny(strings.ToLower(s), "in") {
		return 0, false
	}
	return v, true
}

// RawStockRecord is one stock as delivered by the data source (snake_case keys)
type RawStockRecord struct {
	Price              RawNumber
	PriceRange         RawNumber
	PERatio            RawNumber
	PBRatio            RawNumber
	PSRatio            RawNumber
	ROE                RawNumber
	NetIncome          RawNumber
	FreeCashFlowMargin RawNumber
	DERatio            RawNumber
	RevGrowth          RawNumber
	NetIncomeGrowth    RawNumber
	MarketCap          RawNumber
	Name               string
}

// rawStockWire is the serialized form; nil fields are omitted
type rawStockWire struct {
	Price              interface{} `json:"price,omitempty"`
	PriceRange         interface{} `json:"price_range,omitempty"`
	PERatio            interface{} `json:"pe_ratio,omitempty"`
	PBRatio            interface{} `json:"pb_ratio,omitempty"`
	PSRatio            interface{} `json:"ps_ratio,omitempty"`
	ROE                interface{} `json:"roe,omitempty"`
	NetIncome          interface{} `json:"net_income,omitempty"`
	FreeCashFlowMargin interface{} `json:"free_cash_flow_margin,omitempty"`
	DERatio            interface{} `json:"de_ratio,omitempty"`
	RevGrowth          interface{} `json:"rev_growth,omitempty"`
	NetIncomeGrowth    interface{} `json:"net_income_growth,omitempty"`
	MarketCap          interface{} `json:"market_cap,omitempty"`
	Name               string      `json:"name,omitempty"`
}

func (r *RawStockRecord) fields() map[string]*RawNumber {
	return map[string]*RawNumber{
		"price":                 &r.Price,
		"price_range":           &r.PriceRange,
		"pe_ratio":              &r.PERatio,
		"pb_ratio":              &r.PBRatio,
		"ps_ratio":              &r.PSRatio,
		"roe":                   &r.ROE,
		"net_income":            &r.NetIncome,
		"free_cash_flow_margin": &r.FreeCashFlowMargin,
		"de_ratio":              &r.DERatio,
		"rev_growth":            &r.RevGrowth,
		"net_income_growth":     &r.NetIncomeGrowth,
		"market_cap":            &r.MarketCap,
	}
}

// UnmarshalJSON decodes leniently; a non-object record decodes as empty
func (r *RawStockRecord) UnmarshalJSON(data []byte) error {
	*r = RawStockRecord{}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}

	for key, dst := range r.fields() {
		if raw, ok := obj[key]; ok {
			_ = dst.UnmarshalJSON(raw)
		}
	}
	if raw, ok := obj["name"]; ok {
		var name string
		if json.Unmarshal(raw, &name) == nil {
			r.Name = name
		}
	}
	return nil
}

// MarshalJSON writes the record back in its snake_case wire form
func (r RawStockRecord) MarshalJSON() ([]byte, error) {
	wire := func(n RawNumber) interface{} {
		if !n.Present {
			return nil
		}
		return n
	}
	return json.Marshal(rawStockWire{
		Price:              wire(r.Price),
		PriceRange:         wire(r.PriceRange),
		PERatio:            wire(r.PERatio),
		PBRatio:            wire(r.PBRatio),
		PSRatio:            wire(r.PSRatio),
		ROE:                wire(r.ROE),
		NetIncome:          wire(r.NetIncome),
		FreeCashFlowMargin: wire(r.FreeCashFlowMargin),
		DERatio:            wire(r.DERatio),
		RevGrowth:          wire(r.RevGrowth),
		NetIncomeGrowth:    wire(r.NetIncomeGrowth),
		MarketCap:          wire(r.MarketCap),
		Name:               r.Name,
	})
}

// StockEntry keeps a symbol with its raw record in source order; Raw is nil for a null record
type StockEntry struct {
	Symbol string
	Raw    *RawStockRecord
}

// SectorNode is one sector bucket of a Dataset
type SectorNode struct {
	SectorName *string // label hint; nil when absent or not a string
	SectorETF  string
	HasStocks  bool // false when "stocks" is missing or null
	Stocks     []StockEntry
}

// UnmarshalJSON decodes a sector bucket keeping stock order
func (n *SectorNode) UnmarshalJSON(data []byte) error {
	*n = SectorNode{}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}

	if raw, ok := obj["sector_name"]; ok {
		var name string
		if json.Unmarshal(raw, &name) == nil {
			n.SectorName = &name
		}
	}
	if raw, ok := obj["sector_etf"]; ok {
		n.SectorETF = decodeETF(raw)
	}

	raw, ok := obj["stocks"]
	if !ok {
		return nil
	}
	isObject, err := decodeOrderedObject(raw, func(key string, value json.RawMessage) error {
		entry := StockEntry{Symbol: key}
		if !isNull(value) {
			var rec RawStockRecord
			if err := rec.UnmarshalJSON(value); err != nil {
				return err
			}
			entry.Raw = &rec
		}
		n.Stocks = append(n.Stocks, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("stocks: %w", err)
	}
	n.HasStocks = isObject
	return nil
}

// MarshalJSON writes the sector bucket with stocks in stored order
func (n SectorNode) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if n.SectorName != nil {
		name, _ := json.Marshal(*n.SectorName)
		buf.WriteString(`"sector_name":`)
		buf.Write(name)
		buf.WriteByte(',')
	}
	if n.SectorETF != "" {
		etf, _ := json.Marshal(n.SectorETF)
		buf.WriteString(`"sector_etf":`)
		buf.Write(etf)
		buf.WriteByte(',')
	}
	buf.WriteString(`"stocks":{`)
	for i, s := range n.Stocks {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(s.Symbol)
		buf.Write(key)
		buf.WriteByte(':')
		if s.Raw == nil {
			buf.WriteString("null")
			continue
		}
		rec, err := s.Raw.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(rec)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// SectorEntry keeps a sector key with its bucket in source order; Node is nil for a null bucket
type SectorEntry struct {
	Key  string
	Node *SectorNode
}

// Dataset is the ingestion input: {"sectors": {<key>: {...}}}
// ⭐ SSOT: S0 입력 데이터셋, 섹터/종목 순서는 원본 JSON 순서 유지
type Dataset struct {
	Sectors []SectorEntry
}

// Sector returns the bucket for key
func (d *Dataset) Sector(key string) (*SectorNode, bool) {
	for _, s := range d.Sectors {
		if s.Key == key {
			return s.Node, s.Node != nil
		}
	}
	return nil, false
}

// Keys returns sector keys in source order
func (d *Dataset) Keys() []string {
	keys := make([]string, 0, len(d.Sectors))
	for _, s := range d.Sectors {
		keys = append(keys, s.Key)
	}
	return keys
}

// StockCount counts non-null stock records
func (d *Dataset) StockCount() int {
	count := 0
	for _, s := range d.Sectors {
		if s.Node == nil {
			continue
		}
		for _, st := range s.Node.Stocks {
			if st.Raw != nil {
				count++
			}
		}
	}
	return count
}

// UnmarshalJSON decodes a dataset keeping sector order; missing "sectors" yields an empty dataset
func (d *Dataset) UnmarshalJSON(data []byte) error {
	*d = Dataset{}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("dataset must be a JSON object: %w", err)
	}

	raw, ok := obj["sectors"]
	if !ok {
		return nil
	}
	_, err := decodeOrderedObject(raw, func(key string, value json.RawMessage) error {
		entry := SectorEntry{Key: key}
		if !isNull(value) {
			var node SectorNode
			if err := node.UnmarshalJSON(value); err != nil {
				return fmt.Errorf("sector %s: %w", key, err)
			}
			entry.Node = &node
		}
		d.Sectors = append(d.Sectors, entry)
		return nil
	})
	return err
}

// MarshalJSON writes the dataset with sectors in stored order
func (d Dataset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"sectors":{`)
	for i, s := range d.Sectors {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(s.Key)
		buf.Write(key)
		buf.WriteByte(':')
		if s.Node == nil {
			buf.WriteString("null")
			continue
		}
		node, err := s.Node.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(node)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// decodeOrderedObject walks a JSON object in key order.
// A repeated key keeps its first position and its last value, like JSON.parse.
// Returns false without error when data is not an object.
func decodeOrderedObject(data json.RawMessage, fn func(key string, value json.RawMessage) error) (bool, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return false, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return false, nil
	}

	var (
		keys   []string
		values []json.RawMessage
		index  = make(map[string]int)
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return true, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return true, fmt.Errorf("unexpected object key %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return true, err
		}
		if i, seen := index[key]; seen {
			values[i] = value
			continue
		}
		index[key] = len(keys)
		keys = append(keys, key)
		values = append(values, value)
	}

	for i, key := range keys {
		if err := fn(key, values[i]); err != nil {
			return true, err
		}
	}
	return true, nil
}

// decodeETF accepts a ticker string or an object carrying "ticker"
func decodeETF(raw json.RawMessage) string {
	var ticker string
	if json.Unmarshal(raw, &ticker) == nil {
		return ticker
	}
	var obj struct {
		Ticker string `json:"ticker"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Ticker
	}
	return ""
}

func isNull(data json.RawMessage) bool {
	return string(bytes.TrimSpace(data)) == "null"
}
