// Package normalizer is the boundary between free-form AI output and the
// estimate data model. The upstream model is instructed to sometimes emit
// pure JSON and sometimes prose with JSON embedded, and its output is not
// contractually guaranteed, so everything here is permissive: recognized
// shapes are repaired with safe defaults, and anything unrecognized routes
// to plain conversational text rather than an error.
package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/serhq/estimator/internal/models"
)

// Kind classifies what a chat turn contained.
type Kind int

const (
	// KindText is a plain conversational reply with no structured payload.
	KindText Kind = iota
	// KindEstimate is a budget payload with line items.
	KindEstimate
	// KindShotList is a structured shot list.
	KindShotList
	// KindCallSheet is a structured call sheet.
	KindCallSheet
)

func (k Kind) String() string {
	switch k {
	case KindEstimate:
		return "estimate"
	case KindShotList:
		return "shot_list"
	case KindCallSheet:
		return "call_sheet"
	default:
		return "text"
	}
}

// EstimatePayload is a recognized budget payload: coerced line items plus
// the model's own summary of its approach, carried through unmodified.
type EstimatePayload struct {
	Items     []models.LineItem `json:"items"`
	Reasoning string            `json:"reasoning,omitempty"`
}

// Result is the tagged outcome of normalizing one AI turn. Exactly the
// payload matching Kind is populated; Text always holds the original raw
// string so conversational turns can be shown verbatim.
type Result struct {
	Kind      Kind
	Estimate  *EstimatePayload
	ShotList  *models.ShotList
	CallSheet *models.CallSheet
	Text      string
}

// Normalize classifies raw AI output as an estimate, shot list, call sheet
// or plain text.
//
// The whole trimmed text is parsed as JSON first; on failure the widest
// first-'{' to last-'}' span is tried. If neither parses, the turn is plain
// text. A parsed object is then classified by shape, in fixed priority
// order: an "items" array wins over "scenes", which wins over
// "crew"/"schedule". Valid JSON of an unrecognized shape is plain text too.
// Normalize never returns an error: total unparseability is a routing
// decision, not a failure.
func Normalize(raw string) Result {
	text := Result{Kind: KindText, Text: raw}

	payload, ok := extractObject(raw)
	if !ok {
		return text
	}

	if itemsRaw, present := payload["items"]; present {
		items, ok := decodeItems(itemsRaw)
		if ok {
			est := &EstimatePayload{Items: items}
			if reasoning, ok := payload["reasoning"]; ok {
				_ = json.Unmarshal(reasoning, &est.Reasoning)
			}
			return Result{Kind: KindEstimate, Estimate: est, Text: raw}
		}
	}

	if _, present := payload["scenes"]; present {
		var list models.ShotList
		if unmarshalObject(payload, &list) {
			return Result{Kind: KindShotList, ShotList: &list, Text: raw}
		}
	}

	_, hasCrew := payload["crew"]
	_, hasSchedule := payload["schedule"]
	if hasCrew || hasSchedule {
		var sheet models.CallSheet
		if unmarshalObject(payload, &sheet) {
			return Result{Kind: KindCallSheet, CallSheet: &sheet, Text: raw}
		}
	}

	return text
}

// ExtractLineItem parses raw AI output expected to contain a single line
// item object, applying the same extraction and coercion rules as Normalize.
// The second return is false when no JSON object could be found.
func ExtractLineItem(raw string) (models.LineItem, bool) {
	payload, ok := extractObject(raw)
	if !ok {
		return models.LineItem{}, false
	}
	var fields map[string]any
	if !unmarshalObject(payload, &fields) {
		return models.LineItem{}, false
	}
	return CoerceLineItem(fields), true
}

// extractObject finds and parses a JSON object in the response. It tries the
// whole trimmed text first, then the widest {...} span, matching how the
// upstream prompts interleave prose and JSON.
func extractObject(raw string) (map[string]json.RawMessage, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err == nil {
		return payload, payload != nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, false
	}
	return payload, payload != nil
}

func unmarshalObject(payload map[string]json.RawMessage, v any) bool {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	return json.Unmarshal(encoded, v) == nil
}

// decodeItems coerces a raw "items" value into line items. The estimate
// shape requires an actual array: a non-array value, including an explicit
// null, fails it and the caller falls through to the next shape. Array
// elements that aren't objects collapse to all-default items.
func decodeItems(raw json.RawMessage) ([]models.LineItem, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, false
	}
	// json.Unmarshal leaves the slice nil for a null token without erroring.
	if elements == nil {
		return nil, false
	}

	items := make([]models.LineItem, 0, len(elements))
	for _, element := range elements {
		var fields map[string]any
		_ = json.Unmarshal(element, &fields)
		items = append(items, CoerceLineItem(fields))
	}
	return items, true
}

// CoerceLineItem repairs one AI-supplied item into a valid LineItem. Every
// field has a safe default: quantity 1, rate 0, unit "day", category Other
// when it doesn't exactly match the enum. The item always gets a fresh id
// (an AI-supplied id is never trusted) and is always taxable.
func CoerceLineItem(fields map[string]any) models.LineItem {
	item := models.LineItem{
		ID:       uuid.New().String(),
		Quantity: coerceNumber(fields["quantity"], 1),
		Rate:     coerceNumber(fields["rate"], 0),
		Unit:     models.UnitDay,
		Category: models.CategoryOther,
		Taxable:  true,
	}

	if description, ok := fields["description"].(string); ok {
		item.Description = description
	}
	if unit, ok := fields["unit"].(string); ok && unit != "" {
		item.Unit = unit
	}
	if category, ok := fields["category"].(string); ok && models.ValidCategory(models.Category(category)) {
		item.Category = models.Category(category)
	}
	return item
}

// coerceNumber parses v as a number, falling back to def on failure,
// absence, or zero. The zero case is deliberate: the source of record
// treated zero as unset, and the normalizer's contract is tolerance, not
// correction.
func coerceNumber(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		if n != 0 {
			return n
		}
	case json.Number:
		if parsed, err := n.Float64(); err == nil && parsed != 0 {
			return parsed
		}
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && parsed != 0 {
			return parsed
		}
	case bool:
		if n {
			return 1
		}
	}
	return def
}
