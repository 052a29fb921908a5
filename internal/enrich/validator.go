package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/gardenscape/plant-import/internal/model"
)

const validatorSystemPrompt = `You are a horticulture reference assistant. You complete missing data for garden plant records using authoritative botanical and horticultural sources.
Respond with a single valid JSON object and nothing else. Use only the keys you are asked for. If a value cannot be determined, use null. Never guess a scientific classification.`

const validatorPrompt = `Plant: %s
Known data:
%s

Fill in these missing fields: %s

Field formats:
- common_name, family, genus, species, description: string
- cycle: one of "perennial", "annual", "biennial"
- watering: one of "minimum", "moderate", "frequent"
- sunlight, soil: array of strings (e.g. ["full sun", "part shade"])
- maintenance: one of "low", "moderate", "high"
- hardiness_zones: USDA zone range as a string (e.g. "4-9")
- growth_rate: one of "slow", "moderate", "fast"
- flower_color, flowering_season, conservation_status, native_region: string
- poisonous_to_pets, poisonous_to_humans: boolean
- height_min_cm, height_max_cm, spread_min_cm, spread_max_cm: number in centimeters`

// ValidatorSchema is the JSON schema the validator response must satisfy.
var ValidatorSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "common_name": {"type": ["string", "null"]},
    "family": {"type": ["string", "null"]},
    "genus": {"type": ["string", "null"]},
    "species": {"type": ["string", "null"]},
    "description": {"type": ["string", "null"]},
    "cycle": {"type": ["string", "null"]},
    "watering": {"type": ["string", "null"]},
    "sunlight": {"type": ["array", "null"], "items": {"type": "string"}},
    "soil": {"type": ["array", "null"], "items": {"type": "string"}},
    "maintenance": {"type": ["string", "null"]},
    "hardiness_zones": {"type": ["string", "null"]},
    "growth_rate": {"type": ["string", "null"]},
    "flower_color": {"type": ["string", "null"]},
    "flowering_season": {"type": ["string", "null"]},
    "poisonous_to_pets": {"type": ["boolean", "null"]},
    "poisonous_to_humans": {"type": ["boolean", "null"]},
    "height_min_cm": {"type": ["number", "null"]},
    "height_max_cm": {"type": ["number", "null"]},
    "spread_min_cm": {"type": ["number", "null"]},
    "spread_max_cm": {"type": ["number", "null"]},
    "conservation_status": {"type": ["string", "null"]},
    "native_region": {"type": ["string", "null"]}
  }
}`)

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

type validatorStage struct{ c Completer }

// ValidatorStage asks an LLM for the fields no source could fill. It makes
// no call when nothing is empty.
func ValidatorStage(c Completer) Stage { return validatorStage{c: c} }

func (validatorStage) Name() string { return StageValidator }

func (validatorStage) Needed(c model.Candidate) bool {
	if !hasName(c) && strings.TrimSpace(c.CommonName) == "" {
		return false
	}
	return len(c.EmptyFields()) > 0
}

func (validatorStage) CacheKey(model.Candidate) string { return "" }

func (s validatorStage) Lookup(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	empty := c.EmptyFields()
	text, err := s.c.Complete(ctx, validatorSystemPrompt, validatorUserPrompt(c, empty))
	if err != nil {
		return model.Candidate{}, err
	}
	resp, err := parseValidatorResponse(text)
	if err != nil {
		return model.Candidate{}, err
	}
	return resp.candidate(), nil
}

func validatorUserPrompt(c model.Candidate, empty []string) string {
	name := c.ScientificName
	if name == "" {
		name = c.CommonName
	}
	known, _ := json.MarshalIndent(c, "", "  ")
	return fmt.Sprintf(validatorPrompt, name, known, strings.Join(empty, ", "))
}

// parseValidatorResponse decodes the LLM reply. It tries the whole text,
// then the outermost {...} span.
func parseValidatorResponse(text string) (validatorResponse, error) {
	cleaned := stripFences(text)

	var r validatorResponse
	if err := json.Unmarshal([]byte(cleaned), &r); err == nil {
		return r, nil
	}

	span := jsonObjectRe.FindString(cleaned)
	if span == "" {
		return validatorResponse{}, eris.New("enrich: no JSON object in validator response")
	}
	r = validatorResponse{}
	if err := json.Unmarshal([]byte(span), &r); err != nil {
		return validatorResponse{}, eris.Wrap(err, "enrich: unmarshal validator response")
	}
	return r, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}

type validatorResponse struct {
	CommonName         flexString `json:"common_name"`
	Family             flexString `json:"family"`
	Genus              flexString `json:"genus"`
	Species            flexString `json:"species"`
	Description        flexString `json:"description"`
	Cycle              flexString `json:"cycle"`
	Watering           flexString `json:"watering"`
	Sunlight           flexList   `json:"sunlight"`
	Soil               flexList   `json:"soil"`
	Maintenance        flexString `json:"maintenance"`
	HardinessZones     flexString `json:"hardiness_zones"`
	GrowthRate         flexString `json:"growth_rate"`
	FlowerColor        flexString `json:"flower_color"`
	FloweringSeason    flexString `json:"flowering_season"`
	PoisonousToPets    flexBool   `json:"poisonous_to_pets"`
	PoisonousToHumans  flexBool   `json:"poisonous_to_humans"`
	HeightMinCM        flexFloat  `json:"height_min_cm"`
	HeightMaxCM        flexFloat  `json:"height_max_cm"`
	SpreadMinCM        flexFloat  `json:"spread_min_cm"`
	SpreadMaxCM        flexFloat  `json:"spread_max_cm"`
	ConservationStatus flexString `json:"conservation_status"`
	NativeRegion       flexString `json:"native_region"`
}

func (r validatorResponse) candidate() model.Candidate {
	return model.Candidate{
		CommonName:        string(r.CommonName),
		Family:            string(r.Family),
		Genus:             string(r.Genus),
		Species:           strings.ToLower(string(r.Species)),
		Description:       string(r.Description),
		Cycle:             strings.ToLower(string(r.Cycle)),
		Watering:          strings.ToLower(string(r.Watering)),
		Sunlight:          r.Sunlight,
		Soil:              r.Soil,
		Maintenance:       strings.ToLower(string(r.Maintenance)),
		HardinessZones:    string(r.HardinessZones),
		GrowthRate:        strings.ToLower(string(r.GrowthRate)),
		FlowerColor:       string(r.FlowerColor),
		FloweringSeason:   string(r.FloweringSeason),
		PoisonousToPets:   r.PoisonousToPets.ptr,
		PoisonousToHumans: r.PoisonousToHumans.ptr,
		Dimensions: model.Dimensions{
			HeightMinCM: r.HeightMinCM.ptr,
			HeightMaxCM: r.HeightMaxCM.ptr,
			SpreadMinCM: r.SpreadMinCM.ptr,
			SpreadMaxCM: r.SpreadMaxCM.ptr,
		},
		ConservationStatus: string(r.ConservationStatus),
		NativeRegion:       string(r.NativeRegion),
	}
}

// placeholder reports LLM filler values that mean "no value".
func placeholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown", "n/a", "na", "none", "null", "not available", "-":
		return true
	}
	return false
}

// flexString accepts a string, number or bool.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = strings.Trim(string(bytes.TrimSpace(data)), `"`)
		if s == "null" || strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			s = ""
		}
	}
	s = strings.TrimSpace(s)
	if placeholder(s) {
		s = ""
	}
	*f = flexString(s)
	return nil
}

// flexList accepts an array of strings or a comma separated string.
type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		var s string
		if json.Unmarshal(data, &s) != nil {
			*f = nil
			return nil
		}
		raw = strings.Split(s, ",")
	}
	var out []string
	for _, v := range raw {
		v = strings.ToLower(strings.TrimSpace(v))
		if !placeholder(v) {
			out = append(out, v)
		}
	}
	*f = out
	return nil
}

// flexBool accepts true/false, "yes"/"no" and 0/1.
type flexBool struct{ ptr *bool }

func (f *flexBool) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		f.ptr = nil
		return nil
	}
	var b bool
	if json.Unmarshal(data, &b) == nil {
		f.ptr = model.Bool(b)
		return nil
	}
	s := strings.ToLower(strings.Trim(string(bytes.TrimSpace(data)), `"`))
	switch s {
	case "yes", "true", "1", "toxic":
		f.ptr = model.Bool(true)
	case "no", "false", "0", "non-toxic":
		f.ptr = model.Bool(false)
	default:
		f.ptr = nil
	}
	return nil
}

// flexFloat accepts a number or a numeric string. Non-positive values are
// treated as unknown.
type flexFloat struct{ ptr *float64 }

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		f.ptr = nil
		return nil
	}
	f.ptr = model.Float(v)
	return nil
}
