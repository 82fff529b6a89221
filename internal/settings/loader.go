package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrEmptyBlob is returned by the decoders for a blank record.
var ErrEmptyBlob = errors.New("empty settings blob")

// decodeYAML reads a record written by the local store. Fields with the
// wrong type are dropped and reported; the rest of the record survives.
func decodeYAML(b []byte) (rawConfig, error) {
	var raw rawConfig
	if len(bytes.TrimSpace(b)) == 0 {
		return rawConfig{}, ErrEmptyBlob
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return raw, err
		}
		return rawConfig{}, err
	}
	return raw, nil
}

// decodeJSON reads a record handed over by the host's save hook.
// Comments and trailing commas are tolerated.
func decodeJSON(b []byte) (rawConfig, error) {
	var raw rawConfig
	if len(bytes.TrimSpace(b)) == 0 {
		return rawConfig{}, ErrEmptyBlob
	}
	if err := json.Unmarshal(jsonc.ToJSON(b), &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return raw, err
		}
		return rawConfig{}, err
	}
	return raw, nil
}

// isPartial reports whether a decode error still left a usable record.
func isPartial(err error) bool {
	var yamlErr *yaml.TypeError
	var jsonErr *json.UnmarshalTypeError
	return errors.As(err, &yamlErr) || errors.As(err, &jsonErr)
}

// mergeRaw lays the fields present in b over a. Top-level keys replace;
// the selection map is merged by union of keys.
func mergeRaw(a Config, b rawConfig) Config {
	out := a.Clone()

	if b.SellMode != nil {
		out.SellMode = SellMode(*b.SellMode)
	}
	if b.SellCount != nil {
		out.SellCount = *b.SellCount
	}
	if b.Rebuy != nil {
		out.Rebuy = *b.Rebuy
	}
	if b.RebuyDelayMs != nil {
		out.RebuyDelayMs = *b.RebuyDelayMs
	}
	if b.Selected != nil {
		out.Selected = out.Selected.Union(*b.Selected)
	}
	if b.ShowFloatingButton != nil {
		out.ShowFloatingButton = *b.ShowFloatingButton
	}
	if b.PauseHotkeys != nil {
		out.PauseHotkeys = *b.PauseHotkeys
	}
	if b.AutoPauseBeforeBurst != nil {
		out.AutoPauseBeforeBurst = *b.AutoPauseBeforeBurst
	}
	if b.AutoResumeAfterBurst != nil {
		out.AutoResumeAfterBurst = *b.AutoResumeAfterBurst
	}
	return out
}

// Parse merges a persisted YAML or JSON record over Defaults and
// normalizes it. A blob that cannot be read at all yields Defaults and
// the parse error; a blob with some mistyped fields keeps the good ones.
func Parse(blob []byte) (Config, error) {
	raw, err := decodeYAML(blob)
	if err != nil && !isPartial(err) {
		return Defaults(), fmt.Errorf("parse settings: %w", err)
	}
	return Normalize(mergeRaw(Defaults(), raw)), err
}

// ParseHostBlob is Parse for the JSON blob stored with the host's save.
func ParseHostBlob(blob []byte) (Config, error) {
	raw, err := decodeJSON(blob)
	if err != nil && !isPartial(err) {
		return Defaults(), fmt.Errorf("parse host blob: %w", err)
	}
	return Normalize(mergeRaw(Defaults(), raw)), err
}

// Encode renders cfg for the local store.
func Encode(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// EncodeJSON renders cfg for the host's save hook.
func EncodeJSON(cfg Config) ([]byte, error) {
	return json.Marshal(cfg)
}
