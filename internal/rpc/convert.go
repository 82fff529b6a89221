package rpc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/burst-helper/internal/burst"
	"github.com/xtding233/burst-helper/internal/settings"
)

func settingsStruct(cfg settings.Config) (*structpb.Struct, error) {
	b, err := settings.EncodeJSON(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	// structpb objects are unordered; keep the burst order alongside.
	order := make([]interface{}, 0, cfg.Selected.Len())
	for _, n := range cfg.Selected.Names() {
		order = append(order, n)
	}
	m["selectedOrder"] = order
	return structpb.NewStruct(m)
}

func resultStruct(r burst.Result) (*structpb.Struct, error) {
	lines := make([]interface{}, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, map[string]interface{}{
			"unit":     l.Unit,
			"owned":    float64(l.Owned),
			"sold":     float64(l.Sell),
			"rebought": float64(l.Rebought),
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"outcome":  string(r.Outcome),
		"total":    float64(r.Total),
		"rebought": float64(r.Rebought()),
		"lines":    lines,
	})
}

type change struct {
	key, value string
}

// flatten turns an update request into settings key/value pairs in a
// stable order.
func flatten(req *structpb.Struct) ([]change, error) {
	var out []change
	for _, key := range sortedKeys(req.GetFields()) {
		v := req.GetFields()[key]
		if key == "selected" {
			sel := v.GetStructValue()
			if sel == nil {
				return nil, fmt.Errorf("selected: expected an object")
			}
			for _, unit := range sortedKeys(sel.GetFields()) {
				s, err := scalar(sel.GetFields()[unit])
				if err != nil {
					return nil, fmt.Errorf("selected.%s: %w", unit, err)
				}
				out = append(out, change{"selected." + unit, s})
			}
			continue
		}
		s, err := scalar(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, change{key, s})
	}
	return out, nil
}

func scalar(v *structpb.Value) (string, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	}
	return "", fmt.Errorf("expected a bool, number or string")
}

func sortedKeys(m map[string]*structpb.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
