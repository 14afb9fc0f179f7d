package types

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
)

// VariantSelections maps a variant axis (e.g. "Color") to the chosen value.
type VariantSelections map[string]string

// Axes returns the selected axis names in sorted order.
func (v VariantSelections) Axes() []string {
	axes := make([]string, 0, len(v))
	for axis := range v {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	return axes
}

// Value serializes the selections to JSON, storing an empty object for nil.
func (v VariantSelections) Value() (driver.Value, error) {
	if v == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]string(v))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes JSON into the selections.
func (v *VariantSelections) Scan(value interface{}) error {
	if value == nil {
		*v = VariantSelections{}
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}
	decoded := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
	}
	*v = VariantSelections(decoded)
	return nil
}
