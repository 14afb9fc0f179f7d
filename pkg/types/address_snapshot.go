package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAddressSnapshot is returned when a stored snapshot cannot be decoded.
var ErrInvalidAddressSnapshot = errors.New("invalid address snapshot")

// AddressSnapshot is the frozen copy of a shipping or billing address stored on
// an order. It is never joined back to the live address book.
type AddressSnapshot struct {
	AddressLabel string `json:"addressLabel"`
	Phone        string `json:"phone,omitempty"`
	FullAddress  string `json:"fullAddress"`
	Village      string `json:"village"`
	District     string `json:"district"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country,omitempty"`
	ProvinceCode string `json:"provinceCode,omitempty"`
	RegencyCode  string `json:"regencyCode,omitempty"`
	DistrictCode string `json:"districtCode,omitempty"`
	VillageCode  string `json:"villageCode,omitempty"`
}

// WithoutLocationCodes returns a copy stripped of gazetteer codes.
func (a AddressSnapshot) WithoutLocationCodes() AddressSnapshot {
	a.ProvinceCode = ""
	a.RegencyCode = ""
	a.DistrictCode = ""
	a.VillageCode = ""
	return a
}

// Line renders the snapshot as a single comma separated line.
func (a AddressSnapshot) Line() string {
	parts := make([]string, 0, 6)
	for _, part := range []string{a.FullAddress, a.Village, a.District, a.City, a.Province, a.PostalCode} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}

// Value serializes the snapshot to JSON.
func (a AddressSnapshot) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes a stored snapshot, failing on anything that is not a JSON object
// carrying at least the street address.
func (a *AddressSnapshot) Scan(value interface{}) error {
	if value == nil {
		return fmt.Errorf("%w: null value", ErrInvalidAddressSnapshot)
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddressSnapshot, err)
	}
	decoded, err := ParseAddressSnapshot(raw)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// ParseAddressSnapshot decodes raw JSON into a snapshot.
func ParseAddressSnapshot(raw []byte) (AddressSnapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return AddressSnapshot{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidAddressSnapshot)
	}
	var snapshot AddressSnapshot
	if err := json.Unmarshal(trimmed, &snapshot); err != nil {
		return AddressSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidAddressSnapshot, err)
	}
	if strings.TrimSpace(snapshot.FullAddress) == "" {
		return AddressSnapshot{}, fmt.Errorf("%w: missing fullAddress", ErrInvalidAddressSnapshot)
	}
	return snapshot, nil
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
