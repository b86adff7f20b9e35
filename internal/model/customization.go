package model

import (
	"strings"

	"github.com/goccy/go-json"
)

// Customization is the visual color pair applied to a QR rendering.
type Customization struct {
	QRColor string `json:"qrColor"`
	BGColor string `json:"bgColor"`
}

// DefaultCustomization returns the black-on-white default.
func DefaultCustomization() Customization {
	return Customization{QRColor: DefaultQRColor, BGColor: DefaultBGColor}
}

// WithDefaults fills empty colors with their defaults.
func (c Customization) WithDefaults() Customization {
	if c.QRColor == "" {
		c.QRColor = DefaultQRColor
	}
	if c.BGColor == "" {
		c.BGColor = DefaultBGColor
	}
	return c
}

// IsDefault reports whether both colors equal the defaults (case-insensitive).
func (c Customization) IsDefault() bool {
	c = c.WithDefaults()
	return strings.EqualFold(c.QRColor, DefaultQRColor) && strings.EqualFold(c.BGColor, DefaultBGColor)
}

// CustomizationMap is the local name|text -> customization mapping stored
// under custom_qr_map. It serializes as a bare JSON object.
type CustomizationMap struct {
	Key     string
	Entries map[string]Customization
}

// NewCustomizationMap creates an empty mapping.
func NewCustomizationMap() *CustomizationMap {
	return &CustomizationMap{
		Key:     KeyCustomizationMap,
		Entries: make(map[string]Customization),
	}
}

// SetKey sets the database key for this mapping.
func (m *CustomizationMap) SetKey(key string) {
	m.Key = key
}

// GetKey returns the database key for this mapping.
func (m *CustomizationMap) GetKey() string {
	return m.Key
}

// MarshalJSON implements json.Marshaler.
func (m *CustomizationMap) MarshalJSON() ([]byte, error) {
	if m.Entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.Entries)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *CustomizationMap) UnmarshalJSON(data []byte) error {
	entries := make(map[string]Customization)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	m.Entries = entries
	return nil
}
