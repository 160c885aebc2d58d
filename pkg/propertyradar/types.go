package propertyradar

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is a provider field that may arrive as a JSON string or number. Other
// shapes decode to the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*t = Text(b)
	default:
		*t = ""
	}
	return nil
}

// String returns the value as a plain string.
func (t Text) String() string { return string(t) }

// Number is a numeric provider field that may arrive as a JSON number, a
// numeric string, or null. Unparseable values are treated as null.
type Number struct {
	Float float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "null" {
		*n = Number{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = Number{}
		return nil
	}
	*n = Number{Float: f, Valid: true}
	return nil
}

// Ptr returns nil for null values.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float
	return &f
}

// IntPtr returns the value truncated to an int, or nil for null values.
func (n Number) IntPtr() *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Float)
	return &i
}

// Flag is a provider 1/0 indicator. Anything other than 1 or 0 is unknown.
type Flag struct {
	Value bool
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(strings.TrimSpace(string(b)), `"`) {
	case "1":
		*f = Flag{Value: true, Valid: true}
	case "0":
		*f = Flag{Value: false, Valid: true}
	default:
		*f = Flag{}
	}
	return nil
}

// Ptr returns nil for unknown values.
func (f Flag) Ptr() *bool {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// List is a saved list in the account.
type List struct {
	ID          Text   `json:"id"`
	ListName    string `json:"ListName"`
	ListType    string `json:"ListType"`
	IsMonitored Flag   `json:"isMonitored"`
	ItemCount   Number `json:"itemCount"`
}

// ListItem is a summary row from a list.
type ListItem struct {
	RadarID Text `json:"RadarID"`
}

// Property holds the Overview fields of a property.
type Property struct {
	RadarID              Text   `json:"RadarID"`
	Address              string `json:"Address"`
	City                 string `json:"City"`
	State                string `json:"State"`
	ZipFive              Text   `json:"ZipFive"`
	County               string `json:"County"`
	Latitude             Number `json:"Latitude"`
	Longitude            Number `json:"Longitude"`
	LastTransferRecDate  Text   `json:"LastTransferRecDate"`
	LastTransferType     string `json:"LastTransferType"`
	LastTransferValue    Number `json:"LastTransferValue"`
	PType                string `json:"PType"`
	AdvancedPropertyType string `json:"AdvancedPropertyType"`
	Beds                 Number `json:"Beds"`
	Baths                Number `json:"Baths"`
	SqFt                 Number `json:"SqFt"`
	LotSizeAcres         Number `json:"LotSizeAcres"`
	YearBuilt            Number `json:"YearBuilt"`
	Pool                 Flag   `json:"Pool"`
	AVM                  Number `json:"AVM"`
	AvailableEquity      Number `json:"AvailableEquity"`
	IsSameMailing        Flag   `json:"isSameMailing"`
	InForeclosure        Flag   `json:"inForeclosure"`
	InTaxDelinquency     Flag   `json:"inTaxDelinquency"`
	IsListedForSale      Flag   `json:"isListedForSale"`
}

// MailAddress is one entry of a person's MailAddress list.
type MailAddress struct {
	Address string `json:"Address"`
}

// Person is an owner or other party attached to a property.
type Person struct {
	PersonKey        Text            `json:"PersonKey"`
	FirstName        string          `json:"FirstName"`
	LastName         string          `json:"LastName"`
	EntityName       string          `json:"EntityName"`
	PersonType       string          `json:"PersonType"`
	Age              Text            `json:"Age"`
	Gender           string          `json:"Gender"`
	Occupation       string          `json:"Occupation"`
	IsPrimaryContact Flag            `json:"isPrimaryContact"`
	OwnershipRole    string          `json:"OwnershipRole"`
	PrimaryResidence json.RawMessage `json:"PrimaryResidence"`
	Phone            json.RawMessage `json:"Phone"`
	Email            Text            `json:"Email"`
	MailAddress      []MailAddress   `json:"MailAddress"`
}

// HasPrimaryResidence reports whether the provider returned a non-empty
// PrimaryResidence list.
func (p Person) HasPrimaryResidence() bool {
	var entries []json.RawMessage
	if err := json.Unmarshal(p.PrimaryResidence, &entries); err != nil {
		return false
	}
	return len(entries) > 0
}

// PhoneJSON returns the raw Phone value as compact JSON text, or "" when the
// provider sent nothing usable.
func (p Person) PhoneJSON() string {
	raw := bytes.TrimSpace(p.Phone)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("[]")) ||
		bytes.Equal(raw, []byte("{}")) || bytes.Equal(raw, []byte(`""`)) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return buf.String()
}

// FirstMailAddress returns the first mailing address string, or "".
func (p Person) FirstMailAddress() string {
	if len(p.MailAddress) == 0 {
		return ""
	}
	return p.MailAddress[0].Address
}
