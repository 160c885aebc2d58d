package pdl

import (
	"net/url"
	"strconv"
)

// EmailType values that carry meaning for ranking. The API may also return
// null or other strings.
const (
	EmailTypePersonal = "personal"
	EmailTypeWork     = "work"
)

// EnrichParams identifies the person to look up. Empty fields are not sent.
type EnrichParams struct {
	FirstName     string
	LastName      string
	StreetAddress string
	Locality      string
	Region        string
	PostalCode    string
	Email         string
	Phone         string
}

// Values returns the non-empty fields keyed by their API parameter name.
func (p EnrichParams) Values() url.Values {
	v := url.Values{}
	for _, f := range []struct {
		key, val string
	}{
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"street_address", p.StreetAddress},
		{"locality", p.Locality},
		{"region", p.Region},
		{"postal_code", p.PostalCode},
		{"email", p.Email},
		{"phone", p.Phone},
	} {
		if f.val != "" {
			v.Set(f.key, f.val)
		}
	}
	return v
}

// Email is one address on a person profile.
type Email struct {
	Address string `json:"address"`
	Type    string `json:"type"`
}

// Person is the subset of the enrichment profile the pipeline reads.
type Person struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Emails    []Email `json:"emails"`
}

// EnrichResult is the outcome of a lookup. Found is false when the API
// reported no match; that is not an error.
type EnrichResult struct {
	Found      bool
	Likelihood int
	Person     *Person
}

type enrichResponse struct {
	Status     int      `json:"status"`
	Likelihood int      `json:"likelihood"`
	Data       *Person  `json:"data"`
	Error      apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e apiError) message(status int) string {
	if e.Message != "" {
		return e.Message
	}
	return "API returned status " + strconv.Itoa(status)
}
