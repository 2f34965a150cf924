package models

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// DefaultMethod is used for requests created without an explicit method
const DefaultMethod = http.MethodGet

// Param is a (key, value, description) row of a query parameter or header table.
// It is encoded as a three element array.
type Param struct {
	Key         string
	Value       string
	Description string
}

// MarshalJSON encodes the param as [key, value, description]
func (p Param) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{p.Key, p.Value, p.Description})
}

// UnmarshalJSON decodes a [key, value, description] triple
func (p *Param) UnmarshalJSON(data []byte) error {
	var triple []string
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("param must have 3 elements, got %d", len(triple))
	}
	p.Key, p.Value, p.Description = triple[0], triple[1], triple[2]
	return nil
}

// Request is the payload of a request node
type Request struct {
	URL            string  `json:"url"`
	Method         string  `json:"method"`
	Name           string  `json:"name"`
	RequestBody    string  `json:"request_body"`
	Params         []Param `json:"params"`
	RequestHeaders []Param `json:"request_headers"`
	Saved          bool    `json:"saved"`
}

// Kind returns KindRequest
func (r *Request) Kind() Kind { return KindRequest }

func (*Request) isPayload() {}

// NewRequest creates a GET request with one blank param row and one blank header row
func NewRequest(name, url string) *Request {
	r := &Request{Name: name, URL: url}
	r.Normalize()
	return r
}

// Normalize fills the defaults an editable request always carries
func (r *Request) Normalize() {
	if r.Method == "" {
		r.Method = DefaultMethod
	}
	if len(r.Params) == 0 {
		r.Params = []Param{{}}
	}
	if len(r.RequestHeaders) == 0 {
		r.RequestHeaders = []Param{{}}
	}
}

// Clone returns a deep copy of the request
func (r *Request) Clone() *Request {
	out := *r
	out.Params = append([]Param(nil), r.Params...)
	out.RequestHeaders = append([]Param(nil), r.RequestHeaders...)
	return &out
}
