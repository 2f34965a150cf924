package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ErrPayloadChoice is returned when a node request body sets both or neither of folder and request
var ErrPayloadChoice = errors.New("exactly one of folder and request must be set")

// ParamInput is a (key, value, description) row in an API request body
type ParamInput struct {
	Key         string `json:"key" validate:"max=1024"`
	Value       string `json:"value"`
	Description string `json:"description" validate:"max=1024"`
}

// CreateCollectionRequest represents the request body for creating a collection
type CreateCollectionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// RequestInput carries the request payload fields of a node request body
type RequestInput struct {
	URL            string       `json:"url" validate:"max=8192"`
	Method         string       `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS TRACE CONNECT"`
	Name           string       `json:"name" validate:"max=200"`
	RequestBody    string       `json:"request_body"`
	Params         []ParamInput `json:"params" validate:"dive"`
	RequestHeaders []ParamInput `json:"request_headers" validate:"dive"`
	Saved          bool         `json:"saved"`
}

// FolderInput carries the folder payload fields of a node request body
type FolderInput struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// SaveNodeRequest represents the request body for creating or updating a node.
// Exactly one of Folder and Request must be set.
type SaveNodeRequest struct {
	CollectionID *string       `json:"collection_id,omitempty" validate:"omitempty,uuid"`
	ParentID     *string       `json:"parent_id,omitempty" validate:"omitempty,uuid"`
	Folder       *FolderInput  `json:"folder,omitempty"`
	Request      *RequestInput `json:"request,omitempty"`
}

// Validate validates the create collection request
func (r *CreateCollectionRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the save node request
func (r *SaveNodeRequest) Validate() error {
	if (r.Folder == nil) == (r.Request == nil) {
		return ErrPayloadChoice
	}
	return validate.Struct(r)
}

// ToNode builds a node from the request body. An empty id generates a new one.
func (r *SaveNodeRequest) ToNode(id string) (*Node, error) {
	var (
		folder  *Folder
		request *Request
	)
	if r.Folder != nil {
		folder = &Folder{Name: r.Folder.Name}
	}
	if r.Request != nil {
		request = &Request{
			URL:            r.Request.URL,
			Method:         r.Request.Method,
			Name:           r.Request.Name,
			RequestBody:    r.Request.RequestBody,
			Params:         toParams(r.Request.Params),
			RequestHeaders: toParams(r.Request.RequestHeaders),
			Saved:          r.Request.Saved,
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	return RestoreNode(id, r.CollectionID, r.ParentID, folder, request)
}

func toParams(in []ParamInput) []Param {
	out := make([]Param, 0, len(in))
	for _, p := range in {
		out = append(out, Param{Key: p.Key, Value: p.Value, Description: p.Description})
	}
	return out
}
