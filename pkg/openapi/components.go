package openapi

import (
	"maps"
	"net/http"
)

// errorResponses are the shared error responses every document carries,
// keyed by component name. All of them use the Error schema.
var errorResponses = map[string]int{
	"BadRequest":           http.StatusBadRequest,
	"NotFound":             http.StatusNotFound,
	"PayloadTooLarge":      http.StatusRequestEntityTooLarge,
	"UnsupportedMediaType": http.StatusUnsupportedMediaType,
	"ServiceUnavailable":   http.StatusServiceUnavailable,
}

// NewComponents creates Components holding the Error schema, the page
// envelope fields and one response per shared error status.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
			"PageMeta": {
				Type: "object",
				Properties: map[string]*Schema{
					"total":       {Type: "integer", Description: "Matching items across all pages"},
					"page":        {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size":   {Type: "integer", Description: "Items per page", Example: 20},
					"total_pages": {Type: "integer", Description: "At least 1, even when empty"},
				},
			},
		},
		Responses: make(map[string]*Response, len(errorResponses)),
	}
	for name, status := range errorResponses {
		c.Responses[name] = ResponseJSON(http.StatusText(status), "Error")
	}
	return c
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
