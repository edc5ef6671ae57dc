package routes

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/JaimeStill/soilguardian/pkg/openapi"
)

// Group organizes routes under a common prefix with shared tags.
// Description documents the group's tags in the generated spec.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Schemas     map[string]*openapi.Schema
	Routes      []Route
	Children    []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, child)
	}
}

// Describe adds every documented route of groups to spec under basePath.
// Routes without an OpenAPI operation are skipped. Group tags apply to
// operations that declare none of their own, and operations without an ID
// get one derived from method and path.
func Describe(spec *openapi.Spec, basePath string, groups ...Group) {
	for _, group := range groups {
		describeGroup(spec, basePath, basePath, nil, group)
	}
}

func describeGroup(spec *openapi.Spec, basePath, parentPrefix string, parentTags []string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	tags := group.Tags
	if len(tags) == 0 {
		tags = parentTags
	}

	for _, tag := range group.Tags {
		spec.AddTag(tag, group.Description)
	}
	if len(group.Schemas) > 0 {
		spec.Components.AddSchemas(group.Schemas)
	}

	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}
		op := *route.OpenAPI
		path := fullPrefix + route.Pattern
		if len(op.Tags) == 0 {
			op.Tags = tags
		}
		if op.OperationID == "" {
			op.OperationID = OperationID(route.Method, strings.TrimPrefix(path, basePath))
		}
		spec.AddOperation(route.Method, path, &op)
	}
	for _, child := range group.Children {
		describeGroup(spec, basePath, fullPrefix, tags, child)
	}
}

// OperationID derives a camel-case identifier from method and path:
// GET /crops/{name} becomes getCropsByName.
func OperationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for seg := range strings.SplitSeq(path, "/") {
		if seg == "" {
			continue
		}
		if name, ok := strings.CutPrefix(seg, "{"); ok {
			b.WriteString("By")
			seg = strings.TrimSuffix(strings.TrimSuffix(name, "}"), "...")
		}
		for word := range strings.FieldsFuncSeq(seg, func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		}) {
			r := []rune(word)
			r[0] = unicode.ToUpper(r[0])
			b.WriteString(string(r))
		}
	}
	return b.String()
}
