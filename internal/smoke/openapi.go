package smoke

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIOptions controls suite generation from an OpenAPI 3 document.
type OpenAPIOptions struct {
	// Name of the generated suite; defaults to the document title.
	Name string
	Mode Mode
	// Category for operations without tags.
	DefaultCategory string
	// Validate rejects documents that fail OpenAPI validation.
	Validate bool
}

var methodOrder = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// FromOpenAPI builds one suite with an endpoint per operation. Each endpoint
// is filed under the operation's first tag and expects its lowest declared
// 2xx response.
func FromOpenAPI(ctx context.Context, path string, opts OpenAPIOptions) (*Suite, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %v", ErrInvalidSuite, path, err)
	}
	if opts.Validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSuite, err)
		}
	}
	return suiteFromDoc(doc, opts)
}

func suiteFromDoc(doc *openapi3.T, opts OpenAPIOptions) (*Suite, error) {
	suite := &Suite{
		Name:     opts.Name,
		Category: opts.DefaultCategory,
		Mode:     opts.Mode,
	}
	if suite.Name == "" && doc.Info != nil {
		suite.Name = doc.Info.Title
	}
	if suite.Name == "" {
		suite.Name = "openapi"
	}
	if suite.Category == "" {
		suite.Category = "General"
	}
	globalAuth := len(doc.Security) > 0

	if doc.Paths != nil {
		pathMap := doc.Paths.Map()
		paths := make([]string, 0, len(pathMap))
		for p := range pathMap {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			item := pathMap[p]
			if item == nil {
				continue
			}
			ops := item.Operations()
			for _, method := range methodOrder {
				op, ok := ops[method]
				if !ok || op == nil {
					continue
				}
				suite.Endpoints = append(suite.Endpoints, endpointFromOperation(method, p, op, globalAuth))
			}
		}
	}

	suite.ApplyDefaults()
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return suite, nil
}

func endpointFromOperation(method, path string, op *openapi3.Operation, globalAuth bool) Endpoint {
	auth := globalAuth
	if op.Security != nil {
		auth = len(*op.Security) > 0
	}
	ep := Endpoint{
		Method:         method,
		Path:           path,
		ExpectedStatus: successStatus(op.Responses),
		Description:    op.Summary,
		RequiresAuth:   &auth,
	}
	if ep.Description == "" {
		ep.Description = op.OperationID
	}
	if len(op.Tags) > 0 {
		ep.Category = op.Tags[0]
	}
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if media := op.RequestBody.Value.Content.Get("application/json"); media != nil && media.Schema != nil {
			if body, ok := sampleValue(media.Schema, 0).(map[string]any); ok {
				ep.Body = body
			}
		}
	}
	return ep
}

// successStatus returns the lowest 2xx code declared, or zero.
func successStatus(responses *openapi3.Responses) int {
	if responses == nil {
		return 0
	}
	best := 0
	for code := range responses.Map() {
		n, err := strconv.Atoi(code)
		if err != nil || n < 200 || n > 299 {
			continue
		}
		if best == 0 || n < best {
			best = n
		}
	}
	return best
}

const maxSampleDepth = 4

// sampleValue turns a schema into a body template, preferring declared
// examples and falling back to "$fake:" markers.
func sampleValue(ref *openapi3.SchemaRef, depth int) any {
	if ref == nil || ref.Value == nil || depth > maxSampleDepth {
		return nil
	}
	s := ref.Value
	if s.Example != nil {
		return s.Example
	}
	if len(s.Enum) > 0 {
		return s.Enum[0]
	}

	switch {
	case isType(s, openapi3.TypeObject) || len(s.Properties) > 0:
		out := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			if v := sampleValue(prop, depth+1); v != nil {
				out[name] = v
			}
		}
		return out
	case isType(s, openapi3.TypeArray):
		if v := sampleValue(s.Items, depth+1); v != nil {
			return []any{v}
		}
		return []any{}
	case isType(s, openapi3.TypeInteger):
		return FakePrefix + "number"
	case isType(s, openapi3.TypeNumber):
		return FakePrefix + "price"
	case isType(s, openapi3.TypeBoolean):
		return FakePrefix + "bool"
	case isType(s, openapi3.TypeString):
		return FakePrefix + stringKind(s.Format)
	}
	return nil
}

func isType(s *openapi3.Schema, t string) bool {
	return s.Type != nil && s.Type.Is(t)
}

func stringKind(format string) string {
	switch format {
	case "email":
		return "email"
	case "uuid":
		return "uuid"
	case "uri", "url":
		return "url"
	case "date":
		return "date"
	case "date-time":
		return "datetime"
	default:
		return "word"
	}
}
