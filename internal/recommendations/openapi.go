package recommendations

import "github.com/JaimeStill/soilguardian/pkg/openapi"

type spec struct {
	Recommend *openapi.Operation
	Batch     *openapi.Operation
	List      *openapi.Operation
	Schemas   map[string]*openapi.Schema
}

// Spec documents the recommendation endpoints.
var Spec = spec{
	Recommend: &openapi.Operation{
		Summary:     "Recommend crops for a soil reading",
		Description: "Ranks crops by classifier confidence and, for the top crop, assembles fertilizer, irrigation and amendment guidance.",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("top_n", openapi.IntegerIn(1, 10, 3), "Number of crops to return"),
			openapi.QueryParam("include_comprehensive", &openapi.Schema{Type: "boolean", Default: true}, "Include the management plan for the top crop"),
			openapi.QueryParam("farm_id", nil, "Farm to associate the stored recommendation with"),
		},
		RequestBody: openapi.RequestBodyJSON("SoilReading", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Ranked crops", "RecommendationResult"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			415: openapi.ResponseRef("UnsupportedMediaType"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	Batch: &openapi.Operation{
		Summary:     "Recommend crops for many soil readings",
		RequestBody: openapi.RequestBodyJSON("BatchRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Ranked crops per reading", "BatchResponse"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			415: openapi.ResponseRef("UnsupportedMediaType"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	List: &openapi.Operation{
		Summary: "List stored recommendations",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", &openapi.Schema{Type: "integer", Minimum: openapi.Bound(1), Default: 1}, "Page number"),
			openapi.QueryParam("page_size", &openapi.Schema{Type: "integer", Minimum: openapi.Bound(1)}, "Results per page"),
			openapi.QueryParam("search", nil, "Match top crop or model version"),
			openapi.QueryParam("sort", &openapi.Schema{Type: "string", Example: "-CreatedAt"}, "Comma-separated fields, - prefix for descending"),
			openapi.QueryParam("farm_id", nil, "Filter by farm"),
			openapi.QueryParam("crop", nil, "Filter by top crop"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Stored recommendations", "RecommendationPage"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"SoilReading": {
			Type:     "object",
			Required: []string{"pH", "nitrogen", "phosphorus", "potassium", "moisture", "temperature"},
			Properties: map[string]*openapi.Schema{
				"pH":            {Type: "number", Description: "Soil pH", Minimum: openapi.Bound(0), Maximum: openapi.Bound(14), Example: 6.5},
				"nitrogen":      {Type: "number", Description: "Nitrogen (mg/kg)", Minimum: openapi.Bound(0), Example: 45},
				"phosphorus":    {Type: "number", Description: "Phosphorus (mg/kg)", Minimum: openapi.Bound(0), Example: 30},
				"potassium":     {Type: "number", Description: "Potassium (mg/kg)", Minimum: openapi.Bound(0), Example: 150},
				"moisture":      {Type: "number", Description: "Soil moisture (%)", Minimum: openapi.Bound(0), Maximum: openapi.Bound(100), Example: 40},
				"temperature":   {Type: "number", Description: "Soil temperature (C)", Minimum: openapi.Bound(-10), Maximum: openapi.Bound(60), Example: 20},
				"organicMatter": {Type: "number", Description: "Organic matter (%)", Minimum: openapi.Bound(0), Maximum: openapi.Bound(100)},
				"conductivity":  {Type: "number", Description: "Electrical conductivity (dS/m)", Minimum: openapi.Bound(0)},
				"salinity":      {Type: "number", Description: "Salinity (dS/m)", Minimum: openapi.Bound(0)},
			},
		},
		"CropRecommendation": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"crop":             {Type: "string"},
				"confidence":       {Type: "number", Description: "Probability as a percentage, two decimals"},
				"confidence_level": {Type: "string", Enum: []any{"Low", "Medium", "High"}},
				"rank":             {Type: "integer"},
				"reasoning":        {Type: "string"},
			},
		},
		"RecommendationResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"recommendations":              openapi.ArrayOf(openapi.SchemaRef("CropRecommendation")),
				"comprehensive_recommendation": {Type: "object", Description: "Management plan for the top crop; null when not requested"},
			},
		},
		"BatchRequest": {
			Type:     "object",
			Required: []string{"readings"},
			Properties: map[string]*openapi.Schema{
				"readings": withItems(openapi.ArrayOf(openapi.SchemaRef("SoilReading")), 1, 500),
				"top_n":    {Type: "integer", Default: 3},
			},
		},
		"BatchResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"results": openapi.ArrayOf(openapi.ArrayOf(openapi.SchemaRef("CropRecommendation"))),
			},
		},
		"RecommendationPage": {
			AllOf: []*openapi.Schema{
				openapi.SchemaRef("PageMeta"),
				{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"data": openapi.ArrayOf(&openapi.Schema{Type: "object", Description: "Stored recommendation"}),
					},
				},
			},
		},
	},
}

func withItems(s *openapi.Schema, lo, hi int) *openapi.Schema {
	s.MinItems, s.MaxItems = &lo, &hi
	return s
}
