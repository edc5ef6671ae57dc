package store

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/soilguardian/pkg/query"
	"github.com/JaimeStill/soilguardian/pkg/repository"
)

var farmProjection = query.
	NewProjectionMap("public", "farms", "f").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("name", "Name").
	Project("location", "Location").
	Project("area_hectares", "AreaHectares").
	Project("created_at", "CreatedAt")

var farmSort = query.SortField{Field: "Name"}

var readingProjection = query.
	NewProjectionMap("public", "soil_readings", "s").
	Project("id", "ID").
	Project("farm_id", "FarmID").
	Project("ph", "PH").
	Project("nitrogen", "Nitrogen").
	Project("phosphorus", "Phosphorus").
	Project("potassium", "Potassium").
	Project("moisture", "Moisture").
	Project("temperature", "Temperature").
	Project("organic_matter", "OrganicMatter").
	Project("conductivity", "Conductivity").
	Project("salinity", "Salinity").
	Project("recorded_at", "RecordedAt")

var readingSort = query.SortField{Field: "RecordedAt", Descending: true}

var recommendationProjection = query.
	NewProjectionMap("public", "recommendations", "r").
	Project("id", "ID").
	Project("farm_id", "FarmID").
	Project("model_version", "ModelVersion").
	Project("top_crop", "TopCrop").
	Project("input", "Input").
	Project("recommendations", "Recommendations").
	Project("comprehensive", "Comprehensive").
	Project("created_at", "CreatedAt").
	Join("public", "farms", "f", "LEFT JOIN", "r.farm_id = f.id").
	Project("name", "FarmName")

var recommendationSort = query.SortField{Field: "CreatedAt", Descending: true}

func scanFarm(s repository.Scanner) (Farm, error) {
	var f Farm
	err := s.Scan(
		&f.ID,
		&f.UserID,
		&f.Name,
		&f.Location,
		&f.AreaHectares,
		&f.CreatedAt,
	)
	return f, err
}

func scanReading(s repository.Scanner) (SoilReading, error) {
	var r SoilReading
	err := s.Scan(
		&r.ID,
		&r.FarmID,
		&r.PH,
		&r.Nitrogen,
		&r.Phosphorus,
		&r.Potassium,
		&r.Moisture,
		&r.Temperature,
		&r.OrganicMatter,
		&r.Conductivity,
		&r.Salinity,
		&r.RecordedAt,
	)
	return r, err
}

func scanRecommendation(s repository.Scanner) (Recommendation, error) {
	var (
		r             Recommendation
		input, ranked []byte
		comprehensive []byte
	)
	err := s.Scan(
		&r.ID,
		&r.FarmID,
		&r.ModelVersion,
		&r.TopCrop,
		&input,
		&ranked,
		&comprehensive,
		&r.CreatedAt,
		&r.FarmName,
	)
	if err != nil {
		return r, err
	}

	if err := json.Unmarshal(input, &r.Input); err != nil {
		return r, fmt.Errorf("decode input: %w", err)
	}
	if err := json.Unmarshal(ranked, &r.Recommendations); err != nil {
		return r, fmt.Errorf("decode recommendations: %w", err)
	}
	if len(comprehensive) > 0 {
		r.Comprehensive = comprehensive
	}
	return r, nil
}
