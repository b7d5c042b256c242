package export

import (
	"encoding/json"
	"io"

	"github.com/mr1hm/go-disaster-admin/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// IncidentsGeoJSON turns incidents into Point features at their reported
// coordinates. Enumerated fields are passed through as stored.
func IncidentsGeoJSON(incidents []models.Incident) FeatureCollection {
	features := make([]Feature, 0, len(incidents))

	for _, i := range incidents {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{i.Coordinates.Lng, i.Coordinates.Lat},
			},
			Properties: map[string]any{
				"id":         i.ID,
				"title":      i.Title,
				"type":       i.Type,
				"severity":   string(i.Severity),
				"status":     string(i.Status),
				"location":   i.Location,
				"reportedBy": i.ReportedBy,
				"updatedAt":  i.UpdatedAt,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// WriteIncidents encodes the incidents as an indented GeoJSON document.
func WriteIncidents(w io.Writer, incidents []models.Incident) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(IncidentsGeoJSON(incidents))
}
