package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mr1hm/go-disaster-admin/internal/models"
)

func TestIncidentsGeoJSON(t *testing.T) {
	incidents := []models.Incident{
		{
			ID:          "i1",
			Title:       "Bridge collapse",
			Type:        "infrastructure",
			Severity:    models.SeverityHigh,
			Status:      models.IncidentStatusResponding,
			Location:    "Guwahati",
			Coordinates: models.Coordinates{Lat: 26.14, Lng: 91.73},
		},
	}

	fc := IncidentsGeoJSON(incidents)

	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	f := fc.Features[0]
	if f.Geometry.Type != "Point" {
		t.Errorf("expected Point, got %s", f.Geometry.Type)
	}
	if f.Geometry.Coordinates[0] != 91.73 || f.Geometry.Coordinates[1] != 26.14 {
		t.Errorf("expected [lng, lat], got %v", f.Geometry.Coordinates)
	}
	if f.Properties["severity"] != "high" || f.Properties["status"] != "responding" || f.Properties["id"] != "i1" {
		t.Errorf("unexpected properties %v", f.Properties)
	}
}

func TestIncidentsGeoJSON_EmptyHasFeaturesArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIncidents(&buf, nil); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	features, ok := decoded["features"].([]any)
	if !ok || len(features) != 0 {
		t.Errorf("expected empty features array, got %v", decoded["features"])
	}
}
