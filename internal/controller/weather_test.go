package controller

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mr1hm/go-disaster-admin/internal/models"
	"github.com/mr1hm/go-disaster-admin/internal/transport"
)

func TestWeather_Load(t *testing.T) {
	_, api := setupAPI(t)
	ctx := context.Background()

	if _, err := api.Weather.Update(ctx, models.WeatherData{Location: "Mumbai", Temperature: 31, Condition: "Rain", Alerts: []string{"Heavy rain warning"}}); err != nil {
		t.Fatal(err)
	}

	w := NewWeather(api.Weather, "Delhi")
	if !w.Fallback() {
		t.Error("a fresh controller shows the default snapshot")
	}

	if err := w.Load(ctx, "Mumbai"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	data := w.Data()
	if data.Condition != "Rain" || data.Temperature != 31 || w.Fallback() {
		t.Errorf("unexpected data %+v", data)
	}
	if w.Location() != "Mumbai" || w.Err() != nil {
		t.Errorf("unexpected state %q %v", w.Location(), w.Err())
	}
	if AlertSeverity(data.Alerts[0]) != models.SeverityHigh {
		t.Errorf("expected high severity for %q", data.Alerts[0])
	}
}

func TestWeather_FallbackOnFailure(t *testing.T) {
	srv, api := setupAPI(t)
	srv.Fail(http.MethodGet, "/weather/Chennai", http.StatusBadGateway, "")

	w := NewWeather(api.Weather, "Delhi")
	defer w.Close()
	_, events := w.Subscribe()
	err := w.Load(context.Background(), "Chennai")

	if !errors.Is(err, ErrWeatherFallback) || !errors.Is(err, transport.ErrRequestFailed) {
		t.Fatalf("expected fallback wrapping the request error, got %v", err)
	}
	data := w.Data()
	if !w.Fallback() || data.Location != "Chennai" || data.Condition != "Partly Cloudy" || data.Temperature != 28 {
		t.Errorf("expected default snapshot for Chennai, got %+v", data)
	}
	if data.AQI == nil || data.AQI.Overall != 120 {
		t.Errorf("expected default air quality, got %+v", data.AQI)
	}

	if e := nextEvent(t, events); e.Kind != "weather" || e.Type != EventFailed {
		t.Errorf("unexpected event %+v", e)
	}

	srv.Clear()
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if e := nextEvent(t, events); e.Type != EventLoaded {
		t.Errorf("expected loaded event, got %+v", e)
	}
	if w.Fallback() || w.Err() != nil {
		t.Error("a successful refresh leaves fallback mode")
	}
}

func TestAlertSeverity(t *testing.T) {
	tests := []struct {
		text string
		want models.Severity
	}{
		{"Severe thunderstorm", models.SeverityHigh},
		{"Heat WARNING in effect", models.SeverityHigh},
		{"Flood watch", models.SeverityMedium},
		{"Air quality advisory", models.SeverityMedium},
		{"Light showers", models.SeverityLow},
	}
	for _, tt := range tests {
		if got := AlertSeverity(tt.text); got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.text, got, tt.want)
		}
	}
}
