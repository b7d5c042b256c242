package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mr1hm/go-disaster-admin/internal/metrics"
	"github.com/mr1hm/go-disaster-admin/internal/models"
)

// ErrWeatherFallback marks a load that failed and left the built-in default
// snapshot in place.
var ErrWeatherFallback = errors.New("weather unavailable, showing default data")

type WeatherSource interface {
	Get(ctx context.Context, location string) (models.WeatherData, error)
}

// Weather holds the snapshot for one location. It is the only page that
// keeps working on built-in data when the server cannot be reached.
type Weather struct {
	source WeatherSource
	events *Broadcaster

	mu       sync.Mutex
	location string
	data     models.WeatherData
	fallback bool
	err      error
	pending  int
	gen      uint64
}

func NewWeather(source WeatherSource, location string) *Weather {
	return &Weather{
		source:   source,
		events:   NewBroadcaster(),
		location: location,
		data:     models.DefaultWeather(location),
		fallback: true,
	}
}

// Load fetches the snapshot for location and makes it the current location.
// On failure the default snapshot for location is shown and the returned
// error matches ErrWeatherFallback.
func (w *Weather) Load(ctx context.Context, location string) error {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.location = location
	w.pending++
	w.mu.Unlock()

	data, err := w.source.Get(ctx, location)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending--
	if gen != w.gen {
		metrics.ObserveLoad("weather", "stale")
		return nil
	}
	if err != nil {
		slog.Warn("weather fetch failed, using defaults", "location", location, "error", err)
		w.data = models.DefaultWeather(location)
		w.fallback = true
		w.err = fmt.Errorf("%w: %w", ErrWeatherFallback, err)
		metrics.ObserveLoad("weather", "error")
		w.notify(EventFailed)
		return w.err
	}
	if data.Location == "" {
		data.Location = location
	}
	w.data = data
	w.fallback = false
	w.err = nil
	metrics.ObserveLoad("weather", "applied")
	w.notify(EventLoaded)
	return nil
}

// Subscribe delivers an event after every applied Load and every fallback.
func (w *Weather) Subscribe() (uint64, <-chan Event) {
	return w.events.Subscribe()
}

func (w *Weather) Unsubscribe(id uint64) {
	w.events.Unsubscribe(id)
}

func (w *Weather) Close() {
	w.events.Close()
}

func (w *Weather) notify(t EventType) {
	w.events.Broadcast(Event{Kind: "weather", Type: t})
}

// Refresh reloads the current location.
func (w *Weather) Refresh(ctx context.Context) error {
	return w.Load(ctx, w.Location())
}

func (w *Weather) Location() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.location
}

func (w *Weather) Data() models.WeatherData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.data
}

// Fallback reports whether Data is the built-in default snapshot.
func (w *Weather) Fallback() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fallback
}

func (w *Weather) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Weather) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending > 0
}

// AlertSeverity grades a free-text weather alert by its wording.
func AlertSeverity(text string) models.Severity {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "warning"), strings.Contains(t, "severe"):
		return models.SeverityHigh
	case strings.Contains(t, "watch"), strings.Contains(t, "advisory"):
		return models.SeverityMedium
	}
	return models.SeverityLow
}
