// Package apitest serves an in-memory stand-in for the remote disaster
// management API so accessors, controllers and the session holder can be
// tested against real HTTP round trips.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mr1hm/go-disaster-admin/internal/models"
)

type collectionRoute struct {
	path      string
	label     string
	createdAt bool // createdAt/updatedAt maintained by the server
	lastUpd   bool // lastUpdated maintained by the server
	readOnly  bool // only list and create
}

var kinds = []collectionRoute{
	{path: "alerts", label: "Alert", createdAt: true},
	{path: "resources", label: "Resource"},
	{path: "incidents", label: "Incident", createdAt: true},
	{path: "teams", label: "Team"},
	{path: "evacuation-plans", label: "Evacuation plan", lastUpd: true},
	{path: "messages", label: "Message", readOnly: true},
}

type Document = map[string]any

// Request is a recorded inbound call. Path excludes the /api prefix.
type Request struct {
	Method string
	Path   string
	Body   Document
}

type failure struct {
	status int
	body   string
}

type Server struct {
	mu       sync.Mutex
	docs     map[string][]Document
	weather  map[string]models.WeatherData
	users    []Document
	failures map[string]failure
	requests []Request
	now      func() time.Time

	rps    int
	router *gin.Engine
	srv    *httptest.Server
}

type Option func(*Server)

// WithRateLimit rejects requests above rps per second with 429.
func WithRateLimit(rps int) Option {
	return func(s *Server) {
		s.rps = rps
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		docs:     make(map[string][]Document),
		weather:  make(map[string]models.WeatherData),
		failures: make(map[string]failure),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(s.record(), s.inject())
	if s.rps > 0 {
		s.router.Use(RateLimitMiddleware(s.rps))
	}
	s.registerRoutes()

	s.srv = httptest.NewServer(s.router)
	return s
}

// URL is the API base URL, including the /api prefix.
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

func (s *Server) Close() {
	s.srv.Close()
}

// Fail makes every request matching method and path (without /api) answer
// with status and body until Clear is called.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failures)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Seed inserts records into the collection at path (e.g. "alerts") and
// returns their ids. Records without an id get one assigned.
func (s *Server) Seed(path string, records ...any) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(records))
	for _, r := range records {
		doc := toDocument(r)
		if id, _ := doc["id"].(string); id == "" {
			doc["id"] = uuid.NewString()
		}
		s.docs[path] = append(s.docs[path], doc)
		ids = append(ids, doc["id"].(string))
	}
	return ids
}

// SeedUser registers an account for /auth/login.
func (s *Server) SeedUser(username, password, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, Document{
		"id":         uuid.NewString(),
		"username":   username,
		"password":   password,
		"name":       name,
		"role":       "Operator",
		"department": "Emergency Services",
		"contact":    "+91-0000000000",
		"lastActive": models.FormatTimestamp(s.now()),
	})
}

// Document returns a copy of the stored record, or nil.
func (s *Server) Document(path, id string) Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(path, id); i >= 0 {
		return cloneDocument(s.docs[path][i])
	}
	return nil
}

func (s *Server) Len(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[path])
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")

	for _, k := range kinds {
		api.GET("/"+k.path, s.list(k))
		api.POST("/"+k.path, s.create(k))
		if k.readOnly {
			continue
		}
		api.GET("/"+k.path+"/:id", s.get(k))
		api.PUT("/"+k.path+"/:id", s.update(k))
		api.DELETE("/"+k.path+"/:id", s.delete(k))
	}

	api.GET("/weather/:location", s.getWeather)
	api.POST("/weather", s.postWeather)
	api.GET("/analytics", s.analytics)
	api.GET("/users", s.listUsers)
	api.POST("/auth/login", s.login)
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
	})
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := Request{
			Method: c.Request.Method,
			Path:   strings.TrimPrefix(c.Request.URL.Path, "/api"),
		}
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			var body Document
			if err := c.ShouldBindJSON(&body); err == nil {
				r.Body = body
				c.Set("body", body)
			}
		}
		s.mu.Lock()
		s.requests = append(s.requests, r)
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) inject() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, "/api")
		s.mu.Lock()
		f, ok := s.failures[key]
		s.mu.Unlock()
		if ok {
			c.Data(f.status, "application/json", []byte(f.body))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) list(k collectionRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		out := make([]Document, 0, len(s.docs[k.path]))
		for _, d := range s.docs[k.path] {
			out = append(out, cloneDocument(d))
		}
		s.mu.Unlock()

		if k.path == "messages" {
			slices.SortStableFunc(out, func(a, b Document) int {
				at, _ := a["timestamp"].(string)
				bt, _ := b["timestamp"].(string)
				return strings.Compare(bt, at)
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) get(k collectionRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		if doc := s.Document(k.path, c.Param("id")); doc != nil {
			c.JSON(http.StatusOK, doc)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": k.label + " not found"})
	}
}

func (s *Server) create(k collectionRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := bodyOf(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}

		s.mu.Lock()
		doc := cloneDocument(body)
		doc["id"] = uuid.NewString()
		stamp := models.FormatTimestamp(s.now())
		switch {
		case k.createdAt:
			doc["createdAt"] = stamp
			doc["updatedAt"] = stamp
		case k.lastUpd:
			doc["lastUpdated"] = stamp
		case k.path == "messages":
			doc["timestamp"] = stamp
		}
		s.docs[k.path] = append(s.docs[k.path], doc)
		out := cloneDocument(doc)
		s.mu.Unlock()

		c.JSON(http.StatusCreated, out)
	}
}

func (s *Server) update(k collectionRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := bodyOf(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}

		s.mu.Lock()
		i := s.indexOf(k.path, c.Param("id"))
		if i >= 0 {
			doc := s.docs[k.path][i]
			for field, v := range body {
				if field == "id" {
					continue
				}
				doc[field] = v
			}
			stamp := models.FormatTimestamp(s.now())
			if k.createdAt {
				doc["updatedAt"] = stamp
			}
			if k.lastUpd {
				doc["lastUpdated"] = stamp
			}
		}
		s.mu.Unlock()

		if i < 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": k.label + " not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": k.label + " updated successfully"})
	}
}

func (s *Server) delete(k collectionRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		i := s.indexOf(k.path, c.Param("id"))
		if i >= 0 {
			s.docs[k.path] = slices.Delete(s.docs[k.path], i, i+1)
		}
		s.mu.Unlock()

		if i < 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": k.label + " not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": k.label + " deleted successfully"})
	}
}

func (s *Server) getWeather(c *gin.Context) {
	location := c.Param("location")

	s.mu.Lock()
	w, ok := s.weather[strings.ToLower(location)]
	s.mu.Unlock()

	if !ok {
		w = models.DefaultWeather(location)
	}
	c.JSON(http.StatusOK, w)
}

func (s *Server) postWeather(c *gin.Context) {
	body, ok := bodyOf(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	var w models.WeatherData
	b, _ := json.Marshal(body)
	if err := json.Unmarshal(b, &w); err != nil || w.Location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
		return
	}

	s.mu.Lock()
	s.weather[strings.ToLower(w.Location)] = w
	s.mu.Unlock()

	c.JSON(http.StatusOK, w)
}

func (s *Server) analytics(c *gin.Context) {
	s.mu.Lock()
	total, resolved := 0, 0
	for _, d := range s.docs["incidents"] {
		total++
		if d["status"] == string(models.IncidentStatusResolved) {
			resolved++
		}
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, models.Analytics{
		TotalIncidents:      total,
		ResolvedIncidents:   resolved,
		ActiveIncidents:     total - resolved,
		AverageResponseTime: "18 minutes",
		ResourceUtilization: 78,
		MonthlyIncidents:    []models.MonthlyCount{{Month: "Jan", Incidents: 12}, {Month: "Feb", Incidents: 8}},
		IncidentsByType:     []models.TypeCount{{Type: "Natural Disaster", Count: 45}, {Type: "Fire", Count: 32}},
	})
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	out := make([]Document, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, publicUser(u))
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) login(c *gin.Context) {
	body, _ := bodyOf(c)
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u["username"] != username {
			continue
		}
		if u["password"] != password {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		u["lastActive"] = models.FormatTimestamp(s.now())
		c.JSON(http.StatusOK, gin.H{"success": true, "user": publicUser(u)})
		return
	}

	c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
}

func (s *Server) indexOf(path, id string) int {
	return slices.IndexFunc(s.docs[path], func(d Document) bool {
		return d["id"] == id
	})
}

func bodyOf(c *gin.Context) (Document, bool) {
	v, ok := c.Get("body")
	if !ok {
		return nil, false
	}
	body, ok := v.(Document)
	return body, ok
}

func publicUser(u Document) Document {
	out := cloneDocument(u)
	delete(out, "password")
	return out
}

func toDocument(v any) Document {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("apitest: cannot encode seed record: %v", err))
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		panic(fmt.Sprintf("apitest: seed record is not an object: %v", err))
	}
	return doc
}

// cloneDocument copies via JSON so nested slices and maps are not shared.
func cloneDocument(d Document) Document {
	return toDocument(d)
}
