package choropleth

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-Choropleth/internal/cache"
	"github.com/EmpoweredVote/EV-Choropleth/internal/controller"
	"github.com/EmpoweredVote/EV-Choropleth/internal/metrics"
	"github.com/EmpoweredVote/EV-Choropleth/internal/render"
	"github.com/EmpoweredVote/EV-Choropleth/internal/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// writeJSON encodes v before writing anything, so an encode failure is
// still reported as a 500.
func (s *Service) writeJSON(w http.ResponseWriter, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.log.Error("json encode failed", zap.Error(err))
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func addServerTiming(w http.ResponseWriter, kv ...[2]string) {
	// kv: [][2]string{{"render","12.3"}, {"cache","0.4"}}
	if len(kv) == 0 {
		return
	}
	val := ""
	for i, p := range kv {
		if i > 0 {
			val += ", "
		}
		val += fmt.Sprintf("%s;dur=%s", p[0], p[1])
	}
	w.Header().Add("Server-Timing", val)
}

func ms(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1000, 'f', 1, 64)
}

// session returns the controller bound to the request's session cookie.
func (s *Service) session(r *http.Request) *controller.Controller {
	id, _ := utils.GetSessionIDFromContext(r.Context())
	ctrl, _ := s.sessions.Get(id)
	return ctrl
}

func (s *Service) renderScene(sc render.Scene) ([]byte, error) {
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, sc.Width, sc.Height, sc.Commands()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderYear renders the map for year as seen from a fresh view: the
// default year first, then the requested selection.
func (s *Service) RenderYear(year int) ([]byte, error) {
	ctrl := s.newController()
	ctrl.SetYear(year)
	return s.renderScene(ctrl.Scene())
}

type pageData struct {
	Title   string
	YearMin int
	YearMax int
	Year    int
	Width   int
	Height  int
	SVG     template.HTML
}

// PageHandler serves the page. Loading it starts the session over at the
// default year.
func (s *Service) PageHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := utils.GetSessionIDFromContext(r.Context())
	ctrl, _ := s.sessions.Reset(id)
	body, err := s.renderScene(ctrl.Scene())
	if err != nil {
		s.log.Error("page render failed", zap.Error(err))
		http.Error(w, "Failed to render map", http.StatusInternalServerError)
		return
	}
	metrics.RendersTotal.WithLabelValues("page").Inc()

	var buf bytes.Buffer
	err = s.page.Execute(&buf, pageData{
		Title:   s.cfg.Title,
		YearMin: s.cfg.YearMin,
		YearMax: s.cfg.YearMax,
		Year:    ctrl.Year(),
		Width:   s.cfg.Width,
		Height:  s.cfg.Height,
		SVG:     template.HTML(body),
	})
	if err != nil {
		s.log.Error("page template failed", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// MapSVGHandler serves RenderYear for ?year=, through the SVG cache.
func (s *Service) MapSVGHandler(w http.ResponseWriter, r *http.Request) {
	year := s.cfg.DefaultYear
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := controller.ParseYear(raw, s.cfg.YearMin, s.cfg.YearMax)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}

	ctx := r.Context()
	key := cache.Key(s.fingerprint, year)
	start := time.Now()

	body, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("svg cache get failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		metrics.CacheHitsTotal.Inc()
		addServerTiming(w, [2]string{"cache", ms(time.Since(start))})
	} else {
		metrics.CacheMissesTotal.Inc()
		body, err = s.RenderYear(year)
		if err != nil {
			s.log.Error("svg render failed", zap.Int("year", year), zap.Error(err))
			http.Error(w, "Failed to render map", http.StatusInternalServerError)
			return
		}
		metrics.RendersTotal.WithLabelValues("svg").Inc()
		addServerTiming(w, [2]string{"render", ms(time.Since(start))})
		if err := s.cache.Set(ctx, key, body); err != nil {
			s.log.Warn("svg cache set failed", zap.String("key", key), zap.Error(err))
		}
	}

	sum := blake2b.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(body)
}

func (s *Service) StateHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.session(r).Frame())
}

type yearRequest struct {
	// Year is the slider value, either a JSON string or number.
	Year any `json:"year"`
}

func (s *Service) YearHandler(w http.ResponseWriter, r *http.Request) {
	var req yearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var raw string
	switch v := req.Year.(type) {
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}

	frame, err := s.session(r).SelectYear(raw)
	if errors.Is(err, controller.ErrInvalidYear) {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to select year", http.StatusInternalServerError)
		return
	}
	metrics.RendersTotal.WithLabelValues("frame").Inc()
	s.writeJSON(w, frame)
}

func (s *Service) TooltipHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.regions[id]; !ok {
		http.Error(w, "Region not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, s.session(r).Hover(id))
}

func (s *Service) TooltipAtHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be numbers", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, s.session(r).HoverAt(x, y))
}

func (s *Service) LeaveHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.session(r).Leave())
}

func (s *Service) RegionsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.renderer.Shapes())
}

type healthResponse struct {
	Status       string `json:"status"`
	Regions      int    `json:"regions"`
	Observations int    `json:"observations"`
	Sessions     int    `json:"sessions"`
	Fingerprint  string `json:"fingerprint"`
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, healthResponse{
		Status:       "ok",
		Regions:      len(s.data.Regions),
		Observations: len(s.data.Observations),
		Sessions:     s.sessions.Len(),
		Fingerprint:  s.fingerprint,
	})
}
