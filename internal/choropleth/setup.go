package choropleth

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"html/template"
	"math"
	"time"

	"github.com/EmpoweredVote/EV-Choropleth/internal/cache"
	"github.com/EmpoweredVote/EV-Choropleth/internal/config"
	"github.com/EmpoweredVote/EV-Choropleth/internal/controller"
	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/EmpoweredVote/EV-Choropleth/internal/logger"
	"github.com/EmpoweredVote/EV-Choropleth/internal/metrics"
	"github.com/EmpoweredVote/EV-Choropleth/internal/render"
	"github.com/EmpoweredVote/EV-Choropleth/internal/scale"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// SessionTTL is how long an idle map session is kept.
const SessionTTL = 30 * time.Minute

// Service is the loaded map plus everything the handlers share.
type Service struct {
	cfg         config.Config
	data        *dataset.Dataset
	renderer    *render.Renderer
	opts        controller.Options
	sessions    *controller.Sessions
	cache       cache.SVGCache
	fingerprint string
	regions     map[string]struct{}
	page        *template.Template
	log         *zap.Logger
}

// Init loads the boundaries and observations and prepares the service. A
// load failure is logged once and returned; nothing is rendered.
func Init(ctx context.Context, cfg config.Config, boundaries dataset.BoundarySource, observations dataset.ObservationSource, svgCache cache.SVGCache) (*Service, error) {
	start := time.Now()
	data, err := dataset.Load(ctx, boundaries, observations)
	if err != nil {
		metrics.LoadFailuresTotal.Inc()
		logger.LogError("loader", "data load", err)
		return nil, err
	}
	took := time.Since(start)
	metrics.LoadDurationMs.Observe(float64(took.Milliseconds()))
	logger.LogLoad("loader", len(data.Observations), took)

	return NewService(cfg, data, svgCache)
}

// NewService builds the service around an already loaded dataset.
func NewService(cfg config.Config, data *dataset.Dataset, svgCache cache.SVGCache) (*Service, error) {
	if data == nil {
		return nil, errors.New("choropleth: nil dataset")
	}
	palette, ok := scale.PaletteByName(cfg.Palette)
	if !ok {
		return nil, config.ErrUnknownPalette
	}
	if svgCache == nil {
		svgCache = cache.NewMemory()
	}
	page, err := parsePage()
	if err != nil {
		return nil, err
	}

	metrics.DatasetSize.WithLabelValues("regions").Set(float64(len(data.Regions)))
	metrics.DatasetSize.WithLabelValues("observations").Set(float64(len(data.Observations)))
	metrics.DatasetSize.WithLabelValues("duplicates").Set(float64(data.Duplicates))
	metrics.DatasetSize.WithLabelValues("skipped").Set(float64(data.Skipped))

	proj := render.NewMercator(cfg.Width, cfg.Height)
	s := &Service{
		cfg:      cfg,
		data:     data,
		renderer: render.NewRenderer(data.Regions, proj, render.Options{}),
		opts: controller.Options{
			YearMin:     cfg.YearMin,
			YearMax:     cfg.YearMax,
			DefaultYear: cfg.DefaultYear,
			Palette:     palette,
			Width:       cfg.Width,
			Height:      cfg.Height,
			Title:       cfg.Title,
			LegendTitle: cfg.LegendTitle,
		},
		cache:   svgCache,
		regions: make(map[string]struct{}, len(data.Regions)),
		page:    page,
		log:     logger.L().Named("http"),
	}
	for _, reg := range data.Regions {
		s.regions[reg.ID] = struct{}{}
	}
	s.fingerprint = fingerprint(cfg, data)
	s.sessions = controller.NewSessions(s.newController, SessionTTL)
	return s, nil
}

func (s *Service) newController() *controller.Controller {
	return controller.New(s.data, s.renderer, s.opts)
}

// Sessions exposes the session registry to the session middleware.
func (s *Service) Sessions() *controller.Sessions { return s.sessions }

// RunSweeper evicts idle sessions every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.sessions.Sweep(); n > 0 {
				s.log.Debug("sessions swept", zap.Int("dropped", n), zap.Int("live", s.sessions.Len()))
			}
		}
	}
}

// fingerprint identifies everything a rendered SVG depends on, so cache
// entries from another dataset or canvas never match.
func fingerprint(cfg config.Config, data *dataset.Dataset) string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	writeString := func(v string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(v)))
		h.Write(buf[:])
		h.Write([]byte(v))
	}
	writeNum := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeString(cfg.Palette)
	writeString(cfg.Title)
	writeString(cfg.LegendTitle)
	writeNum(uint64(cfg.Width))
	writeNum(uint64(cfg.Height))
	writeNum(uint64(cfg.YearMin))
	writeNum(uint64(cfg.YearMax))
	writeNum(uint64(cfg.DefaultYear))
	for _, reg := range data.Regions {
		writeString(reg.ID)
		writeString(reg.Name)
		if reg.Shape != nil {
			for _, c := range reg.Shape.FlatCoords() {
				writeNum(math.Float64bits(c))
			}
		}
	}
	for _, o := range data.Observations {
		writeString(o.ISO3C)
		writeNum(uint64(o.Year))
		writeNum(math.Float64bits(o.Value))
		writeString(o.Type)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
