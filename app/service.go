// Package app orchestrates documentation runs: it walks the registered
// modules, renders each section, and reports progress and metrics.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pbxtools/pbxdoc/adapters/metrics"
	"github.com/pbxtools/pbxdoc/core/model"
	"github.com/pbxtools/pbxdoc/core/registry"
	"github.com/pbxtools/pbxdoc/core/render"
)

// Service runs documentation generation over a wired PBX context.
type Service struct {
	reg     *registry.Registry
	pc      *model.Context
	metrics *metrics.Collector // optional
	log     zerolog.Logger
}

// New creates a service. The metrics collector may be nil.
func New(reg *registry.Registry, pc *model.Context, m *metrics.Collector, log zerolog.Logger) *Service {
	return &Service{reg: reg, pc: pc, metrics: m, log: log}
}

// Generate produces the full wiki document. Modules with no records, and
// modules that only appear through cross-references, are skipped. One
// malformed record fails its whole module's materialization; cross-reference
// misses inside records degrade to inline markers and never fail the run.
func (s *Service) Generate(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	var todo []*model.Collection
	for _, col := range s.pc.Collections() {
		if col.Schema().Layout == model.LayoutNone {
			continue
		}
		if col.Count(ctx) == 0 {
			continue
		}
		todo = append(todo, col)
	}
	log.Info().Int("modules", len(todo)).Msg("starting documentation run")

	var sections []string
	for i, col := range todo {
		s.pc.Progress.ReportPercent(i * 100 / len(todo))
		section, err := render.Section(ctx, col)
		if err != nil {
			s.countRun("error")
			return "", fmt.Errorf("render %s: %w", col.Schema().Name, err)
		}
		if section == "" {
			continue
		}
		sections = append(sections, section)
		if s.metrics != nil {
			s.metrics.ModulesProcessed.Inc()
			s.metrics.RecordsRendered.WithLabelValues(col.Schema().Name).Add(float64(col.Count(ctx)))
		}
		log.Debug().Str("module", col.Schema().Name).Msg("module rendered")
	}
	s.pc.Progress.ReportPercent(100)
	s.pc.Progress.ReportStatus("Writing output")

	if s.metrics != nil {
		s.metrics.RunDuration.Observe(time.Since(start).Seconds())
		s.metrics.LastGenerationTS.SetToCurrentTime()
	}
	s.countRun("success")
	log.Info().Dur("elapsed", time.Since(start)).Msg("documentation run complete")

	return strings.Join(sections, "\n\n") + "\n", nil
}

func (s *Service) countRun(outcome string) {
	if s.metrics != nil {
		s.metrics.GenerationsTotal.WithLabelValues(outcome).Inc()
	}
}

// ModuleStatus is one row of the module overview.
type ModuleStatus struct {
	Name        string
	Description string
	Records     int
	Documented  bool
}

// Modules reports every registered module and its record count.
func (s *Service) Modules(ctx context.Context) []ModuleStatus {
	var out []ModuleStatus
	for _, col := range s.pc.Collections() {
		schema := col.Schema()
		out = append(out, ModuleStatus{
			Name:        schema.Name,
			Description: schema.Description,
			Records:     col.Count(ctx),
			Documented:  schema.Layout != model.LayoutNone,
		})
	}
	return out
}
