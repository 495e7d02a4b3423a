package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nutriplan"
)

// InstrumentedSearchService is a SearchService with tracing and metrics on
// the model exchange and the applied outcome.
type InstrumentedSearchService struct {
	inner  *SearchService
	tracer trace.Tracer
	meter  metric.Meter
}

// NewInstrumentedSearchService wraps an existing SearchService.
func NewInstrumentedSearchService(inner *SearchService, tracer trace.Tracer, meter metric.Meter) (*InstrumentedSearchService, error) {
	if inner == nil {
		return nil, fmt.Errorf("search service is required")
	}
	return &InstrumentedSearchService{inner: inner, tracer: tracer, meter: meter}, nil
}

// Search instruments the inner service's Search call.
func (s *InstrumentedSearchService) Search(ctx context.Context, query string) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "SearchService.Search")
	defer span.End()

	searchesCounter, _ := s.meter.Int64Counter("searches_total",
		metric.WithDescription("Total number of searches started"))
	searchesFailedCounter, _ := s.meter.Int64Counter("searches_failed_total",
		metric.WithDescription("Total number of searches that failed"))
	searchesRefusedCounter, _ := s.meter.Int64Counter("searches_refused_total",
		metric.WithDescription("Total number of searches refused by the busy gate"))
	searchesDroppedCounter, _ := s.meter.Int64Counter("searches_dropped_total",
		metric.WithDescription("Total number of model replies dropped without applying"))
	searchDurationHist, _ := s.meter.Float64Histogram("search_duration_seconds",
		metric.WithDescription("Duration of a full search round trip in seconds"))
	modelResponseTimeHist, _ := s.meter.Float64Histogram("model_response_time_seconds",
		metric.WithDescription("Time spent waiting on the model in seconds"))

	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{}, nil
	}

	searchesCounter.Add(ctx, 1)
	span.SetAttributes(attribute.Int("query_length", len(query)))

	if !s.inner.gate.acquire() {
		searchesRefusedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "busy")
		return Outcome{}, ErrBusy
	}
	defer s.inner.gate.release()

	start := time.Now()
	defer func() {
		searchDurationHist.Record(ctx, time.Since(start).Seconds())
	}()

	userPrompt := SearchUserPrompt(query, s.inner.catalog.Names())

	modelStart := time.Now()
	raw, err := s.inner.llm.Invoke(ctx, SearchSystemPrompt(), userPrompt)
	modelResponseTimeHist.Record(ctx, time.Since(modelStart).Seconds())

	log := nutriplan.ExchangeLog{
		Feature:    "search",
		Timestamp:  time.Now(),
		ModelInput: userPrompt,
	}
	if raw != nil {
		log.ModelOutput = string(raw)
	}
	if err != nil {
		log.Error = err.Error()
	}
	s.inner.logExchange(log)

	if err != nil {
		searchesFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "model invoke failed")
		span.RecordError(err)
		return Outcome{}, fmt.Errorf("search model call: %w", err)
	}

	var result SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("SEARCH: dropping unparseable model reply", "error", err)
		searchesDroppedCounter.Add(ctx, 1)
		span.AddEvent("reply dropped", trace.WithAttributes(
			attribute.String("reason", "unparseable"),
		))
		return Outcome{}, nil
	}

	outcome := s.inner.apply(result)
	span.SetAttributes(
		attribute.String("intent", string(result.Intent)),
		attribute.Bool("applied", outcome.Applied),
	)
	if !outcome.Applied {
		searchesDroppedCounter.Add(ctx, 1)
	}
	return outcome, nil
}
