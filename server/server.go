// Package server exposes the catalogue, selection, and model features over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"nutriplan"
	"nutriplan/ai"
	"nutriplan/catalog"
	"nutriplan/meal"
)

// Searcher is satisfied by both the plain and instrumented search services.
type Searcher interface {
	Search(ctx context.Context, query string) (ai.Outcome, error)
}

// Analyzer is the meal analysis feature as the handlers consume it.
type Analyzer interface {
	Analyze(ctx context.Context, entries []meal.SelectedIngredient, stats nutriplan.MealStats, targetCalories float64, goal nutriplan.Goal) (ai.MealAnalysis, error)
}

// Notifier publishes a finished analysis to a chat channel. Optional; a nil
// notifier disables publishing.
type Notifier interface {
	PostAnalysis(ctx context.Context, channel string, entries []meal.SelectedIngredient, stats nutriplan.MealStats, analysis ai.MealAnalysis) error
}

type Options struct {
	Catalog        *catalog.Catalog
	Selection      *meal.Selection
	Searcher       Searcher
	Analyzer       Analyzer
	Notifier       Notifier
	NotifyChannel  string
	TargetCalories float64
	Goal           nutriplan.Goal
}

type Server struct {
	echo           *echo.Echo
	catalog        *catalog.Catalog
	selection      *meal.Selection
	searcher       Searcher
	analyzer       Analyzer
	notifier       Notifier
	notifyChannel  string
	targetCalories float64
	goal           nutriplan.Goal
}

func New(opts Options) (*Server, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if opts.Selection == nil {
		return nil, fmt.Errorf("selection is required")
	}
	if opts.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if opts.TargetCalories <= 0 {
		opts.TargetCalories = 600
	}
	if opts.Goal == "" {
		opts.Goal = nutriplan.GoalMaintenance
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:           e,
		catalog:        opts.Catalog,
		selection:      opts.Selection,
		searcher:       opts.Searcher,
		analyzer:       opts.Analyzer,
		notifier:       opts.Notifier,
		notifyChannel:  opts.NotifyChannel,
		targetCalories: opts.TargetCalories,
		goal:           opts.Goal,
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/api/ingredients", s.handleIngredients)
	e.GET("/api/selection", s.handleSelectionGet)
	e.PUT("/api/selection/:id", s.handleSelectionPut)
	e.DELETE("/api/selection", s.handleSelectionClear)
	e.GET("/api/stats", s.handleStats)
	e.POST("/api/search", s.handleSearch)
	e.POST("/api/analyze", s.handleAnalyze)

	return s, nil
}

// Start serves until ctx is cancelled, then drains for up to 10 seconds.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// Handler exposes the underlying router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngredients(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))

	var items []nutriplan.Ingredient
	switch {
	case q != "":
		found, err := s.catalog.SearchByName(q)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		items = found
	case category != "":
		items = s.catalog.FilterByCategory(nutriplan.Category(category))
	default:
		items = s.catalog.All()
	}

	if items == nil {
		items = []nutriplan.Ingredient{}
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleSelectionGet(c echo.Context) error {
	entries := s.selection.Entries()
	if entries == nil {
		entries = []meal.SelectedIngredient{}
	}
	return c.JSON(http.StatusOK, entries)
}

type selectionPutRequest struct {
	Quantity float64 `json:"quantity"`
}

func (s *Server) handleSelectionPut(c echo.Context) error {
	id := c.Param("id")
	ing, ok := s.catalog.FindByID(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown ingredient")
	}

	var req selectionPutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	s.selection.SetQuantity(ing, req.Quantity)
	return c.JSON(http.StatusOK, map[string]float64{"quantity": s.selection.Quantity(id)})
}

func (s *Server) handleSelectionClear(c echo.Context) error {
	s.selection.Clear()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.selection.Stats())
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	outcome, err := s.searcher.Search(c.Request().Context(), req.Query)
	if err != nil {
		if errors.Is(err, ai.ErrBusy) {
			return echo.NewHTTPError(http.StatusConflict, "a request is already running")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "Search engine unavailable.")
	}
	return c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleAnalyze(c echo.Context) error {
	entries := s.selection.Entries()
	if len(entries) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing selected to analyze")
	}

	analysis, err := s.analyzer.Analyze(c.Request().Context(), entries, s.selection.Stats(), s.targetCalories, s.goal)
	if err != nil {
		if errors.Is(err, ai.ErrBusy) {
			return echo.NewHTTPError(http.StatusConflict, "a request is already running")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if s.notifier != nil {
		if err := s.notifier.PostAnalysis(c.Request().Context(), s.notifyChannel, entries, s.selection.Stats(), analysis); err != nil {
			slog.Warn("Failed to publish analysis", "error", err)
		}
	}

	return c.JSON(http.StatusOK, analysis)
}
