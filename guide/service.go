package guide

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"local-guide/confidence"
	"local-guide/config"
	apperrors "local-guide/errors"
	"local-guide/knowledge"
	"local-guide/reasoning"
	"local-guide/retrieval"
	"local-guide/utils"

	"go.uber.org/zap"
)

// NoContextMessage is returned for every query while no knowledge base is loaded.
const NoContextMessage = "no local context is loaded."

// LowConfidenceNote explains a withheld answer when nothing more specific is missing.
const LowConfidenceNote = "the local guide does not cover this question closely enough to answer it"

// Request is one question put to the guide.
type Request struct {
	RequestID string
	Query     string
	Timestamp string     // optional; unparsable values are ignored
	At        *time.Time // optional; takes precedence over Timestamp
	Location  string     // optional place hint
}

// Response is the guide's answer, or its request for clarification.
type Response struct {
	RequestID            string                `json:"request_id"`
	Answer               *string               `json:"answer"`
	Confidence           float64               `json:"confidence"`
	Level                confidence.Level      `json:"level"`
	Components           confidence.Components `json:"components"`
	MeetsThreshold       bool                  `json:"meets_threshold"`
	Sources              []string              `json:"sources"`
	Assumptions          []string              `json:"assumptions"`
	MissingInfo          []string              `json:"missing_info"`
	Clarification        string                `json:"clarification,omitempty"`
	TravelTimeMultiplier float64               `json:"travel_time_multiplier"`
	Message              string                `json:"message,omitempty"`
}

// Status describes the knowledge base currently in service.
type Status struct {
	Ready       bool           `json:"ready"`
	City        string         `json:"city,omitempty"`
	LocalName   string         `json:"local_name,omitempty"`
	Items       int            `json:"items"`
	Categories  map[string]int `json:"categories,omitempty"`
	Places      int            `json:"places"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Source      string         `json:"source,omitempty"`
	LoadedAt    *time.Time     `json:"loaded_at,omitempty"`
}

type snapshot struct {
	kb       *knowledge.KnowledgeBase
	source   string
	loadedAt time.Time
}

// Service answers questions against one swappable knowledge base. Readers
// load the current snapshot once per query and never block; reloads build
// the new base off to the side and publish it with a single pointer swap.
type Service struct {
	logger    *zap.Logger
	retriever *retrieval.Retriever
	reasoner  *reasoning.Reasoner
	scorer    *confidence.Scorer
	cache     *knowledge.BuildCache
	metrics   *Metrics

	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
}

// New wires the pipeline from configuration. No knowledge base is loaded.
func New(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	cache, err := knowledge.NewBuildCache(cfg.KBCacheSize)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to create knowledge base cache")
	}
	return &Service{
		logger: logger,
		retriever: retrieval.New(retrieval.Options{
			Cutoff:     cfg.RelevanceCutoff,
			MaxResults: cfg.MaxResults,
		}),
		reasoner: reasoning.New(reasoning.Options{
			MaxDraftItems:   cfg.MaxDraftItems,
			DraftScoreRatio: cfg.DraftScoreRatio,
		}),
		scorer:  confidence.NewScorer(cfg.ConfidenceThreshold),
		cache:   cache,
		metrics: newMetrics(),
	}, nil
}

// Metrics returns the service's collectors.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// Ready reports whether a knowledge base is in service.
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// Reload builds a knowledge base from document text and swaps it in. On
// failure the previous base, if any, stays in service.
func (s *Service) Reload(text string) error {
	return s.reload(text, "inline")
}

// ReloadFile reads the document at path and reloads from it.
func (s *Service) ReloadFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.metrics.observeReload(ReloadReadError)
		s.logger.Error("Failed to read guide document", zap.String("path", path), zap.Error(err))
		return apperrors.WrapErrorf(apperrors.ErrDocumentRead, "failed to read %s: %v", path, err)
	}
	return s.reload(string(data), path)
}

func (s *Service) reload(text, source string) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	kb, cached, err := s.cache.Build(text)
	if err != nil {
		s.metrics.observeReload(ReloadParseError)
		fields := []zap.Field{zap.String("source", source), zap.Error(err), zap.Bool("kept_previous", s.Ready())}
		if pe, ok := apperrors.AsParseError(err); ok {
			fields = append(fields, zap.String("section", pe.Section))
		}
		s.logger.Error("Failed to build knowledge base", fields...)
		return apperrors.WrapError(err, "reload rejected")
	}

	s.current.Store(&snapshot{kb: kb, source: source, loadedAt: time.Now()})
	s.metrics.observeReload(ReloadSuccess)
	s.metrics.knowledgeItems.Set(float64(kb.Len()))

	stats := kb.Stats()
	s.logger.Info("Knowledge base loaded",
		zap.String("source", source),
		zap.String("city", stats.City),
		zap.Int("items", stats.Items),
		zap.Int("keywords", stats.Keywords),
		zap.Int("places", stats.Places),
		zap.Any("categories", stats.Categories),
		zap.String("fingerprint", kb.Fingerprint()[:12]),
		zap.Bool("cached", cached),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Status reports the knowledge base in service.
func (s *Service) Status() Status {
	snap := s.current.Load()
	if snap == nil {
		return Status{}
	}
	stats := snap.kb.Stats()
	loadedAt := snap.loadedAt
	return Status{
		Ready:       true,
		City:        stats.City,
		LocalName:   snap.kb.City().LocalName,
		Items:       stats.Items,
		Categories:  stats.Categories,
		Places:      stats.Places,
		Fingerprint: snap.kb.Fingerprint(),
		Source:      snap.source,
		LoadedAt:    &loadedAt,
	}
}

// Item returns one context item of the knowledge base in service.
func (s *Service) Item(id int) (knowledge.ContextItem, error) {
	snap := s.current.Load()
	if snap == nil {
		return knowledge.ContextItem{}, apperrors.ErrNoKnowledgeBase
	}
	item, ok := snap.kb.Item(id)
	if !ok {
		return knowledge.ContextItem{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "context item %d", id)
	}
	return item, nil
}

// Items lists the items of the named category in document order. An
// empty name lists every item.
func (s *Service) Items(category string) ([]knowledge.ContextItem, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.ErrNoKnowledgeBase
	}
	if strings.TrimSpace(category) == "" {
		return snap.kb.Items(), nil
	}
	cat, ok := knowledge.ParseCategory(category)
	if !ok {
		return nil, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "unknown category %q", category)
	}
	return snap.kb.ItemsIn(cat), nil
}

// Answer runs the pipeline for one question. It only fails on an empty
// query; an unanswerable question is a low confidence response, not an error.
func (s *Service) Answer(req Request) (Response, error) {
	resp := Response{
		RequestID:            req.RequestID,
		Level:                confidence.VeryLow,
		Sources:              []string{},
		Assumptions:          []string{},
		MissingInfo:          []string{},
		TravelTimeMultiplier: 1,
	}
	if resp.RequestID == "" {
		resp.RequestID = utils.GenerateRequestID()
	}

	text := utils.SanitizeQuery(req.Query)
	if text == "" {
		return resp, apperrors.WrapError(apperrors.ErrInvalidInput, "query must not be empty")
	}
	q := retrieval.NewQuery(text).WithLocation(req.Location)
	var timeNote string
	if req.At != nil {
		q = q.WithTime(*req.At)
	} else if timed, err := q.WithTimestamp(req.Timestamp); err != nil {
		// An unreadable time means no time context, not a failed query.
		timeNote = fmt.Sprintf("timestamp %q was not understood, so no time of day was assumed", strings.TrimSpace(req.Timestamp))
		s.logger.Debug("Ignoring unparsable timestamp", zap.String("request_id", resp.RequestID), zap.Error(err))
	} else {
		q = timed
	}

	// One load per query: every stage sees the same base even if a reload lands meanwhile.
	snap := s.current.Load()
	if snap == nil {
		resp.Message = NoContextMessage
		resp.MissingInfo = []string{NoContextMessage}
		s.metrics.observeQuery(OutcomeNoContext, 0)
		s.logger.Debug("Query answered without knowledge base", zap.String("request_id", resp.RequestID))
		return resp, nil
	}
	kb := snap.kb

	res := s.retriever.Retrieve(q, kb)
	out := s.reasoner.Reason(res, kb)
	score := s.scorer.Score(res, out)

	resp.Confidence = score.Overall
	resp.Level = score.Level
	resp.Components = score.Components
	resp.MeetsThreshold = score.MeetsThreshold
	resp.MissingInfo = append(resp.MissingInfo, out.MissingInfo...)

	outcome := OutcomeAnswered
	if score.MeetsThreshold {
		resp.Answer = out.AnswerDraft
		resp.Sources = append(resp.Sources, out.Sources...)
		resp.Assumptions = append(resp.Assumptions, out.Assumptions...)
		if timeNote != "" {
			resp.Assumptions = append(resp.Assumptions, timeNote)
		}
		resp.TravelTimeMultiplier = out.TravelTimeMultiplier
	} else {
		outcome = OutcomeClarified
		if _, missing := reasoning.MissingAttributes(res.Analysis, out.Used); !res.Empty() {
			for _, attr := range missing {
				resp.MissingInfo = append(resp.MissingInfo, fmt.Sprintf("no %s information found for this question", attr))
			}
		}
		if len(resp.MissingInfo) == 0 {
			resp.MissingInfo = append(resp.MissingInfo, LowConfidenceNote)
		}
		resp.Clarification = confidence.ClarifyingQuestion(res.Analysis, kb.City().Name)
	}
	s.metrics.observeQuery(outcome, score.Overall)

	s.logger.Debug("Query answered",
		zap.String("request_id", resp.RequestID),
		zap.String("outcome", outcome),
		zap.Float64("confidence", score.Overall),
		zap.Int("retrieved", len(res.Items)),
		zap.Strings("rules", out.FiredRules))
	return resp, nil
}
