package travel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"travel-planner/api/internal/ai"
	"travel-planner/api/internal/prompt"
	"travel-planner/api/internal/store"
	"travel-planner/api/internal/util"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means the model answered but nothing usable came out of it.
	ErrNotFound = errors.New("no usable answer")
	ErrUpstream = errors.New("upstream ai error")
)

const (
	maxPlaceRunes    = 120
	maxQuestionRunes = 1000
	maxImageBytes    = 8 << 20
)

type Engines interface {
	GetEngine(llmName string) (ai.Engine, error)
}

type Cache interface {
	Find(ctx context.Context, kind, keyHash, engine, model string, maxAge time.Duration) (string, error)
	Upsert(ctx context.Context, kind, keyHash, engine, model, answer string) error
}

type Service struct {
	engs     Engines
	prompts  *prompt.Set
	log      *zap.Logger
	cache    Cache
	cacheTTL time.Duration
}

type Option func(*Service)

// WithCache stores summaries and geocoding results. ttl <= 0 disables the cache.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		if c != nil && ttl > 0 {
			s.cache = c
			s.cacheTTL = ttl
		}
	}
}

func New(engs Engines, prompts *prompt.Set, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{engs: engs, prompts: prompts, log: log.Named("travel")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// generate renders a prompt and runs it on the engine, returning raw model text.
func (s *Service) generate(ctx context.Context, eng ai.Engine, name string, data any, search bool, img *ai.Image) (string, error) {
	system, user, err := s.prompts.Render(name, data)
	if err != nil {
		return "", err
	}
	start := time.Now()
	raw, err := eng.Generate(ctx, ai.Request{System: system, User: user, Image: img, Search: search})
	if err != nil {
		s.log.Warn("generate failed",
			zap.String("prompt", name), zap.String("engine", eng.Name()), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	s.log.Debug("generated",
		zap.String("prompt", name),
		zap.String("engine", eng.Name()),
		zap.Int("chars", len(raw)),
		zap.Duration("took", time.Since(start)))
	return raw, nil
}

// extract runs ExtractJSONResult and logs why nothing came out.
func (s *Service) extract(name, raw string) map[string]any {
	m, kind := util.ExtractJSONResult(raw)
	if kind != util.ExtractOK {
		s.log.Debug("no structured data", zap.String("prompt", name), zap.Stringer("kind", kind))
	}
	return m
}

func (s *Service) cached(ctx context.Context, kind, key string, eng ai.Engine) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	v, err := s.cache.Find(ctx, kind, key, eng.Name(), eng.GetModel(), s.cacheTTL)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("cache lookup failed", zap.String("kind", kind), zap.Error(err))
		}
		return "", false
	}
	return v, true
}

func (s *Service) remember(ctx context.Context, kind, key string, eng ai.Engine, answer string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Upsert(ctx, kind, key, eng.Name(), eng.GetModel(), answer); err != nil {
		s.log.Warn("cache store failed", zap.String("kind", kind), zap.Error(err))
	}
}

// cleanText trims, collapses inner whitespace and applies NFC so that the same
// place typed on different keyboards maps to one cache key.
func cleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func cacheKey(s string) string {
	h := sha256.Sum256([]byte(cases.Fold().String(s)))
	return hex.EncodeToString(h[:])
}

func displayName(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

func requirePlace(field, s string) (string, error) {
	s = cleanText(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(s) > maxPlaceRunes {
		return "", fmt.Errorf("%w: %s is longer than %d characters", ErrInvalidInput, field, maxPlaceRunes)
	}
	return s, nil
}
