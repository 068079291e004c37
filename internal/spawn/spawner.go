package spawn

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/rng"
)

// Failure reasons recorded in Result.Reason.
const (
	ReasonChance     = "spawn chance roll failed"
	ReasonConditions = "conditions not met"
	ReasonNoTemplate = "no template"
	ReasonFactory    = "factory error"
	ReasonConfig     = "invalid config"
)

// Result is the outcome of one spawn attempt.
type Result struct {
	Success    bool
	Template   string
	Instances  []*model.Combatant
	GroupSize  int
	Conditions Conditions
	Time       time.Time
	Reason     string // empty on success
	Err        error  // factory error, if any
}

// Listener receives spawn results.
type Listener func(Result)

// Stats is a snapshot of spawner counters.
type Stats struct {
	Attempts     int
	Successes    int
	Failures     int
	TotalSpawned int
	History      int
}

// Spawner generates enemy groups. Safe for concurrent use.
type Spawner struct {
	src       rng.Source
	now       func() time.Time
	templates TemplateSource

	mu        sync.Mutex
	history   []Result // ring buffer
	head      int
	size      int
	onSuccess []Listener
	onFailed  []Listener

	attempts  int
	successes int
	spawned   int
}

// Option customizes a Spawner.
type Option func(*Spawner)

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Spawner) { s.now = now }
}

// WithTemplates sets the source used by SpawnNamed.
func WithTemplates(src TemplateSource) Option {
	return func(s *Spawner) { s.templates = src }
}

// NewSpawner creates a spawner keeping the last historySize results.
func NewSpawner(src rng.Source, historySize int, opts ...Option) *Spawner {
	if src == nil {
		src = rng.Default()
	}
	if historySize < 1 {
		historySize = DefaultHistorySize
	}
	s := &Spawner{
		src:       src,
		now:       time.Now,
		templates: StaticTemplates{},
		history:   make([]Result, historySize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnSuccess registers a listener for successful spawns.
func (s *Spawner) OnSuccess(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSuccess = append(s.onSuccess, fn)
}

// OnFailed registers a listener for failed spawns.
func (s *Spawner) OnFailed(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFailed = append(s.onFailed, fn)
}

// SpawnGroup rolls the spawn chance, picks a group size within both the
// configured and the template range, and instantiates the group.
func (s *Spawner) SpawnGroup(t *model.EnemyTemplate, f Factory, cfg Config) Result {
	return s.spawn(t, f, cfg, Conditions{})
}

// SpawnWithConditions spawns only if cond satisfies req. A mismatch is a
// failed result and consumes no randomness.
func (s *Spawner) SpawnWithConditions(t *model.EnemyTemplate, f Factory, cfg Config, req Requirements, cond Conditions) Result {
	if !req.Match(cond) {
		res := Result{Template: templateName(t), Conditions: cond, Reason: ReasonConditions}
		return s.record(res)
	}
	return s.spawn(t, f, cfg, cond)
}

// SpawnRandom picks one template uniformly and spawns it.
func (s *Spawner) SpawnRandom(templates []*model.EnemyTemplate, f Factory, cfg Config) Result {
	if len(templates) == 0 {
		return s.record(Result{Reason: ReasonNoTemplate})
	}
	s.mu.Lock()
	i := s.src.IntN(len(templates))
	s.mu.Unlock()
	return s.spawn(templates[i], f, cfg, Conditions{})
}

// SpawnNamed resolves the template by name and spawns it.
func (s *Spawner) SpawnNamed(name string, f Factory, cfg Config) Result {
	t, ok := s.templates.Template(name)
	if !ok {
		return s.record(Result{Template: name, Reason: ReasonNoTemplate})
	}
	return s.spawn(t, f, cfg, Conditions{})
}

// SpawnBatch spawns every template in order. Results are index-aligned with templates.
func (s *Spawner) SpawnBatch(templates []*model.EnemyTemplate, f Factory, cfg Config) []Result {
	out := make([]Result, 0, len(templates))
	for _, t := range templates {
		out = append(out, s.spawn(t, f, cfg, Conditions{}))
	}
	return out
}

// History returns recorded results, oldest first.
func (s *Spawner) History() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Result, 0, s.size)
	start := (s.head - s.size + len(s.history)) % len(s.history)
	for i := range s.size {
		out = append(out, s.history[(start+i)%len(s.history)])
	}
	return out
}

// ClearHistory drops recorded results. Counters are kept.
func (s *Spawner) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.history)
	s.head, s.size = 0, 0
}

// Stats returns counters.
func (s *Spawner) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Attempts:     s.attempts,
		Successes:    s.successes,
		Failures:     s.attempts - s.successes,
		TotalSpawned: s.spawned,
		History:      s.size,
	}
}

func (s *Spawner) spawn(t *model.EnemyTemplate, f Factory, cfg Config, cond Conditions) Result {
	res := Result{Template: templateName(t), Conditions: cond}
	if t == nil || f == nil {
		res.Reason = ReasonNoTemplate
		return s.record(res)
	}
	if err := cfg.Validate(); err != nil {
		res.Reason = ReasonConfig
		res.Err = err
		return s.record(res)
	}

	s.mu.Lock()
	if s.src.Float64() > cfg.SpawnChance {
		s.mu.Unlock()
		res.Reason = ReasonChance
		return s.record(res)
	}
	lo, hi := cfg.groupRange(t.GroupSize.Min, t.GroupSize.Max)
	size := rng.IntRange(s.src, lo, hi)
	s.mu.Unlock()

	instances := make([]*model.Combatant, 0, size)
	for i := range size {
		c, err := f.Instantiate(t)
		if err != nil {
			res.Reason = ReasonFactory
			res.Err = fmt.Errorf("instance %d of %s: %w", i, t.Name, err)
			return s.record(res)
		}
		instances = append(instances, c)
	}

	res.Success = true
	res.Instances = instances
	res.GroupSize = size
	return s.record(res)
}

// record stores res in history, updates counters and notifies listeners.
func (s *Spawner) record(res Result) Result {
	s.mu.Lock()
	res.Time = s.now()
	s.attempts++
	if res.Success {
		s.successes++
		s.spawned += res.GroupSize
	}

	s.history[s.head] = res
	s.head = (s.head + 1) % len(s.history)
	if s.size < len(s.history) {
		s.size++
	}

	listeners := s.onFailed
	if res.Success {
		listeners = s.onSuccess
	}
	listeners = append([]Listener(nil), listeners...)
	s.mu.Unlock()

	if res.Success {
		slog.Debug("enemy group spawned", "template", res.Template, "size", res.GroupSize)
	} else {
		slog.Debug("spawn failed", "template", res.Template, "reason", res.Reason, "error", res.Err)
	}

	for _, fn := range listeners {
		notify(fn, res)
	}
	return res
}

// notify calls fn and logs a panic instead of propagating it.
func notify(fn Listener, res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("spawn listener panicked",
				"template", res.Template,
				"success", res.Success,
				"panic", r)
		}
	}()
	fn(res)
}

func templateName(t *model.EnemyTemplate) string {
	if t == nil {
		return ""
	}
	return t.Name
}
