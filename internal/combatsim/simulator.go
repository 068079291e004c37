// Package combatsim runs headless encounters end to end: the spawner picks
// enemy groups on a schedule, a scripted player fights them through the
// battle orchestrator, and results are persisted through a Store.
package combatsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/udisondev/wasteland/internal/config"
	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/db"
	"github.com/udisondev/wasteland/internal/game/combat"
	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/perf"
	"github.com/udisondev/wasteland/internal/perf/cache"
	"github.com/udisondev/wasteland/internal/perf/loader"
	"github.com/udisondev/wasteland/internal/perf/pool"
	"github.com/udisondev/wasteland/internal/rng"
	"github.com/udisondev/wasteland/internal/spawn"
)

// Battle outcomes reported in Summary.Outcomes. The first three match the
// battle's terminal states.
const (
	OutcomeVictory   = combat.StateVictory
	OutcomeDefeat    = combat.StateDefeat
	OutcomeRetreated = combat.StateRetreated
	OutcomeTimeout   = "timeout"
)

// turnDuration is how far the simulated clock moves per player action.
const turnDuration = 2 * time.Second

// Enemies line up engageDistance cells from the player, enemySpacing apart.
const (
	engageDistance = 10
	enemySpacing   = 2
)

// maxSchedulerTick bounds how late a due encounter may start.
const maxSchedulerTick = 50 * time.Millisecond

// maxFailedActions is how many refused actions in a row end in a retreat.
const maxFailedActions = 3

// ErrAlreadyRan is returned by a second call to Run.
var ErrAlreadyRan = errors.New("simulation already ran")

// Summary aggregates finished encounters.
type Summary struct {
	Encounters int
	Skipped    int // spawn attempts that produced no group
	Outcomes   map[string]int
	Experience int
	Turns      int
	Enemies    int
}

// AvgTurns returns the mean battle length in turns.
func (s Summary) AvgTurns() float64 {
	if s.Encounters == 0 {
		return 0
	}
	return float64(s.Turns) / float64(s.Encounters)
}

// Outcome describes one finished battle.
type Outcome struct {
	BattleID   string
	Encounter  string
	Template   string
	State      string
	Turns      int
	Enemies    int
	Experience int
	Loot       []combat.Drop
	Sprites    int
	Duration   time.Duration
}

// Simulator drives a batch of encounters for a single player.
type Simulator struct {
	cfg       config.Wasteland
	store     Store
	src       rng.Source
	perf      *perf.Context
	templates []*model.EnemyTemplate
	loadout   model.PlayerState
	arsenal   []*model.Weapon

	ran atomic.Bool

	mu       sync.Mutex
	progress *model.Combatant
	summary  Summary
}

// New validates cfg and prepares a simulator. A nil store keeps state in memory.
func New(cfg config.Wasteland, store Store) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}

	templates := make([]*model.EnemyTemplate, 0, len(cfg.Simulation.Templates))
	for _, name := range cfg.Simulation.Templates {
		t, ok := data.TemplateByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown enemy template %q", config.ErrInvalid, name)
		}
		templates = append(templates, t)
	}

	var src rng.Source = rng.Default()
	if cfg.Simulation.Seed != 0 {
		src = rng.NewSeeded(cfg.Simulation.Seed)
	}

	pc, err := perf.New(cfg.Perf, loader.FetcherFunc(fetchAsset))
	if err != nil {
		return nil, fmt.Errorf("creating performance context: %w", err)
	}
	pc.AddPool(combat.ProjectilePoolName, func(pcfg pool.Config) (pool.Managed, error) {
		return combat.NewProjectilePool(pcfg)
	})

	s := &Simulator{
		cfg:       cfg,
		store:     store,
		src:       src,
		perf:      pc,
		templates: templates,
		loadout:   DefaultLoadout(),
		summary:   Summary{Outcomes: make(map[string]int)},
	}
	for _, name := range Arsenal {
		if w, ok := data.WeaponByName(name); ok {
			s.arsenal = append(s.arsenal, w)
		}
	}
	return s, nil
}

// Perf returns the performance context, for status reporting.
func (s *Simulator) Perf() *perf.Context {
	return s.perf
}

// Summary returns a copy of the aggregated results.
func (s *Simulator) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.summary
	out.Outcomes = maps.Clone(s.summary.Outcomes)
	return out
}

// Player returns the persisted state of the simulated player, or false
// before Run has loaded it.
func (s *Simulator) Player() (model.PlayerState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return model.PlayerState{}, false
	}
	return s.progress.State(), true
}

// session holds what one Run shares across its encounters.
type session struct {
	sim         *Simulator
	assets      *cache.MultiLevel
	loader      *loader.Loader
	projectiles *pool.Pool[*combat.Projectile]
	sem         *semaphore.Weighted
}

// Run schedules every configured encounter, waits for them to finish and
// saves the player. Canceling ctx aborts battles in progress.
func (s *Simulator) Run(ctx context.Context) error {
	if !s.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRan
	}

	if err := s.perf.Init(ctx); err != nil {
		return fmt.Errorf("initializing performance context: %w", err)
	}
	defer s.perf.Shutdown()

	sess, err := s.newSession(ctx)
	if err != nil {
		return err
	}
	if err := s.loadPlayer(ctx); err != nil {
		return err
	}

	dataCache, _ := s.perf.DataCache()
	templates := data.NewTemplateCacheOn(dataCache)
	slog.Debug("enemy templates cached", "count", templates.Warm())

	spawner := spawn.NewSpawner(s.src, s.cfg.Spawn.HistorySize, spawn.WithTemplates(templates))
	factory := spawn.NewInstanceFactory(s.src)

	total := s.cfg.Simulation.Encounters
	attempted := make(chan struct{})
	var attempts atomic.Int64
	count := func(spawn.Result) {
		if attempts.Add(1) == int64(total) {
			close(attempted)
		}
	}
	spawner.OnSuccess(count)
	spawner.OnFailed(func(res spawn.Result) {
		s.mu.Lock()
		s.summary.Skipped++
		s.mu.Unlock()
		count(res)
	})

	sched := spawn.NewScheduler(spawner, factory, func(_ context.Context, enc spawn.Encounter, res spawn.Result) {
		sess.handle(ctx, enc, res)
	})
	sched.SetInterval(max(min(s.cfg.Simulation.Interval, maxSchedulerTick), time.Millisecond))
	for i := range total {
		t := s.templates[i%len(s.templates)]
		sched.Schedule(fmt.Sprintf("encounter-%03d", i+1), t.Name, s.cfg.Spawn.Rule, time.Duration(i)*s.cfg.Simulation.Interval)
	}
	if total == 0 {
		close(attempted)
	}

	schedCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan error, 1)
	go func() { done <- sched.Start(schedCtx) }()

	select {
	case <-attempted:
	case <-ctx.Done():
	}
	stop()
	<-done

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.savePlayer(ctx); err != nil {
		return err
	}

	sum := s.Summary()
	slog.Info("simulation complete",
		"encounters", sum.Encounters,
		"skipped", sum.Skipped,
		"spawnAttempts", spawner.Stats().Attempts,
		"experience", sum.Experience)
	s.perf.LogStatus()
	return nil
}

func (s *Simulator) newSession(ctx context.Context) (*session, error) {
	assets, err := s.perf.AssetCache()
	if err != nil {
		return nil, err
	}
	ld, err := s.perf.Loader()
	if err != nil {
		return nil, err
	}
	managed, ok := s.perf.Pools().Get(combat.ProjectilePoolName)
	if !ok {
		return nil, fmt.Errorf("pool %s not registered", combat.ProjectilePoolName)
	}
	projectiles, ok := managed.(*pool.Pool[*combat.Projectile])
	if !ok {
		return nil, fmt.Errorf("pool %s has type %T", combat.ProjectilePoolName, managed)
	}

	ids, err := registerAssets(ld, s.templates)
	if err != nil {
		return nil, err
	}
	pre := ld.Preload(ctx, ids)
	slog.Debug("encounter assets preloaded", "loaded", len(pre.Loaded), "failed", len(pre.Failed))

	return &session{
		sim:         s,
		assets:      assets,
		loader:      ld,
		projectiles: projectiles,
		sem:         semaphore.NewWeighted(int64(s.cfg.Simulation.Concurrency)),
	}, nil
}

// loadPlayer restores the player from the store or creates it from the loadout.
func (s *Simulator) loadPlayer(ctx context.Context) error {
	id := s.cfg.Simulation.PlayerID
	st, ok, err := s.store.LoadPlayer(ctx, id)
	if err != nil {
		return fmt.Errorf("loading player %s: %w", id, err)
	}
	if !ok {
		st = s.loadout
		if err := s.store.SavePlayer(ctx, id, st); err != nil {
			return fmt.Errorf("creating player %s: %w", id, err)
		}
		slog.Info("new player created", "player", id)
	}

	p, err := model.PlayerFromState(id, st, weaponOf(st))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()

	slog.Info("player loaded",
		"player", id,
		"level", st.Level,
		"experience", st.Experience)
	return nil
}

func (s *Simulator) savePlayer(ctx context.Context) error {
	st, _ := s.Player()
	if err := s.store.SavePlayer(ctx, s.cfg.Simulation.PlayerID, st); err != nil {
		return fmt.Errorf("saving player %s: %w", s.cfg.Simulation.PlayerID, err)
	}
	return nil
}

// fighter builds the combatant for one encounter: persisted progression
// with full health and the supply loadout.
func (s *Simulator) fighter(encounterID string) (*model.Combatant, error) {
	s.mu.Lock()
	st := s.progress.State()
	s.mu.Unlock()

	st.Health = st.MaxHealth
	st.Weapon = s.loadout.Weapon
	st.Armor = s.loadout.Armor
	st.Ammo = maps.Clone(s.loadout.Ammo)
	st.Medical = maps.Clone(s.loadout.Medical)
	return model.PlayerFromState(s.cfg.Simulation.PlayerID+"/"+encounterID, st, weaponOf(st))
}

// record folds a finished battle into the summary and progression.
func (s *Simulator) record(ctx context.Context, out Outcome) {
	s.mu.Lock()
	s.summary.Encounters++
	s.summary.Outcomes[out.State]++
	s.summary.Experience += out.Experience
	s.summary.Turns += out.Turns
	s.summary.Enemies += out.Enemies
	levels := combat.RewardExperience(s.progress, out.Experience)
	level := s.progress.Level()
	s.mu.Unlock()

	if levels > 0 {
		slog.Info("player leveled up",
			"player", s.cfg.Simulation.PlayerID,
			"level", level)
	}

	err := s.store.RecordBattle(ctx, db.BattleRecord{
		ID:         out.BattleID,
		PlayerID:   s.cfg.Simulation.PlayerID,
		Outcome:    out.State,
		Turns:      out.Turns,
		Enemies:    out.Enemies,
		Experience: out.Experience,
		FinishedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to record battle",
			"battle", out.BattleID,
			"err", err)
	}
}

func (ss *session) handle(ctx context.Context, enc spawn.Encounter, res spawn.Result) {
	if err := ss.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer ss.sem.Release(1)

	out, err := ss.fight(ctx, enc, res)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("encounter failed",
				"encounter", enc.ID,
				"template", enc.Template,
				"err", err)
		}
		return
	}
	ss.sim.record(ctx, out)
}

// fight plays one encounter to the end with the scripted policy.
func (ss *session) fight(ctx context.Context, enc spawn.Encounter, res spawn.Result) (Outcome, error) {
	s := ss.sim
	stopTimer := s.perf.Profiler().Measure("encounter")
	defer stopTimer()
	started := time.Now()

	player, err := s.fighter(enc.ID)
	if err != nil {
		return Outcome{}, err
	}

	sprites := 0
	for i, e := range res.Instances {
		e.SetPosition(model.Position{X: engageDistance, Y: i * enemySpacing})
		sp, err := spriteFor(ctx, ss.assets, ss.loader, e.Template(), i)
		if err != nil {
			slog.Warn("enemy sprite unavailable",
				"encounter", enc.ID,
				"enemy", e.ID(),
				"err", err)
			continue
		}
		if sp != nil {
			sprites++
		}
	}

	env := RandomEnvironment(s.src)
	clock := newSimClock(started)
	b, err := combat.NewBattle(player, res.Instances, combat.Options{
		RNG:            s.src,
		LootRNG:        s.src,
		Clock:          clock.Now,
		LogSize:        s.cfg.Combat.LogSize,
		RetreatChance:  s.cfg.Combat.RetreatChance,
		EnemyTurnDelay: s.cfg.Combat.EnemyTurnDelay,
		Environment:    &env,
		Arsenal:        s.arsenal,
		Projectiles:    ss.projectiles,
		LootRates: combat.LootRates{
			ChanceMultiplier: s.cfg.Combat.Rates.LootChanceMultiplier,
			AmountMultiplier: s.cfg.Combat.Rates.LootAmountMultiplier,
		},
	})
	if err != nil {
		return Outcome{}, err
	}
	defer b.Close()

	if err := b.Start(); err != nil {
		return Outcome{}, err
	}

	state, err := ss.play(ctx, b, player, clock)
	if err != nil {
		return Outcome{}, err
	}

	snap := b.Snapshot()
	out := Outcome{
		BattleID:   b.ID(),
		Encounter:  enc.ID,
		Template:   enc.Template,
		State:      state,
		Turns:      snap.Turn,
		Enemies:    len(snap.Enemies),
		Experience: snap.ExperienceGained,
		Loot:       snap.Loot,
		Sprites:    sprites,
		Duration:   time.Since(started),
	}
	slog.Debug("encounter finished",
		"encounter", enc.ID,
		"template", enc.Template,
		"outcome", out.State,
		"turns", out.Turns,
		"environment", env)
	return out, nil
}

// play runs the policy until the battle ends or runs past MaxTurns.
func (ss *session) play(ctx context.Context, b *combat.Battle, player *model.Combatant, clock *simClock) (string, error) {
	maxTurns := ss.sim.cfg.Simulation.MaxTurns
	prof := ss.sim.perf.Profiler()
	failed := 0

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-b.Done():
			return b.State(), nil
		default:
		}

		if err := ss.awaitPlayerTurn(ctx, b); err != nil {
			return "", err
		}
		snap := b.Snapshot()
		if !snap.PlayerTurn {
			continue
		}
		if snap.Turn > maxTurns {
			return OutcomeTimeout, nil
		}

		act := Decide(snap, player, ss.sim.arsenal)
		stop := prof.Measure("action." + act.Kind.String())
		ok, err := apply(b, snap, act)
		stop()
		if err != nil {
			return "", err
		}
		switch {
		case ok:
			failed = 0
		case act.Kind == ActionSwitch:
			// arsenal refused the swap; nothing else left to try
			failed = 0
			if _, err := b.Retreat(); err != nil {
				return "", err
			}
		default:
			// a refused action keeps the turn, so Turn never reaches maxTurns
			failed++
			if failed >= maxFailedActions {
				failed = 0
				slog.Debug("policy stuck, retreating", "battle", b.ID(), "action", act.Kind.String())
				if _, err := b.Retreat(); err != nil {
					return "", err
				}
			}
		}
		clock.Advance(turnDuration)
	}
}

// awaitPlayerTurn waits out a delayed enemy turn.
func (ss *session) awaitPlayerTurn(ctx context.Context, b *combat.Battle) error {
	delay := ss.sim.cfg.Combat.EnemyTurnDelay
	if b.State() != combat.StateEnemyTurn {
		return nil
	}
	ticker := time.NewTicker(max(delay/4, time.Millisecond))
	defer ticker.Stop()
	deadline := time.NewTimer(2 * delay)
	defer deadline.Stop()

	for b.State() == combat.StateEnemyTurn {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.Done():
			return nil
		case <-deadline.C:
			b.TriggerEnemyTurns()
		case <-ticker.C:
		}
	}
	return nil
}

func apply(b *combat.Battle, snap combat.Snapshot, act Action) (bool, error) {
	switch act.Kind {
	case ActionSwitch:
		return b.SwitchWeapon(act.Weapon), nil
	case ActionHeal:
		res, err := b.UseItem(act.Item)
		return res.Success, err
	case ActionRetreat:
		res, err := b.Retreat()
		return res.Success, err
	default:
		if act.Target != snap.SelectedTarget {
			b.SelectTarget(act.Target)
		}
		res, err := b.Attack()
		return res.Success, err
	}
}

// simClock is a per-battle clock advanced by the policy loop, so weapon
// cooldowns are measured in simulated time.
type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSimClock(start time.Time) *simClock {
	return &simClock{now: start}
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
