package combat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/perf/pool"
	"github.com/udisondev/wasteland/internal/rng"
)

// Battle states.
const (
	StateInitializing = "initializing"
	StatePlayerTurn   = "player_turn"
	StateEnemyTurn    = "enemy_turn"
	StateVictory      = "victory"
	StateDefeat       = "defeat"
	StateRetreated    = "retreated"
)

// Battle events.
const (
	eventStart         = "start"
	eventEndPlayerTurn = "end_player_turn"
	eventEndEnemyTurn  = "end_enemy_turn"
	eventWin           = "win"
	eventLose          = "lose"
	eventFlee          = "flee"
)

// DefaultRetreatChance is the probability a retreat succeeds.
const DefaultRetreatChance = 0.75

// EffectStunned makes an enemy lose its next action.
const EffectStunned = "stunned"

var (
	// ErrNotStarted is returned when an action is used before Start.
	ErrNotStarted = errors.New("battle not started")
	// ErrInvalidBattle is returned by NewBattle and Start for unusable setups.
	ErrInvalidBattle = errors.New("invalid battle")
)

// fists is used by enemies spawned without a weapon.
var fists = &model.Weapon{
	Name:           "Fists",
	Skill:          data.SkillUnarmed,
	AmmoType:       model.AmmoMelee,
	Damage:         model.Range{Min: 1, Max: 3},
	CriticalChance: 1,
}

// Options configures a battle. Zero values select defaults.
type Options struct {
	ID string // uuid when empty

	RNG     rng.Source // combat rolls
	LootRNG rng.Source // loot rolls, kept apart so combat sequences stay fixed
	Clock   func() time.Time

	LogSize        int
	RetreatChance  float64
	EnemyTurnDelay time.Duration // 0 = enemies act synchronously
	Environment    *model.Environment

	// Arsenal lists weapons the player may switch to. Empty means any known weapon.
	Arsenal     []*model.Weapon
	Projectiles *pool.Pool[*Projectile]
	LootRates   LootRates
}

// CombatantView is the UI view of one combatant.
type CombatantView struct {
	ID        string
	Name      string
	Health    int
	MaxHealth int
	Alive     bool
	Effects   []string
}

// Snapshot is a read-only view of the battle for the presentation layer.
type Snapshot struct {
	ID               string
	State            string
	Turn             int
	PlayerTurn       bool
	Player           CombatantView
	Weapon           string
	Ammo             int
	Enemies          []CombatantView
	SelectedTarget   int
	Log              []string
	ExperienceGained int
	Loot             []Drop
}

// Battle — один бой: игрок против группы врагов.
//
// Переходы: initializing → player_turn ⇄ enemy_turn → victory | defeat,
// retreated из player_turn. All methods are safe for concurrent use.
type Battle struct {
	id        string
	opts      Options
	player    *model.Combatant
	enemies   []*model.Combatant
	machine   *fsm.FSM
	log       *Log
	cooldowns *CooldownTracker

	mu         sync.Mutex
	target     int
	turn       int
	expGained  int
	loot       []Drop
	enemyTimer *time.Timer
	closed     bool

	doneOnce sync.Once
	done     chan struct{}
}

// NewBattle prepares an encounter. enemies act in slice order.
func NewBattle(player *model.Combatant, enemies []*model.Combatant, opts Options) (*Battle, error) {
	if player == nil || player.Kind() != model.KindPlayer {
		return nil, fmt.Errorf("%w: player required", ErrInvalidBattle)
	}
	if len(enemies) == 0 {
		return nil, fmt.Errorf("%w: no enemies", ErrInvalidBattle)
	}
	for i, e := range enemies {
		if e == nil {
			return nil, fmt.Errorf("%w: enemy %d is nil", ErrInvalidBattle, i)
		}
	}

	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.RNG == nil {
		opts.RNG = rng.Default()
	}
	if opts.LootRNG == nil {
		opts.LootRNG = rng.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.RetreatChance <= 0 {
		opts.RetreatChance = DefaultRetreatChance
	}
	if opts.LootRates == (LootRates{}) {
		opts.LootRates = DefaultLootRates()
	}

	b := &Battle{
		id:        opts.ID,
		opts:      opts,
		player:    player,
		enemies:   append([]*model.Combatant(nil), enemies...),
		log:       NewLog(opts.LogSize),
		cooldowns: NewCooldownTracker(opts.Clock),
		target:    -1,
		done:      make(chan struct{}),
	}
	b.machine = fsm.NewFSM(
		StateInitializing,
		fsm.Events{
			{Name: eventStart, Src: []string{StateInitializing}, Dst: StatePlayerTurn},
			{Name: eventEndPlayerTurn, Src: []string{StatePlayerTurn}, Dst: StateEnemyTurn},
			{Name: eventEndEnemyTurn, Src: []string{StateEnemyTurn}, Dst: StatePlayerTurn},
			{Name: eventWin, Src: []string{StatePlayerTurn}, Dst: StateVictory},
			{Name: eventLose, Src: []string{StateEnemyTurn}, Dst: StateDefeat},
			{Name: eventFlee, Src: []string{StatePlayerTurn}, Dst: StateRetreated},
		},
		fsm.Callbacks{
			"enter_state": b.onEnterState,
		},
	)
	return b, nil
}

// onEnterState runs inside fsm.Event; it must not call back into the FSM.
func (b *Battle) onEnterState(_ context.Context, e *fsm.Event) {
	b.log.Addf("Battle state: %s -> %s", e.Src, e.Dst)
	slog.Debug("battle transition",
		"battle", b.id,
		"event", e.Event,
		"from", e.Src,
		"to", e.Dst)
}

// ID returns the battle id.
func (b *Battle) ID() string { return b.id }

// Start moves the battle into the first player turn.
func (b *Battle) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.machine.Can(eventStart) {
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidBattle, b.machine.Current())
	}
	if b.player.IsDead() {
		return fmt.Errorf("%w: player is dead", ErrInvalidBattle)
	}
	b.target = b.nextLivingLocked()
	if b.target < 0 {
		return fmt.Errorf("%w: all enemies are dead", ErrInvalidBattle)
	}

	b.log.Addf("Encounter: %d enemies", len(b.enemies))
	b.fire(eventStart)
	b.beginPlayerTurnLocked()

	slog.Info("battle started",
		"battle", b.id,
		"player", b.player.Name(),
		"enemies", len(b.enemies))
	return nil
}

// State returns the current state name.
func (b *Battle) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.machine.Current()
}

// Done is closed when the battle ends or is closed.
func (b *Battle) Done() <-chan struct{} {
	return b.done
}

// SelectTarget selects the enemy at index i. Dead or out-of-range targets are rejected.
func (b *Battle) SelectTarget(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.machine.Is(StatePlayerTurn) {
		return false
	}
	if i < 0 || i >= len(b.enemies) || b.enemies[i].IsDead() {
		return false
	}
	b.target = i
	b.log.Addf("Target: %s", b.enemies[i].Name())
	return true
}

// SwitchWeapon equips the named weapon. Does not end the turn.
func (b *Battle) SwitchWeapon(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.machine.Is(StatePlayerTurn) {
		return false
	}
	w := b.findWeapon(name)
	if w == nil {
		b.log.Addf("No weapon named %s", name)
		return false
	}
	b.player.SetWeapon(w)
	b.log.Addf("Switched to %s", w.Name)
	return true
}

func (b *Battle) findWeapon(name string) *model.Weapon {
	if len(b.opts.Arsenal) == 0 {
		w, _ := data.WeaponByName(name)
		return w
	}
	for _, w := range b.opts.Arsenal {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// Attack fires the equipped weapon at the selected target and ends the turn.
// Precondition failures return a failed result and keep the turn.
func (b *Battle) Attack() (model.ActionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if res, ok, err := b.guardLocked("attack"); !ok {
		return res, err
	}

	target := b.targetLocked()
	if err := ValidateAttack(b.player, target, b.cooldowns); err != nil {
		return b.failLocked(err.Error()), nil
	}

	weapon := b.player.Weapon()
	if !ConsumeAmmo(b.player, weapon) {
		return b.failLocked(fmt.Sprintf("%s: %s", weapon.Name, ErrOutOfAmmo)), nil
	}
	b.player.SpendActionPoints(weapon.APCost)
	b.cooldowns.Mark(weapon)

	res := b.resolveAttackLocked(b.player, weapon, target)
	res.APCost = weapon.APCost

	if target.IsDead() {
		b.onEnemyDefeatedLocked(target, &res)
	}

	if b.nextLivingLocked() < 0 {
		b.fire(eventWin)
		b.log.Addf("Victory! %d experience gained", b.expGained)
		b.finishLocked()
		return res, nil
	}

	b.endPlayerTurnLocked()
	return res, nil
}

// UseItem consumes one medical item and ends the turn.
func (b *Battle) UseItem(itemID string) (model.ActionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if res, ok, err := b.guardLocked("use item"); !ok {
		return res, err
	}

	item, ok := data.MedicalItemByID(itemID)
	if !ok {
		return b.failLocked(fmt.Sprintf("Unknown item %s", itemID)), nil
	}
	if !b.player.Medical().Take(itemID, 1) {
		return b.failLocked(fmt.Sprintf("No %s left", item.Name)), nil
	}

	amount := item.Heal + b.player.Skill(data.SkillMedicine)/10
	healed, _ := b.player.Heal(amount)

	msg := fmt.Sprintf("%s used %s and healed %d", b.player.Name(), item.Name, healed)
	b.log.Add(msg)
	res := model.ActionResult{
		Success: true,
		Damage:  -healed,
		Message: msg,
		Metadata: map[string]any{
			"item":      itemID,
			"remaining": b.player.Medical().Count(itemID),
		},
	}

	b.endPlayerTurnLocked()
	return res, nil
}

// Retreat tries to leave the encounter. On failure the enemies still act.
func (b *Battle) Retreat() (model.ActionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if res, ok, err := b.guardLocked("retreat"); !ok {
		return res, err
	}

	roll := b.opts.RNG.Float64()
	if roll < b.opts.RetreatChance {
		msg := fmt.Sprintf("%s escaped", b.player.Name())
		b.log.Add(msg)
		b.fire(eventFlee)
		b.finishLocked()
		return model.ActionResult{Success: true, Message: msg, Metadata: map[string]any{"escaped": true}}, nil
	}

	msg := fmt.Sprintf("%s failed to escape", b.player.Name())
	b.log.Add(msg)
	b.endPlayerTurnLocked()
	return model.ActionResult{Success: true, Message: msg, Metadata: map[string]any{"escaped": false}}, nil
}

// TriggerEnemyTurns runs a pending enemy turn immediately, bypassing
// EnemyTurnDelay. Returns false if it is not the enemies' turn.
func (b *Battle) TriggerEnemyTurns() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.machine.Is(StateEnemyTurn) {
		return false
	}
	b.stopEnemyTimerLocked()
	b.runEnemyTurnLocked()
	return true
}

// Log returns the combat log, oldest first.
func (b *Battle) Log() []string {
	return b.log.Entries()
}

// Snapshot returns the state for display.
func (b *Battle) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		ID:               b.id,
		State:            b.machine.Current(),
		Turn:             b.turn,
		PlayerTurn:       b.machine.Is(StatePlayerTurn),
		Player:           viewOf(b.player),
		Ammo:             Unlimited,
		Enemies:          make([]CombatantView, 0, len(b.enemies)),
		SelectedTarget:   b.target,
		Log:              b.log.Entries(),
		ExperienceGained: b.expGained,
		Loot:             append([]Drop(nil), b.loot...),
	}
	if w := b.player.Weapon(); w != nil {
		s.Weapon = w.Name
		s.Ammo = RemainingAmmo(b.player, w)
	}
	for _, e := range b.enemies {
		s.Enemies = append(s.Enemies, viewOf(e))
	}
	return s
}

// Close cancels any scheduled enemy turn and releases waiters on Done.
func (b *Battle) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.stopEnemyTimerLocked()
	b.doneOnce.Do(func() { close(b.done) })
}

// guardLocked rejects actions outside the player turn. Using the battle
// before Start is a programmer error and is returned as ErrNotStarted.
func (b *Battle) guardLocked(action string) (model.ActionResult, bool, error) {
	switch state := b.machine.Current(); state {
	case StateInitializing:
		slog.Error("battle action before start", "battle", b.id, "action", action)
		return model.Fail(ErrNotStarted.Error()), false, fmt.Errorf("%s: %w", action, ErrNotStarted)
	case StatePlayerTurn:
		return model.ActionResult{}, true, nil
	case StateEnemyTurn:
		return b.failLocked("Not your turn"), false, nil
	default:
		return b.failLocked(fmt.Sprintf("Battle is over (%s)", state)), false, nil
	}
}

func (b *Battle) failLocked(msg string) model.ActionResult {
	b.log.Add(msg)
	return model.Fail(msg)
}

// resolveAttackLocked runs hit roll → damage roll → apply for one attack.
func (b *Battle) resolveAttackLocked(attacker *model.Combatant, weapon *model.Weapon, defender *model.Combatant) model.ActionResult {
	shots := b.launchProjectiles(attacker, defender, weapon)
	defer b.landProjectiles(shots)

	hit := ResolveHit(b.opts.RNG, attacker, weapon, defender, b.opts.Environment)
	res := model.ActionResult{
		Success: true,
		Metadata: map[string]any{
			"attacker": attacker.ID(),
			"target":   defender.ID(),
			"weapon":   weapon.Name,
			"chance":   hit.FinalChance,
			"hit":      hit.IsHit,
		},
	}
	if !hit.IsHit {
		res.Message = fmt.Sprintf("%s misses %s with %s", attacker.Name(), defender.Name(), weapon.Name)
		b.log.Add(res.Message)
		return res
	}

	dmg := ResolveDamage(b.opts.RNG, weapon, defender, attacker)
	dealt, _ := defender.TakeDamage(dmg.FinalDamage)
	for _, p := range shots {
		p.Hit = true
		p.Damage = dmg.FinalDamage
		p.Critical = dmg.IsCritical
	}

	res.Damage = dealt
	res.Critical = dmg.IsCritical
	res.Metadata["baseDamage"] = dmg.BaseDamage
	if dmg.IsCritical {
		res.Effects = append(res.Effects, "critical")
		res.Message = fmt.Sprintf("%s critically hits %s for %d", attacker.Name(), defender.Name(), dealt)
	} else {
		res.Message = fmt.Sprintf("%s hits %s for %d", attacker.Name(), defender.Name(), dealt)
	}
	b.log.Add(res.Message)

	slog.Debug("attack resolved",
		"battle", b.id,
		"attacker", attacker.Name(),
		"target", defender.Name(),
		"chance", hit.FinalChance,
		"base", dmg.BaseDamage,
		"damage", dealt,
		"critical", dmg.IsCritical,
		"targetHealth", defender.Health())
	return res
}

func (b *Battle) launchProjectiles(attacker, defender *model.Combatant, weapon *model.Weapon) []*Projectile {
	if b.opts.Projectiles == nil || weapon.IsMelee() {
		return nil
	}
	n := shotsPerAttack(weapon)
	shots := make([]*Projectile, 0, n)
	for range n {
		p := b.opts.Projectiles.Acquire()
		p.Weapon = weapon.Name
		p.From = attacker.Position()
		p.To = defender.Position()
		shots = append(shots, p)
	}
	return shots
}

func (b *Battle) landProjectiles(shots []*Projectile) {
	for _, p := range shots {
		b.opts.Projectiles.Release(p)
	}
}

func (b *Battle) onEnemyDefeatedLocked(enemy *model.Combatant, res *model.ActionResult) {
	award := AwardFor(enemy.Template(), b.player.Level())
	levels := RewardExperience(b.player, award)
	b.expGained += award

	drops := CalculateDrops(b.opts.LootRNG, enemy.Template(), b.opts.LootRates)
	ApplyDrops(b.player, drops)
	b.loot = append(b.loot, drops...)

	res.Metadata["killed"] = true
	res.Metadata["experience"] = award
	res.Effects = append(res.Effects, "killed")

	b.log.Addf("%s is defeated (+%d XP)", enemy.Name(), award)
	if levels > 0 {
		b.log.Addf("%s reached level %d", b.player.Name(), b.player.Level())
	}
	for _, d := range drops {
		b.log.Addf("Looted %d x %s", d.Count, d.Item)
	}

	b.target = b.nextLivingLocked()
}

func (b *Battle) endPlayerTurnLocked() {
	b.fire(eventEndPlayerTurn)

	if b.opts.EnemyTurnDelay <= 0 {
		b.runEnemyTurnLocked()
		return
	}
	b.enemyTimer = time.AfterFunc(b.opts.EnemyTurnDelay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed || !b.machine.Is(StateEnemyTurn) {
			return
		}
		b.enemyTimer = nil
		b.runEnemyTurnLocked()
	})
}

// runEnemyTurnLocked lets every living enemy act in spawn order.
// The loop stops at the first hit that kills the player.
func (b *Battle) runEnemyTurnLocked() {
	for _, enemy := range b.enemies {
		if enemy.IsDead() {
			continue
		}
		if enemy.HasEffect(EffectStunned) {
			enemy.RemoveEffect(EffectStunned)
			b.log.Addf("%s is stunned and loses its turn", enemy.Name())
			continue
		}

		weapon := enemy.Weapon()
		if weapon == nil {
			weapon = fists
		}
		b.resolveAttackLocked(enemy, weapon, b.player)

		if b.player.IsDead() {
			b.fire(eventLose)
			b.log.Addf("%s was killed by %s", b.player.Name(), enemy.Name())
			b.finishLocked()
			return
		}
	}

	b.fire(eventEndEnemyTurn)
	b.beginPlayerTurnLocked()
}

func (b *Battle) beginPlayerTurnLocked() {
	b.turn++
	b.player.RestoreActionPoints()
	if t := b.targetLocked(); t == nil || t.IsDead() {
		b.target = b.nextLivingLocked()
	}
	b.log.Addf("Turn %d: %s HP %d/%d", b.turn, b.player.Name(), b.player.Health(), b.player.MaxHealth())
}

func (b *Battle) finishLocked() {
	b.stopEnemyTimerLocked()
	b.doneOnce.Do(func() { close(b.done) })

	slog.Info("battle finished",
		"battle", b.id,
		"outcome", b.machine.Current(),
		"turns", b.turn,
		"experience", b.expGained,
		"playerHealth", b.player.Health())
}

func (b *Battle) stopEnemyTimerLocked() {
	if b.enemyTimer != nil {
		b.enemyTimer.Stop()
		b.enemyTimer = nil
	}
}

func (b *Battle) fire(event string) {
	if err := b.machine.Event(context.Background(), event); err != nil {
		slog.Error("battle transition failed",
			"battle", b.id,
			"event", event,
			"state", b.machine.Current(),
			"error", err)
	}
}

func (b *Battle) targetLocked() *model.Combatant {
	if b.target < 0 || b.target >= len(b.enemies) {
		return nil
	}
	return b.enemies[b.target]
}

func (b *Battle) nextLivingLocked() int {
	for i, e := range b.enemies {
		if !e.IsDead() {
			return i
		}
	}
	return -1
}

func viewOf(c *model.Combatant) CombatantView {
	return CombatantView{
		ID:        c.ID(),
		Name:      c.Name(),
		Health:    c.Health(),
		MaxHealth: c.MaxHealth(),
		Alive:     !c.IsDead(),
		Effects:   c.Effects(),
	}
}
