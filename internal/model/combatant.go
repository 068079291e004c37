package model

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
)

// Kind — вид участника боя.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindEnemy
	KindNPC
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindEnemy:
		return "enemy"
	case KindNPC:
		return "npc"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Default action point budget for a fresh combatant.
const DefaultActionPoints = 10

var (
	// ErrNegativeAmount is returned when damage or healing is negative.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrInvalidStatusEffect is returned for malformed status effect names.
	ErrInvalidStatusEffect = errors.New("invalid status effect name")
	// ErrInvalidCombatant is returned by NewCombatant on bad arguments.
	ErrInvalidCombatant = errors.New("invalid combatant")
)

var statusEffectPattern = regexp.MustCompile(`^[a-z][a-z_]*$`)

// Combatant — любой участник пошагового боя (Player, Enemy, NPC).
// Вид задаётся тегом Kind, поведение выбирается по Kind в combat пакете.
//
// Инвариант: 0 <= health <= maxHealth, 0 <= ap <= maxAP.
type Combatant struct {
	id   string
	kind Kind

	mu          sync.RWMutex
	name        string
	level       int
	health      int
	maxHealth   int
	experience  int
	skills      map[string]int
	weapon      *Weapon
	armorID     string
	ap          int
	maxAP       int
	effects     map[string]struct{}
	position    Position
	template    *EnemyTemplate
	ammo        *Inventory
	medical     *Inventory
}

// NewCombatant создаёт участника боя с полным HP и AP.
func NewCombatant(id, name string, kind Kind, level, maxHealth int) (*Combatant, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidCombatant)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidCombatant)
	}
	if kind < KindPlayer || kind > KindNPC {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidCombatant, kind)
	}
	if maxHealth < 1 {
		return nil, fmt.Errorf("%w: max health %d < 1", ErrInvalidCombatant, maxHealth)
	}
	if level < 1 {
		level = 1
	}
	return &Combatant{
		id:        id,
		kind:      kind,
		name:      name,
		level:     level,
		health:    maxHealth,
		maxHealth: maxHealth,
		skills:    make(map[string]int),
		ap:        DefaultActionPoints,
		maxAP:     DefaultActionPoints,
		effects:   make(map[string]struct{}),
		ammo:      NewInventory(),
		medical:   NewInventory(),
	}, nil
}

// ID возвращает уникальный идентификатор (immutable).
func (c *Combatant) ID() string { return c.id }

// Kind возвращает вид участника (immutable).
func (c *Combatant) Kind() Kind { return c.kind }

// Name возвращает отображаемое имя.
func (c *Combatant) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Level возвращает уровень.
func (c *Combatant) Level() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// SetLevel устанавливает уровень (минимум 1).
func (c *Combatant) SetLevel(level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < 1 {
		level = 1
	}
	c.level = level
}

// Health возвращает текущее HP.
func (c *Combatant) Health() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// MaxHealth возвращает максимальное HP.
func (c *Combatant) MaxHealth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxHealth
}

// SetHealth устанавливает HP с валидацией (clamp 0..maxHealth).
func (c *Combatant) SetHealth(hp int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health = clampInt(hp, 0, c.maxHealth)
}

// SetMaxHealth устанавливает максимальное HP и обрезает текущее если нужно.
func (c *Combatant) SetMaxHealth(maxHealth int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if maxHealth < 1 {
		maxHealth = 1
	}
	c.maxHealth = maxHealth
	if c.health > c.maxHealth {
		c.health = c.maxHealth
	}
}

// TakeDamage reduces health by amount and returns the damage actually dealt.
func (c *Combatant) TakeDamage(amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("damage %d: %w", amount, ErrNegativeAmount)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dealt := min(amount, c.health)
	c.health -= dealt
	return dealt, nil
}

// Heal restores health by amount and returns the amount actually restored.
func (c *Combatant) Heal(amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("heal %d: %w", amount, ErrNegativeAmount)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	healed := min(amount, c.maxHealth-c.health)
	c.health += healed
	return healed, nil
}

// IsDead проверяет мёртв ли участник (HP <= 0).
func (c *Combatant) IsDead() bool {
	return c.Health() <= 0
}

// HealthPercentage возвращает долю текущего HP (0.0 - 1.0).
func (c *Combatant) HealthPercentage() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return float64(c.health) / float64(c.maxHealth)
}

// Experience возвращает накопленный опыт.
func (c *Combatant) Experience() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.experience
}

// AddExperience добавляет опыт (отрицательные значения игнорируются).
func (c *Combatant) AddExperience(exp int) {
	if exp <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.experience += exp
}

// Skill returns the skill level, 0 if the skill is unknown.
func (c *Combatant) Skill(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.skills[name]
}

// SetSkill sets a skill level. Negative values are stored as 0.
func (c *Combatant) SetSkill(name string, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skills[name] = max(0, value)
}

// Skills returns a copy of the skill map.
func (c *Combatant) Skills() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.skills))
	for k, v := range c.skills {
		out[k] = v
	}
	return out
}

// Weapon returns the equipped weapon (may be nil).
func (c *Combatant) Weapon() *Weapon {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.weapon
}

// SetWeapon equips a weapon.
func (c *Combatant) SetWeapon(w *Weapon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weapon = w
}

// ArmorID returns the equipped armor identifier ("" = none).
func (c *Combatant) ArmorID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.armorID
}

// SetArmorID equips armor by identifier.
func (c *Combatant) SetArmorID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armorID = id
}

// ActionPoints returns current and max action points.
func (c *Combatant) ActionPoints() (current, maximum int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ap, c.maxAP
}

// SpendActionPoints deducts cost if affordable.
func (c *Combatant) SpendActionPoints(cost int) bool {
	if cost < 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ap < cost {
		return false
	}
	c.ap -= cost
	return true
}

// RestoreActionPoints refills AP to max (start of turn).
func (c *Combatant) RestoreActionPoints() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ap = c.maxAP
}

// AddEffect adds a status effect tag such as "stunned".
func (c *Combatant) AddEffect(name string) error {
	if !statusEffectPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidStatusEffect, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.effects[name] = struct{}{}
	return nil
}

// RemoveEffect removes a status effect tag. Unknown tags are ignored.
func (c *Combatant) RemoveEffect(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.effects, name)
}

// HasEffect reports whether the tag is active.
func (c *Combatant) HasEffect(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.effects[name]
	return ok
}

// Effects returns active tags in sorted order.
func (c *Combatant) Effects() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.effects))
	for k := range c.effects {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Position возвращает копию координат.
func (c *Combatant) Position() Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

// SetPosition устанавливает координаты.
func (c *Combatant) SetPosition(p Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
}

// Template returns the enemy template this combatant was spawned from (nil for players).
func (c *Combatant) Template() *EnemyTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.template
}

// SetTemplate links the combatant to its enemy template.
func (c *Combatant) SetTemplate(t *EnemyTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.template = t
}

// Ammo returns the ammo inventory (never nil).
func (c *Combatant) Ammo() *Inventory { return c.ammo }

// Medical returns the medical item inventory (never nil).
func (c *Combatant) Medical() *Inventory { return c.medical }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
