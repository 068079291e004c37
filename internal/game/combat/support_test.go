package combat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/perf/pool"
	"github.com/udisondev/wasteland/internal/rng"
)

func TestLog_KeepsMostRecent(t *testing.T) {
	l := NewLog(3)
	for i := range 5 {
		l.Addf("event %d", i)
	}
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"event 2", "event 3", "event 4"}, l.Entries())

	small := NewLog(0)
	small.Add("x")
	assert.Equal(t, []string{"x"}, small.Entries())
}

func TestCooldownTracker(t *testing.T) {
	clock := newFakeClock()
	ct := NewCooldownTracker(clock.Now)
	rifle := mustWeapon(t, "Hunting Rifle") // 1s cooldown
	claws := mustWeapon(t, "Claws")         // no cooldown

	assert.True(t, ct.Ready(rifle))
	ct.Mark(rifle)
	ct.Mark(claws)

	assert.False(t, ct.Ready(rifle))
	assert.Equal(t, time.Second, ct.Remaining(rifle))
	assert.True(t, ct.Ready(claws))

	clock.Advance(600 * time.Millisecond)
	assert.Equal(t, 400*time.Millisecond, ct.Remaining(rifle))

	clock.Advance(400 * time.Millisecond)
	assert.True(t, ct.Ready(rifle))

	ct.Mark(rifle)
	ct.Reset()
	assert.True(t, ct.Ready(rifle))
}

func TestValidateAttack(t *testing.T) {
	clock := newFakeClock()

	tests := []struct {
		name    string
		setup   func(p, target *model.Combatant, ct *CooldownTracker) *model.Combatant
		wantErr error
	}{
		{"ok", func(_, target *model.Combatant, _ *CooldownTracker) *model.Combatant { return target }, nil},
		{"no target", func(_, _ *model.Combatant, _ *CooldownTracker) *model.Combatant { return nil }, ErrNoTarget},
		{"dead target", func(_, target *model.Combatant, _ *CooldownTracker) *model.Combatant {
			target.SetHealth(0)
			return target
		}, ErrTargetDead},
		{"dead attacker", func(p, target *model.Combatant, _ *CooldownTracker) *model.Combatant {
			p.SetHealth(0)
			return target
		}, ErrAttackerDead},
		{"unarmed", func(p, target *model.Combatant, _ *CooldownTracker) *model.Combatant {
			p.SetWeapon(nil)
			return target
		}, ErrNoWeapon},
		{"cooldown", func(p, target *model.Combatant, ct *CooldownTracker) *model.Combatant {
			ct.Mark(p.Weapon())
			return target
		}, ErrOnCooldown},
		{"no ammo", func(p, target *model.Combatant, _ *CooldownTracker) *model.Combatant {
			p.Ammo().Set(data.AmmoMM308, 0)
			return target
		}, ErrOutOfAmmo},
		{"no action points", func(p, target *model.Combatant, _ *CooldownTracker) *model.Combatant {
			p.SpendActionPoints(8)
			return target
		}, ErrNoActionPoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlayer(t, 50)
			ct := NewCooldownTracker(clock.Now)
			target := tt.setup(p, newTestRaider(t, "r1", 20), ct)

			err := ValidateAttack(p, target, ct)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestCalculateDrops(t *testing.T) {
	raider, _ := data.TemplateByName("Raider") // mm_9 70%, mm_10 25%, stimpak 20%

	// 50 < 70 drops, 90 >= 25 skips, 10 < 20 drops
	src := rng.NewSequence([]float64{0.5, 0.9, 0.1}, []int{0})
	drops := CalculateDrops(src, raider, DefaultLootRates())

	require.Len(t, drops, 2)
	assert.Equal(t, Drop{Item: data.AmmoMM9, Kind: model.LootAmmo, Count: 3}, drops[0])
	assert.Equal(t, Drop{Item: "stimpak", Kind: model.LootMedical, Count: 1}, drops[1])

	src = rng.NewSequence([]float64{0.5, 0.9, 0.1}, []int{0})
	drops = CalculateDrops(src, raider, LootRates{ChanceMultiplier: 1, AmountMultiplier: 2})
	assert.Equal(t, 6, drops[0].Count)

	assert.Empty(t, CalculateDrops(rng.Floats(0.99), raider, DefaultLootRates()))
	assert.Nil(t, CalculateDrops(rng.Floats(0), nil, DefaultLootRates()))
}

func TestCalculateDrops_GuaranteedChanceSkipsRoll(t *testing.T) {
	tmpl := &model.EnemyTemplate{
		Name: "Cache",
		Loot: []model.LootEntry{{Item: "stimpak", Kind: model.LootMedical, Chance: 50, Count: model.Range{Min: 1, Max: 1}}},
	}
	src := rng.Floats(0.99)
	drops := CalculateDrops(src, tmpl, LootRates{ChanceMultiplier: 2, AmountMultiplier: 1})

	require.Len(t, drops, 1)
	assert.Equal(t, 0, src.Calls())
}

func TestApplyDrops(t *testing.T) {
	p := newTestPlayer(t, 50)
	ApplyDrops(p, []Drop{
		{Item: data.AmmoMM9, Kind: model.LootAmmo, Count: 4},
		{Item: "stimpak", Kind: model.LootMedical, Count: 1},
	})
	assert.Equal(t, 4, p.Ammo().Count(data.AmmoMM9))
	assert.Equal(t, 3, p.Medical().Count("stimpak"))
}

func TestProjectilePool_ResetKeepsPoolFlags(t *testing.T) {
	pp, err := NewProjectilePool(pool.Config{InitialSize: 1, MaxSize: 4})
	require.NoError(t, err)
	assert.Equal(t, ProjectilePoolName, pp.Name())

	p := pp.Acquire()
	require.True(t, p.InUse())
	p.Weapon = "Laser Pistol"
	p.Damage = 12
	require.True(t, pp.Release(p))

	again := pp.Acquire()
	assert.Same(t, p, again)
	assert.Empty(t, again.Weapon)
	assert.Zero(t, again.Damage)
	assert.Equal(t, 2, pp.Stats().Reused)
	assert.Zero(t, pp.Stats().Created)
}
