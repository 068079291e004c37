package combat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/model"
)

func mustWeapon(t testing.TB, name string) *model.Weapon {
	t.Helper()
	w, ok := data.WeaponByName(name)
	require.True(t, ok, "weapon %s", name)
	return w
}

// newTestPlayer creates a level 1 player with a Hunting Rifle (10-24, crit 10),
// small guns 75, 10 rounds of .308, 2 stimpaks and no armor.
func newTestPlayer(t testing.TB, hp int) *model.Combatant {
	t.Helper()
	p, err := model.NewCombatant("player-1", "Wanderer", model.KindPlayer, 1, hp)
	require.NoError(t, err)
	p.SetWeapon(mustWeapon(t, "Hunting Rifle"))
	p.SetSkill(data.SkillSmallGuns, 75)
	p.Ammo().Set(data.AmmoMM308, 10)
	p.Medical().Set("stimpak", 2)
	return p
}

// newTestRaider creates an unarmored raider with a pipe rifle (4-12) and small guns 45.
func newTestRaider(t testing.TB, id string, hp int) *model.Combatant {
	t.Helper()
	tmpl, ok := data.TemplateByName("Raider")
	require.True(t, ok)
	e, err := model.NewCombatant(id, "Raider "+id, model.KindEnemy, tmpl.Level.Min, hp)
	require.NoError(t, err)
	e.SetTemplate(tmpl)
	e.SetWeapon(mustWeapon(t, "9mm Pipe Rifle"))
	e.SetSkill(data.SkillSmallGuns, 45)
	return e
}

func newDefender(t testing.TB, armorID string) *model.Combatant {
	t.Helper()
	d, err := model.NewCombatant("def", "Defender", model.KindEnemy, 1, 100)
	require.NoError(t, err)
	d.SetArmorID(armorID)
	return d
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2077, 10, 23, 9, 47, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
