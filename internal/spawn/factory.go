package spawn

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/rng"
)

// Factory creates one enemy instance from a template.
type Factory interface {
	Instantiate(t *model.EnemyTemplate) (*model.Combatant, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(t *model.EnemyTemplate) (*model.Combatant, error)

// Instantiate calls f(t).
func (f FactoryFunc) Instantiate(t *model.EnemyTemplate) (*model.Combatant, error) {
	return f(t)
}

// Starting health is rolled in [MinHealthFraction, 1) of template max health.
const MinHealthFraction = 0.8

// InstanceFactory builds enemies from the static data tables.
type InstanceFactory struct {
	src   rng.Source
	newID func() string
}

// NewInstanceFactory creates the default enemy factory.
func NewInstanceFactory(src rng.Source) *InstanceFactory {
	if src == nil {
		src = rng.Default()
	}
	return &InstanceFactory{src: src, newID: uuid.NewString}
}

// Instantiate rolls level within the template range and starting health at 80-100%
// of template max, then equips the template weapon, armor and skills.
func (f *InstanceFactory) Instantiate(t *model.EnemyTemplate) (*model.Combatant, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil template", model.ErrInvalidTemplate)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	level := rng.IntRange(f.src, t.Level.Min, t.Level.Max)
	c, err := model.NewCombatant(f.newID(), t.Name, model.KindEnemy, level, t.MaxHealth)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", t.Name, err)
	}

	fraction := MinHealthFraction + (1-MinHealthFraction)*f.src.Float64()
	c.SetHealth(max(1, int(math.Floor(float64(t.MaxHealth)*fraction))))

	c.SetTemplate(t)
	c.SetArmorID(t.ArmorID)
	for skill, v := range t.Skills {
		c.SetSkill(skill, v)
	}
	if t.WeaponName != "" {
		w, ok := data.WeaponByName(t.WeaponName)
		if !ok {
			return nil, fmt.Errorf("%w %s: unknown weapon %q", model.ErrInvalidTemplate, t.Name, t.WeaponName)
		}
		c.SetWeapon(w)
	}
	return c, nil
}

// TemplateSource resolves enemy templates by name.
type TemplateSource interface {
	Template(name string) (*model.EnemyTemplate, bool)
}

// StaticTemplates reads templates straight from the data tables.
type StaticTemplates struct{}

// Template implements TemplateSource.
func (StaticTemplates) Template(name string) (*model.EnemyTemplate, bool) {
	return data.TemplateByName(name)
}
