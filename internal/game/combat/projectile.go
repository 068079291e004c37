package combat

import (
	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/perf/pool"
)

// ProjectilePoolName is the pool manager key for projectiles.
const ProjectilePoolName = "projectiles"

// Projectile is a pooled in-flight shot. The battle acquires one per round
// fired and releases it once the attack resolves.
type Projectile struct {
	Weapon   string
	From     model.Position
	To       model.Position
	Damage   int
	Critical bool
	Hit      bool

	inUse bool
}

func (p *Projectile) Reset() {
	*p = Projectile{inUse: p.inUse}
}

func (p *Projectile) InUse() bool    { return p.inUse }
func (p *Projectile) MarkInUse()     { p.inUse = true }
func (p *Projectile) MarkAvailable() { p.inUse = false }

// NewProjectilePool creates a projectile pool.
func NewProjectilePool(cfg pool.Config) (*pool.Pool[*Projectile], error) {
	if cfg.Name == "" {
		cfg.Name = ProjectilePoolName
	}
	return pool.New(func() *Projectile { return &Projectile{} }, cfg)
}
