package data

// MedicalItem describes a healing consumable.
type MedicalItem struct {
	ID   string
	Name string
	Heal int // base heal amount, before the medicine skill bonus
}

var medicalItems = map[string]MedicalItem{
	"stimpak":        {ID: "stimpak", Name: "Stimpak", Heal: 30},
	"super_stimpak":  {ID: "super_stimpak", Name: "Super Stimpak", Heal: 60},
	"healing_powder": {ID: "healing_powder", Name: "Healing Powder", Heal: 15},
}

// MedicalItemByID returns a medical item descriptor.
func MedicalItemByID(id string) (MedicalItem, bool) {
	it, ok := medicalItems[id]
	return it, ok
}
