package npc

// NPCPersona defines a named NPC character.
type NPCPersona struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	ThinkDelayMs int    `json:"thinkDelayMs"` // 0 = manager default
}

// DefaultPersonaID is always present in a registry built by NewRegistry.
const DefaultPersonaID = "muggins"

func defaultPersona() *NPCPersona {
	return &NPCPersona{
		ID:      DefaultPersonaID,
		Name:    "Muggins",
		Tagline: "Plays low, counts slow.",
	}
}
