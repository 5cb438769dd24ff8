package dm

import "strings"

// Context types hint the generator at the expected response register and
// length. Combat stays terse, scene changes get room to breathe.
const (
	ContextCombat           = "combat_action"
	ContextSceneDescription = "scene_description"
	ContextNPCDialogue      = "npc_dialogue"
	ContextSkillCheck       = "skill_check"
	ContextExploration      = "exploration"
	ContextStandard         = "standard"
)

var contextKeywords = []struct {
	contextType string
	words       []string
}{
	{ContextCombat, []string{
		"attack", "hit", "strike", "shoot", "stab", "slash",
		"cast", "fireball", "spell", "swing", "punch", "kick",
	}},
	{ContextSceneDescription, []string{
		"enter", "arrive", "open door", "approach", "go to",
		"walk into", "step into", "move to", "head to",
	}},
	{ContextNPCDialogue, []string{
		"talk", "speak", "ask", "tell", "say to", "greet",
		"question", "inquire", "chat", "converse",
	}},
	{ContextSkillCheck, []string{
		"search", "investigate", "look for", "examine",
		"check for", "perceive", "inspect", "study",
	}},
	{ContextExploration, []string{
		"look around", "survey", "observe", "scan",
		"take in", "view", "regard",
	}},
}

// DetectContext classifies a player message by keyword. An active encounter
// forces the combat context regardless of phrasing.
func DetectContext(message string, combatActive bool) string {
	if combatActive {
		return ContextCombat
	}
	lower := strings.ToLower(message)
	for _, group := range contextKeywords {
		for _, word := range group.words {
			if strings.Contains(lower, word) {
				return group.contextType
			}
		}
	}
	return ContextStandard
}
