// Package questscan derives quest updates from narrative text. It is the
// fallback for generator responses that carry no structured quest_updates:
// keyword heuristics against the known quest log, plus pattern matching for
// freshly announced quests.
package questscan

import (
	"regexp"
	"strings"

	"github.com/jlaasanen/dmvault/internal/models"
)

var (
	completionKeywords = []string{
		"completed", "finished", "accomplished", "fulfilled",
		"succeeded", "done", "achieved", "resolved", "concluded",
	}
	failureKeywords = []string{
		"failed", "lost", "abandoned", "gave up", "couldn't complete",
		"unable to", "impossible", "too late",
	}
	progressKeywords = []string{
		"progress", "advance", "step forward", "closer", "discovered",
		"found", "learned", "uncovered", "revealed",
	}
)

var newQuestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)new quest[:\s]+(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)your quest[:\s]+(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)mission[:\s]+(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)task[:\s]+(.+?)(?:\.|$)`),
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

const snippetContextChars = 200

// maxQuestNameLength guards the new-quest patterns from swallowing whole
// paragraphs.
const maxQuestNameLength = 100

// Scan extracts quest updates from a narrative. Existing quests mentioned
// near completion, failure or progress keywords produce complete/fail/update
// actions; announced quests not yet in the log produce creates.
func Scan(narrative string, quests []models.QuestLogEntry) []models.QuestUpdate {
	var updates []models.QuestUpdate
	lower := strings.ToLower(narrative)

	for _, quest := range quests {
		if !questMentioned(lower, quest.Name) {
			continue
		}
		switch {
		case containsAny(lower, completionKeywords):
			updates = append(updates, models.QuestUpdate{
				Action:  models.QuestActionComplete,
				QuestID: quest.ID,
				Name:    quest.Name,
				Status:  models.QuestCompleted,
				Notes:   "Completed: " + snippet(narrative, quest.Name),
			})
		case containsAny(lower, failureKeywords):
			updates = append(updates, models.QuestUpdate{
				Action:  models.QuestActionFail,
				QuestID: quest.ID,
				Name:    quest.Name,
				Status:  models.QuestFailed,
				Notes:   "Failed: " + snippet(narrative, quest.Name),
			})
		case containsAny(lower, progressKeywords):
			if note := snippet(narrative, quest.Name); note != "" {
				updates = append(updates, models.QuestUpdate{
					Action:  models.QuestActionUpdate,
					QuestID: quest.ID,
					Name:    quest.Name,
					Status:  models.QuestInProgress,
					Notes:   note,
				})
			}
		}
	}

	for _, pattern := range newQuestPatterns {
		for _, match := range pattern.FindAllStringSubmatch(narrative, -1) {
			name := strings.TrimSpace(match[1])
			if name == "" || len(name) >= maxQuestNameLength {
				continue
			}
			if questKnown(quests, updates, name) {
				continue
			}
			updates = append(updates, models.QuestUpdate{
				Action:      models.QuestActionCreate,
				Name:        name,
				Status:      models.QuestNotStarted,
				Description: description(narrative, name),
			})
		}
	}

	return updates
}

// questMentioned matches the full quest name or any single word of it.
func questMentioned(narrativeLower, questName string) bool {
	name := strings.ToLower(questName)
	if name == "" {
		return false
	}
	if strings.Contains(narrativeLower, name) {
		return true
	}
	for _, word := range strings.Fields(name) {
		if strings.Contains(narrativeLower, word) {
			return true
		}
	}
	return false
}

func questKnown(quests []models.QuestLogEntry, updates []models.QuestUpdate, name string) bool {
	for _, quest := range quests {
		if models.QuestNamesEqual(quest.Name, name) {
			return true
		}
	}
	for _, update := range updates {
		if models.QuestNamesEqual(update.Name, name) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

// snippet returns the narrative text surrounding the first mention of the
// quest, whitespace collapsed. Falls back to any meaningful word of the name.
func snippet(narrative, questName string) string {
	lower := strings.ToLower(narrative)
	name := strings.ToLower(questName)

	index := strings.Index(lower, name)
	if index == -1 {
		for _, word := range strings.Fields(name) {
			if len(word) > 3 {
				if index = strings.Index(lower, word); index != -1 {
					break
				}
			}
		}
	}
	if index == -1 {
		return ""
	}

	start := index - snippetContextChars/2
	if start < 0 {
		start = 0
	}
	end := index + snippetContextChars/2
	if end > len(narrative) {
		end = len(narrative)
	}
	return strings.Join(strings.Fields(narrative[start:end]), " ")
}

// description returns the sentence announcing the quest, or the first
// quest-flavored sentence as a fallback.
func description(narrative, questName string) string {
	sentences := sentenceSplit.Split(narrative, -1)
	name := strings.ToLower(questName)
	for _, sentence := range sentences {
		if strings.Contains(strings.ToLower(sentence), name) {
			return strings.TrimSpace(sentence)
		}
	}
	for _, sentence := range sentences {
		lowerSentence := strings.ToLower(sentence)
		if containsAny(lowerSentence, []string{"quest", "mission", "task", "goal"}) {
			return strings.TrimSpace(sentence)
		}
	}
	return ""
}
