package questscan_test

import (
	"testing"

	"github.com/jlaasanen/dmvault/internal/models"
	"github.com/jlaasanen/dmvault/internal/questscan"
	"github.com/stretchr/testify/require"
)

func TestScan_Completion(t *testing.T) {
	t.Parallel()

	quests := []models.QuestLogEntry{
		{ID: "q1", Name: "Find Gundren", Status: models.QuestInProgress},
	}
	updates := questscan.Scan(
		"You have finally found Gundren alive. The rescue is completed and he thanks you warmly.",
		quests,
	)
	require.Len(t, updates, 1)
	require.Equal(t, models.QuestActionComplete, updates[0].Action)
	require.Equal(t, "q1", updates[0].QuestID)
	require.Equal(t, models.QuestCompleted, updates[0].Status)
	require.Contains(t, updates[0].Notes, "Completed:")
}

func TestScan_Failure(t *testing.T) {
	t.Parallel()

	quests := []models.QuestLogEntry{
		{ID: "q1", Name: "Protect the caravan", Status: models.QuestInProgress},
	}
	updates := questscan.Scan(
		"The caravan burns behind you. You were too late to save it.",
		quests,
	)
	require.Len(t, updates, 1)
	require.Equal(t, models.QuestActionFail, updates[0].Action)
	require.Equal(t, models.QuestFailed, updates[0].Status)
}

func TestScan_Progress(t *testing.T) {
	t.Parallel()

	quests := []models.QuestLogEntry{
		{ID: "q1", Name: "Locate Wave Echo Cave", Status: models.QuestInProgress},
	}
	updates := questscan.Scan(
		"Studying the map, you have discovered a path that leads toward Wave Echo Cave.",
		quests,
	)
	require.Len(t, updates, 1)
	require.Equal(t, models.QuestActionUpdate, updates[0].Action)
	require.Equal(t, models.QuestInProgress, updates[0].Status)
	require.NotEmpty(t, updates[0].Notes)
}

func TestScan_NewQuest(t *testing.T) {
	t.Parallel()

	updates := questscan.Scan(
		"The innkeeper leans in. New quest: clear the wolves from the old mill.",
		nil,
	)
	require.Len(t, updates, 1)
	require.Equal(t, models.QuestActionCreate, updates[0].Action)
	require.Equal(t, "clear the wolves from the old mill", updates[0].Name)
	require.Equal(t, models.QuestNotStarted, updates[0].Status)
}

func TestScan_NewQuestAlreadyKnown(t *testing.T) {
	t.Parallel()

	quests := []models.QuestLogEntry{
		{ID: "q1", Name: "Clear the wolves from the old mill", Status: models.QuestInProgress},
	}
	updates := questscan.Scan(
		"New quest: clear the wolves from the old mill.",
		quests,
	)
	for _, update := range updates {
		require.NotEqual(t, models.QuestActionCreate, update.Action)
	}
}

func TestScan_QuietNarrative(t *testing.T) {
	t.Parallel()

	quests := []models.QuestLogEntry{
		{ID: "q1", Name: "Find Gundren", Status: models.QuestInProgress},
	}
	require.Empty(t, questscan.Scan("You rest by the fire and the night passes quietly.", quests))
}
