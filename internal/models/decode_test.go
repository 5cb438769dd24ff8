package models_test

import (
	"encoding/json"
	"testing"

	"github.com/jlaasanen/dmvault/internal/models"
	"github.com/stretchr/testify/require"
)

func TestDecodeCharacter(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    models.Character
		wantErr bool
	}{
		{
			name: "sparse sheet gets defaults",
			raw:  `{"name":"Elara"}`,
			want: models.Character{
				Name:             "Elara",
				Level:            1,
				ProficiencyBonus: 2,
				Abilities:        models.DefaultAbilityScores(),
				Skills:           map[string]bool{},
				Inventory:        []string{},
				Conditions:       []string{},
			},
		},
		{
			name: "explicit values kept",
			raw:  `{"name":"Brom","level":5,"abilities":{"STR":18,"DEX":8,"CON":14,"INT":10,"WIS":12,"CHA":10},"inventory":["axe"]}`,
			want: models.Character{
				Name:             "Brom",
				Level:            5,
				ProficiencyBonus: 2,
				Abilities:        models.AbilityScores{STR: 18, DEX: 8, CON: 14, INT: 10, WIS: 12, CHA: 10},
				Skills:           map[string]bool{},
				Inventory:        []string{"axe"},
				Conditions:       []string{},
			},
		},
		{
			name:    "missing name",
			raw:     `{"race":"elf"}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			raw:     `"Elara"`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.DecodeCharacter(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRosterDocument(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantNames []string
		wantErr   bool
	}{
		{
			name:      "roster wrapper",
			raw:       `{"characters":{"Elara":{"name":"Elara"},"Brom":{"name":"Brom"}}}`,
			wantNames: []string{"Brom", "Elara"},
		},
		{
			name:      "character array",
			raw:       `[{"name":"Elara"},{"name":"Brom"}]`,
			wantNames: []string{"Brom", "Elara"},
		},
		{
			name:      "single character",
			raw:       `{"name":"Elara"}`,
			wantNames: []string{"Elara"},
		},
		{
			name:    "scalar document",
			raw:     `42`,
			wantErr: true,
		},
		{
			name:    "array of scalars",
			raw:     `[1,2,3]`,
			wantErr: true,
		},
		{
			name:    "object without name or characters",
			raw:     `{"race":"elf"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster, err := models.DecodeRosterDocument(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantNames, roster.Names())
		})
	}
}

func TestDecodeQuestLogEntry(t *testing.T) {
	entry, err := models.DecodeQuestLogEntry(json.RawMessage(`{"id":"q1","name":"Find Gundren"}`))
	require.NoError(t, err)
	require.Equal(t, models.QuestNotStarted, entry.Status)

	_, err = models.DecodeQuestLogEntry(json.RawMessage(`{"id":"q1","name":"Find Gundren","status":"paused"}`))
	require.ErrorIs(t, err, models.ErrFormat)

	_, err = models.DecodeQuestLogEntry(json.RawMessage(`{"id":"q1"}`))
	require.ErrorIs(t, err, models.ErrFormat)
}

func TestSessionStateFromCampaign(t *testing.T) {
	campaign := &models.Campaign{
		ID:              "c1",
		Name:            "Lost Mine",
		SessionNumber:   3,
		CurrentLocation: "Phandalin",
		Party:           []string{"Elara"},
		QuestLog: []models.QuestLogEntry{
			{ID: "q1", Name: "Find Gundren", Status: models.QuestInProgress, Notes: "dm notes"},
		},
		WorldState: map[string]any{"met_sildar": true},
	}

	state := models.SessionStateFromCampaign(campaign)
	require.Equal(t, "Lost Mine", state.Campaign)
	require.Equal(t, 3, state.SessionNumber)
	require.Equal(t, "Phandalin", state.CurrentLocation)
	require.Equal(t, []models.SessionQuestEntry{
		{Name: "Find Gundren", Status: models.QuestInProgress, Notes: "dm notes"},
	}, state.QuestLog)

	// The derived view must not alias the campaign's maps and slices.
	state.WorldState["met_sildar"] = false
	state.Party[0] = "Brom"
	require.Equal(t, true, campaign.WorldState["met_sildar"])
	require.Equal(t, "Elara", campaign.Party[0])
}
