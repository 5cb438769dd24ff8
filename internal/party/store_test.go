package party_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/models"
	"github.com/jlaasanen/dmvault/internal/party"
	"github.com/jlaasanen/dmvault/internal/sqlite"
	"github.com/jlaasanen/dmvault/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *party.Store {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	db, err := sqlite.NewDatabase(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return party.NewStore(docstore.New(db, 0, logger), logger)
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	// No roster saved yet.
	roster, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, roster)

	roster = models.NewPartyRoster()
	roster.Characters["Elara"] = models.NormalizeCharacter(models.Character{Name: "Elara", CurrentHP: 20, MaxHP: 20})
	require.NoError(t, store.Save(ctx, roster))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, roster.Characters, loaded.Characters)
	require.False(t, loaded.LastUpdated.IsZero())
}

func TestStore_Import(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	roster, err := store.Import(ctx, json.RawMessage(`[{"name":"Elara"},{"name":"Brom"}]`))
	require.NoError(t, err)
	require.Equal(t, []string{"Brom", "Elara"}, roster.Names())

	// A malformed document fails and leaves the stored roster untouched.
	_, err = store.Import(ctx, json.RawMessage(`"not a roster"`))
	require.ErrorIs(t, err, models.ErrFormat)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Brom", "Elara"}, loaded.Names())
}

func TestStore_ExportRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Import(ctx, json.RawMessage(`{"characters":{"Elara":{"name":"Elara","level":4}}}`))
	require.NoError(t, err)

	out, err := store.Export(ctx)
	require.NoError(t, err)

	reimported, err := models.DecodeRosterDocument(out)
	require.NoError(t, err)
	require.Equal(t, 4, reimported.Characters["Elara"].Level)
}

func TestMergeTurnUpdate(t *testing.T) {
	t.Parallel()

	existing := models.NewPartyRoster()
	existing.Characters["Elara"] = models.Character{
		Name:      "Elara",
		CurrentHP: 20,
		MaxHP:     20,
		Inventory: []string{"sword"},
	}
	existing.Characters["Brom"] = models.Character{Name: "Brom", CurrentHP: 12, MaxHP: 15}

	update := map[string]json.RawMessage{
		"Elara": json.RawMessage(`{"current_hp":5}`),
	}

	merged, err := party.MergeTurnUpdate(existing, update)
	require.NoError(t, err)

	// Incoming field wins, omitted fields are preserved.
	require.Equal(t, 5, merged.Characters["Elara"].CurrentHP)
	require.Equal(t, 20, merged.Characters["Elara"].MaxHP)
	require.Equal(t, []string{"sword"}, merged.Characters["Elara"].Inventory)

	// Characters absent from the update are untouched.
	require.Equal(t, existing.Characters["Brom"], merged.Characters["Brom"])

	// The source roster is not mutated.
	require.Equal(t, 20, existing.Characters["Elara"].CurrentHP)
}

func TestMergeTurnUpdate_Idempotent(t *testing.T) {
	t.Parallel()

	existing := models.NewPartyRoster()
	existing.Characters["Elara"] = models.Character{Name: "Elara", CurrentHP: 20, MaxHP: 20}
	update := map[string]json.RawMessage{
		"Elara": json.RawMessage(`{"current_hp":5,"conditions":["poisoned"]}`),
	}

	once, err := party.MergeTurnUpdate(existing, update)
	require.NoError(t, err)
	twice, err := party.MergeTurnUpdate(once, update)
	require.NoError(t, err)
	require.Equal(t, once.Characters, twice.Characters)
}

func TestMergeTurnUpdate_NewCharacter(t *testing.T) {
	t.Parallel()

	existing := models.NewPartyRoster()
	update := map[string]json.RawMessage{
		"Sildar": json.RawMessage(`{"race":"human","current_hp":10,"max_hp":10}`),
	}

	merged, err := party.MergeTurnUpdate(existing, update)
	require.NoError(t, err)

	sildar := merged.Characters["Sildar"]
	require.Equal(t, "Sildar", sildar.Name)
	require.Equal(t, "human", sildar.Race)
	require.Equal(t, 10, sildar.CurrentHP)
	require.Equal(t, 1, sildar.Level)
}

func TestMergeTurnUpdate_Malformed(t *testing.T) {
	t.Parallel()

	existing := models.NewPartyRoster()
	existing.Characters["Elara"] = models.Character{Name: "Elara"}

	_, err := party.MergeTurnUpdate(existing, map[string]json.RawMessage{
		"Elara": json.RawMessage(`"not an object"`),
	})
	require.ErrorIs(t, err, models.ErrFormat)
}

func TestStore_ApplyTurnUpdate(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Import(ctx, json.RawMessage(`{"name":"Elara","current_hp":20,"max_hp":20,"inventory":["sword"]}`))
	require.NoError(t, err)

	merged, err := store.ApplyTurnUpdate(ctx, map[string]json.RawMessage{
		"Elara": json.RawMessage(`{"current_hp":5}`),
	})
	require.NoError(t, err)
	require.Equal(t, 5, merged.Characters["Elara"].CurrentHP)

	// The merge is persisted.
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, loaded.Characters["Elara"].CurrentHP)
	require.Equal(t, 20, loaded.Characters["Elara"].MaxHP)

	// An empty update leaves the roster untouched.
	again, err := store.ApplyTurnUpdate(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, loaded.Characters, again.Characters)
}
