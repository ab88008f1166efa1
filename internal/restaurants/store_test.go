package restaurants

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"places-workers/internal/common/config"
	"places-workers/internal/common/database"
	"places-workers/internal/models"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	client, err := database.NewSQLite(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewSQLStore(client.DB, database.DriverSQLite)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func strPtr(s string) *string { return &s }

func TestSQLStore_UpsertIsIdempotentByName(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	first := models.RestaurantRecord{
		ID:       "id-1",
		Name:     "Trattoria Roma",
		Photo:    strPtr("https://example.com/photo/a"),
		Contact:  models.RestaurantContact{Phone: "+39 06 1234"},
		Location: &models.RestaurantLocation{Address: "Via Roma 1", Lat: 41.9, Lng: 12.5},
	}
	require.NoError(t, store.Upsert(ctx, first))

	second := first
	second.ID = "id-2"
	second.Photo = strPtr("https://example.com/photo/b")
	second.Contact = models.RestaurantContact{Phone: "+39 06 9999", Website: "https://roma.example"}
	second.Location = &models.RestaurantLocation{Address: "Via Roma 2", Lat: 41.8, Lng: 12.4}
	require.NoError(t, store.Upsert(ctx, second))

	list, err := store.ListWithLocation(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, "Trattoria Roma", got.Name)
	require.NotNil(t, got.Photo)
	assert.Equal(t, "https://example.com/photo/b", *got.Photo)
	assert.Equal(t, "+39 06 9999", got.Contact.Phone)
	assert.Equal(t, "https://roma.example", got.Contact.Website)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Via Roma 2", got.Location.Address)
	assert.InDelta(t, 41.8, got.Location.Lat, 1e-9)
}

func TestSQLStore_ListSkipsRowsWithoutLocation(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, models.RestaurantRecord{ID: "a", Name: "Nowhere Diner"}))
	require.NoError(t, store.Upsert(ctx, models.RestaurantRecord{
		ID:       "b",
		Name:     "Somewhere Cafe",
		Location: &models.RestaurantLocation{Address: "Main St 5"},
	}))

	list, err := store.ListWithLocation(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Somewhere Cafe", list[0].Name)
	assert.Nil(t, list[0].Photo)
}

func TestSQLStore_EmptyListIsNotNil(t *testing.T) {
	store := newSQLiteStore(t)

	list, err := store.ListWithLocation(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSQLStore_PostgresUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, database.DriverPostgres)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (name) DO UPDATE`)).
		WithArgs("id-1", "Cafe", nil, `{"phone":"123"}`, `{"address":"A","lat":1,"lng":2}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.Upsert(context.Background(), models.RestaurantRecord{
		ID:       "id-1",
		Name:     "Cafe",
		Contact:  models.RestaurantContact{Phone: "123"},
		Location: &models.RestaurantLocation{Address: "A", Lat: 1, Lng: 2},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_PostgresUpsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, database.DriverPostgres)

	mock.ExpectExec(`INSERT INTO restaurants`).
		WillReturnError(errors.New("connection refused"))

	err = store.Upsert(context.Background(), models.RestaurantRecord{ID: "x", Name: "Broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_PostgresList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, database.DriverPostgres)

	mock.ExpectQuery(`SELECT id, name, photo, contact, location FROM restaurants WHERE location IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "photo", "contact", "location"}).
			AddRow("id-1", "Cafe", "https://p", `{"phone":"1"}`, `{"address":"A","lat":1,"lng":2}`))

	list, err := store.ListWithLocation(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].Contact.Phone)
	assert.Equal(t, 2.0, list[0].Location.Lng)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Placeholders(t *testing.T) {
	pg := NewSQLStore(nil, database.DriverPostgres)
	lite := NewSQLStore(nil, database.DriverSQLite)

	assert.Equal(t, "VALUES ($1, $2)", pg.placeholders("VALUES ($1, $2)"))
	assert.Equal(t, "VALUES (?, ?)", lite.placeholders("VALUES ($1, $2)"))
}

func TestSQLStore_EnsureSchemaUnknownDriver(t *testing.T) {
	store := NewSQLStore(nil, "mysql")
	assert.Error(t, store.EnsureSchema(context.Background()))
}
