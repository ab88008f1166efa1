// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"places-workers/internal/api"
	"places-workers/internal/batch"
	"places-workers/internal/common/config"
	"places-workers/internal/common/database"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/places"
	"places-workers/internal/common/validation"
	"places-workers/internal/export"
	"places-workers/internal/models"
	"places-workers/internal/restaurants"
	"places-workers/internal/tours"
)

type env struct {
	api        *httptest.Server
	directory  *httptest.Server
	db         *database.SQLClient
	keywordLog string
}

// fakeDirectory serves the text search, detail and photo endpoints the
// places client calls.
func fakeDirectory(t *testing.T) *httptest.Server {
	t.Helper()

	searches := map[string]map[string]interface{}{
		"tourist attractions in Paris boat tours": {
			"status":          "OK",
			"next_page_token": "page-2",
			"results": []map[string]interface{}{
				{"place_id": "seine", "name": "Seine Cruise"},
			},
		},
		"page-2": {
			"status": "OK",
			"results": []map[string]interface{}{
				{"place_id": "canal", "name": "Canal Saint-Martin Boats"},
			},
		},
		"restaurants in Lyon": {
			"status": "OK",
			"results": []map[string]interface{}{
				{
					"place_id":          "bouchon",
					"name":              "Le Bouchon",
					"formatted_address": "1 Rue Mercière, Lyon",
					"photos":            []map[string]interface{}{{"photo_reference": "ref-1"}},
					"geometry":          map[string]interface{}{"location": map[string]float64{"lat": 45.76, "lng": 4.83}},
				},
				{"place_id": "truck", "name": "Food Truck"},
			},
		},
	}

	details := map[string]map[string]string{
		"seine": {"name": "Seine Cruise Co", "formatted_address": "Port de la Bourdonnais", "formatted_phone_number": "+33 1 00"},
		"canal": {"name": "Canauxrama", "formatted_address": "13 Quai de la Loire", "website": "https://canauxrama.example"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("query")
		if tok := r.URL.Query().Get("pagetoken"); tok != "" {
			key = tok
		}
		resp, ok := searches[key]
		if !ok {
			resp = map[string]interface{}{"status": "REQUEST_DENIED", "error_message": "unknown query " + key}
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /details/json", func(w http.ResponseWriter, r *http.Request) {
		d, ok := details[r.URL.Query().Get("place_id")]
		if !ok {
			json.NewEncoder(w).Encode(map[string]string{"status": "NOT_FOUND"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "OK", "result": d})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setup(t *testing.T) *env {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	log := logger.NewTestLogger(t)
	dir := t.TempDir()
	directory := fakeDirectory(t)

	db, err := database.Open(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "places.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := restaurants.NewSQLStore(db.DB, db.Driver)
	require.NoError(t, store.EnsureSchema(context.Background()))

	client := places.NewClient(places.Config{
		BaseURL:        directory.URL,
		APIKey:         "e2e-key",
		Timeout:        5 * time.Second,
		PageTokenDelay: 10 * time.Millisecond,
	}, log)

	keywordLog := filepath.Join(dir, "keywords.txt")
	toursService := tours.NewService(client, client, tours.NewKeywordLog(keywordLog), tours.Options{DetailConcurrency: 4}, log)

	validator, err := validation.New()
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewServer(api.Deps{
		Tours:       toursService,
		Restaurants: restaurants.NewService(client, store, log),
		Ready:       db.Ping,
	}, api.Options{HashSecret: "e2e-secret"}, validator, log, nil))
	t.Cleanup(srv.Close)

	return &env{api: srv, directory: directory, db: db, keywordLog: keywordLog}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func TestToursBatchToSpreadsheet(t *testing.T) {
	e := setup(t)

	runner := batch.NewRunner(
		batch.NewRemoteFetcher(e.api.URL+"/api/tours", 10*time.Second),
		batch.NoDelay{},
		logger.NewTestLogger(t),
	)

	acc, err := runner.Run(context.Background(), "Paris\nAtlantis\n", "boat tours\n")
	require.NoError(t, err)

	assert.Equal(t, batch.StatusComplete, acc.Status())
	assert.Equal(t, float64(100), acc.Progress())
	assert.Equal(t, []string{
		`Found 2 results for Paris with keywords "boat tours".`,
		`Failed to fetch for Atlantis with keywords "boat tours".`,
	}, acc.Messages())

	records := acc.Records()
	require.Len(t, records, 2)
	assert.Equal(t, models.TourRecord{
		CompanyName:     "Seine Cruise Co",
		PlaceOfActivity: "Seine Cruise",
		Address:         "Port de la Bourdonnais",
		Contact:         "+33 1 00",
		City:            "Paris",
	}, records[0])
	assert.Equal(t, "https://canauxrama.example", records[1].Contact)

	logged, err := os.ReadFile(e.keywordLog)
	require.NoError(t, err)
	assert.Equal(t, "boat tours\nboat tours\n", string(logged))

	resp := postJSON(t, e.api.URL+"/api/download", records)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), export.FileName)

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"companyName", "placeOfActivity", "address", "contact", "city"}, rows[0])
	assert.Equal(t, "Canauxrama", rows[2][0])
}

func TestRestaurantDirectoryRefreshIsIdempotent(t *testing.T) {
	e := setup(t)

	for i := 0; i < 2; i++ {
		resp := postJSON(t, e.api.URL+"/api/restaurants", map[string]string{"region": "Lyon"})
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Restaurants updated successfully", body["message"])
		assert.EqualValues(t, 2, body["upserted"])
	}

	var count int
	require.NoError(t, e.db.DB.QueryRow("SELECT COUNT(*) FROM restaurants").Scan(&count))
	assert.Equal(t, 2, count)

	resp, err := http.Get(e.api.URL + "/api/restaurants")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []models.RestaurantRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Le Bouchon", list[0].Name)
	require.NotNil(t, list[0].Photo)
	assert.True(t, strings.HasPrefix(*list[0].Photo, e.directory.URL+"/photo?maxwidth=400&photoreference=ref-1"))
	require.NotNil(t, list[0].Location)
	assert.Equal(t, "1 Rue Mercière, Lyon", list[0].Location.Address)
}

func TestRestaurantRefreshUpstreamFailure(t *testing.T) {
	e := setup(t)

	resp := postJSON(t, e.api.URL+"/api/restaurants", map[string]string{"region": "Atlantis"})
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to fetch data from Google Places API", body["error"])
}

func TestHealthAndReady(t *testing.T) {
	e := setup(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(e.api.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
