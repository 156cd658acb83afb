package Controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/mf-tracker/database"
	"github.com/yeremiapane/mf-tracker/hub"
	"github.com/yeremiapane/mf-tracker/models"
	"github.com/yeremiapane/mf-tracker/notifications"
	"github.com/yeremiapane/mf-tracker/router"
	"github.com/yeremiapane/mf-tracker/services"
	"github.com/yeremiapane/mf-tracker/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	utils.InitJWT("controllers-test-secret")
	os.Exit(m.Run())
}

// setupTestDB uses an in-memory SQLite database with a single connection so
// every query sees the same schema.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Investment{},
		&models.Reminder{},
		&models.KVEntry{},
	))
	return db
}

type testEnv struct {
	DB            *gorm.DB
	Router        *gin.Engine
	Notifications *notifications.Service
	Settings      *services.ReminderSettingsService
	Hub           *hub.Hub
}

func setupEnv(t *testing.T, marketURL string) *testEnv {
	db := setupTestDB(t)
	log, _ := test.NewNullLogger()

	kv := database.NewKVStore(db)
	store := notifications.NewStore(kv, notifications.WithLogger(log))
	svc := notifications.NewService(store, notifications.WithLogger(log))
	settings := services.NewReminderSettingsService(kv, log)
	h := hub.New(log)
	t.Cleanup(svc.Subscribe(h.BroadcastNotifications))

	market := services.NewMarketService(marketURL, log)
	market.Attempts = 2
	market.Delay = 0

	r := router.SetupRouter(router.Deps{
		DB:            db,
		Notifications: svc,
		Hub:           h,
		Settings:      settings,
		Market:        market,
	})
	return &testEnv{DB: db, Router: r, Notifications: svc, Settings: settings, Hub: h}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(data)
		}
		reader = bytes.NewBufferString(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}
