package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Warky-Devs/TableSpec/pkg/config"
	"github.com/Warky-Devs/TableSpec/pkg/registry"
	"github.com/Warky-Devs/TableSpec/pkg/server"
)

func TestRegisterTables(t *testing.T) {
	for _, withRelations := range []bool{false, true} {
		reg := registry.NewTableRegistry()
		require.NoError(t, registerTables(reg, withRelations))
		assert.Equal(t, []string{"departments", "employees", "projects"}, reg.Names())

		for _, name := range reg.Names() {
			def, err := reg.Definition(name, nil)
			require.NoError(t, err, name)
			assert.Equal(t, name, def.Name())
		}
	}
}

func TestDemoServer(t *testing.T) {
	for _, driver := range []string{"gorm", "bun"} {
		t.Run(driver, func(t *testing.T) {
			cfg := config.DatabaseConfig{
				Driver: driver,
				DSN:    "file:demo_" + driver + "?mode=memory&cache=shared",
				Seed:   true,
			}
			db, closeDB, err := openDatabase(context.Background(), cfg, false)
			require.NoError(t, err)
			t.Cleanup(closeDB)

			reg := registry.NewTableRegistry()
			require.NoError(t, registerTables(reg, driver == "bun"))
			router := mux.NewRouter()
			server.SetupMuxRoutes(router, server.NewHandler(db, reg))

			for _, target := range []string{"/tables/employees?employeeq=a", "/tables/departments", "/tables/projects"} {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
				assert.Equal(t, 200, rec.Code, target)
			}

			rec := httptest.NewRecorder()
			body := strings.NewReader(`{"action":"count","ids":["1"],"url":"/tables/employees?employeefilter%5Bstatus%5D=in%3Aactive"}`)
			router.ServeHTTP(rec, httptest.NewRequest("POST", "/tables/employees/actions", body))
			require.Equal(t, 200, rec.Code)

			var resp struct {
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.JSONEq(t, `{"selected":1,"matching":3}`, string(resp.Data))
		})
	}
}
