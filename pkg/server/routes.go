package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/uptrace/bunrouter"
)

// SetupMuxRoutes sets up routes for the table API with Gorilla Mux
func SetupMuxRoutes(muxRouter *mux.Router, handler *Handler) {
	muxRouter.HandleFunc("/tables", func(w http.ResponseWriter, r *http.Request) {
		handler.HandleIndex(w, r)
	}).Methods("GET")

	muxRouter.HandleFunc("/tables/{table}", func(w http.ResponseWriter, r *http.Request) {
		handler.HandleTable(w, r, mux.Vars(r))
	}).Methods("GET")

	muxRouter.HandleFunc("/tables/{table}/export", func(w http.ResponseWriter, r *http.Request) {
		handler.HandleExport(w, r, mux.Vars(r))
	}).Methods("GET")

	muxRouter.HandleFunc("/tables/{table}/actions", func(w http.ResponseWriter, r *http.Request) {
		handler.HandleAction(w, r, mux.Vars(r))
	}).Methods("POST")
}

// SetupBunRouterRoutes sets up bunrouter routes for the table API
func SetupBunRouterRoutes(r *bunrouter.Router, handler *Handler) {
	r.Handle("GET", "/tables", func(w http.ResponseWriter, req bunrouter.Request) error {
		handler.HandleIndex(w, req.Request)
		return nil
	})

	r.Handle("GET", "/tables/:table", func(w http.ResponseWriter, req bunrouter.Request) error {
		handler.HandleTable(w, req.Request, bunParams(req))
		return nil
	})

	r.Handle("GET", "/tables/:table/export", func(w http.ResponseWriter, req bunrouter.Request) error {
		handler.HandleExport(w, req.Request, bunParams(req))
		return nil
	})

	r.Handle("POST", "/tables/:table/actions", func(w http.ResponseWriter, req bunrouter.Request) error {
		handler.HandleAction(w, req.Request, bunParams(req))
		return nil
	})
}

func bunParams(req bunrouter.Request) map[string]string {
	return map[string]string{"table": req.Param("table")}
}
