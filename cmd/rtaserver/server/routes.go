package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter configures the HTTP routes for the RTA server: one endpoint
// per RTA message type.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)
	r.Use(JSONHeaders)

	r.HandleFunc("/cryptonode/authorize_rta_tx_request", AuthorizeRtaTxRequest).Methods(http.MethodPost)
	r.HandleFunc("/cryptonode/authorize_rta_tx_response", AuthorizeRtaTxResponse).Methods(http.MethodPost)

	return r
}
