package routers

import (
	"net/http"

	"splitledger/internal/api/handlers/groups"
)

func settlementsRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/settlements/create", groups.CreateSettlementHandler)

	mux.HandleFunc("/settlements/delete/{id}", groups.DeleteSettlementHandler)

	return mux
}
