package routers

import (
	"net/http"
)

func MainRouter() *http.ServeMux {

	mux := http.NewServeMux()

	uRouter := usersRouter()
	mux.Handle("/users/", uRouter)

	gRouter := groupsRouter()
	mux.Handle("/groups/", gRouter)

	eRouter := groupExpenseRouter()
	mux.Handle("/group-expense/", eRouter)

	sRouter := settlementsRouter()
	mux.Handle("/settlements/", sRouter)

	return mux
}
