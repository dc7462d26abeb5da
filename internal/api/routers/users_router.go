package routers

import (
	"net/http"

	"splitledger/internal/api/handlers/auth"
)

func usersRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/users/signup", auth.RegisterUsersHandler)
	mux.HandleFunc("/users/login", auth.LoginHandler)
	mux.HandleFunc("/users/logout", auth.LogoutHandler)
	mux.HandleFunc("/users/me", auth.GetMeHandler)
	mux.HandleFunc("/users/password", auth.UpdatePasswordHandler)
	mux.HandleFunc("/users/delete", auth.DeleteUserHandler)

	return mux
}
