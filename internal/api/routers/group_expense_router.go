package routers

import (
	"net/http"

	"splitledger/internal/api/handlers/groups"
)

func groupExpenseRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/group-expense/create", groups.CreateGroupExpenseHandler)

	mux.HandleFunc("/group-expense/{id}/expenses", groups.GetGroupExpensesHandler)

	mux.HandleFunc("/group-expense/details/{id}/expense", groups.GetExpenseByIdHandler)

	mux.HandleFunc("/group-expense/delete/{expense_id}/expense", groups.DeleteExpenseHandler)

	return mux
}
