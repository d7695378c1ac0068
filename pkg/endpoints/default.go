package endpoints

import "net/http"

// Well-known endpoint names used by the session operations.
const (
	UsersLogin          = "users.login"
	UsersRegister       = "users.register"
	UsersLogout         = "users.logout"
	UsersMe             = "users.me"
	UsersUpdateMe       = "users.update_me"
	UsersChangePassword = "users.change_password"
	UsersRefreshToken   = "users.refresh_token"
)

var defaultEndpoints = []Endpoint{
	{Name: UsersLogin, Method: http.MethodPost, Path: "/api/users/login", Summary: "log in with username and password"},
	{Name: UsersRegister, Method: http.MethodPost, Path: "/api/users/register", Summary: "create an account"},
	{Name: UsersLogout, Method: http.MethodPost, Path: "/api/users/logout", Summary: "revoke the current session"},
	{Name: UsersMe, Method: http.MethodGet, Path: "/api/users/me", Summary: "current user profile"},
	{Name: UsersUpdateMe, Method: http.MethodPut, Path: "/api/users/me", Summary: "update own profile"},
	{Name: UsersChangePassword, Method: http.MethodPost, Path: "/api/users/change-password", Summary: "change own password"},
	{Name: UsersRefreshToken, Method: http.MethodPost, Path: "/api/users/refresh-token", Summary: "exchange a refresh token"},
	{Name: "users.list", Method: http.MethodGet, Path: "/api/users", Summary: "list users (admin)"},
	{Name: "users.create", Method: http.MethodPost, Path: "/api/users", Summary: "create a user (admin)"},
	{Name: "users.update", Method: http.MethodPut, Path: "/api/users/{id}", Summary: "update a user (admin)"},
	{Name: "users.delete", Method: http.MethodDelete, Path: "/api/users/{id}", Summary: "delete a user (admin)"},

	{Name: "books.list", Method: http.MethodGet, Path: "/api/books", Summary: "search books"},
	{Name: "books.get", Method: http.MethodGet, Path: "/api/books/{id}", Summary: "book detail"},
	{Name: "books.create", Method: http.MethodPost, Path: "/api/books", Summary: "add a book (admin)"},
	{Name: "books.update", Method: http.MethodPut, Path: "/api/books/{id}", Summary: "update a book (admin)"},
	{Name: "books.delete", Method: http.MethodDelete, Path: "/api/books/{id}", Summary: "delete a book (admin)"},
	{Name: "books.popular", Method: http.MethodGet, Path: "/api/books/popular", Summary: "most borrowed books"},

	{Name: "borrow.create", Method: http.MethodPost, Path: "/api/borrow", Summary: "borrow a book"},
	{Name: "borrow.return", Method: http.MethodPost, Path: "/api/borrow/{id}/return", Summary: "return a borrowed book"},
	{Name: "borrow.renew", Method: http.MethodPost, Path: "/api/borrow/{id}/renew", Summary: "renew a loan"},
	{Name: "borrow.list", Method: http.MethodGet, Path: "/api/borrow", Summary: "borrow records"},
	{Name: "borrow.current", Method: http.MethodGet, Path: "/api/borrow/current", Summary: "books currently borrowed"},

	{Name: "reservations.create", Method: http.MethodPost, Path: "/api/reservations", Summary: "reserve a book"},
	{Name: "reservations.cancel", Method: http.MethodDelete, Path: "/api/reservations/{id}", Summary: "cancel a reservation"},
	{Name: "reservations.mine", Method: http.MethodGet, Path: "/api/reservations/my", Summary: "own reservations"},

	{Name: "categories.list", Method: http.MethodGet, Path: "/api/categories", Summary: "list categories"},
	{Name: "categories.get", Method: http.MethodGet, Path: "/api/categories/{id}", Summary: "category detail"},
	{Name: "categories.create", Method: http.MethodPost, Path: "/api/categories", Summary: "add a category (admin)"},
	{Name: "categories.update", Method: http.MethodPut, Path: "/api/categories/{id}", Summary: "update a category (admin)"},
	{Name: "categories.delete", Method: http.MethodDelete, Path: "/api/categories/{id}", Summary: "delete a category (admin)"},

	{Name: "stats.overview", Method: http.MethodGet, Path: "/api/stats/overview", Summary: "library overview"},
	{Name: "stats.borrow", Method: http.MethodGet, Path: "/api/stats/borrow", Summary: "borrow trend"},
	{Name: "stats.user", Method: http.MethodGet, Path: "/api/stats/user/{user_id}", Summary: "per-user statistics"},
	{Name: "stats.popular_books", Method: http.MethodGet, Path: "/api/stats/popular-books", Summary: "popular books ranking"},
	{Name: "stats.categories", Method: http.MethodGet, Path: "/api/stats/categories", Summary: "books per category"},
}

// DefaultCatalog returns the built-in catalog of the portal API.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultEndpoints)
	if err != nil {
		panic(err)
	}
	return c
}
