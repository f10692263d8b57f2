package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	authMiddleware func(http.Handler) http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	withAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	users := http.NewServeMux()

	users.HandleFunc("POST /register", authHandler.register)
	users.HandleFunc("POST /login", authHandler.login)
	users.HandleFunc("POST /refresh-token", authHandler.refresh)

	users.Handle("POST /logout", withAuth(authHandler.logout))
	users.Handle("POST /change-password", withAuth(authHandler.changePassword))
	users.Handle("GET /current-user", withAuth(authHandler.currentUser))

	users.Handle("PATCH /update-account", withAuth(userHandler.updateAccount))
	users.Handle("PATCH /avatar", withAuth(userHandler.updateAvatar))
	users.Handle("PATCH /cover-image", withAuth(userHandler.updateCoverImage))
	users.Handle("GET /c/{username}", withAuth(userHandler.channelProfile))

	root := http.NewServeMux()
	root.Handle("/api/v1/users/", http.StripPrefix("/api/v1/users", users))

	return chain(root, middlewares...)
}
