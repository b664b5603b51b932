package contracts

import "github.com/julienschmidt/httprouter"

// Handler is a group of routes mounted by app.Application. Health routes
// and API routes both implement it; they differ only in the middleware the
// application wraps them with.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
