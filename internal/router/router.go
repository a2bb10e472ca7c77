// Package router dispatches API requests over (resource, id, sub-action, method).
//
// Routes are registered with patterns such as "/products/:id/soldout". A request whose path shape
// matches no pattern is 404; a known shape used with an unregistered method is 405 with an Allow
// header. Admin routes pass through the Guard before their handler runs, so an unauthenticated
// request never reaches storage.
package router

import (
	"fmt"
	"slices"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/request"

	"github.com/gofiber/fiber/v2"
)

// Access is who may call a route.
type Access int

const (
	Public Access = iota
	Admin
)

// Handler serves a matched route.
type Handler func(c *fiber.Ctx, req request.Parsed) error

// Guard authorizes admin routes. A non-nil error is returned to the client unchanged.
type Guard interface {
	Guard(c *fiber.Ctx) error
}

type shape struct {
	resource string
	withID   bool
	sub      string
}

type route struct {
	access  Access
	handler Handler
}

// Router is the dispatch table.
type Router struct {
	prefix string
	guard  Guard
	routes map[shape]map[string]route
}

// New creates a Router for paths under prefix.
func New(prefix string, guard Guard) *Router {
	return &Router{
		prefix: prefix,
		guard:  guard,
		routes: make(map[shape]map[string]route),
	}
}

// Handle registers h for method on pattern. Patterns have at most three segments: a resource,
// the ":id" placeholder and a sub-action. "/" is the API root.
func (r *Router) Handle(method, pattern string, access Access, h Handler) {
	s, err := parsePattern(pattern)
	if err != nil {
		panic(err)
	}
	methods, ok := r.routes[s]
	if !ok {
		methods = make(map[string]route)
		r.routes[s] = methods
	}
	methods[strings.ToUpper(method)] = route{access: access, handler: h}
}

func (r *Router) Get(pattern string, access Access, h Handler) {
	r.Handle(fiber.MethodGet, pattern, access, h)
}

func (r *Router) Post(pattern string, access Access, h Handler) {
	r.Handle(fiber.MethodPost, pattern, access, h)
}

func (r *Router) Put(pattern string, access Access, h Handler) {
	r.Handle(fiber.MethodPut, pattern, access, h)
}

func (r *Router) Patch(pattern string, access Access, h Handler) {
	r.Handle(fiber.MethodPatch, pattern, access, h)
}

func (r *Router) Delete(pattern string, access Access, h Handler) {
	r.Handle(fiber.MethodDelete, pattern, access, h)
}

// Dispatch is the fiber handler serving every path under the prefix.
func (r *Router) Dispatch(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodOptions {
		return c.SendStatus(fiber.StatusNoContent)
	}

	req := request.Parse(r.prefix, c.Path(), string(c.Request().URI().QueryString()))
	s, ok := shapeOf(req)
	if !ok {
		return apperr.NotFound("Not Found", nil)
	}
	methods, ok := r.routes[s]
	if !ok {
		return apperr.NotFound("Not Found", nil)
	}
	rt, ok := methods[method]
	if !ok {
		c.Set(fiber.HeaderAllow, allow(methods))
		return apperr.MethodNotAllowed()
	}

	if rt.access == Admin {
		if err := r.guard.Guard(c); err != nil {
			return err
		}
	}
	return rt.handler(c, req)
}

func shapeOf(req request.Parsed) (shape, bool) {
	switch len(req.Segments) {
	case 0:
		return shape{}, true
	case 1:
		return shape{resource: req.Resource()}, true
	case 2:
		return shape{resource: req.Resource(), withID: true}, true
	case 3:
		return shape{resource: req.Resource(), withID: true, sub: req.Sub()}, true
	default:
		return shape{}, false
	}
}

func parsePattern(pattern string) (shape, error) {
	segments := request.Segments("", pattern)
	var s shape
	switch len(segments) {
	case 3:
		s.sub = segments[2]
		fallthrough
	case 2:
		if segments[1] != ":id" {
			return shape{}, fmt.Errorf("router: second segment of %q must be :id", pattern)
		}
		s.withID = true
		fallthrough
	case 1:
		s.resource = segments[0]
	case 0:
	default:
		return shape{}, fmt.Errorf("router: pattern %q has more than three segments", pattern)
	}
	return s, nil
}

func allow(methods map[string]route) string {
	names := make([]string, 0, len(methods)+1)
	for m := range methods {
		names = append(names, m)
	}
	names = append(names, fiber.MethodOptions)
	slices.Sort(names)
	return strings.Join(names, ", ")
}
