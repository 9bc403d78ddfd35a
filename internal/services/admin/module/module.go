// Package module wires admin into the HTTP surface using modkit
package module

import (
	"net/http"

	modkit "scamwatch/internal/modkit"
	phttp "scamwatch/internal/platform/net/http"
	str "scamwatch/internal/platform/strings"
	adminhttp "scamwatch/internal/services/admin/http"
	adminsvc "scamwatch/internal/services/admin/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports any

	subrouter func(phttp.Router) phttp.Router
	register  func(phttp.Router)

	svc adminsvc.Service
}

// New constructs an admin module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("admin"), modkit.WithPrefix("/admin")}, opts...)...)

	svc := adminsvc.New(b.Name, deps.Corpus, deps.Engine)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = svc

	external := b.Register
	m.register = func(r phttp.Router) {
		adminhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	r.Route(m.prefix, func(rr phttp.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports exposes the admin service for cross wiring
func (m *Module) Ports() any { return m.ports }
