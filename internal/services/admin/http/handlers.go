// Package http provides http transport for admin
package http

import (
	stdhttp "net/http"

	phttp "scamwatch/internal/platform/net/http"
	"scamwatch/internal/services/admin/domain"
	svc "scamwatch/internal/services/admin/service"

	"github.com/go-chi/chi/v5"
)

// Register mounts admin endpoints on the given router
func Register(r phttp.Router, s svc.Service) {
	h := &handlers{svc: s}

	phttp.GetJSON(r, "/status", h.status)
	phttp.GetJSON(r, "/domains", h.domains)
	phttp.PostJSON[domain.DomainInput](r, "/domains", h.addDomain)
	phttp.DeleteJSON(r, "/domains/{host}", h.removeDomain)
	phttp.PostJSON[domain.MessageInput](r, "/corpus", h.addMessage)
	phttp.PostJSON[domain.AnalyzeInput](r, "/analyze", h.analyze)
}

type handlers struct{ svc svc.Service }

func (h *handlers) status(r *stdhttp.Request) (any, error) {
	return h.svc.Status(r.Context()), nil
}

func (h *handlers) domains(r *stdhttp.Request) (any, error) {
	return h.svc.Domains(r.Context()), nil
}

func (h *handlers) addDomain(r *stdhttp.Request, in domain.DomainInput) (any, error) {
	if err := h.svc.AddDomain(r.Context(), in.Host); err != nil {
		return nil, err
	}
	return h.svc.Domains(r.Context()), nil
}

func (h *handlers) removeDomain(r *stdhttp.Request) (any, error) {
	host := chi.URLParam(r, "host")
	if err := h.svc.RemoveDomain(r.Context(), host); err != nil {
		return nil, err
	}
	return h.svc.Domains(r.Context()), nil
}

func (h *handlers) addMessage(r *stdhttp.Request, in domain.MessageInput) (any, error) {
	if err := h.svc.AddMessage(r.Context(), in); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

func (h *handlers) analyze(r *stdhttp.Request, in domain.AnalyzeInput) (any, error) {
	return h.svc.Analyze(r.Context(), in.Text)
}
