package server

import (
	"errors"
	"net/http"

	"github.com/abhinandan-events/site-bff-go/internal/content"
	errordefs "github.com/abhinandan-events/site-bff-go/internal/errors"
)

// Content handlers always answer 200. meta.source tells the caller whether the data is
// live, bundled, or absent.

func (m *Mux) handleEvents(w http.ResponseWriter, r *http.Request) {
	res := m.content.RecentEvents(r.Context())
	m.writeContent(w, res.Source, orEmpty(res.Data))
}

func (m *Mux) handleEventStats(w http.ResponseWriter, r *http.Request) {
	res := m.content.EventsStats(r.Context())
	m.writeContent(w, res.Source, res.Data)
}

// handleEventByID distinguishes a missing event (404) from a backend that could not answer (503).
func (m *Mux) handleEventByID(w http.ResponseWriter, r *http.Request) {
	cid := correlationID(r.Context())
	ev, err := m.content.EventByID(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, content.ErrNotFound):
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_NOT_FOUND, "event not found", cid))
	case err != nil:
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_UNAVAILABLE, "event could not be loaded", cid))
	default:
		m.writeContent(w, content.SourceLive, ev)
	}
}

func (m *Mux) handleTestimonials(w http.ResponseWriter, r *http.Request) {
	res := m.content.Testimonials(r.Context())
	m.writeContent(w, res.Source, orEmpty(res.Data))
}

func (m *Mux) handleGalleryPhotos(w http.ResponseWriter, r *http.Request) {
	res := m.content.GalleryPhotos(r.Context())
	m.writeContent(w, res.Source, orEmpty(res.Data))
}

func (m *Mux) handleGalleryVideos(w http.ResponseWriter, r *http.Request) {
	res := m.content.GalleryVideos(r.Context())
	m.writeContent(w, res.Source, orEmpty(res.Data))
}

func (m *Mux) handleGalleryStats(w http.ResponseWriter, r *http.Request) {
	res := m.content.GalleryStats(r.Context())
	m.writeContent(w, res.Source, res.Data)
}

func (m *Mux) handleServices(w http.ResponseWriter, r *http.Request) {
	res := m.content.Services(r.Context())
	m.writeContent(w, res.Source, orEmpty(res.Data))
}

func (m *Mux) handleServiceFeatures(w http.ResponseWriter, r *http.Request) {
	res := m.content.ServiceFeatures(r.Context())
	m.writeContent(w, res.Source, orEmpty(res.Data))
}

// orEmpty keeps unavailable lists encoding as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
