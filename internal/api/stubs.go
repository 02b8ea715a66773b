package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stacksgw/internal/catalog"
)

// The directory, hours and jobs services are static stubs: they return
// canned data until their real backends are wired in.

var directoryEntries = &catalog.ItemCollection{
	Count: 2,
	Items: []*catalog.Item{
		{ID: "dir1", Title: []string{"Reference Desk"}},
		{ID: "dir2", Title: []string{"Circulation Desk"}},
	},
}

var hoursEntries = &catalog.ItemCollection{
	Count: 1,
	Items: []*catalog.Item{
		{ID: "hours1", Title: []string{"Main Library: 8am - 10pm"}},
	},
}

var jobsEntries = &catalog.ItemCollection{
	Count: 1,
	Items: []*catalog.Item{
		{ID: "jobs1", Title: []string{"No open positions"}},
	},
}

func (s *Server) handleDirectorySearch(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, directoryEntries)
}

func (s *Server) handleDirectoryList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, directoryEntries)
}

func (s *Server) handleDirectoryEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, entry := range directoryEntries.Items {
		if entry.ID == id {
			writeJSON(w, http.StatusOK, entry)
			return
		}
	}
	writeError(w, http.StatusNotFound, "entry not found")
}

func (s *Server) handleHoursList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, hoursEntries)
}

func (s *Server) handleJobsList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jobsEntries)
}
