package server

import (
	"embed"
	"net/http"
)

//go:embed static
var staticFS embed.FS

func guestPage(rw http.ResponseWriter, r *http.Request) {
	servePage(rw, "static/rsvp.html")
}

func adminPage(rw http.ResponseWriter, r *http.Request) {
	servePage(rw, "static/admin.html")
}

func servePage(rw http.ResponseWriter, name string) {
	page, err := staticFS.ReadFile(name)
	if err != nil {
		logg.Error(err)
		http.Error(rw, "page not found", http.StatusNotFound)
		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Write(page)
}
