/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/partydeck/games/session"
)

const qrSize = 320

// joinURL is the address a phone opens to join code, honoring TLS and
// X-Forwarded-Proto when deriving the scheme.
func joinURL(cfg *Config, r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix + "/rooms/" + code
}

func serveRoomPage(cfg *Config, reg *session.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		code := session.NormalizeCode(p.ByName("code"))

		if _, cookie := clientID(r); cookie != nil {
			http.SetCookie(w, cookie)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		if !reg.Exists(code) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, newPage("Room Not Found", "<h1>No open room with that code.</h1>"))

			return
		}

		body := fmt.Sprintf(`<h1>Room %s</h1><img src="%s/rooms/%s/qr" width="%d" height="%d" alt="Join QR code"><p>Scan to join from your phone.</p>`,
			code, cfg.prefix, code, qrSize, qrSize)

		if _, err := io.WriteString(w, newPage("Room "+code, body)); err != nil {
			errs <- err
		}
	}
}

func serveRoomQR(cfg *Config, reg *session.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		code := session.NormalizeCode(p.ByName("code"))
		if !reg.Exists(code) {
			http.Error(w, "room not found", http.StatusNotFound)

			return
		}

		png, err := qrcode.Encode(joinURL(cfg, r, code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: QR code for room %s (%s) to %s in %s",
			code,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func registerRooms(cfg *Config, reg *session.Registry, hub *Hub, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/rooms/:code", serveRoomPage(cfg, reg, errs))
	mux.GET(cfg.prefix+"/rooms/:code/qr", serveRoomQR(cfg, reg, errs))
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, reg, hub))
}
