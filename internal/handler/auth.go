package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/piyush31508/Flavor-Express/internal/jsonx"
	"github.com/piyush31508/Flavor-Express/internal/session"
)

// Login sends an OTP to {"email"}.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var email string
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key == "email" {
			v, err := jsonx.String(d)
			email = v
			return err
		}
		return d.Skip()
	}); err != nil {
		h.fail(r.Context(), w, err)
		return
	}

	if err := h.sf.Login(r.Context(), email); err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("OTP Sent Successfully!") })
		})
	})
}

// Verify completes the login with {"otp"}.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var otp string
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key == "otp" {
			v, err := jsonx.String(d)
			otp = v
			return err
		}
		return d.Skip()
	}); err != nil {
		h.fail(r.Context(), w, err)
		return
	}

	st, err := h.sf.Verify(r.Context(), otp)
	if err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	writeSession(w, http.StatusOK, st)
}

// Me refreshes and returns the session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeSession(w, http.StatusOK, h.sf.Me(r.Context()))
}

// Logout ends the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sf.Logout(r.Context()); err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	writeSession(w, http.StatusOK, h.sf.Session())
}

// Notifications drains pending user notices.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	notices := h.feed.Drain()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("notifications", func(e *jx.Encoder) {
				e.ArrStart()
				for _, n := range notices {
					e.Obj(func(e *jx.Encoder) {
						e.Field("level", func(e *jx.Encoder) { e.Str(string(n.Level)) })
						e.Field("message", func(e *jx.Encoder) { e.Str(n.Message) })
						e.Field("at", func(e *jx.Encoder) { e.Str(n.At.UTC().Format(time.RFC3339Nano)) })
					})
				}
				e.ArrEnd()
			})
		})
	})
}

func writeSession(w http.ResponseWriter, status int, st session.State) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("authenticated", func(e *jx.Encoder) { e.Bool(st.Authenticated) })
			e.Field("user", func(e *jx.Encoder) {
				if st.User == nil {
					e.Null()
					return
				}
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(st.User.ID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(st.User.Name) })
					e.Field("email", func(e *jx.Encoder) { e.Str(st.User.Email) })
					e.Field("isAdmin", func(e *jx.Encoder) { e.Bool(st.User.IsAdmin) })
				})
			})
		})
	})
}
