package httpapi

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/piyush31508/Flavor-Express/internal/domain/auth"
	"github.com/piyush31508/Flavor-Express/internal/jsonx"
)

// Login implements auth.Backend via POST /user/login.
func (c *Client) Login(ctx context.Context, email string) (string, error) {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("email", func(e *jx.Encoder) { e.Str(email) })
	})

	data, err := c.do(ctx, request{method: http.MethodPost, path: "/user/login", body: e})
	if err != nil {
		return "", err
	}

	var verifyToken string
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key == "verifyToken" {
			v, err := jsonx.String(d)
			verifyToken = v
			return err
		}
		return d.Skip()
	}); err != nil {
		return "", errors.Wrap(err, "decode login response")
	}
	if verifyToken == "" {
		return "", errors.New("login response has no verifyToken")
	}
	return verifyToken, nil
}

// Verify implements auth.Backend via POST /user/verify.
func (c *Client) Verify(ctx context.Context, verifyToken, otp string) (*auth.Session, error) {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("verifyToken", func(e *jx.Encoder) { e.Str(verifyToken) })
		e.Field("otp", func(e *jx.Encoder) { e.Str(otp) })
	})

	data, err := c.do(ctx, request{method: http.MethodPost, path: "/user/verify", body: e})
	if err != nil {
		return nil, err
	}

	var sess auth.Session
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "token":
			v, err := jsonx.String(d)
			sess.Token = v
			return err
		case "user":
			u, err := decodeUser(d)
			sess.User = u
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode verify response")
	}
	if sess.Token == "" {
		return nil, errors.New("verify response has no token")
	}
	return &sess, nil
}

// Me implements auth.Backend via GET /user/me. A 401 response matches
// auth.ErrUnauthorized.
func (c *Client) Me(ctx context.Context, token string) (*auth.User, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: "/user/me", token: token})
	if err != nil {
		return nil, err
	}

	u, err := decodeUser(jx.DecodeBytes(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode user")
	}
	return &u, nil
}
