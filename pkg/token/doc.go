// Package token issues and parses the HS256 access tokens handed out by the
// auth endpoints.
//
// # Basic Usage
//
//	issuer := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL())
//
//	raw, err := issuer.Issue(user.ID.String(), false)
//	if err != nil {
//	    return err
//	}
//
//	tok, err := issuer.Parse(raw)
//	if err != nil {
//	    // token.ErrExpired, token.ErrMalformed or token.ErrInvalid
//	}
//
//	userID := tok.Sub()
package token
