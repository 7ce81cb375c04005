// Package identity provides the authenticated identity of an API request.
//
// The token package verifies the raw bearer token. The JWT middleware then
// loads the account and builds an Identity that handlers read from the request
// context.
//
// # Basic Usage
//
//	id, err := identity.FromToken(parsedToken)
//	if err != nil {
//	    return err
//	}
//
//	id.WithUser(user).
//	   WithSuperAdmin(cfg.IsSuperAdminEmail(user.Email)).
//	   WithRemoteIP(identity.ClientIP(r)).
//	   WithUserAgent(r.UserAgent())
//
//	ctx = identity.Set(ctx, id)
//
//	id, ok := identity.Get(ctx)
package identity
