// Package authenticator defines how users log in to the assistant.
//
// Each login mechanism implements the Authenticator interface and is kept in
// a Registry that the auth endpoints consult by name:
//
//	type Authenticator interface {
//	    Name() string
//	    Authenticate(ctx context.Context, input AuthenticatorInput) (*model.User, error)
//	    Status(ctx context.Context) error
//	}
//
// # Built-in Authenticators
//
//   - password: email and password - see [github.com/acgn-assistant/acgn-assistant/pkg/authenticator/password]
//   - guest: creates a throwaway account - see [github.com/acgn-assistant/acgn-assistant/pkg/authenticator/guest]
//
// Password hashing lives in the hash subpackage and is shared with the
// registration, password reset and admin endpoints.
package authenticator
