// Package mesto implements the Mesto API: user profiles and photo cards
// behind cookie based token authentication.
//
// The package is split into a small number of layers:
//
// Hashing and tokens: PasswordHasher turns passwords into bcrypt digests and
// TokenService issues and verifies HS256 tokens that name a user and expire
// seven days after issue.
//
// Flows: Authenticator runs signin and signup. Signin answers an unknown
// email and a wrong password with the same error.
//
// Identity: Middleware.RequireIdentity reads the jwt cookie and hands an
// Identity to the wrapped handler. Identity values only come out of
// Authenticate, so a handler that receives one knows the caller was
// verified.
//
// Services: UserService and CardService hold the resource operations.
// CardService.Delete only lets the owner remove a card.
//
// Storage: UserStore and CardStore are implemented under stores/ for
// MongoDB, Cloud Datastore, GORM and the local filesystem.
//
// # Basic Usage
//
//	users := fs.NewUserStore(path)
//	cards := fs.NewCardStore(path)
//	tokens, err := mesto.NewTokenService(secret, mesto.TokenTTL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := mesto.NewServer(mesto.ServerConfig{
//	    Users:  users,
//	    Cards:  cards,
//	    Hasher: mesto.NewBcryptHasher(0),
//	    Tokens: tokens,
//	    Logger: logger,
//	})
//	http.ListenAndServe(":3000", srv.Handler())
//
// Errors carry a Kind that maps to an HTTP status; responses are always
// {"message": "..."}.
package mesto
