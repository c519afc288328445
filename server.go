package mesto

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// HandlerWithError is an HTTP handler that returns its failure instead of
// writing it.
type HandlerWithError func(w http.ResponseWriter, r *http.Request) error

// Server is the Mesto HTTP API.
type Server struct {
	Auth       *Authenticator
	Users      *UserService
	Cards      *CardService
	Middleware *Middleware
	Logger     *zap.Logger
	Metrics    *Metrics

	// Production marks the auth cookie Secure.
	Production bool

	router  *mux.Router
	handler http.Handler
}

// ServerConfig collects what NewServer needs.
type ServerConfig struct {
	Users      UserStore
	Cards      CardStore
	Hasher     PasswordHasher
	Tokens     *TokenService
	Logger     *zap.Logger
	Metrics    *Metrics
	Production bool
}

func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{
		Auth:       NewAuthenticator(cfg.Users, cfg.Hasher, cfg.Tokens),
		Users:      NewUserService(cfg.Users),
		Cards:      NewCardService(cfg.Cards),
		Middleware: &Middleware{Verifier: cfg.Tokens},
		Logger:     logger,
		Metrics:    metrics,
		Production: cfg.Production,
	}
	s.setupRoutes()
	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) setupRoutes() {
	r := mux.NewRouter()
	auth := s.Middleware.RequireIdentity

	r.Handle("/signup", s.handleErrors(s.onSignup)).Methods(http.MethodPost)
	r.Handle("/signin", s.handleErrors(s.onSignin)).Methods(http.MethodPost)
	r.Handle("/signout", s.handleErrors(auth(s.onSignout))).Methods(http.MethodPost)

	r.Handle("/healthz", s.handleErrors(s.onHealth)).Methods(http.MethodGet)
	r.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)

	users := r.PathPrefix("/users").Subrouter()
	users.Handle("", s.handleErrors(auth(s.onListUsers))).Methods(http.MethodGet)
	users.Handle("/me", s.handleErrors(auth(s.onGetMe))).Methods(http.MethodGet)
	users.Handle("/me", s.handleErrors(auth(s.onUpdateProfile))).Methods(http.MethodPatch)
	users.Handle("/me/avatar", s.handleErrors(auth(s.onUpdateAvatar))).Methods(http.MethodPatch)
	users.Handle("/{userId}", s.handleErrors(auth(s.onGetUser))).Methods(http.MethodGet)

	cards := r.PathPrefix("/cards").Subrouter()
	cards.Handle("", s.handleErrors(auth(s.onListCards))).Methods(http.MethodGet)
	cards.Handle("", s.handleErrors(auth(s.onCreateCard))).Methods(http.MethodPost)
	cards.Handle("/{cardId}", s.handleErrors(auth(s.onDeleteCard))).Methods(http.MethodDelete)
	cards.Handle("/{cardId}/likes", s.handleErrors(auth(s.onLikeCard))).Methods(http.MethodPut)
	cards.Handle("/{cardId}/likes", s.handleErrors(auth(s.onDislikeCard))).Methods(http.MethodDelete)

	notFound := s.handleErrors(func(w http.ResponseWriter, r *http.Request) error {
		return NotFound(MsgRouteNotFound)
	})
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	s.router = r
	s.handler = instrument(r, s.Logger, s.Metrics)
}

// handleErrors adapts a HandlerWithError. Tagged errors are written with
// their status and message; anything else is logged and answered with a
// generic 500.
func (s *Server) handleErrors(fn HandlerWithError) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		kind := KindOf(err)
		code := kind.StatusCode()
		if code >= http.StatusInternalServerError {
			s.Logger.Error("internal server error",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		} else if kind == KindUnauthorized {
			s.Logger.Debug("unauthenticated request", zap.String("path", r.URL.Path), zap.Error(err))
		}
		writeJSON(w, code, messageBody{Message: PublicMessage(err)})
	})
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into v. Unknown fields are ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &Error{Kind: KindBadRequest, Message: "Слишком большой запрос", Err: err}
		}
		if errors.Is(err, io.EOF) {
			return &Error{Kind: KindBadRequest, Message: "Пустое тело запроса", Err: err}
		}
		return &Error{Kind: KindBadRequest, Message: "Некорректный JSON", Err: err}
	}
	return nil
}

// setAuthCookie stores token in the jwt cookie for its whole lifetime.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Middleware.cookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   s.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Middleware.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) onSignup(w http.ResponseWriter, r *http.Request) error {
	var req SignupRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	user, err := s.Auth.Signup(r.Context(), req)
	if err != nil {
		return err
	}
	s.Logger.Info("user registered", zap.Stringer("user_id", user.ID))
	writeJSON(w, http.StatusCreated, user)
	return nil
}

func (s *Server) onSignin(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.Metrics.ObserveLogin(err)
		return err
	}
	res, err := s.Auth.Login(r.Context(), req)
	s.Metrics.ObserveLogin(err)
	if err != nil {
		return err
	}
	s.setAuthCookie(w, res.Token, s.Auth.Tokens.TTL())
	writeJSON(w, http.StatusOK, messageBody{Message: "ok"})
	return nil
}

func (s *Server) onSignout(w http.ResponseWriter, r *http.Request, _ Identity) error {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, messageBody{Message: "ok"})
	return nil
}

func (s *Server) onHealth(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func (s *Server) onListUsers(w http.ResponseWriter, r *http.Request, _ Identity) error {
	users, err := s.Users.List(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, users)
	return nil
}

func (s *Server) onGetMe(w http.ResponseWriter, r *http.Request, id Identity) error {
	user, err := s.Users.Me(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

func (s *Server) onGetUser(w http.ResponseWriter, r *http.Request, _ Identity) error {
	user, err := s.Users.Get(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

func (s *Server) onUpdateProfile(w http.ResponseWriter, r *http.Request, id Identity) error {
	var req ProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	user, err := s.Users.UpdateProfile(r.Context(), id, req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

func (s *Server) onUpdateAvatar(w http.ResponseWriter, r *http.Request, id Identity) error {
	var req AvatarRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	user, err := s.Users.UpdateAvatar(r.Context(), id, req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

func (s *Server) onListCards(w http.ResponseWriter, r *http.Request, _ Identity) error {
	cards, err := s.Cards.List(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, cards)
	return nil
}

func (s *Server) onCreateCard(w http.ResponseWriter, r *http.Request, id Identity) error {
	var req CardRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	card, err := s.Cards.Create(r.Context(), id, req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, card)
	return nil
}

func (s *Server) onDeleteCard(w http.ResponseWriter, r *http.Request, id Identity) error {
	card, err := s.Cards.Delete(r.Context(), id, mux.Vars(r)["cardId"])
	if err != nil {
		return err
	}
	s.Logger.Info("card deleted", zap.Stringer("card_id", card.ID), zap.Stringer("user_id", id.Subject()))
	writeJSON(w, http.StatusOK, card)
	return nil
}

func (s *Server) onLikeCard(w http.ResponseWriter, r *http.Request, id Identity) error {
	card, err := s.Cards.Like(r.Context(), id, mux.Vars(r)["cardId"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, card)
	return nil
}

func (s *Server) onDislikeCard(w http.ResponseWriter, r *http.Request, id Identity) error {
	card, err := s.Cards.Dislike(r.Context(), id, mux.Vars(r)["cardId"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, card)
	return nil
}
