// Package router wires the HTTP routes of the application and contains
// one handler per use case: ranked listing, catalog search, import,
// rating, deletion and the register/login/logout flows.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dkomarov/reelrank/internal/auth"
	"github.com/dkomarov/reelrank/internal/authenticator"
	"github.com/dkomarov/reelrank/internal/gzippedhttp"
	"github.com/dkomarov/reelrank/internal/ipchecker"
	"github.com/dkomarov/reelrank/internal/logger"
	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/tmdb"
	"github.com/dkomarov/reelrank/internal/view"
)

type movieService interface {
	RankedMovies(ctx context.Context, userID string) ([]models.RankedMovie, error)
	SearchCandidates(ctx context.Context, title string) ([]models.Candidate, error)
	ImportMovie(ctx context.Context, userID string, externalID int64) (int64, error)
	MovieForUser(ctx context.Context, userID string, movieID int64) (*models.Movie, error)
	RateMovie(ctx context.Context, userID string, movieID int64, rating float64, review string) error
	DeleteMovie(ctx context.Context, userID string, movieID int64) error
	Stats(ctx context.Context) (*models.Stats, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	svc       movieService
	auth      authenticator.Authenticator
	view      *view.View
	validate  *validator.Validate
	ipChecker *ipchecker.IPChecker
	db        pinger
}

type credentialsForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type rateForm struct {
	Rating float64 `validate:"gte=0,lte=10"`
	Review string  `validate:"required"`
}

// New assembles the chi router with logging and gzip middleware, the
// session-guarded movie routes and the public auth routes.
func New(
	svc movieService,
	theAuth authenticator.Authenticator,
	theView *view.View,
	ipChecker *ipchecker.IPChecker,
	db pinger,
) *chi.Mux {
	h := &handlers{
		svc:       svc,
		auth:      theAuth,
		view:      theView,
		validate:  validator.New(),
		ipChecker: ipChecker,
		db:        db,
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.GzipResponse)

	router.Group(func(r chi.Router) {
		r.Use(theAuth.RequireUser)
		r.Get(`/`, h.getIndex)
		r.Get(`/add`, h.getAdd)
		r.Post(`/add`, h.postAdd)
		r.Get(`/find`, h.getFind)
		r.Get(`/edit`, h.getEdit)
		r.Post(`/edit`, h.postEdit)
		r.Get(`/delete`, h.getDelete)
		r.Get(`/logout`, h.getLogout)
	})

	router.Get(`/register`, h.getRegister)
	router.Post(`/register`, h.postRegister)
	router.Get(`/login`, h.getLogin)
	router.Post(`/login`, h.postLogin)

	router.Get(`/ping`, h.getPing)
	router.Get(`/api/internal/stats`, h.getStats)

	return router
}

func (h *handlers) getIndex(response http.ResponseWriter, request *http.Request) {
	usr := auth.CurrentUser(request.Context())

	movies, err := h.svc.RankedMovies(request.Context(), usr.ID)
	if err != nil {
		logger.Log.Errorln("Error calling the `h.svc.RankedMovies()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.view.Render(response, http.StatusOK, "index", &view.PageData{
		User:   usr,
		Movies: movies,
	})
}

func (h *handlers) getAdd(response http.ResponseWriter, request *http.Request) {
	h.view.Render(response, http.StatusOK, "add", &view.PageData{
		User:       auth.CurrentUser(request.Context()),
		FormValues: map[string]string{},
	})
}

func (h *handlers) postAdd(response http.ResponseWriter, request *http.Request) {
	usr := auth.CurrentUser(request.Context())
	title := strings.TrimSpace(request.PostFormValue("title"))

	if title == "" {
		h.view.Render(response, http.StatusUnprocessableEntity, "add", &view.PageData{
			User:       usr,
			FormValues: map[string]string{"title": title},
			FormErrors: map[string]string{"title": "Movie name is required."},
		})
		return
	}

	candidates, err := h.svc.SearchCandidates(request.Context(), title)
	if err != nil {
		logger.Log.Errorln("Error calling the `h.svc.SearchCandidates()`: ", zap.Error(err))
		h.view.Render(response, http.StatusBadGateway, "add", &view.PageData{
			User:       usr,
			Error:      "The movie catalog is unavailable right now. Please try again later.",
			FormValues: map[string]string{"title": title},
		})
		return
	}

	h.view.Render(response, http.StatusOK, "select", &view.PageData{
		User:       usr,
		Candidates: candidates,
	})
}

func (h *handlers) getFind(response http.ResponseWriter, request *http.Request) {
	usr := auth.CurrentUser(request.Context())

	externalID, err := strconv.ParseInt(request.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Redirect(response, request, "/add", http.StatusFound)
		return
	}

	movieID, err := h.svc.ImportMovie(request.Context(), usr.ID, externalID)
	if err != nil {
		if errors.Is(err, tmdb.ErrCatalogUnavailable) {
			h.view.Render(response, http.StatusBadGateway, "add", &view.PageData{
				User:       usr,
				Error:      "The movie catalog is unavailable right now. Nothing was imported.",
				FormValues: map[string]string{},
			})
			return
		}
		logger.Log.Errorln("Error calling the `h.svc.ImportMovie()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, "/edit?id="+strconv.FormatInt(movieID, 10), http.StatusFound)
}

func (h *handlers) getEdit(response http.ResponseWriter, request *http.Request) {
	usr := auth.CurrentUser(request.Context())

	movie, ok := h.movieFromQuery(response, request, usr.ID)
	if !ok {
		return
	}

	formValues := map[string]string{"rating": "", "review": ""}
	if movie.Rating != nil {
		formValues["rating"] = strconv.FormatFloat(*movie.Rating, 'f', -1, 64)
	}
	if movie.Review != nil {
		formValues["review"] = *movie.Review
	}

	h.view.Render(response, http.StatusOK, "edit", &view.PageData{
		User:       usr,
		Movie:      movie,
		FormValues: formValues,
	})
}

func (h *handlers) postEdit(response http.ResponseWriter, request *http.Request) {
	usr := auth.CurrentUser(request.Context())

	movie, ok := h.movieFromQuery(response, request, usr.ID)
	if !ok {
		return
	}

	ratingRaw := strings.TrimSpace(request.PostFormValue("rating"))
	review := strings.TrimSpace(request.PostFormValue("review"))
	formValues := map[string]string{"rating": ratingRaw, "review": review}

	form := rateForm{Review: review}
	formErrors := map[string]string{}

	rating, err := strconv.ParseFloat(ratingRaw, 64)
	if err != nil {
		formErrors["rating"] = "Rating must be a number between 0 and 10."
	} else {
		form.Rating = rating
	}

	if err := h.validate.Struct(form); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			logger.Log.Errorln("Error calling the `h.validate.Struct()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}
		for _, fieldError := range validationErrors {
			switch fieldError.Field() {
			case "Rating":
				formErrors["rating"] = "Rating must be a number between 0 and 10."
			case "Review":
				formErrors["review"] = "Review is required."
			}
		}
	}

	if len(formErrors) > 0 {
		h.view.Render(response, http.StatusUnprocessableEntity, "edit", &view.PageData{
			User:       usr,
			Movie:      movie,
			FormValues: formValues,
			FormErrors: formErrors,
		})
		return
	}

	if err := h.svc.RateMovie(request.Context(), usr.ID, movie.ID, rating, review); err != nil {
		if errors.Is(err, models.ErrMovieNotFound) {
			http.NotFound(response, request)
			return
		}
		logger.Log.Errorln("Error calling the `h.svc.RateMovie()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, "/", http.StatusFound)
}

func (h *handlers) getDelete(response http.ResponseWriter, request *http.Request) {
	usr := auth.CurrentUser(request.Context())

	movieID, err := strconv.ParseInt(request.URL.Query().Get("id"), 10, 64)
	if err != nil {
		// Matches the idempotent contract: nothing to delete, go home.
		http.Redirect(response, request, "/", http.StatusFound)
		return
	}

	if err := h.svc.DeleteMovie(request.Context(), usr.ID, movieID); err != nil {
		if errors.Is(err, models.ErrMovieNotFound) {
			http.NotFound(response, request)
			return
		}
		logger.Log.Errorln("Error calling the `h.svc.DeleteMovie()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, "/", http.StatusFound)
}

func (h *handlers) getRegister(response http.ResponseWriter, request *http.Request) {
	h.view.Render(response, http.StatusOK, "register", &view.PageData{
		FormValues: map[string]string{},
	})
}

func (h *handlers) postRegister(response http.ResponseWriter, request *http.Request) {
	email, formErrors := h.credentialsFromForm(request)
	if len(formErrors) > 0 {
		h.view.Render(response, http.StatusUnprocessableEntity, "register", &view.PageData{
			FormValues: map[string]string{"email": email},
			FormErrors: formErrors,
		})
		return
	}

	usr, err := h.auth.Register(request.Context(), email, request.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			h.view.Render(response, http.StatusConflict, "register", &view.PageData{
				Error:      "This email is already registered. Log in instead.",
				FormValues: map[string]string{"email": email},
			})
			return
		}
		logger.Log.Errorln("Error calling the `h.auth.Register()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Registration logs the user in right away.
	if err := h.auth.EstablishSession(response, usr); err != nil {
		logger.Log.Errorln("Error calling the `h.auth.EstablishSession()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, "/", http.StatusFound)
}

func (h *handlers) getLogin(response http.ResponseWriter, request *http.Request) {
	h.view.Render(response, http.StatusOK, "login", &view.PageData{
		FormValues: map[string]string{},
	})
}

func (h *handlers) postLogin(response http.ResponseWriter, request *http.Request) {
	email, formErrors := h.credentialsFromForm(request)
	if len(formErrors) > 0 {
		h.view.Render(response, http.StatusUnprocessableEntity, "login", &view.PageData{
			FormValues: map[string]string{"email": email},
			FormErrors: formErrors,
		})
		return
	}

	usr, err := h.auth.Login(request.Context(), email, request.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.view.Render(response, http.StatusUnauthorized, "login", &view.PageData{
				Error:      "Invalid email or password.",
				FormValues: map[string]string{"email": email},
			})
			return
		}
		logger.Log.Errorln("Error calling the `h.auth.Login()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := h.auth.EstablishSession(response, usr); err != nil {
		logger.Log.Errorln("Error calling the `h.auth.EstablishSession()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, "/", http.StatusFound)
}

func (h *handlers) getLogout(response http.ResponseWriter, request *http.Request) {
	h.auth.ClearSession(response)
	http.Redirect(response, request, "/login", http.StatusFound)
}

func (h *handlers) getPing(response http.ResponseWriter, request *http.Request) {
	if err := h.db.Ping(request.Context()); err != nil {
		logger.Log.Errorln("Error calling the `h.db.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (h *handlers) getStats(response http.ResponseWriter, request *http.Request) {
	if h.ipChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	clientIP, err := h.ipChecker.GetClientIP(request)
	if err != nil {
		logger.Log.Debugln("Error calling the `h.ipChecker.GetClientIP()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	if !h.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := h.svc.Stats(request.Context())
	if err != nil {
		logger.Log.Errorln("Error calling the `h.svc.Stats()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(response).Encode(stats); err != nil {
		logger.Log.Debugln("Error encoding the stats response: ", zap.Error(err))
	}
}

// movieFromQuery loads the movie referenced by the id query parameter
// and verifies the current user owns it. On failure the response is
// already written and ok is false.
func (h *handlers) movieFromQuery(response http.ResponseWriter, request *http.Request, userID string) (*models.Movie, bool) {
	movieID, err := strconv.ParseInt(request.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.NotFound(response, request)
		return nil, false
	}

	movie, err := h.svc.MovieForUser(request.Context(), userID, movieID)
	if err != nil {
		if errors.Is(err, models.ErrMovieNotFound) {
			http.NotFound(response, request)
			return nil, false
		}
		logger.Log.Errorln("Error calling the `h.svc.MovieForUser()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return nil, false
	}

	return movie, true
}

func (h *handlers) credentialsFromForm(request *http.Request) (string, map[string]string) {
	email := strings.TrimSpace(request.PostFormValue("email"))
	password := request.PostFormValue("password")

	form := credentialsForm{Email: email, Password: password}
	formErrors := map[string]string{}

	if err := h.validate.Struct(form); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldError := range validationErrors {
				switch fieldError.Field() {
				case "Email":
					formErrors["email"] = "A valid email address is required."
				case "Password":
					formErrors["password"] = "A password of at least 8 characters is required."
				}
			}
		} else {
			formErrors["email"] = "Invalid input."
		}
	}

	return email, formErrors
}
