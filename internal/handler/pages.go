package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"warbler/internal/form"
	"warbler/internal/httputil"
	"warbler/internal/logging"
	"warbler/internal/model"
	"warbler/internal/session"
	"warbler/internal/transport/http/middleware"
)

// Flash texts shared by several pages.
const (
	flashUnauthorized = "Access unauthorized."
	flashLoggedOut    = "You have successfully logged out."
	flashBadLogin     = "Invalid credentials."
	flashUsername     = "Username already taken"
	flashEmail        = "Email already taken"
	flashBadPassword  = "Wrong password, please try again."
	flashSelfFollow   = "You cannot follow yourself."
)

// maxUploadForm bounds multipart bodies: two images plus form overhead.
const maxUploadForm = 2*model.MaxImageSizeBytes + 1024*1024

var logger = logging.Component("handler")

// ImageUploader stores profile and header images.
type ImageUploader interface {
	UploadProfileImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
	UploadHeaderImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
}

// Pages holds what every page handler needs: the session for flashes and
// the current user, and the helpers that render envelopes and redirects.
type Pages struct {
	sessions *session.Manager
}

func NewPages(sessions *session.Manager) *Pages {
	return &Pages{sessions: sessions}
}

// render writes the view envelope, consuming queued flashes.
// extra flashes are shown on this page only.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, template string, data any, errs form.Errors, extra ...session.Flash) {
	flashes, err := p.sessions.Flashes(w, r)
	if err != nil {
		logger.WithError(err).Warn("Failed to read flashes")
	}
	flashes = append(flashes, extra...)
	if flashes == nil {
		flashes = []session.Flash{}
	}

	view := httputil.View{
		Template: template,
		Flashes:  flashes,
		Data:     data,
		Errors:   errs,
	}
	if user, ok := middleware.GetCurrentUser(r.Context()); ok {
		view.CurrentUser = user
	}

	httputil.WriteView(w, status, view)
}

func (p *Pages) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

func (p *Pages) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	if err := p.sessions.AddFlash(w, r, category, message); err != nil {
		logger.WithError(err).Warn("Failed to store flash")
	}
}

// flashRedirect queues a flash and redirects.
func (p *Pages) flashRedirect(w http.ResponseWriter, r *http.Request, category, message, url string) {
	p.flash(w, r, category, message)
	p.redirect(w, r, url)
}

// requireLogin returns the current user or redirects to /login.
func (p *Pages) requireLogin(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		p.redirect(w, r, "/login")
		return nil, false
	}
	return user, true
}

// requireUser returns the current user or flashes "Access unauthorized." and redirects home.
func (p *Pages) requireUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		p.flashRedirect(w, r, session.FlashDanger, flashUnauthorized, "/")
		return nil, false
	}
	return user, true
}

// serverError logs err and writes a 500.
func (p *Pages) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.WithError(err).WithField("path", r.URL.Path).Error(msg)
	httputil.WriteInternalError(w, msg)
}

// idParam reads a numeric chi URL parameter. A malformed id cannot name
// any row, so callers answer 404.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func userURL(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}

// parseUploadForm reads multipart bodies up front so form.Parse sees their fields.
func parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadForm)
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.ErrFileTooLarge
		}
		return err
	}
	return nil
}

// uploadField stores the file posted under field, if any.
// It returns nil, nil when no file was sent.
func uploadField(
	r *http.Request,
	field string,
	upload func(context.Context, multipart.File, *multipart.FileHeader) (*model.UploadResult, error),
) (*model.UploadResult, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	return upload(r.Context(), file, header)
}

// uploadErrors turns upload failures into form field errors.
func uploadErrors(field string, err error) form.Errors {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		return form.Errors{field: "Image exceeds 5MB limit."}
	case errors.Is(err, model.ErrInvalidImageType):
		return form.Errors{field: "Image must be JPEG, PNG or GIF."}
	default:
		return nil
	}
}
