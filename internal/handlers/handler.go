package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/csg33k/pledge-wall/internal/certificate"
	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
	"github.com/csg33k/pledge-wall/internal/platform/metrics"
	"github.com/csg33k/pledge-wall/internal/platform/telemetry"
	"github.com/csg33k/pledge-wall/internal/pledge"
	"github.com/csg33k/pledge-wall/internal/ports"
	"github.com/csg33k/pledge-wall/internal/templates"
)

// keepAlive is how often an idle event stream receives a comment line so
// proxies do not time it out.
const keepAlive = 25 * time.Second

type Deps struct {
	Store         ports.PledgeStore
	Stats         *pledge.Aggregator
	Wall          *pledge.Wall
	PNG           ports.CertificateRenderer
	PDF           ports.CertificateRenderer
	Log           *logger.Logger
	Metrics       *metrics.Metrics
	SubmitTimeout time.Duration
}

type Handler struct {
	store   ports.PledgeStore
	stats   *pledge.Aggregator
	wall    *pledge.Wall
	png     ports.CertificateRenderer
	pdf     ports.CertificateRenderer
	log     *logger.Logger
	metrics *metrics.Metrics
	form    []pledge.Option
	tracer  trace.Tracer
	now     func() time.Time
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	form := []pledge.Option{pledge.WithLogger(log), pledge.WithMetrics(d.Metrics)}
	if d.SubmitTimeout > 0 {
		form = append(form, pledge.WithSubmitTimeout(d.SubmitTimeout))
	}
	return &Handler{
		store:   d.Store,
		stats:   d.Stats,
		wall:    d.Wall,
		png:     d.PNG,
		pdf:     d.PDF,
		log:     log.With("service", "HTTPHandler"),
		metrics: d.Metrics,
		form:    form,
		tracer:  telemetry.Tracer("http"),
		now:     time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /stats", h.statsFragment)
	mux.HandleFunc("GET /wall", h.wallFragment)
	mux.HandleFunc("POST /pledges", h.submitPledge)
	mux.HandleFunc("GET /pledges/{id}/certificate", h.previewCertificate)
	mux.HandleFunc("GET /pledges/{id}/certificate.png", h.download(h.png))
	mux.HandleFunc("GET /pledges/{id}/certificate.pdf", h.download(h.pdf))
	mux.HandleFunc("POST /certificate/close", h.closeCertificate)
	mux.HandleFunc("GET /events", h.events)
	mux.HandleFunc("GET /healthz", h.healthz)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	return h.logRequests(mux)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if r.URL.Path == "/events" || r.URL.Path == "/metrics" {
			return
		}
		h.log.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.Page(templates.PageView{
		Stats: h.statsView(r.Context()),
		Wall:  h.wallView(r.Context()),
		Form:  templates.NewFormView(domain.NewDraft(), ""),
	}))
}

func (h *Handler) statsFragment(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.Stats(h.statsView(r.Context())))
}

func (h *Handler) wallFragment(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.Wall(h.wallView(r.Context())))
}

// statsView serves the live snapshot, fetching once if the aggregator has
// not loaded yet. A failed fetch renders the loading state.
func (h *Handler) statsView(ctx context.Context) templates.StatsView {
	s, loaded := h.stats.Snapshot()
	if !loaded {
		if fresh, err := h.stats.Refresh(ctx); err == nil {
			s, loaded = fresh, true
		}
	}
	return templates.NewStatsView(s, loaded)
}

func (h *Handler) wallView(ctx context.Context) templates.WallView {
	rows, loaded := h.wall.Snapshot()
	if !loaded {
		if fresh, err := h.wall.Refresh(ctx); err == nil {
			rows, loaded = fresh, true
		}
	}
	return templates.NewWallView(rows, loaded)
}

// submitPledge validates and stores the posted form. Success swaps the form
// panel for the certificate preview; failures re-render the form with the
// draft intact and the message inline.
func (h *Handler) submitPledge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := pledge.NewForm(h.store, h.form...)
	f.SetDraft(draftFromForm(r))
	for _, item := range uniq(r.PostForm["commitments"]) {
		f.ToggleCommitment(item)
	}

	var cert certificate.Certificate
	p, err := f.Submit(r.Context(), func(d domain.Draft) {
		cert = certificate.New(d, h.now())
	})
	switch {
	case err == nil:
		h.metrics.IncRender("preview")
		render(w, r, templates.Preview(templates.NewCertificateView(cert, p.ID)))
	case errors.Is(err, domain.ErrValidation):
		renderStatus(w, r, http.StatusUnprocessableEntity, templates.Form(templates.NewFormView(f.Draft(), f.Error())))
	default:
		renderStatus(w, r, http.StatusBadGateway, templates.Form(templates.NewFormView(f.Draft(), f.Error())))
	}
}

// draftFromForm reads the text fields and profile. An unknown profile leaves
// the zero value so validation reports it.
func draftFromForm(r *http.Request) domain.Draft {
	d := domain.Draft{
		Name:   strings.TrimSpace(r.PostFormValue("name")),
		Email:  strings.TrimSpace(r.PostFormValue("email")),
		Mobile: strings.TrimSpace(r.PostFormValue("mobile")),
		State:  strings.TrimSpace(r.PostFormValue("state")),
	}
	if pt, err := domain.ParseProfileType(r.PostFormValue("profile_type")); err == nil {
		d.ProfileType = pt
	}
	return d
}

// uniq drops repeated values, keeping first-seen order.
func uniq(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (h *Handler) previewCertificate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.metrics.IncRender("preview")
	render(w, r, templates.Preview(templates.NewCertificateView(certificate.New(p.Draft(), h.now()), p.ID)))
}

// download renders the certificate into a buffer first so a render failure
// can still produce an error page instead of a truncated file.
func (h *Handler) download(rr ports.CertificateRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rr == nil {
			http.Error(w, "export unavailable", http.StatusNotFound)
			return
		}
		p, ok := h.lookup(w, r)
		if !ok {
			return
		}
		c := certificate.New(p.Draft(), h.now())
		ctx, span := h.tracer.Start(r.Context(), "certificate.render", trace.WithAttributes(
			attribute.String("format", rr.Extension()),
			attribute.String("pledge.id", p.ID),
		))
		defer span.End()

		var buf bytes.Buffer
		if err := rr.Render(ctx, c, &buf); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
			h.log.Error("certificate render failed", "id", p.ID, "format", rr.Extension(), "error", err)
			renderStatus(w, r, http.StatusInternalServerError, templates.Error(domain.MsgRenderFailed))
			return
		}
		h.metrics.IncRender(rr.Extension())
		w.Header().Set("Content-Type", rr.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, certificate.Filename(c.Name, rr.Extension())))
		w.Write(buf.Bytes())
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*domain.Pledge, bool) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}
	p, err := h.store.Get(r.Context(), id)
	switch {
	case err == nil:
		return p, true
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "pledge not found", http.StatusNotFound)
	default:
		h.log.Error("pledge lookup failed", "id", id, "error", err)
		http.Error(w, "could not load pledge", http.StatusBadGateway)
	}
	return nil, false
}

// closeCertificate dismisses the preview and sends the browser to the wall.
func (h *Handler) closeCertificate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("HX-Redirect", "/#pledge-wall")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), 500)
	}
}

// renderStatus writes c with a non-200 status. The status is committed
// before rendering, so a render error cannot be reported to the client.
func renderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = c.Render(r.Context(), w)
}
