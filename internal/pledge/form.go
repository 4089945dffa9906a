package pledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
	"github.com/csg33k/pledge-wall/internal/platform/metrics"
	"github.com/csg33k/pledge-wall/internal/platform/telemetry"
	"github.com/csg33k/pledge-wall/internal/ports"
)

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission is still waiting on the store.
var ErrSubmitInFlight = errors.New("submission already in progress")

// Form owns one unsaved draft and its submission state.
type Form struct {
	store   ports.PledgeStore
	log     *logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	timeout time.Duration

	mu      sync.Mutex
	draft   domain.Draft
	loading bool
	errMsg  string
}

func NewForm(store ports.PledgeStore, opts ...Option) *Form {
	o := buildOptions(opts)
	return &Form{
		store:   store,
		log:     o.log.With("service", "PledgeForm"),
		metrics: o.metrics,
		tracer:  telemetry.Tracer("pledge"),
		timeout: o.submitTimeout,
		draft:   domain.NewDraft(),
	}
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() domain.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

// SetDraft replaces the draft, e.g. with values parsed from a posted form.
func (f *Form) SetDraft(d domain.Draft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = d.Clone()
}

func (f *Form) ToggleCommitment(item string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.ToggleCommitment(item)
}

func (f *Form) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Error is the message currently shown next to the form, or "".
func (f *Form) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Submit validates the draft and inserts it. On success onSuccess receives a
// copy of the draft exactly as submitted and the stored record is returned.
// Validation failures return a *domain.ValidationError without touching the
// store; store failures return an error wrapping domain.ErrStore. Nothing is
// retried.
func (f *Form) Submit(ctx context.Context, onSuccess func(domain.Draft)) (*domain.Pledge, error) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	d := f.draft.Clone()
	if err := Validate(d); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			f.errMsg = ve.Message
		}
		f.mu.Unlock()
		f.metrics.IncValidationFailure()
		return nil, err
	}
	f.loading = true
	f.errMsg = ""
	f.mu.Unlock()

	ctx, span := f.tracer.Start(ctx, "pledge.submit", trace.WithAttributes(
		attribute.String("profile_type", d.ProfileType.String()),
		attribute.Int("commitment_count", len(d.Commitments)),
	))
	defer span.End()

	insertCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	p := d.Pledge()
	err := f.store.Insert(insertCtx, p)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.errMsg = domain.MsgSubmitFailed
	}
	f.mu.Unlock()

	if err != nil {
		f.metrics.IncStoreError("insert")
		f.log.Error("submit pledge failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if !errors.Is(err, domain.ErrStore) {
			err = fmt.Errorf("%w: %w", domain.ErrStore, err)
		}
		return nil, err
	}

	f.metrics.IncSubmitted()
	f.log.Info("pledge submitted", "id", p.ID, "commitment_count", p.CommitmentCount)
	span.SetAttributes(attribute.String("pledge.id", p.ID))
	if onSuccess != nil {
		onSuccess(d.Clone())
	}
	return p, nil
}

// Validate applies the submission rules in order: at least one commitment,
// required text fields, a known profile type, catalog membership.
func Validate(d domain.Draft) error {
	if len(d.Commitments) == 0 {
		return domain.NewValidationError(domain.MsgNoCommitments)
	}
	for _, s := range []string{d.Name, d.Email, d.Mobile} {
		if strings.TrimSpace(s) == "" {
			return domain.NewValidationError(domain.MsgRequiredFields)
		}
	}
	if !d.ProfileType.Valid() {
		return domain.NewValidationError(domain.MsgInvalidProfile)
	}
	for _, c := range d.Commitments {
		if !domain.InCatalog(c) {
			return domain.NewValidationError(domain.MsgUnknownPrefix + c)
		}
	}
	return nil
}
