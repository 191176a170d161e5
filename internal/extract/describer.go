package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/BikS2013/ppt2desc/internal/domain"
	"github.com/BikS2013/ppt2desc/internal/observability"
	"github.com/BikS2013/ppt2desc/internal/ratelimit"
)

// Describer turns one slide into a DescriptionResult, retrying transient
// provider failures. Describe never returns an error.
type Describer struct {
	client  domain.ModelClient
	limiter ratelimit.Limiter
	retry   RetryConfig
	logger  *observability.Logger
}

// NewDescriber creates a describer. limiter is shared by every describer of a run.
func NewDescriber(client domain.ModelClient, limiter ratelimit.Limiter, retry RetryConfig, logger *observability.Logger) *Describer {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	if retry.RequestTimeout <= 0 {
		retry.RequestTimeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Describer{
		client:  client,
		limiter: limiter,
		retry:   retry,
		logger:  logger.WithComponent("describer"),
	}
}

// Describe runs up to MaxAttempts attempts for req. Every attempt first takes
// one limiter admission.
func (d *Describer) Describe(ctx context.Context, req domain.DescriptionRequest) domain.DescriptionResult {
	number := req.Slide.Number
	schedule := d.retry.newBackOff()

	var last *domain.ProviderError
	attempts := 0
	for attempts < d.retry.MaxAttempts {
		admission, admitErr := d.admit(ctx)
		if admitErr != nil {
			last = cancelled(admitErr)
			break
		}
		attempts++

		text, err := d.attempt(ctx, req)
		if err == nil {
			return domain.SucceededResult(number, text, attempts)
		}
		last = err

		if admission != nil {
			admission.Refund()
		}

		if ctx.Err() != nil || !last.Retryable || attempts >= d.retry.MaxAttempts {
			break
		}

		delay := schedule.NextBackOff()
		d.logger.Warn().
			Str("deck", req.Slide.Deck).
			Int("slide", number).
			Int("attempt", attempts).
			Str("kind", string(last.Kind)).
			Dur("backoff", delay).
			Msg("retrying slide")

		if err := sleep(ctx, delay); err != nil {
			break
		}
	}

	d.logger.Error().
		Str("deck", req.Slide.Deck).
		Int("slide", number).
		Int("attempts", attempts).
		Str("kind", string(last.Kind)).
		Msg(last.Message)

	return domain.FailedResult(number, last, attempts)
}

// admit takes one limiter admission. When failed attempts do not count, the
// returned reservation lets the caller hand back exactly its own admission.
func (d *Describer) admit(ctx context.Context) (ratelimit.Reservation, error) {
	if !d.retry.CountFailedAttempts {
		if r, ok := d.limiter.(ratelimit.Reserver); ok {
			return r.Reserve(ctx)
		}
	}
	return nil, d.limiter.Acquire(ctx)
}

// attempt runs one model call under the per-attempt timeout.
func (d *Describer) attempt(ctx context.Context, req domain.DescriptionRequest) (string, *domain.ProviderError) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.retry.RequestTimeout)
	defer cancel()

	text, err := d.client.Describe(attemptCtx, req.Slide.Data, req.Slide.MIMEType, req.Instructions)
	if err == nil {
		return text, nil
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return "", pe
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", domain.NewProviderError(domain.KindTransient,
			fmt.Sprintf("request timed out after %s", d.retry.RequestTimeout), err)
	}
	return "", domain.AsProviderError(err)
}

func cancelled(err error) *domain.ProviderError {
	return domain.NewProviderError(domain.KindTransient, fmt.Sprintf("cancelled: %v", err), err)
}
