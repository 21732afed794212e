package explain

import (
	"context"
	"fmt"

	"log-analyzer/internal/types"
)

// Explainer defines how alerts are enriched with human-readable context
type Explainer interface {
	Explain(ctx context.Context, alert *types.Alert) error
}

// TemplateExplainer uses static string templates (Offline/Fast)
type TemplateExplainer struct{}

func NewTemplateExplainer() *TemplateExplainer {
	return &TemplateExplainer{}
}

func (e *TemplateExplainer) Explain(_ context.Context, alert *types.Alert) error {
	if alert.Explanation == "" {
		alert.Explanation = fmt.Sprintf("%d suspicious actions for user '%s' from %s inside a %d minute window suggest a password guessing burst.",
			alert.WindowCount, alert.Key.User, alert.Key.IP, alert.WindowMinutes)
	}
	return nil
}

// WithFallback tries primary and falls back to the template on error
type WithFallback struct {
	primary  Explainer
	fallback Explainer
}

func NewWithFallback(primary Explainer) *WithFallback {
	return &WithFallback{primary: primary, fallback: NewTemplateExplainer()}
}

func (e *WithFallback) Explain(ctx context.Context, alert *types.Alert) error {
	if err := e.primary.Explain(ctx, alert); err != nil {
		if ferr := e.fallback.Explain(ctx, alert); ferr != nil {
			return ferr
		}
		return err
	}
	return nil
}
