package ripple

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jward/ripple/internal/impact"
)

// AnalyzeImpact resolves name and reports everything a change to it would
// affect, split into production and test code and scored by risk.
func (q *QueryBuilder) AnalyzeImpact(ctx context.Context, name string) (*ImpactReport, error) {
	ctx, span := startImpactSpan(ctx, name)
	defer span.End()

	report, err := func() (*ImpactReport, error) {
		defer q.e.view(ClassImpactReport, "AnalyzeImpact")()
		return impact.NewAnalyzer(q.e.q, q.e.strictNames).AnalyzeBlastRadius(name)
	}()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("ripple.impact.total", report.TotalImpactCount),
		attribute.String("ripple.impact.risk", string(report.RiskLevel)),
	)
	q.e.logger.DebugContext(ctx, "impact analyzed",
		slog.String("entity", name),
		slog.Int("total", report.TotalImpactCount),
		slog.String("risk", string(report.RiskLevel)),
	)
	return report, nil
}

// NotFoundMessage renders a resolution error for end users, e.g.
// "could not find UserService".
func NotFoundMessage(err error) string {
	return impact.NotFoundMessage(err)
}
