package tasks

import (
	"context"
	"encoding/json"
	"time"

	"recipeshare/internal/database"
	"recipeshare/internal/logging"
	"recipeshare/internal/models"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

var (
	tracer        = otel.Tracer("recipeshare-worker")
	meter         = otel.Meter("recipeshare-worker")
	jobsCompleted metric.Int64Counter
	jobsFailed    metric.Int64Counter
	jobsDuration  metric.Float64Histogram
)

func init() {
	var err error

	jobsCompleted, err = meter.Int64Counter(
		"jobs.completed",
		metric.WithDescription("Total number of jobs completed successfully"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create jobs completed counter")
	}

	jobsFailed, err = meter.Int64Counter(
		"jobs.failed",
		metric.WithDescription("Total number of jobs failed"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create jobs failed counter")
	}

	jobsDuration, err = meter.Float64Histogram(
		"jobs.duration_ms",
		metric.WithDescription("Job processing duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create jobs duration histogram")
	}
}

type RecipeNotificationPayload struct {
	RecipeID     uint              `json:"recipe_id"`
	RecipeName   string            `json:"recipe_name"`
	AuthorID     uint              `json:"author_id"`
	TraceContext map[string]string `json:"trace_context"`
}

// HandleRecipeNotification fans a new-recipe announcement out to the
// author's subscribers. Delivery itself is simulated; the subscriber set is
// resolved from the store so the job observes the real subscription state at
// processing time.
func HandleRecipeNotification(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload RecipeNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		recordJobMetrics(ctx, TypeRecipeNotification, false, time.Since(start))
		return err
	}

	parentCtx := otel.GetTextMapPropagator().Extract(
		context.Background(),
		propagation.MapCarrier(payload.TraceContext),
	)

	ctx, span := tracer.Start(parentCtx, "job.recipe_notification")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("recipe.id", int64(payload.RecipeID)),
		attribute.Int64("author.id", int64(payload.AuthorID)),
		attribute.String("job.type", TypeRecipeNotification),
	)

	var subscriberCount int64
	if err := database.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("author_id = ?", payload.AuthorID).
		Count(&subscriberCount).Error; err != nil {
		span.RecordError(err)
		recordJobMetrics(ctx, TypeRecipeNotification, false, time.Since(start))
		return err
	}

	logging.Info(ctx).
		Uint("recipe_id", payload.RecipeID).
		Str("recipe_name", payload.RecipeName).
		Uint("author_id", payload.AuthorID).
		Int64("subscribers", subscriberCount).
		Msg("notifying subscribers about new recipe")

	time.Sleep(100 * time.Millisecond)

	span.SetStatus(codes.Ok, "notification processed")
	span.SetAttributes(attribute.Int64("notification.subscribers", subscriberCount))

	recordJobMetrics(ctx, TypeRecipeNotification, true, time.Since(start))

	return nil
}

// TypeRecipeNotification mirrors jobs.TypeRecipeNotification; redeclared here
// to keep tasks importable by the jobs server without a cycle.
const TypeRecipeNotification = "notification:recipe"

func recordJobMetrics(ctx context.Context, jobType string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("job.type", jobType),
	}

	if success {
		if jobsCompleted != nil {
			jobsCompleted.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
	} else {
		if jobsFailed != nil {
			jobsFailed.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
	}

	if jobsDuration != nil {
		jobsDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	}
}
