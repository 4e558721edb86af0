package jobs

import (
	"context"
	"encoding/json"

	"recipeshare/internal/logging"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

const (
	TypeRecipeNotification = "notification:recipe"
	DefaultQueue           = "default"
)

var (
	tracer       = otel.Tracer("recipeshare")
	meter        = otel.Meter("recipeshare")
	jobsEnqueued metric.Int64Counter
)

// RecipeNotificationPayload announces a newly published recipe so the worker
// can notify the author's subscribers. The trace context rides along so the
// worker's span joins the publishing request's trace.
type RecipeNotificationPayload struct {
	RecipeID     uint              `json:"recipe_id"`
	RecipeName   string            `json:"recipe_name"`
	AuthorID     uint              `json:"author_id"`
	TraceContext map[string]string `json:"trace_context"`
}

type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr string) (*Client, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})

	var err error
	jobsEnqueued, err = meter.Int64Counter(
		"jobs.enqueued",
		metric.WithDescription("Total number of jobs enqueued"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create jobs enqueued counter")
	}

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueRecipeNotification(ctx context.Context, recipeID uint, recipeName string, authorID uint) error {
	ctx, span := tracer.Start(ctx, "job.enqueue.recipe_notification")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("recipe.id", int64(recipeID)),
		attribute.Int64("author.id", int64(authorID)),
		attribute.String("job.type", TypeRecipeNotification),
	)

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	payload := RecipeNotificationPayload{
		RecipeID:     recipeID,
		RecipeName:   recipeName,
		AuthorID:     authorID,
		TraceContext: carrier,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeRecipeNotification, payloadBytes)
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if jobsEnqueued != nil {
		jobsEnqueued.Add(ctx, 1, metric.WithAttributes(
			attribute.String("job.type", TypeRecipeNotification),
		))
	}

	span.SetAttributes(
		attribute.String("job.id", info.ID),
		attribute.String("job.queue", info.Queue),
	)

	logging.Info(ctx).
		Str("job_id", info.ID).
		Str("job_type", TypeRecipeNotification).
		Uint("recipe_id", recipeID).
		Msg("job enqueued")

	return nil
}
