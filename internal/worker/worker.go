package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/services"
	"github.com/SAP-F-2025/homework-service/internal/utils"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

const handlerName = "homework_commands"

// Worker consumes homework commands and hands them to the submission and
// answer-key services
type Worker struct {
	router      *message.Router
	submissions services.SubmissionService
	answerKeys  services.AnswerKeyService
	logger      utils.Logger
	topic       string
}

type Config struct {
	Subscriber  message.Subscriber
	Topic       string
	Submissions services.SubmissionService
	AnswerKeys  services.AnswerKeyService
	Logger      utils.Logger
}

func New(config Config) (*Worker, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(utils.ToSlogLogger(config.Logger)))
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	w := &Worker{
		router:      router,
		submissions: config.Submissions,
		answerKeys:  config.AnswerKeys,
		logger:      config.Logger,
		topic:       config.Topic,
	}

	router.AddMiddleware(w.dropPanicked, middleware.Recoverer)
	router.AddNoPublisherHandler(handlerName, config.Topic, config.Subscriber, w.Handle)

	return w, nil
}

// Run blocks until ctx is cancelled or the router is closed.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Starting homework worker", "topic", w.topic)
	return w.router.Run(ctx)
}

// Running is closed once the handlers are subscribed.
func (w *Worker) Running() chan struct{} {
	return w.router.Running()
}

func (w *Worker) Close() error {
	return w.router.Close()
}

// dropPanicked acks a message whose handler panicked, since a redelivery would
// panic again. It must wrap middleware.Recoverer.
func (w *Worker) dropPanicked(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		var recovered middleware.RecoveredPanicError
		if errors.As(err, &recovered) {
			w.logger.Error("Dropping command after handler panic",
				"message_uuid", msg.UUID,
				"command", msg.Metadata.Get(events.CommandMetadataKey),
				"panic", fmt.Sprint(recovered.V))
			return nil, nil
		}
		return produced, err
	}
}

// Handle processes one command. Returning an error nacks the message, so only
// failures a redelivery could fix are returned; rejected commands are acked.
func (w *Worker) Handle(msg *message.Message) error {
	start := time.Now()
	command := msg.Metadata.Get(events.CommandMetadataKey)

	err := w.dispatch(msg.Context(), command, msg.Payload)
	w.logger.LogMessage(w.topic, msg.UUID, time.Since(start), err, "command", command)

	if err != nil && !retryable(err) {
		return nil
	}
	return err
}

func (w *Worker) dispatch(ctx context.Context, command string, payload []byte) error {
	switch command {
	case events.CommandStartHomework:
		var cmd events.StartHomeworkCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("%w: %w", errMalformedCommand, err)
		}
		_, err := w.submissions.StartHomework(ctx, &cmd.Actor, cmd.AssignmentID)
		return err

	case events.CommandSubmitHomework:
		var cmd events.SubmitHomeworkCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("%w: %w", errMalformedCommand, err)
		}
		result, err := w.submissions.SubmitAnswers(ctx, &cmd.Actor, &cmd.Request)
		if err != nil {
			return err
		}
		w.logger.InfoContext(ctx, "Graded submission",
			"assignment_id", result.AssignmentID,
			"total_questions", result.TotalQuestions,
			"correct_answers", result.CorrectAnswers,
			"score", result.Score)
		return nil

	case events.CommandImportAnswerKey:
		if w.answerKeys == nil {
			return fmt.Errorf("%w: %q", errUnknownCommand, command)
		}
		var cmd events.ImportAnswerKeyCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("%w: %w", errMalformedCommand, err)
		}
		result, err := w.answerKeys.ImportAnswerKey(ctx, &cmd.Actor, &services.ImportAnswerKeyRequest{
			HomeworkID: cmd.HomeworkID,
			Format:     cmd.Format,
			Content:    cmd.Content,
		})
		if err != nil {
			return err
		}
		w.logger.InfoContext(ctx, "Imported answer key",
			"homework_id", result.HomeworkID,
			"status", result.Status,
			"key_count", result.KeyCount,
			"error_count", result.ErrorCount)
		return nil

	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, command)
	}
}
