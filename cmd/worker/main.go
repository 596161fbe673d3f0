package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"resume-builder/internal/bootstrap"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/workerproc"
)

const (
	defaultVisibilitySeconds = 300
	defaultWorkerConcurrency = 2
	defaultShutdownTimeout   = 30 * time.Second
	defaultCleanupInterval   = 15 * time.Minute
)

func main() {
	config.ApplyDefaults(viper.GetViper())

	rootCmd := &cobra.Command{
		Use:   "worker",
		Short: "Export worker and scheduled cleanup",
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	must(viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Process export jobs until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context())
		},
	}
	runCmd.Flags().Int("concurrency", defaultWorkerConcurrency, "Concurrent queue messages in flight")
	runCmd.Flags().Int("visibility-seconds", defaultVisibilitySeconds, "SQS visibility timeout for received messages")
	runCmd.Flags().Duration("cleanup-interval", defaultCleanupInterval, "How often expired exports and cache entries are purged")
	must(viper.BindPFlag("worker_concurrency", runCmd.Flags().Lookup("concurrency")))
	must(viper.BindPFlag("sqs_visibility_timeout_seconds", runCmd.Flags().Lookup("visibility-seconds")))
	must(viper.BindPFlag("cleanup_interval", runCmd.Flags().Lookup("cleanup-interval")))

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge expired exports and AI cache entries once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanupOnce(cmd.Context())
		},
	}

	rootCmd.AddCommand(runCmd, cleanupCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func buildApp(ctx context.Context) (*bootstrap.App, config.Config, error) {
	cfg, err := config.LoadWith(viper.GetViper())
	if err != nil {
		return nil, cfg, err
	}
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("worker.bootstrap_failed", map[string]any{"error": err.Error()})
		return nil, cfg, err
	}
	return app, cfg, nil
}

func runWorker(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cfg, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	defer telemetry.Sync()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.ExportProcessor.Run(gctx, cfg.ExportPollInterval)
	})
	g.Go(func() error {
		return runCleanupLoop(gctx, app, viper.GetDuration("cleanup_interval"))
	})
	if cfg.ExportQueueURL != "" {
		g.Go(func() error {
			return consumeQueue(gctx, app, cfg)
		})
	}

	telemetry.Info("worker.started", map[string]any{
		"queue":         cfg.ExportQueueURL != "",
		"poll_interval": cfg.ExportPollInterval.String(),
	})
	err = g.Wait()
	telemetry.Info("worker.stopped", nil)
	return err
}

func runCleanupOnce(parent context.Context) error {
	app, _, err := buildApp(parent)
	if err != nil {
		return err
	}
	defer app.Close()
	defer telemetry.Sync()
	return cleanup(parent, app)
}

func runCleanupLoop(ctx context.Context, app *bootstrap.App, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := cleanup(ctx, app); err != nil && ctx.Err() == nil {
			telemetry.Error("worker.cleanup_failed", map[string]any{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func cleanup(ctx context.Context, app *bootstrap.App) error {
	expired, exportErr := app.ExportProcessor.Cleanup(ctx)
	purged, cacheErr := app.AICache.Purge(ctx, time.Now().UTC())
	telemetry.Info("worker.cleanup", map[string]any{
		"expired_exports":   expired,
		"purged_ai_entries": purged,
	})
	return errors.Join(exportErr, cacheErr)
}

func consumeQueue(ctx context.Context, app *bootstrap.App, cfg config.Config) error {
	region := cfg.AWSRegion
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return err
	}
	var client sqsAPI = sqs.NewFromConfig(awsCfg)

	concurrency := max(1, viper.GetInt("worker_concurrency"))
	visibility := viper.GetInt("sqs_visibility_timeout_seconds")
	if visibility <= 0 {
		visibility = defaultVisibilitySeconds
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

pollLoop:
	for {
		if ctx.Err() != nil {
			break
		}
		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(cfg.ExportQueueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibility),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.sqs.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, client, cfg.ExportQueueURL, app.ExportProcessor, m)
			}(msg)
		}
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(defaultShutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
	return nil
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage deletes the message once the job is handled or the payload can
// never succeed; other failures are left for redelivery.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, proc workerproc.JobProcessor, msg sqstypes.Message) {
	decoded, err := workerproc.HandleMessage(ctx, proc, aws.ToString(msg.Body))
	fields := baseFields(msg, decoded.ExportID, decoded.RequestID)
	if err != nil {
		fields["error"] = err.Error()
		if !workerproc.Unrecoverable(err) {
			telemetry.Error("worker.export.failed", fields)
			return
		}
		telemetry.Error("worker.export.dropped", fields)
	}
	if deleteMessage(ctx, client, queueURL, msg, fields) && err == nil {
		telemetry.Info("worker.export.handled", fields)
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		telemetry.Error("worker.export.delete_failed", withError(fields, "missing receipt handle"))
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		telemetry.Error("worker.export.delete_failed", withError(fields, err.Error()))
		return false
	}
	return true
}

func withError(fields map[string]any, msg string) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["delete_error"] = msg
	return out
}

func baseFields(msg sqstypes.Message, exportID, requestID string) map[string]any {
	fields := map[string]any{
		"export_id":      exportID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
