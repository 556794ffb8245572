package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/events"
	"github.com/vk/gridflow/internal/executor"
)

// Run compiles or loads the workflow and executes it locally.
func (a *App) Run(ctx context.Context) (*executor.Result, error) {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	wf, err := a.Workflow(ctx)
	if err != nil {
		return nil, err
	}

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(ctx, a.config.HealthcheckPort); err != nil {
			return nil, err
		}
		defer a.closeHealthcheckServer(ctx)
	}

	runID := a.config.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	store, err := artifact.NewFSStore(a.config.ArtifactRoot, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}
	logger.Info("Artifact store ready.", "dir", store.Dir())

	sink := events.Multi{events.LogSink{}}
	if a.config.EventsURL != "" {
		sio, err := events.DialSocketIO(ctx, events.SocketIOConfig{
			URL:            a.config.EventsURL,
			Namespace:      a.config.EventsNamespace,
			Event:          a.config.EventsName,
			ConnectTimeout: a.config.EventsTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect event sink: %w", err)
		}
		defer sio.Close()
		sink = append(sink, sio)
	}

	exec := executor.New(wf, a.registry, store,
		executor.WithWorkers(a.config.WorkerCount),
		executor.WithSink(sink),
		executor.WithMetrics(a.metrics),
		executor.WithRunID(runID),
		executor.WithFailFast(a.config.FailFast),
	)
	res, err := exec.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("execution failed: %w", err)
	}

	for _, info := range res.Artifacts {
		logger.Debug("Artifact available.", "artifact", info.Ref.String(), "path", info.Path, "bytes", info.Size)
	}
	logger.Debug("App.Run method finished.")
	return res, nil
}
