package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"green-finance-risk/internal/common/camunda"
	"green-finance-risk/internal/common/config"
	generatereport "green-finance-risk/internal/workers/green-finance/generate-report"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the report job worker against a Zeebe gateway",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required for the worker")
	}

	stopWorker, err := a.startWorker(ctx)
	if err != nil {
		return err
	}
	defer stopWorker()

	<-ctx.Done()
	a.log.Info("Shutdown signal received", nil)
	return nil
}

// startWorker connects to the gateway and opens the report job worker. The
// returned func stops the worker and closes the connection.
func (a *app) startWorker(ctx context.Context) (func(), error) {
	client, err := camunda.NewClient(ctx, a.cfg.Camunda.BrokerAddress, a.log)
	if err != nil {
		return nil, err
	}

	handler, err := generatereport.NewHandler(generatereport.HandlerOptions{
		AppConfig:     a.cfg,
		Catalog:       a.catalog,
		Pipeline:      a.pipeline,
		Observability: a.obs,
		Logger:        a.log,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	w := camunda.StartWorker(client.GetClient(), generatereport.TaskType,
		config.GetWorkerConfig(a.cfg, generatereport.TaskType), handler, a.log)

	return func() {
		w.Stop()
		if err := client.Close(); err != nil {
			a.log.Warn("Failed to close Zeebe client", map[string]interface{}{"error": err.Error()})
		}
	}, nil
}
