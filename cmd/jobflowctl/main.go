// Command jobflowctl is a thin, illustrative wiring of jobflow's pieces
// (config, store selection, logging, runner), in the shape of the
// teacher's cmd/server/main.go: load config, configure logging, wire
// collaborators, run. It is not part of the core library.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xperrylinn/jobflow/config"
	"github.com/xperrylinn/jobflow/flow"
	"github.com/xperrylinn/jobflow/internal/log"
	"github.com/xperrylinn/jobflow/job"
	"github.com/xperrylinn/jobflow/notify/nats"
	"github.com/xperrylinn/jobflow/runner"
	"github.com/xperrylinn/jobflow/store"
	"github.com/xperrylinn/jobflow/store/badgerstore"
	"github.com/xperrylinn/jobflow/store/memstore"
	"github.com/xperrylinn/jobflow/store/mongostore"
	"github.com/xperrylinn/jobflow/store/rediskvstore"

	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	job.Register("jobflowctl.demo", "sum", func(_ context.Context, args []any, _ map[string]any) (any, error) {
		total := 0
		for _, a := range args {
			n, _ := a.(int)
			total += n
		}
		return total, nil
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "jobflowctl: load config:", err)
		os.Exit(1)
	}

	log.Configure(cfg.LogLevel, cfg.LogJSON)
	logger := log.L()

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var publisher *nats.Publisher
	if cfg.Notify.NATS.Enabled {
		publisher = nats.New(
			nats.URL(cfg.Notify.NATS.URL),
			nats.SubjectPrefix(cfg.Notify.NATS.SubjectPrefix),
		)
		defer publisher.Close()
	}

	j1 := job.New(job.ModuleSource("jobflowctl.demo"), "sum", []any{1, 2}, nil)
	j2 := job.New(job.ModuleSource("jobflowctl.demo"), "sum", []any{j1.Output(), 10}, nil)
	f := flow.New(j1, j2)

	runnerOpts := []runner.Option{runner.WithConcurrency(cfg.Runner.Concurrency)}
	if cfg.Runner.StopOnError {
		runnerOpts = append(runnerOpts, runner.WithStopOnError())
	}
	r := runner.New(st, runnerOpts...)

	result, err := r.Run(context.Background(), f)
	if err != nil {
		logger.WithError(err).Fatal("run flow")
	}

	out, err := st.GetOutput(context.Background(), j2.UUID(), store.Latest, true)
	if err != nil {
		logger.WithError(err).Fatal("read final output")
	}

	logger.WithFields(map[string]any{"ran": len(result.Ran), "output": out}).Info("demo flow finished")

	if publisher != nil {
		completion := nats.FromResponse(j2.UUID(), j2.Name(), j2.Index(), time.Now().UTC(), nil)
		if err := publisher.Publish(context.Background(), completion); err != nil {
			logger.WithError(err).Warn("publish completion notification")
		}
	}
}

func openStore(cfg config.Store) (store.Store, func(), error) {
	switch cfg.Backend {
	case "", "mem":
		return memstore.New(), nil, nil
	case "badger":
		s, err := badgerstore.Open(cfg.Badger.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "redis":
		s, err := rediskvstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, rediskvstore.WithPrefix(cfg.Redis.Prefix))
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case "mongo":
		client, err := mongo.Connect(context.Background(), mongooptions.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, err
		}
		s := mongostore.New(client, mongostore.Database(cfg.Mongo.Database), mongostore.Collection(cfg.Mongo.Collection))
		return s, func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("jobflowctl: unknown store backend %q", cfg.Backend)
	}
}
