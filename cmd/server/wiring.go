package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"hayat/internal/agent"
	agentmetrics "hayat/internal/agent/metrics"
	"hayat/internal/agent/ports"
	"hayat/internal/agents/compliance"
	"hayat/internal/agents/guardian"
	"hayat/internal/agents/residency"
	"hayat/internal/agents/wellbeing"
	"hayat/internal/collaborator/feedcache"
	"hayat/internal/collaborator/httpfeed"
	"hayat/internal/collaborator/kafkaevents"
	"hayat/internal/collaborator/payment"
	"hayat/internal/collaborator/redisevents"
	"hayat/internal/collaborator/seed"
	"hayat/internal/family"
	jwttoken "hayat/internal/jwt_token"
	"hayat/internal/obligation"
	"hayat/internal/orchestrator"
	orchmetrics "hayat/internal/orchestrator/metrics"
	"hayat/internal/platform/config"
	platformmetrics "hayat/internal/platform/metrics"
	platformredis "hayat/internal/platform/redis"
	"hayat/internal/trace"
	tracemetrics "hayat/internal/trace/metrics"
	"hayat/internal/trace/sink/kafka"
	"hayat/internal/trace/sink/redisstream"
	"hayat/internal/trace/store/postgres"
	httptransport "hayat/internal/transport/http"
)

type app struct {
	cfg          config.Config
	logger       *slog.Logger
	orchestrator *orchestrator.Orchestrator
	dispatcher   *trace.Dispatcher
	router       http.Handler

	dispatchDone chan struct{}
	closers      []func() error
}

// build wires every component. Optional infrastructure (Postgres, Redis,
// Kafka, remote collaborators) is only connected when configured.
func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}
	built := false
	defer func() {
		if !built {
			_ = a.runClosers()
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
	}

	ledger, err := a.buildLedger(ctx, reg, redisClient)
	if err != nil {
		return nil, err
	}

	structure, feed, sub, commands, err := a.buildCollaborators(redisClient)
	if err != nil {
		return nil, err
	}

	runtimeOpts := []agent.RuntimeOption{
		agent.WithLogger(log),
		agent.WithMetrics(agentmetrics.New(reg)),
	}
	household := guardian.New(ledger,
		guardian.WithStructure(structure),
		guardian.WithRuntime(runtimeOpts...),
	)

	orch := orchestrator.New(ledger,
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(orchmetrics.New(reg)),
		orchestrator.WithMonitorTimeout(cfg.Monitor.Timeout),
	)
	orch.Register(household)
	orch.Register(residency.New(feed, household, ledger,
		residency.WithCommands(commands),
		residency.WithSubscription(sub),
		residency.WithRuntime(runtimeOpts...),
	))
	orch.Register(compliance.New(feed, household, commands, ledger,
		compliance.WithSubscription(sub),
		compliance.WithRuntime(runtimeOpts...),
	))
	orch.Register(wellbeing.New(feed, household, ledger,
		wellbeing.WithCommands(commands),
		wellbeing.WithSubscription(sub),
		wellbeing.WithRuntime(runtimeOpts...),
	))
	a.orchestrator = orch

	tokens := jwttoken.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	handler := httptransport.NewHandler(orch, household, log)
	a.router = httptransport.NewRouter(handler, httptransport.RouterConfig{
		Logger:         log,
		Validator:      jwttoken.NewValidator(tokens),
		Metrics:        platformmetrics.New(reg),
		MetricsHandler: platformmetrics.Handler(reg),
	})
	built = true
	return a, nil
}

func (a *app) buildLedger(ctx context.Context, reg prometheus.Registerer, redisClient *platformredis.Client) (*trace.Ledger, error) {
	m := tracemetrics.New(reg)
	opts := []trace.Option{trace.WithLogger(a.logger), trace.WithMetrics(m)}

	var store *postgres.Store
	if a.cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", a.cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		store = postgres.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithStore(store))
	}

	var sinks []trace.Sink
	if redisClient != nil {
		sinks = append(sinks, redisstream.New(redisClient.Client, redisstream.WithStream(a.cfg.Redis.TraceStream)))
	}
	if len(a.cfg.Kafka.Brokers) > 0 {
		k, err := kafka.New(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		if err := k.EnsureTopic(ctx, 3, 1); err != nil {
			a.logger.WarnContext(ctx, "could not ensure trace topic", "error", err)
		}
		sinks = append(sinks, k)
	}
	if len(sinks) > 0 {
		a.dispatcher = trace.NewDispatcher(sinks,
			trace.WithDispatcherLogger(a.logger),
			trace.WithDispatcherMetrics(m),
		)
		opts = append(opts, trace.WithDispatcher(a.dispatcher))
	}

	ledger := trace.New(opts...)
	if store != nil {
		n, err := ledger.Restore(ctx)
		if err != nil {
			return nil, err
		}
		a.logger.InfoContext(ctx, "trace ledger restored", "entries", n)
	}
	return ledger, nil
}

func (a *app) buildCollaborators(redisClient *platformredis.Client) (*family.Structure, ports.FeedPort, ports.SubscriptionPort, ports.CommandPort, error) {
	var (
		structure *family.Structure
		records   []obligation.Record
	)
	if path := a.cfg.Collaborators.SeedFile; path != "" {
		f, err := seed.Load(path)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		structure, err = f.Structure(time.Now())
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("seed household: %w", err)
		}
		records = f.Obligations
		a.logger.Info("seed loaded", "path", path, "obligations", len(records))
	}

	local := seed.NewFeed(records)
	var feed ports.FeedPort = local
	var sub ports.SubscriptionPort = local
	if url := a.cfg.Collaborators.FeedURL; url != "" {
		feed = httpfeed.New(url,
			httpfeed.WithAPIKey(a.cfg.Collaborators.FeedAPIKey),
			httpfeed.WithLogger(a.logger),
		)
	}
	if redisClient != nil {
		feed = feedcache.New(feed, redisClient.Client,
			feedcache.WithTTL(a.cfg.Redis.FeedCacheTTL),
			feedcache.WithLogger(a.logger),
		)
		sub = redisevents.New(redisClient.Client,
			redisevents.WithChannel(a.cfg.Redis.EventChannel),
			redisevents.WithLogger(a.logger),
		)
	}

	if k := a.cfg.Kafka; len(k.Brokers) > 0 && k.ObligationTopic != "" {
		consumer, err := kafkaevents.New(k.Brokers,
			kafkaevents.WithTopic(k.ObligationTopic),
			kafkaevents.WithGroup(k.ConsumerGroup),
			kafkaevents.WithLogger(a.logger),
		)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		sub = consumer
	}

	var commands ports.CommandPort = seed.NewCommands(a.logger)
	if url := a.cfg.Collaborators.CommandURL; url != "" {
		commands = payment.New(url,
			payment.WithAPIKey(a.cfg.Collaborators.CommandAPIKey),
			payment.WithLogger(a.logger),
		)
	}
	return structure, feed, sub, commands, nil
}

// start initializes the agents and launches the background loops. Agents that
// fail to initialize stay registered in a degraded state.
func (a *app) start(ctx context.Context) {
	if a.dispatcher != nil {
		a.dispatchDone = make(chan struct{})
		go func() {
			defer close(a.dispatchDone)
			_ = a.dispatcher.Run(context.WithoutCancel(ctx))
		}()
	}
	if err := a.orchestrator.InitializeAll(ctx); err != nil {
		a.logger.WarnContext(ctx, "some agents started degraded", "error", err)
	}
	a.orchestrator.StartMonitoring(a.cfg.Monitor.Interval)
}

// close stops the agents first so their final traces reach the sinks, then
// releases infrastructure.
func (a *app) close(ctx context.Context) error {
	errs := []error{a.orchestrator.Cleanup(ctx)}
	if a.dispatcher != nil {
		errs = append(errs, a.dispatcher.Close())
		if a.dispatchDone != nil {
			<-a.dispatchDone
		}
	}
	errs = append(errs, a.runClosers())
	return errors.Join(errs...)
}

func (a *app) runClosers() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
