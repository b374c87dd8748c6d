// Package main starts a NanoIntake server.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/micromdm/nanointake/engine"
	enginehttp "github.com/micromdm/nanointake/engine/http"
	httpintake "github.com/micromdm/nanointake/http"
	"github.com/micromdm/nanointake/http/lang"
	"github.com/micromdm/nanointake/http/session"
	"github.com/micromdm/nanointake/log/logkeys"
	"github.com/micromdm/nanointake/subsystem/section"
	"github.com/micromdm/nanointake/workflow"

	"github.com/alexedwards/flow"
	"github.com/micromdm/nanolib/envflag"
	nanohttp "github.com/micromdm/nanolib/http"
	"github.com/micromdm/nanolib/http/trace"
	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/stdlogfmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// overridden by -ldflags -X
var version = "unknown"

func main() {
	var (
		flDebug   = flag.Bool("debug", false, "log debug messages")
		flListen  = flag.String("listen", ":9004", "HTTP listen address")
		flVersion = flag.Bool("version", false, "print version and exit")
		flStorage = flag.String("storage", "file", "name of storage backend")
		flDSN     = flag.String("storage-dsn", "", "data source name (e.g. connection string or path)")
		flTTLSec  = flag.Uint("session-ttl", uint(engine.DefaultSessionTTL/time.Second), "session lifetime in seconds")
		flSwpSec  = flag.Uint("sweep-interval", uint(engine.DefaultDuration/time.Second), "interval for expired session sweeps in seconds")
		flSecure  = flag.Bool("cookie-secure", false, "mark the session cookie Secure")
		flDump    = flag.Bool("dump-submissions", false, "dump page form submissions")
	)
	envflag.Parse("NANOINTAKE_", []string{"version"})

	if *flVersion {
		fmt.Println(version)
		return
	}

	logger := stdlogfmt.New(stdlogfmt.WithDebugFlag(*flDebug))

	if err := section.CheckSchemas(); err != nil {
		logger.Info(logkeys.Message, "loading section schemas", logkeys.Error, err)
		os.Exit(1)
	}

	sessionTTL := time.Second * time.Duration(*flTTLSec)

	storage, err := parseStorage(*flStorage, *flDSN, sessionTTL)
	if err != nil {
		logger.Info(logkeys.Message, "parse storage", logkeys.Error, err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := engine.NewMetrics(reg)
	if err != nil {
		logger.Info(logkeys.Message, "registering metrics", logkeys.Error, err)
		os.Exit(1)
	}

	e := engine.New(
		storage.flows,
		engine.WithLogger(logger.With("service", "engine")),
		engine.WithMetrics(metrics),
		engine.WithFinalSubmitHook(logSubmission(logger.With("service", "submission"))),
	)

	// backends without native expiry are swept by the worker
	var eWorker *engine.Worker
	if storage.expirer != nil && *flSwpSec > 0 && sessionTTL > 0 {
		eWorker = engine.NewWorker(
			storage.expirer,
			engine.WithWorkerLogger(logger.With("service", "engine worker")),
			engine.WithWorkerDuration(time.Second*time.Duration(*flSwpSec)),
			engine.WithWorkerSessionTTL(sessionTTL),
		)
	}

	mux := flow.New()

	mux.Handle("/version", nanohttp.NewJSONVersionHandler(version))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), "GET")

	mux.Group(func(mux *flow.Mux) {
		mux.Use(session.NewMiddleware(
			session.WithSecure(*flSecure),
			session.WithMaxAge(int(sessionTTL/time.Second)),
		))
		mux.Use(lang.Middleware)

		err = enginehttp.HandleApply("", mux, logger.With("service", "apply"), e)
	})
	if err != nil {
		logger.Info(logkeys.Message, "registering handlers", logkeys.Error, err)
		os.Exit(1)
	}

	if eWorker != nil {
		go func() {
			err := eWorker.Run(context.Background())
			logs := []interface{}{logkeys.Message, "engine worker stopped"}
			if err != nil {
				logger.Info(append(logs, logkeys.Error, err)...)
				return
			}
			logger.Debug(logs...)
		}()
	}

	var h http.Handler = mux
	if *flDump {
		h = httpintake.DumpHandler(h, os.Stdout)
	}

	logger.Info(logkeys.Message, "starting server", "listen", *flListen, "storage", *flStorage)
	err = http.ListenAndServe(*flListen, trace.NewTraceLoggingHandler(h, logger.With("handler", "log"), newTraceID))
	logs := []interface{}{logkeys.Message, "server shutdown"}
	if err != nil {
		logs = append(logs, logkeys.Error, err)
	}
	logger.Info(logs...)
}

// logSubmission creates a final submit hook that logs completed
// applications. Delivery to a downstream system would go here.
func logSubmission(logger log.Logger) engine.FinalSubmitHook {
	return func(ctx context.Context, flowID string, s workflow.Snapshot) error {
		logger.Info(
			logkeys.Message, "application submitted",
			logkeys.FlowID, flowID,
			logkeys.State, s.State,
		)
		return nil
	}
}

// newTraceID generates a new HTTP trace ID for context logging.
func newTraceID(_ *http.Request) string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
