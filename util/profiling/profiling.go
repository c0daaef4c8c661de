package profiling

import (
	"net/http"
	"net/http/pprof"

	"github.com/btcp2p/btcp2p/infrastructure/logger"
	"github.com/btcp2p/btcp2p/util/panics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler returns a handler serving the metrics gathered by gatherer on
// /metrics and the runtime profiles on /debug/pprof/.
func NewHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/", http.RedirectHandler("/metrics", http.StatusSeeOther))
	return mux
}

// Start serves NewHandler(gatherer) on listenAddr in the background. The
// returned server is stopped with Close.
func Start(listenAddr string, gatherer prometheus.Gatherer, log *logger.Logger) *http.Server {
	server := &http.Server{
		Addr:    listenAddr,
		Handler: NewHandler(gatherer),
	}
	spawn := panics.GoroutineWrapperFunc(log)
	spawn(func() {
		log.Infof("Metrics server listening on %s", listenAddr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server on %s stopped: %s", listenAddr, err)
		}
	})
	return server
}
