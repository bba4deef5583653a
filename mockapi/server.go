// Package mockapi implements an in-process imitation of the market-data
// platform API. The harness starts it when api.use_mock is set, so the full
// suite can run offline and deterministically; the harness's own tests use it
// as a known-good endpoint.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/eventsource"
	"go.uber.org/zap"

	"github.com/cryptoqa/market-test-harness/marketdata"
)

const (
	apiKeyHeader   = "X-CMC_PRO_API_KEY"
	maxListingSize = 5000
	streamChannel  = "prices"
)

// Options configures the mock service.
type Options struct {
	// APIKey, when non-empty, is required on every request.
	APIKey string

	// Seed selects the generated data set; runs with the same seed see the
	// same listings.
	Seed int64

	// TickInterval is the publish interval of the price stream.
	TickInterval time.Duration

	// StreamSymbols are the symbols published on the price stream.
	StreamSymbols []string
}

// Service is the mock platform. Create with New, then either mount Handler
// into a server of your choice or call Start to listen on a port.
type Service struct {
	opts   Options
	logger *zap.Logger
	router *mux.Router
	sse    *eventsource.Server

	mu      sync.Mutex
	gen     *marketdata.Generator
	eventID int

	closeOnce sync.Once
	stopCh    chan struct{}
	server    *http.Server
}

func New(opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if len(opts.StreamSymbols) == 0 {
		opts.StreamSymbols = []string{"BTC", "ETH"}
	}

	sse := eventsource.NewServer()
	sse.ReplayAll = false

	s := &Service{
		opts:   opts,
		logger: logger.Named("mockapi"),
		sse:    sse,
		gen:    marketdata.NewGenerator(opts.Seed),
		stopCh: make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/v1/cryptocurrency/listings/latest", s.requireKey(s.handleListings)).Methods(http.MethodGet)
	r.HandleFunc("/v2/cryptocurrency/info", s.requireKey(s.handleInfo)).Methods(http.MethodGet)
	r.HandleFunc("/v1/exchange/listings/latest", s.requireKey(s.handleExchangeListings)).Methods(http.MethodGet)
	r.HandleFunc("/v1/global-metrics/quotes/latest", s.requireKey(s.handleGlobalMetrics)).Methods(http.MethodGet)
	r.Handle("/v1/stream/prices", sse.Handler(streamChannel)).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router = r

	go s.publishTicks()

	return s
}

// Handler returns the service's HTTP handler for mounting into a test server.
func (s *Service) Handler() http.Handler { return s.router }

// Start listens on the given port and blocks until the listener is
// confirmed to be accepting requests.
func (s *Service) Start(port int) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.server = server
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("mock service listener failed", zap.Error(err))
		}
	}()

	// Wait till the server is definitely listening for requests before any suite runs
	deadline := time.NewTimer(10 * time.Second)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	for {
		select {
		case <-deadline.C:
			return fmt.Errorf("could not detect mock service listener at %s", server.Addr)
		case <-ticker.C:
			resp, err := http.Head(fmt.Sprintf("http://localhost:%d/", port))
			if err == nil {
				_ = resp.Body.Close()
				s.logger.Info("mock market-data service listening", zap.Int("port", port))
				return nil
			}
		}
	}
}

// Close stops the price stream and, if Start was used, the listener.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		s.sse.Close()
		if s.server != nil {
			_ = s.server.Close()
		}
	})
}

func (s *Service) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.APIKey != "" && r.Header.Get(apiKeyHeader) != s.opts.APIKey {
			s.writeError(w, http.StatusUnauthorized, "API key missing or invalid")
			return
		}
		next(w, r)
	}
}

func (s *Service) handleListings(w http.ResponseWriter, r *http.Request) {
	limit, err := positiveIntParam(r, "limit", 100)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit > maxListingSize {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("limit must be at most %d", maxListingSize))
		return
	}
	convert := strings.Split(queryDefault(r, "convert", "USD"), ",")

	s.mu.Lock()
	data := s.gen.Cryptocurrencies(limit, convert...)
	s.mu.Unlock()

	s.writeData(w, data)
}

func (s *Service) handleInfo(w http.ResponseWriter, r *http.Request) {
	symbolParam := r.URL.Query().Get("symbol")
	if symbolParam == "" {
		s.writeError(w, http.StatusBadRequest, `"symbol" is required`)
		return
	}
	symbols := strings.Split(strings.ToUpper(symbolParam), ",")

	s.mu.Lock()
	data := s.gen.Metadata(symbols...)
	s.mu.Unlock()

	s.writeData(w, data)
}

func (s *Service) handleExchangeListings(w http.ResponseWriter, r *http.Request) {
	limit, err := positiveIntParam(r, "limit", 100)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	data := s.gen.Exchanges(limit)
	s.mu.Unlock()

	s.writeData(w, data)
}

func (s *Service) handleGlobalMetrics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	data := s.gen.GlobalMetrics()
	s.mu.Unlock()

	s.writeData(w, data)
}

func (s *Service) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK) // readiness probe from Start
		return
	}
	s.writeError(w, http.StatusNotFound, "endpoint not found")
}

func (s *Service) publishTicks() {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			for _, symbol := range s.opts.StreamSymbols {
				s.mu.Lock()
				tick := s.gen.Tick(symbol)
				s.eventID++
				ev := priceEvent{id: s.eventID, tick: tick}
				s.mu.Unlock()
				s.sse.Publish([]string{streamChannel}, ev)
			}
		}
	}
}

type priceEvent struct {
	id   int
	tick marketdata.PriceTick
}

func (p priceEvent) Id() string    { return strconv.Itoa(p.id) }
func (p priceEvent) Event() string { return "price" }

func (p priceEvent) Data() string {
	data, _ := json.Marshal(p.tick)
	return string(data)
}

type envelope struct {
	Status marketdata.Status `json:"status"`
	Data   interface{}       `json:"data,omitempty"`
}

func (s *Service) writeData(w http.ResponseWriter, data interface{}) {
	s.writeJSON(w, http.StatusOK, envelope{
		Status: marketdata.Status{
			Timestamp:   time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
			CreditCount: 1,
		},
		Data: data,
	})
}

func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, envelope{
		Status: marketdata.Status{
			Timestamp:    time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
			ErrorCode:    status,
			ErrorMessage: &message,
		},
	})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func positiveIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q must be a positive integer", name)
	}
	return n, nil
}

func queryDefault(r *http.Request, name, defaultValue string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return defaultValue
}
