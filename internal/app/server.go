package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"tush00nka/bbbab_files/internal/handler"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type ServerOptions struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	opts    ServerOptions
	log     *zap.Logger
}

func NewServer(
	opts ServerOptions,
	fileHandler *handler.FileHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
	log *zap.Logger,
) *Server {
	router := mux.NewRouter()

	router.HandleFunc("/ping", handler.Ping).Methods("GET")
	if healthHandler != nil {
		router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	}
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods("GET")
	}

	// Настройка Swagger, doc.json отдаётся из зарегистрированного пакета docs
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Важно: относительный путь
	))

	// Routes
	if fileHandler != nil {
		fileHandler.RegisterRoutes(router)
	}

	s := &Server{router: router, opts: opts, log: log.Named("http")}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zapRecoveryLogger{log: s.log}),
		handlers.PrintRecoveryStack(false),
	)

	s.handler = recovery(s.requestLogging(cors(router)))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// requestLogging tags every request with an ID and logs it when done.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		m := httpsnoop.CaptureMetrics(next, w, r)

		s.log.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Int64("bytes", m.Written),
			zap.Duration("took", m.Duration),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then drains
// in-flight requests for at most ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Handler:      s.handler,
		Addr:         ":" + s.opts.Port,
		WriteTimeout: s.opts.WriteTimeout,
		ReadTimeout:  s.opts.ReadTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.log.Info("server starting", zap.String("port", s.opts.Port))
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

type zapRecoveryLogger struct {
	log *zap.Logger
}

func (l zapRecoveryLogger) Println(v ...interface{}) {
	l.log.Error("panic recovered", zap.Any("panic", v))
}
