// Package server отдает /health, /metrics и историю задач из журнала.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"browserAgent/internal/database"
	"browserAgent/internal/logger"

	"go.uber.org/zap"
)

// Journal - чтение истории задач.
type Journal interface {
	ListTasks(ctx context.Context, limit, offset int) ([]database.Task, error)
	GetTaskByID(ctx context.Context, id uint) (*database.Task, error)
	ListSteps(ctx context.Context, taskID uint) ([]database.AgentStep, error)
}

type Server struct {
	addr    string
	metrics http.Handler
	journal Journal
	log     *logger.Zap
}

func New(addr string, metrics http.Handler, log *logger.Zap) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{addr: addr, metrics: metrics, log: log}
}

// WithJournal включает маршруты /api/tasks.
func (s *Server) WithJournal(j Journal) *Server {
	s.journal = j
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	if s.journal != nil {
		mux.HandleFunc("GET /api/tasks", s.listTasks)
		mux.HandleFunc("GET /api/tasks/{id}", s.getTask)
		mux.HandleFunc("GET /api/tasks/{id}/steps", s.listSteps)
	}
	return s.logRequests(mux)
}

// Run обслуживает запросы до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.log.Info("Сервер запущен", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("Ошибка остановки сервера", zap.Error(err))
		}
		<-errCh
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("HTTP", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	tasks, err := s.journal.ListTasks(r.Context(), limit, 0)
	if err != nil {
		s.log.Error("Ошибка чтения журнала", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db error"})
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, err := s.journal.GetTaskByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) listSteps(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	steps, err := s.journal.ListSteps(r.Context(), id)
	if err != nil {
		s.log.Error("Ошибка чтения шагов", zap.Uint("task_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db error"})
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

func taskID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id64, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad id"})
		return 0, false
	}
	return uint(id64), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
