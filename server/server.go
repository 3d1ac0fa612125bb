// Package server exposes the simulator over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dmsched/sched"
	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/taskio"
	"github.com/sarchlab/dmsched/timing"
)

// DefaultMaxBodyBytes caps the size of a request body.
const DefaultMaxBodyBytes = 1 << 20

// Server answers simulation requests.
type Server struct {
	simulator       *sched.Simulator
	log             logrus.FieldLogger
	profileDuration time.Duration
	maxBodyBytes    int64
}

// New creates a server that runs requests on simulator.
func New(simulator *sched.Simulator, logger logrus.FieldLogger) *Server {
	return &Server{
		simulator:       simulator,
		log:             logger,
		profileDuration: time.Second,
		maxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// WithProfileDuration sets how long /api/profile samples the CPU.
func (s *Server) WithProfileDuration(d time.Duration) *Server {
	s.profileDuration = d
	return s
}

// WithMaxBodyBytes sets the largest request body accepted.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	s.maxBodyBytes = n
	return s
}

// Router returns the request router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.logRequests)
	r.HandleFunc("/api/simulate", s.simulate).Methods(http.MethodPost)
	r.HandleFunc("/api/hyperperiod", s.hyperperiod).Methods(http.MethodPost)
	r.HandleFunc("/api/resource", s.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", s.collectProfile).Methods(http.MethodGet)

	return r
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}

	s.log.WithField("addr", listener.Addr().String()).Info("serving")

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("shutdown")
		}
	}()

	err = srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

// readTasks decodes the task list in the request body. It answers the
// request itself when the body is too large or invalid.
func (s *Server) readTasks(w http.ResponseWriter, r *http.Request) (task.Set, bool) {
	set, err := taskio.ReadJSON(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err == nil {
		return set, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(w, http.StatusRequestEntityTooLarge, err)
	} else {
		s.writeError(w, http.StatusBadRequest, err)
	}

	return nil, false
}

type simulateRsp struct {
	sched.Result

	Tasks       int     `json:"tasks"`
	Utilization float64 `json:"utilization"`
}

func (s *Server) simulate(w http.ResponseWriter, r *http.Request) {
	set, ok := s.readTasks(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, simulateRsp{
		Result:      s.simulator.Simulate(set),
		Tasks:       len(set),
		Utilization: set.Utilization(),
	})
}

type hyperperiodRsp struct {
	Hyperperiod   timing.VTime `json:"hyperperiod"`
	WithinCeiling bool         `json:"within_ceiling"`
}

func (s *Server) hyperperiod(w http.ResponseWriter, r *http.Request) {
	set, ok := s.readTasks(w, r)
	if !ok {
		return
	}

	h, within := sched.BoundedHyperperiod(set, s.simulator.HyperperiodCeiling())
	s.writeJSON(w, hyperperiodRsp{Hyperperiod: h, WithinCeiling: within})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

func (s *Server) collectProfile(w http.ResponseWriter, r *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		s.writeError(w, http.StatusConflict, err)
		return
	}

	select {
	case <-time.After(s.profileDuration):
	case <-r.Context().Done():
	}

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, prof)
}

type errorRsp struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.WithError(err).WithField("status", status).Info("request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if encErr := json.NewEncoder(w).Encode(errorRsp{Error: err.Error()}); encErr != nil {
		s.log.WithError(encErr).Warn("write response")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		s.log.WithError(err).Warn("write response")
	}
}
