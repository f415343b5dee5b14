// Package server exposes the local classifier over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/listening-eye/classifier"
	"github.com/maastricht-university/listening-eye/clients"
	"github.com/maastricht-university/listening-eye/metrics"
)

// NewRouter wires the classifier routes:
//
//	POST /classify  {"text": ...} -> {"emotion","intensity","confidences"}
//	GET  /ping      pong
//	GET  /health    {"status":"ok"}
//	GET  /metrics   Prometheus exposition
func NewRouter(cls classifier.Classifier, log *logrus.Entry) http.Handler {
	h := &handler{cls: cls, log: log}

	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(h.observe)

	r.HandleFunc("/classify", h.classify).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

type handler struct {
	cls classifier.Classifier
	log *logrus.Entry
}

func (h *handler) classify(w http.ResponseWriter, r *http.Request) {
	var req clients.ClassifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	res, err := h.cls.Classify(r.Context(), text)
	switch {
	case errors.Is(err, classifier.ErrNoText):
		writeError(w, http.StatusBadRequest, "No text to classify")
		return
	case err != nil:
		entry(r, h.log).WithError(err).Error("classification failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry(r, h.log).WithFields(logrus.Fields{
		"emotion":   res.Emotion,
		"intensity": res.Intensity,
	}).Info("classified")
	intensity := res.Intensity
	writeJSON(w, http.StatusOK, clients.ClassifyResp{
		Emotion:     res.Emotion,
		Intensity:   &intensity,
		Confidences: res.Confidences.Map(),
	})
}

type ctxKey struct{}

// requestID returns the id assigned by observe.
func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func entry(r *http.Request, log *logrus.Entry) *logrus.Entry {
	return log.WithField("request_id", requestID(r))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// observe tags each request with an id and records it in the request metrics.
func (h *handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		metrics.ServerRequests.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		metrics.ServerRequestDuration.WithLabelValues(r.Method, endpoint).Observe(elapsed.Seconds())
		h.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"elapsed":    elapsed,
		}).Debug("request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler, log *logrus.Entry) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
