package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"voice-qa-go/internal/actionable"
	"voice-qa-go/internal/aggregator"
	"voice-qa-go/internal/call"
	"voice-qa-go/internal/config"
	"voice-qa-go/internal/dataset"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/pipeline"
	"voice-qa-go/internal/scheduler"
)

type batchRequest struct {
	Items []struct {
		ID       string            `json:"id"`
		AudioURL string            `json:"audio_url"`
		Metadata map[string]string `json:"metadata,omitempty"`
	} `json:"items"`
	RosterPath  string `json:"roster_path,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}

type batchResponse struct {
	Outcomes   call.BatchResult      `json:"outcomes"`
	Summary    aggregator.Summary    `json:"summary"`
	ActionCard actionable.ActionCard `json:"action_card"`
	DurationMs int64                 `json:"duration_ms"`
}

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "voice-qa-go").Info("starting service")

	cfg, err := config.FromEnv()
	if err != nil {
		log.WithError(err).Fatal("configuration invalid")
	}
	set, err := pipeline.LoadCriteria(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to load criteria")
	}
	log.WithField("criteria_set", set.Name).Info("criteria loaded")

	exec := pipeline.NewExecutor(cfg, set, log.Entry)
	sched := &scheduler.Scheduler{Exec: exec, Log: log.Entry}

	criterionCaps := set.CriterionCaps()

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	// single recording
	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "process")
		reqLog.Info("process request received")

		audioURL := r.URL.Query().Get("audio_url")
		if audioURL == "" {
			reqLog.Warn("missing audio_url")
			http.Error(w, "missing audio_url", http.StatusBadRequest)
			return
		}
		id := r.URL.Query().Get("call_id")
		if id == "" {
			id = audioURL
		}

		start := time.Now()
		items := []*call.Item{call.NewItem(id, audioURL)}
		outcomes := sched.Run(r.Context(), items, 1, nil)
		reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("pipeline finished")

		w.Header().Set("Content-Type", "application/json")
		if outcomes[0].FinalState == call.StatusFailed {
			w.WriteHeader(http.StatusInternalServerError)
		}
		writeJSON(w, reqLog, outcomes[0])
	})

	// batch of recordings, inline list or roster file
	mux.HandleFunc("/batch", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "batch")
		reqLog.Info("batch request received")

		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			reqLog.WithError(err).Warn("bad request body")
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}

		var items []*call.Item
		if req.RosterPath != "" {
			loaded, err := dataset.Load(req.RosterPath)
			if err != nil {
				reqLog.WithError(err).Error("roster load failed")
				http.Error(w, fmt.Sprintf("roster load failed: %v", err), http.StatusBadRequest)
				return
			}
			items = loaded
		} else {
			for _, in := range req.Items {
				id := in.ID
				if id == "" {
					id = uuid.NewString()
				}
				item := call.NewItem(id, in.AudioURL)
				item.Metadata = in.Metadata
				items = append(items, item)
			}
		}

		concurrency := req.Concurrency
		if concurrency < 1 {
			concurrency = cfg.Concurrency
		}
		reqLog = reqLog.WithField("total", len(items)).WithField("concurrency", concurrency)

		start := time.Now()
		outcomes := sched.Run(r.Context(), items, concurrency, func(p scheduler.Progress) {
			reqLog.WithField("call_id", p.ItemID).
				WithField("status", string(p.Status)).
				WithField("completed", p.Completed).
				Debug("progress")
		})

		summary := aggregator.Aggregate(outcomes)
		resp := batchResponse{
			Outcomes:   outcomes,
			Summary:    summary,
			ActionCard: actionable.Generate(summary, criterionCaps),
			DurationMs: time.Since(start).Milliseconds(),
		}
		reqLog.WithField("duration_ms", resp.DurationMs).Info("batch finished")

		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, reqLog, resp)
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func writeJSON(w http.ResponseWriter, log *logrus.Entry, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithField("error", err.Error()).Error("failed to write response")
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
