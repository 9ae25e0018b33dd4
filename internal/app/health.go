package app

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type healthInfo struct {
	Status     string `json:"status"`
	DB         string `json:"db"`
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	Time       string `json:"time"`
}

func startHealthServer(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		gor, alloc, _, sys := runtimeStats()

		dbStatus := "ok"
		status := "ok"
		if sqlDB, err := store.DB.DB(); err != nil {
			dbStatus = err.Error()
			status = "degraded"
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = err.Error()
			status = "degraded"
		}

		info := healthInfo{
			Status:     status,
			DB:         dbStatus,
			Uptime:     formatDuration(time.Since(appStartedAt)),
			Goroutines: gor,
			Alloc:      formatBytes(alloc),
			Sys:        formatBytes(sys),
			Time:       time.Now().Format(time.RFC3339),
		}
		w.Header().Set("Content-Type", "application/json")
		if status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(info)
	})
	log.Printf("✅ Health endpoint: %s/health", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("⚠️ Health server stopped: %v", err)
	}
}
