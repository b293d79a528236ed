package main

import (
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rumaak/bank-app/internal/config"
	"github.com/rumaak/bank-app/internal/notify"
	"github.com/rumaak/bank-app/internal/scheduler"
	"github.com/rumaak/bank-app/internal/server"
	"github.com/rumaak/bank-app/internal/service"
	"github.com/rumaak/bank-app/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Unable to open database: %v", err)
	}

	var notifier notify.Notifier = notify.Discard{}
	if cfg.SMTPAddr != "" {
		notifier = notify.NewMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	}

	svc := service.New(st, notifier)

	// Admin surface: health check and prometheus metrics.
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	go func() {
		if err := http.ListenAndServe(cfg.AdminAddr, r); err != nil {
			log.Printf("admin server: %v", err)
		}
	}()

	var schedulerDown atomic.Bool
	sched := scheduler.New(st, svc, &schedulerDown)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run()
	}()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatalf("Unable to listen on %s: %v", cfg.ListenAddr, err)
	}

	log.Printf("Bank server listening on %s", cfg.ListenAddr)
	err = server.New(svc, &schedulerDown).Serve(ln)
	log.Printf("Server stopped: %v", err)

	// Fatal path: stop accepting, wait for the scheduler, exit entirely.
	ln.Close()
	sched.Stop()
	log.Println("Waiting for scheduler to stop")
	wg.Wait()
	os.Exit(1)
}
