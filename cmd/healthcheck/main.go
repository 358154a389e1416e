package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/ericfisherdev/qabox/internal/config"
)

func main() {
	os.Exit(check())
}

// check queries the backend's /health endpoint with the same backend URL the
// client uses. Exit status 0 means healthy.
func check() int {
	cfg, err := config.Load()
	if err != nil {
		return 1
	}
	return checkURL(cfg.BackendURL + "/health")
}

func checkURL(target string) int {
	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	return 0
}
