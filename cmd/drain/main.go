// Команда drain вызывает ручной drain outbox-очереди работающего
// сервиса через его HTTP API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

func main() {
	var (
		baseURL string
		apiKey  string
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the running service")
	flag.StringVar(&apiKey, "api-key", "", "X-API-Key value (fallback: LOMS_API_KEY)")
	flag.Parse()

	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("LOMS_API_KEY"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/api/v1/outbox/drain", nil)
	if err != nil {
		fail("build request: %v", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fail("call drain endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail("drain endpoint returned status %d", resp.StatusCode)
	}

	var result struct {
		Processed int `json:"processed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fail("decode response: %v", err)
	}

	fmt.Printf("drain ok: processed=%d\n", result.Processed)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
