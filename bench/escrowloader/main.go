package main

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"sponsornet/crypto"
)

const (
	defaultDuration = 2 * time.Minute
	defaultRate     = 60 // full deal lifecycles per minute
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      int             `json:"id"`
}

type latencyRecorder struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (lr *latencyRecorder) record(d time.Duration) {
	lr.mu.Lock()
	lr.latencies = append(lr.latencies, d)
	lr.mu.Unlock()
}

func (lr *latencyRecorder) snapshot() []time.Duration {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return append([]time.Duration(nil), lr.latencies...)
}

type loader struct {
	client *http.Client
	rpcURL *url.URL
	token  string
}

func main() {
	var (
		rpcURL       string
		rate         int
		durationFlag time.Duration
		mintAmount   string
	)
	flag.StringVar(&rpcURL, "rpc", "http://127.0.0.1:8080", "JSON-RPC endpoint of the arbiter node")
	flag.IntVar(&rate, "rate", defaultRate, "target rate of deal lifecycles per minute")
	flag.DurationVar(&durationFlag, "duration", defaultDuration, "load duration")
	flag.StringVar(&mintAmount, "amount", "100000", "deposit amount per generated deal in base units")
	flag.Parse()

	token := strings.TrimSpace(os.Getenv("SPN_RPC_TOKEN"))
	if token == "" {
		log.Fatal("missing SPN_RPC_TOKEN for RPC authentication")
	}
	parsed, err := url.Parse(rpcURL)
	if err != nil {
		log.Fatalf("parse rpc url: %v", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	if rate <= 0 {
		log.Fatalf("rate must be positive, got %d", rate)
	}
	if durationFlag <= 0 {
		durationFlag = defaultDuration
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ld := &loader{
		client: &http.Client{Timeout: 10 * time.Second},
		rpcURL: parsed,
		token:  token,
	}
	recorder := &latencyRecorder{}

	oracle, err := crypto.GeneratePrivateKey()
	if err != nil {
		log.Fatalf("generate oracle key: %v", err)
	}
	oracleAddr := oracle.PubKey().Address().String()

	interval := time.Minute / time.Duration(rate)
	if interval <= 0 {
		interval = time.Millisecond
	}
	deadline := time.Now().Add(durationFlag)
	var started, completed int
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			log.Printf("context cancelled: %v", ctx.Err())
			report(recorder.snapshot(), started, completed)
			return
		default:
		}
		started++
		begin := time.Now()
		if err := ld.runLifecycle(ctx, oracleAddr, mintAmount); err != nil {
			log.Printf("lifecycle %d failed: %v", started, err)
		} else {
			recorder.record(time.Since(begin))
			completed++
		}
		time.Sleep(interval)
	}

	report(recorder.snapshot(), started, completed)
}

// runLifecycle drives one deal from funding through an immediate refund. The
// refund path resolves without waiting on the retention window, so a single
// pass exercises every mutating method the node exposes.
func (ld *loader) runLifecycle(ctx context.Context, oracleAddr, amount string) error {
	dealID, err := randomDealID()
	if err != nil {
		return fmt.Errorf("generate deal id: %w", err)
	}
	brand, err := randomAddress()
	if err != nil {
		return fmt.Errorf("generate brand: %w", err)
	}
	influencer, err := randomAddress()
	if err != nil {
		return fmt.Errorf("generate influencer: %w", err)
	}

	steps := []struct {
		method string
		params map[string]interface{}
	}{
		{"ledger_mint", map[string]interface{}{"address": brand, "amount": amount}},
		{"escrow_setOracle", map[string]interface{}{"id": dealID, "oracle": oracleAddr}},
		{"escrow_deposit", map[string]interface{}{
			"id": dealID, "from": brand, "influencer": influencer,
			"amount": amount, "retentionDays": 1,
		}},
		{"escrow_submitScore", map[string]interface{}{"id": dealID, "caller": oracleAddr, "score": 40}},
		{"escrow_refund", map[string]interface{}{"id": dealID}},
	}
	for _, step := range steps {
		if err := ld.call(ctx, step.method, step.params); err != nil {
			return fmt.Errorf("%s: %w", step.method, err)
		}
	}
	return nil
}

func (ld *loader) call(ctx context.Context, method string, params map[string]interface{}) error {
	payload := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  []interface{}{params},
		ID:      1,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ld.rpcURL.String(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ld.token)

	resp, err := ld.client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("rpc error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	return nil
}

func randomDealID() (string, error) {
	var raw [32]byte
	if _, err := crand.Read(raw[:]); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(raw[:]), nil
}

func randomAddress() (string, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return "", err
	}
	return key.PubKey().Address().String(), nil
}

func report(latencies []time.Duration, started, completed int) {
	var max time.Duration
	var total time.Duration
	for _, latency := range latencies {
		if latency > max {
			max = latency
		}
		total += latency
	}
	avg := time.Duration(0)
	if len(latencies) > 0 {
		avg = time.Duration(int64(total) / int64(len(latencies)))
	}
	log.Printf("Escrow loader started %d lifecycles, completed %d", started, completed)
	log.Printf("Lifecycle latency avg=%s max=%s", avg, max)
}
