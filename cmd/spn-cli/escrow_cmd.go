package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
)

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var escrowRPCCall = callRPC

func runEscrowCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, escrowUsage())
		return 1
	}

	switch args[0] {
	case "set-oracle":
		return runEscrowSetOracle(args[1:], stdout, stderr)
	case "deposit":
		return runEscrowDeposit(args[1:], stdout, stderr)
	case "submit-score":
		return runEscrowSubmitScore(args[1:], stdout, stderr)
	case "release":
		return runEscrowRelease(args[1:], stdout, stderr)
	case "refund":
		return runEscrowRefund(args[1:], stdout, stderr)
	case "get":
		return runEscrowGet(args[1:], stdout, stderr)
	case "events":
		return runEscrowEvents(args[1:], stdout, stderr)
	case "help":
		fmt.Fprintln(stdout, escrowUsage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown escrow subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, escrowUsage())
		return 1
	}
}

func runEscrowSetOracle(args []string, stdout, stderr io.Writer) int {
	fs := newEscrowFlagSet("escrow set-oracle", stderr)
	var id, oracle string
	fs.StringVar(&id, "id", "", "deal id as 0x-prefixed 32-byte hex")
	fs.StringVar(&oracle, "oracle", "", "oracle bech32 address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := validateDealID(id); err != nil {
		return printEscrowError(stderr, err.Error())
	}
	if strings.TrimSpace(oracle) == "" {
		return printEscrowError(stderr, "--oracle is required")
	}
	return submitEscrowCall(stdout, stderr, "escrow_setOracle", map[string]interface{}{
		"id":     strings.TrimSpace(id),
		"oracle": strings.TrimSpace(oracle),
	})
}

func runEscrowDeposit(args []string, stdout, stderr io.Writer) int {
	fs := newEscrowFlagSet("escrow deposit", stderr)
	var (
		id            string
		from          string
		influencer    string
		amount        string
		retentionDays uint
	)
	fs.StringVar(&id, "id", "", "deal id as 0x-prefixed 32-byte hex")
	fs.StringVar(&from, "from", "", "brand bech32 address")
	fs.StringVar(&influencer, "influencer", "", "influencer bech32 address")
	fs.StringVar(&amount, "amount", "", "deposit amount in base units")
	fs.UintVar(&retentionDays, "retention-days", 0, "retention period in days")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := validateDealID(id); err != nil {
		return printEscrowError(stderr, err.Error())
	}
	if strings.TrimSpace(from) == "" {
		return printEscrowError(stderr, "--from is required")
	}
	if strings.TrimSpace(influencer) == "" {
		return printEscrowError(stderr, "--influencer is required")
	}
	if strings.TrimSpace(amount) == "" {
		return printEscrowError(stderr, "--amount is required")
	}
	return submitEscrowCall(stdout, stderr, "escrow_deposit", map[string]interface{}{
		"id":            strings.TrimSpace(id),
		"from":          strings.TrimSpace(from),
		"influencer":    strings.TrimSpace(influencer),
		"amount":        strings.TrimSpace(amount),
		"retentionDays": retentionDays,
	})
}

func runEscrowSubmitScore(args []string, stdout, stderr io.Writer) int {
	fs := newEscrowFlagSet("escrow submit-score", stderr)
	var (
		id     string
		caller string
		score  uint
	)
	fs.StringVar(&id, "id", "", "deal id as 0x-prefixed 32-byte hex")
	fs.StringVar(&caller, "caller", "", "oracle bech32 address")
	fs.UintVar(&score, "score", 0, "verification score (0-100)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := validateDealID(id); err != nil {
		return printEscrowError(stderr, err.Error())
	}
	if strings.TrimSpace(caller) == "" {
		return printEscrowError(stderr, "--caller is required")
	}
	if score > 100 {
		return printEscrowError(stderr, "--score must be between 0 and 100")
	}
	return submitEscrowCall(stdout, stderr, "escrow_submitScore", map[string]interface{}{
		"id":     strings.TrimSpace(id),
		"caller": strings.TrimSpace(caller),
		"score":  score,
	})
}

func runEscrowRelease(args []string, stdout, stderr io.Writer) int {
	return runEscrowResolution(args, stdout, stderr, "escrow release", "escrow_release")
}

func runEscrowRefund(args []string, stdout, stderr io.Writer) int {
	return runEscrowResolution(args, stdout, stderr, "escrow refund", "escrow_refund")
}

func runEscrowResolution(args []string, stdout, stderr io.Writer, name, method string) int {
	fs := newEscrowFlagSet(name, stderr)
	var id string
	fs.StringVar(&id, "id", "", "deal id as 0x-prefixed 32-byte hex")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := validateDealID(id); err != nil {
		return printEscrowError(stderr, err.Error())
	}
	return submitEscrowCall(stdout, stderr, method, map[string]interface{}{
		"id": strings.TrimSpace(id),
	})
}

func runEscrowGet(args []string, stdout, stderr io.Writer) int {
	fs := newEscrowFlagSet("escrow get", stderr)
	var id string
	fs.StringVar(&id, "id", "", "deal id as 0x-prefixed 32-byte hex")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := validateDealID(id); err != nil {
		return printEscrowError(stderr, err.Error())
	}
	result, rpcErr, err := escrowRPCCall("escrow_get", map[string]interface{}{
		"id": strings.TrimSpace(id),
	}, false)
	if err != nil {
		return printEscrowError(stderr, err.Error())
	}
	if rpcErr != nil {
		return printEscrowError(stderr, rpcErr.Message)
	}
	return printEscrowJSON(stdout, stderr, result)
}

func runEscrowEvents(args []string, stdout, stderr io.Writer) int {
	fs := newEscrowFlagSet("escrow events", stderr)
	var prefix string
	var limit uint
	fs.StringVar(&prefix, "prefix", "", "event type prefix filter")
	fs.UintVar(&limit, "limit", 0, "maximum number of events to return")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	params := map[string]interface{}{}
	if strings.TrimSpace(prefix) != "" {
		params["prefix"] = strings.TrimSpace(prefix)
	}
	if limit > 0 {
		params["limit"] = limit
	}
	result, rpcErr, err := escrowRPCCall("escrow_listEvents", params, false)
	if err != nil {
		return printEscrowError(stderr, err.Error())
	}
	if rpcErr != nil {
		return printEscrowError(stderr, rpcErr.Message)
	}
	return printEscrowJSON(stdout, stderr, result)
}

func submitEscrowCall(stdout, stderr io.Writer, method string, params map[string]interface{}) int {
	result, rpcErr, err := escrowRPCCall(method, params, true)
	if err != nil {
		return printEscrowError(stderr, err.Error())
	}
	if rpcErr != nil {
		return printEscrowError(stderr, rpcErr.Message)
	}
	fmt.Fprintf(stdout, "%s: %s\n", method, string(result))
	return 0
}

func newEscrowFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func validateDealID(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("--id is required")
	}
	cleaned := trimmed
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		cleaned = trimmed[2:]
	} else {
		return fmt.Errorf("--id must be a 0x-prefixed 32-byte hex string")
	}
	if len(cleaned) != 64 {
		return fmt.Errorf("--id must be a 0x-prefixed 32-byte hex string")
	}
	if !isHex(cleaned) {
		return fmt.Errorf("--id must contain only hexadecimal characters")
	}
	return nil
}

func isHex(value string) bool {
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func printEscrowError(stderr io.Writer, message string) int {
	fmt.Fprintf(stderr, "Error: %s\n", message)
	return 1
}

func printEscrowJSON(stdout, stderr io.Writer, raw json.RawMessage) int {
	var buf interface{}
	if err := json.Unmarshal(raw, &buf); err != nil {
		return printEscrowError(stderr, fmt.Sprintf("decode result: %v", err))
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return printEscrowError(stderr, fmt.Sprintf("encode result: %v", err))
	}
	fmt.Fprintln(stdout, string(pretty))
	return 0
}

func escrowUsage() string {
	return `Usage: spn-cli escrow <subcommand> [flags]

Subcommands:
  set-oracle    --id <hex> --oracle <bech32>
  deposit       --id <hex> --from <bech32> --influencer <bech32> --amount <n> --retention-days <d>
  submit-score  --id <hex> --caller <bech32> --score <0-100>
  release       --id <hex>
  refund        --id <hex>
  get           --id <hex>
  events        [--prefix <p>] [--limit <n>]`
}
