package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"sponsornet/crypto"
)

var rpcEndpoint = defaultRPCEndpoint()
var rpcAuthToken = os.Getenv("SPN_RPC_TOKEN")

func main() {
	args := os.Args[1:]
	var err error
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	switch args[0] {
	case "generate-key":
		generateKey()
	case "balance":
		if len(args) < 2 {
			fmt.Println("Error: Please provide an address.")
			printUsage()
			return
		}
		getBalance(args[1])
	case "mint":
		if len(args) < 3 {
			fmt.Println("Error: Please provide an address and an amount.")
			printUsage()
			return
		}
		mint(args[1], args[2])
	case "tick":
		currentTick()
	case "escrow":
		os.Exit(runEscrowCommand(args[1:], os.Stdout, os.Stderr))
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", args[0])
		printUsage()
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func generateKey() {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Printf("Error generating key: %v\n", err)
		return
	}
	addr := key.PubKey().Address().String()
	fileName := addr + ".key"
	if err := os.WriteFile(fileName, []byte(hex.EncodeToString(key.Bytes())), 0o600); err != nil {
		fmt.Printf("Error saving key: %v\n", err)
		return
	}
	fmt.Printf("Generated new key.\nAddress: %s\nKey file: %s\n", addr, fileName)
}

func getBalance(address string) {
	result, rpcErr, err := callRPC("ledger_getBalance", map[string]interface{}{"address": address}, false)
	if err != nil {
		fmt.Printf("Error calling node: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("RPC error: %s\n", rpcErr.Message)
		return
	}
	var payload struct {
		Address string `json:"address"`
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		return
	}
	fmt.Printf("Balance of %s: %s\n", payload.Address, payload.Balance)
}

func mint(address, amount string) {
	result, rpcErr, err := callRPC("ledger_mint", map[string]interface{}{
		"address": address,
		"amount":  amount,
	}, true)
	if err != nil {
		fmt.Printf("Error calling node: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("RPC error: %s\n", rpcErr.Message)
		return
	}
	fmt.Printf("Mint result: %s\n", string(result))
}

func currentTick() {
	result, rpcErr, err := callRPC("tick_current", nil, false)
	if err != nil {
		fmt.Printf("Error calling node: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("RPC error: %s\n", rpcErr.Message)
		return
	}
	fmt.Printf("Current tick: %s\n", string(result))
}

func callRPC(method string, params interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	} else {
		payload["params"] = []interface{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	resp, err := doRPCRequest(body, requireAuth)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode RPC response: %w", err)
	}
	return rpcResp.Result, rpcResp.Error, nil
}

func doRPCRequest(body []byte, requireAuth bool) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if requireAuth {
		token := strings.TrimSpace(rpcAuthToken)
		if token == "" {
			return nil, fmt.Errorf("SPN_RPC_TOKEN is required for this command")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 15 * time.Second}
	return client.Do(req)
}

func printUsage() {
	fmt.Println(`Usage: spn-cli [--rpc <url>] <command> [arguments]

Commands:
  generate-key                      Generate a new key and save it to <address>.key
  balance <address>                 Show the ledger balance of an address
  mint <address> <amount>           Credit an address (dev networks only, requires auth)
  tick                              Show the node's current tick
  escrow <subcommand> [flags]       Manage sponsorship escrow deals (see 'escrow help')

Environment:
  RPC_URL        RPC endpoint (default http://localhost:8080)
  SPN_RPC_TOKEN  Bearer token for mutating commands`)
}
