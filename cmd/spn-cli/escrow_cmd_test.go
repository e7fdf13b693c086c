package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const (
	cliTestDealID = "0xabababababababababababababababababababababababababababababababab"
	cliTestOracle = "spn1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqtest"
)

type recordedCall struct {
	method string
	params map[string]interface{}
	auth   bool
}

func stubEscrowRPC(t *testing.T, result json.RawMessage, rpcErr *rpcError, err error) *recordedCall {
	t.Helper()
	recorded := &recordedCall{}
	original := escrowRPCCall
	escrowRPCCall = func(method string, params interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
		recorded.method = method
		recorded.params, _ = params.(map[string]interface{})
		recorded.auth = requireAuth
		return result, rpcErr, err
	}
	t.Cleanup(func() { escrowRPCCall = original })
	return recorded
}

func TestEscrowSetOracleSubmitsParams(t *testing.T) {
	recorded := stubEscrowRPC(t, json.RawMessage(`"ok"`), nil, nil)
	var stdout, stderr bytes.Buffer

	code := runEscrowCommand([]string{"set-oracle", "--id", cliTestDealID, "--oracle", cliTestOracle}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if recorded.method != "escrow_setOracle" {
		t.Fatalf("method = %q", recorded.method)
	}
	if !recorded.auth {
		t.Fatalf("mutating call sent without auth requirement")
	}
	if recorded.params["id"] != cliTestDealID || recorded.params["oracle"] != cliTestOracle {
		t.Fatalf("params = %v", recorded.params)
	}
	if !strings.Contains(stdout.String(), "escrow_setOracle: \"ok\"") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestEscrowDepositSubmitsParams(t *testing.T) {
	recorded := stubEscrowRPC(t, json.RawMessage(`"ok"`), nil, nil)
	var stdout, stderr bytes.Buffer

	code := runEscrowCommand([]string{
		"deposit",
		"--id", cliTestDealID,
		"--from", "spn1brand",
		"--influencer", "spn1influencer",
		"--amount", "100000",
		"--retention-days", "30",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if recorded.method != "escrow_deposit" {
		t.Fatalf("method = %q", recorded.method)
	}
	if recorded.params["amount"] != "100000" {
		t.Fatalf("amount = %v", recorded.params["amount"])
	}
	if recorded.params["retentionDays"] != uint(30) {
		t.Fatalf("retentionDays = %v", recorded.params["retentionDays"])
	}
}

func TestEscrowSubmitScoreValidatesRange(t *testing.T) {
	recorded := stubEscrowRPC(t, json.RawMessage(`"ok"`), nil, nil)
	var stdout, stderr bytes.Buffer

	code := runEscrowCommand([]string{
		"submit-score", "--id", cliTestDealID, "--caller", cliTestOracle, "--score", "101",
	}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if recorded.method != "" {
		t.Fatalf("out-of-range score still reached RPC: %q", recorded.method)
	}
	if !strings.Contains(stderr.String(), "between 0 and 100") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestEscrowCommandRejectsBadDealID(t *testing.T) {
	recorded := stubEscrowRPC(t, json.RawMessage(`"ok"`), nil, nil)
	cases := [][]string{
		{"release", "--id", "abcd"},
		{"release", "--id", "0x1234"},
		{"refund", "--id", "0x" + strings.Repeat("zz", 32)},
		{"get", "--id", ""},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		if code := runEscrowCommand(args, &stdout, &stderr); code != 1 {
			t.Fatalf("args %v: exit code = %d, want 1", args, code)
		}
	}
	if recorded.method != "" {
		t.Fatalf("invalid id still reached RPC: %q", recorded.method)
	}
}

func TestEscrowGetPrintsPrettyJSON(t *testing.T) {
	snapshot := json.RawMessage(`{"id":"` + cliTestDealID + `","isActive":true,"escrowBalance":"97000"}`)
	recorded := stubEscrowRPC(t, snapshot, nil, nil)
	var stdout, stderr bytes.Buffer

	code := runEscrowCommand([]string{"get", "--id", cliTestDealID}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if recorded.auth {
		t.Fatalf("read call flagged as requiring auth")
	}
	if !strings.Contains(stdout.String(), `"escrowBalance": "97000"`) {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestEscrowEventsOmitsUnsetFilters(t *testing.T) {
	recorded := stubEscrowRPC(t, json.RawMessage(`[]`), nil, nil)
	var stdout, stderr bytes.Buffer

	if code := runEscrowCommand([]string{"events"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if recorded.method != "escrow_listEvents" {
		t.Fatalf("method = %q", recorded.method)
	}
	if len(recorded.params) != 0 {
		t.Fatalf("params = %v, want empty", recorded.params)
	}

	stdout.Reset()
	stderr.Reset()
	if code := runEscrowCommand([]string{"events", "--prefix", "escrow.score", "--limit", "5"}, &stdout, &stderr); code != 0 {
		t.Fatalf("filtered exit code = %d, stderr = %q", code, stderr.String())
	}
	if recorded.params["prefix"] != "escrow.score" || recorded.params["limit"] != uint(5) {
		t.Fatalf("filtered params = %v", recorded.params)
	}
}

func TestEscrowCommandSurfacesRPCError(t *testing.T) {
	stubEscrowRPC(t, nil, &rpcError{Code: -32022, Message: "escrow not found"}, nil)
	var stdout, stderr bytes.Buffer

	if code := runEscrowCommand([]string{"get", "--id", cliTestDealID}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "escrow not found") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestEscrowCommandSurfacesTransportError(t *testing.T) {
	stubEscrowRPC(t, nil, nil, errors.New("connection refused"))
	var stdout, stderr bytes.Buffer

	if code := runEscrowCommand([]string{"release", "--id", cliTestDealID}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "connection refused") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestEscrowUnknownSubcommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runEscrowCommand([]string{"bogus"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Unknown escrow subcommand") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestValidateDealID(t *testing.T) {
	if err := validateDealID(cliTestDealID); err != nil {
		t.Fatalf("valid id rejected: %v", err)
	}
	for _, bad := range []string{"", "1234", "0x12", "0x" + strings.Repeat("g", 64)} {
		if err := validateDealID(bad); err == nil {
			t.Fatalf("id %q accepted", bad)
		}
	}
}
