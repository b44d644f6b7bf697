package agentexec

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script based test")
	}
	path := filepath.Join(t.TempDir(), "agent.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestIdentityAgentRoundTrip(t *testing.T) {
	script := writeScript(t, `cat > /dev/null
echo '{"first_name":"Anna Maria","last_name":"Eriksson","confidence":0.8}'`)

	agent, err := NewIdentityAgent(script, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := agent.Process(context.Background(), []string{"passport.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FirstName != "Anna Maria" || out.LastName != "Eriksson" {
		t.Fatalf("unexpected extract: %+v", out)
	}
	if out.Confidence != 0.8 {
		t.Fatalf("unexpected confidence: %v", out.Confidence)
	}
}

func TestFinancialAgentReceivesThreshold(t *testing.T) {
	// The script inspects the stdin request for the configured threshold.
	script := writeScript(t, `req=$(cat)
case "$req" in
  *'"threshold_eur":15000'*) echo '{"decision":"WORTHY"}' ;;
  *) echo '{"decision":"NOT_WORTHY"}' ;;
esac`)

	agent, err := NewFinancialAgent(script, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := agent.Process(context.Background(), []string{"bank.pdf"}, 15000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Decision != "WORTHY" {
		t.Fatalf("threshold missing from request, decision: %s", out.Decision)
	}
}

func TestAgentFailureIncludesStderr(t *testing.T) {
	script := writeScript(t, `echo "backend exploded" >&2
exit 3`)

	agent, err := NewEducationAgent(script, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = agent.Process(context.Background(), []string{"transcript.pdf"})
	if err == nil {
		t.Fatal("expected error from failing agent")
	}
	if !strings.Contains(err.Error(), "backend exploded") {
		t.Fatalf("stderr not surfaced: %v", err)
	}
}

func TestAgentTimeoutReturnsContextError(t *testing.T) {
	script := writeScript(t, `sleep 5`)

	agent, err := NewIdentityAgent(script, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = agent.Process(ctx, nil)
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestEmptyCommandRejected(t *testing.T) {
	if _, err := NewIdentityAgent("   ", testLogger()); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestMalformedResponseRejected(t *testing.T) {
	script := writeScript(t, `cat > /dev/null
echo 'not json'`)

	agent, err := NewIdentityAgent(script, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := agent.Process(context.Background(), nil); err == nil {
		t.Fatal("expected decode error")
	}
}
