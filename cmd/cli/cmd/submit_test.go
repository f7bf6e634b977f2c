package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
	viper.SetEnvPrefix("TASKPLANE")
	viper.AutomaticEnv()
}

func TestSubmitCommand_Success(t *testing.T) {
	resetViper()

	submitCalled := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			return
		}
		submitCalled = true

		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer token header, got %q", got)
		}

		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)
		if reqBody["taskName"] != "test-task" {
			t.Errorf("expected taskName=test-task, got %v", reqBody["taskName"])
		}
		if reqBody["commands"] != "echo hello" {
			t.Errorf("expected commands=echo hello, got %v", reqBody["commands"])
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]int64{"taskId": 7212816987455422464})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"submit", "--name", "test-task", "--commands", "echo hello"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !submitCalled {
		t.Error("expected submit endpoint to be called")
	}

	output := stdout.String()
	if !strings.Contains(output, "Task submitted") {
		t.Errorf("expected success message, got: %s", output)
	}
	if !strings.Contains(output, "7212816987455422464") {
		t.Errorf("expected task ID in output, got: %s", output)
	}
}

func TestSubmitCommand_MissingToken(t *testing.T) {
	resetViper()

	viper.Set("url", "http://localhost:7171")
	viper.Set("token", "")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"submit", "--name", "test-task", "--commands", "echo"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "API token not found") {
		t.Errorf("expected token error message, got: %s", output)
	}
}

func TestSubmitCommand_CommandsAndImageExclusive(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called when validation fails")
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"submit", "--name", "test-task", "--commands", "echo", "--image", "alpine"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "exactly one of --commands or --image") {
		t.Errorf("expected exclusivity error, got: %s", output)
	}
}

func TestSubmitCommand_UnauthorizedError(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Invalid token"))
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "invalid-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"submit", "--name", "test-task", "--image", "alpine"})

	// Clear leftover flag values from earlier tests
	submitCmd.Flags().Set("commands", "")

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Submit failed (401)") {
		t.Errorf("expected 401 error in output, got: %s", output)
	}
}
