package util

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line longer than %d characters: %q", Wrap, line)
		}
	}

	if got := WrapString("  short   text "); got != "short text" {
		t.Errorf("expected %q, got %q", "short text", got)
	}
}

func TestNewSerializer(t *testing.T) {
	for _, name := range []string{"json", "gob", "binary"} {
		if s, err := NewSerializer(name); err != nil || s == nil {
			t.Errorf("NewSerializer(%q) failed: %v", name, err)
		}
	}
	if _, err := NewSerializer("xml"); err == nil {
		t.Error("expected an error for an unknown serializer")
	}
}

func TestGetClientConfigFromFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	SetupSenderFlags(cmd)
	if err := cmd.PersistentFlags().Parse([]string{"--endpoint", "/tmp/c.sock", "--retries", "5", "--transport-write-buffer", "4"}); err != nil {
		t.Fatal(err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		t.Fatal(err)
	}

	config := GetClientConfig()
	if config.Endpoint != "/tmp/c.sock" {
		t.Errorf("unexpected endpoint %q", config.Endpoint)
	}
	if config.RetryCount != 5 {
		t.Errorf("expected retry count 5, got %d", config.RetryCount)
	}
	if config.Transport.WriteBufferSize != 4*1024 {
		t.Errorf("expected write buffer of 4KB, got %d", config.Transport.WriteBufferSize)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("config from default flags is invalid: %v", err)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("DSEND_QUEUE_SIZE", "42")

	InitConfig()
	cmd := &cobra.Command{Use: "test"}
	SetupSenderFlags(cmd)
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		t.Fatal(err)
	}

	if got := GetClientConfig().QueueSize; got != 42 {
		t.Errorf("expected queue size 42 from env, got %d", got)
	}
}
