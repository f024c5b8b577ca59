package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/directory/internal/app/system/tasks"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func TestRootCmd_SubcommandPerTask(t *testing.T) {
	root := newRootCmd(tasks.Default())

	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	want := []string{"ensure-group", "ensure-page", "generate-users-and-groups", "watch"}
	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
			}
		}
		if !found {
			t.Errorf("missing subcommand %q in %v", name, got)
		}
	}
}

func TestTaskCmd_ChecksArgsBeforeConnecting(t *testing.T) {
	root := newRootCmd(tasks.Default())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"ensure-group"})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected an argument error")
	}
	if !strings.Contains(err.Error(), "arg") {
		t.Errorf("error = %v, want an argument count error", err)
	}
}

func TestTaskCmd_RegistersTaskFlags(t *testing.T) {
	root := newRootCmd(tasks.Default())
	cmd, _, err := root.Find([]string{"ensure-page"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	for _, name := range []string{"title", "default-view", "group", "not-group", "show-thumbnail", "unpublished"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("ensure-page has no --%s flag", name)
		}
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"ensure-page", "/directory", "--colour=red"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "colour") {
		t.Errorf("unknown flag: err = %v", err)
	}
}

func TestTaskCmd_UsageIncludesSynopsis(t *testing.T) {
	reg := tasks.NewRegistry()
	if err := reg.Register(tasks.Task{
		Name:  "noop",
		Usage: "<thing>",
		Run:   func(context.Context, tasks.Env, []string) error { return nil },
	}); err != nil {
		t.Fatal(err)
	}
	cmd := taskCmd(reg, tasks.Task{Name: "noop", Usage: "<thing>"}, &globalFlags{}, zap.NewNop)
	if diff := cmp.Diff("noop <thing>", cmd.Use); diff != "" {
		t.Errorf("Use mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWatch_StopsWithContext(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, t.TempDir(), addr, 10*time.Millisecond, zap.NewNop()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runWatch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not stop")
	}
}

func TestRunWatch_MissingDir(t *testing.T) {
	err := runWatch(context.Background(), "/does/not/exist", "127.0.0.1:0", 0, zap.NewNop())
	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
