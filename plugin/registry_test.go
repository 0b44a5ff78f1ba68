package plugin_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/paywall/plugin"
)

// maintenanceHooks implements the purge, denial, and failed-withdrawal hooks.
type maintenanceHooks struct {
	purged int64
	denied []string
	failed []error
}

func (h *maintenanceHooks) Name() string { return "maintenance-hooks" }

func (h *maintenanceHooks) OnPassesPurged(_ context.Context, count int64) error {
	h.purged += count
	return nil
}

func (h *maintenanceHooks) OnAccessDenied(_ context.Context, _ uint64, reason string) error {
	h.denied = append(h.denied, reason)
	return nil
}

func (h *maintenanceHooks) OnWithdrawalFailed(_ context.Context, _, _ string, _ interface{}, err error) error {
	h.failed = append(h.failed, err)
	return nil
}

func TestRegister(t *testing.T) {
	t.Run("DuplicateRejected", func(t *testing.T) {
		r := plugin.NewRegistry()

		if err := r.Register(&maintenanceHooks{}); err != nil {
			t.Fatal(err)
		}
		if err := r.Register(&maintenanceHooks{}); err == nil {
			t.Error("expected duplicate registration to fail")
		}
		if r.Count() != 1 {
			t.Errorf("Count = %d, want 1", r.Count())
		}
	})

	t.Run("LogsImplementedHooks", func(t *testing.T) {
		var buf bytes.Buffer
		r := plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))

		if err := r.Register(&maintenanceHooks{}); err != nil {
			t.Fatal(err)
		}

		logged := buf.String()
		for _, hook := range []string{"OnPassesPurged", "OnAccessDenied", "OnWithdrawalFailed"} {
			if !strings.Contains(logged, hook) {
				t.Errorf("registration log missing %s: %s", hook, logged)
			}
		}
		if strings.Contains(logged, "OnPassIssued") {
			t.Errorf("registration log reports an unimplemented hook: %s", logged)
		}
	})
}

func TestEmitDispatch(t *testing.T) {
	ctx := context.Background()
	h := &maintenanceHooks{}
	r := plugin.NewRegistry()

	if err := r.Register(h); err != nil {
		t.Fatal(err)
	}

	r.EmitPassesPurged(ctx, 3)
	r.EmitAccessDenied(ctx, 7, "pass expired")
	r.EmitWithdrawalFailed(ctx, "owner", "alice", nil, context.Canceled)

	// Hooks the plugin does not implement are silently skipped.
	r.EmitPassIssued(ctx, nil)

	if h.purged != 3 {
		t.Errorf("purged = %d, want 3", h.purged)
	}
	if len(h.denied) != 1 || h.denied[0] != "pass expired" {
		t.Errorf("denied = %v", h.denied)
	}
	if len(h.failed) != 1 {
		t.Errorf("failed = %v", h.failed)
	}
}
