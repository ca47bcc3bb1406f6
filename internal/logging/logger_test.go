package logging

import (
	"context"
	"log/slog"
	"testing"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"supervisor": "debug",
			"api":        "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"supervisor", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			logger := GetLogger(tt.module)
			handler := logger.Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestBufferReceivesEntries(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info", Format: "text"})

	logger := GetLogger("server")
	logger.Info("[Server] Done (3.2s)! For help, type \"help\"")
	logger.Info("[Server] Stopping the server")

	buffer := GetBuffer()
	if buffer == nil {
		t.Fatal("expected ring buffer after Initialize")
	}

	entries := buffer.TailModule("server", 10)
	if len(entries) != 2 {
		t.Fatalf("TailModule(server) returned %d entries, want 2", len(entries))
	}
	if entries[0].Module != "server" {
		t.Errorf("entry module = %q, want server", entries[0].Module)
	}
}

func TestRingBufferWrap(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}

	all := rb.ReadAll()
	if len(all) != 3 {
		t.Fatalf("ReadAll returned %d entries, want 3", len(all))
	}
	if all[0].Message != "c" || all[2].Message != "e" {
		t.Errorf("unexpected order after wrap: %q..%q", all[0].Message, all[2].Message)
	}

	tail := rb.Tail(2)
	if len(tail) != 2 || tail[1].Message != "e" {
		t.Errorf("Tail(2) = %v, want last two entries ending with e", tail)
	}
}

func TestTailModuleFiltersOtherModules(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write(LogEntry{Module: "server", Message: "line 1"})
	rb.Write(LogEntry{Module: "api", Message: "request"})
	rb.Write(LogEntry{Module: "server", Message: "line 2"})

	got := rb.TailModule("server", 1)
	if len(got) != 1 || got[0].Message != "line 2" {
		t.Errorf("TailModule = %v, want only the most recent server line", got)
	}
}
