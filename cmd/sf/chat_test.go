package main

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/storefront/internal/chat"
	"github.com/zulandar/storefront/internal/config"
	"github.com/zulandar/storefront/internal/db"
	"github.com/zulandar/storefront/internal/models"
)

func TestChatPrune(t *testing.T) {
	cfgPath := writeSQLiteConfig(t)
	if _, err := runCmd(t, "", "db", "init", "--config", cfgPath); err != nil {
		t.Fatalf("db init: %v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-60 * 24 * time.Hour)
	gdb.Create(&models.ChatMessage{SessionID: "session_old", SenderType: models.SenderCustomer, Message: "hi", CreatedAt: old})
	if _, err := chat.SendCustomer(gdb, chat.CustomerSendOpts{SessionID: "session_new", Message: "hello"}); err != nil {
		t.Fatal(err)
	}
	db.Close(gdb)

	out, err := runCmd(t, "", "chat", "prune", "--config", cfgPath)
	if err != nil {
		t.Fatalf("chat prune: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Pruned 1 sessions (1 messages)") {
		t.Errorf("prune output:\n%s", out)
	}

	if _, err := runCmd(t, "", "chat", "prune", "--older-than", "0s", "--config", cfgPath); err == nil {
		t.Error("expected error for zero --older-than")
	}
}
