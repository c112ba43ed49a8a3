package main

// Notifier providers register themselves via init().
import (
	_ "github.com/openagora/agora/internal/adapter/discord"
	_ "github.com/openagora/agora/internal/adapter/slack"
)
