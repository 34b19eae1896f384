package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/config"
	"github.com/hazz-dev/sitepulse/internal/publisher"
)

func printTopics(out io.Writer, cfg *config.Config) {
	for _, t := range cfg.Targets {
		scheme := checker.ClassifyScheme(t.URL)
		fmt.Fprintln(out, publisher.ResultTopic(cfg.Topics.Root, cfg.Topics.Source, t.Name, scheme))
		fmt.Fprintln(out, publisher.LastPublishedTopic(cfg.Topics.Root, cfg.Topics.Source, t.Name, scheme))
	}
}

func printBanner(out io.Writer, cfg *config.Config) {
	line := strings.Repeat("=", 50)
	fmt.Fprintln(out, line)
	fmt.Fprintln(out, "Website Monitor Starting")
	fmt.Fprintln(out, line)
	switch cfg.Broker.Kind {
	case config.BrokerRedis:
		fmt.Fprintf(out, "Broker: redis://%s/%d\n", cfg.Broker.Redis.Address, cfg.Broker.Redis.DB)
	default:
		fmt.Fprintf(out, "Broker: %s:%d\n", cfg.Broker.MQTT.Host, cfg.Broker.MQTT.Port)
	}
	fmt.Fprintf(out, "Topic prefix: %s/%s/%s\n", cfg.Topics.Root, cfg.Topics.Source, publisher.Segment)
	fmt.Fprintf(out, "Check interval: %s\n", cfg.Interval)
	fmt.Fprintf(out, "Websites to monitor: %d\n", len(cfg.Targets))
	for _, t := range cfg.Targets {
		fmt.Fprintf(out, "  - %s (%s): %s\n", t.Name, checker.ClassifyScheme(t.URL), t.URL)
	}
	fmt.Fprintln(out, line)
}
