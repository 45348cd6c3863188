// nsq-monitor polls nsqd's stats endpoint and exposes the dead-letter topic
// backlog as prometheus gauges, so an operator can alert on DLQ growth
// without scraping nsqd directly.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NSQStats represents the JSON structure returned by NSQ stats API
type NSQStats struct {
	Topics []struct {
		TopicName string `json:"topic_name"`
		Channels  []struct {
			ChannelName   string `json:"channel_name"`
			Depth         int64  `json:"depth"`
			InFlightCount int64  `json:"in_flight_count"`
		} `json:"channels"`
		Depth int64 `json:"depth"`
	} `json:"topics"`
}

var (
	dlqBacklog = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hookbridge_dlq_topic_backlog",
		Help: "Messages sitting in the dead-letter topic",
	})

	topicDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hookbridge_nsq_channel_depth",
		Help: "Depth of NSQ channels by topic and channel",
	}, []string{"topic", "channel"})

	topicInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hookbridge_nsq_channel_inflight",
		Help: "In-flight messages for NSQ channels by topic and channel",
	}, []string{"topic", "channel"})
)

func init() {
	prometheus.MustRegister(dlqBacklog)
	prometheus.MustRegister(topicDepth)
	prometheus.MustRegister(topicInflight)
}

func main() {
	nsqdHost := getEnv("NSQD_HOST", "nsqd:4151")
	dlqTopic := getEnv("NSQ_DLQ_TOPIC", "webhooks_dlq")
	port := getEnv("PORT", "8084")
	interval := getEnvInt("POLL_INTERVAL_SECONDS", 15)

	log.Printf("NSQ monitor starting on port %s", port)
	log.Printf("Monitoring topic %q at %s every %d seconds", dlqTopic, nsqdHost, interval)

	go collectMetrics(nsqdHost, dlqTopic, time.Duration(interval)*time.Second)

	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	log.Fatal(http.ListenAndServe(":"+port, nil))
}

func collectMetrics(nsqdHost, dlqTopic string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := updateMetrics(nsqdHost, dlqTopic); err != nil {
			log.Printf("Error updating metrics: %v", err)
		}
	}
}

func updateMetrics(nsqdHost, dlqTopic string) error {
	resp, err := http.Get(fmt.Sprintf("http://%s/stats?format=json", nsqdHost))
	if err != nil {
		return fmt.Errorf("failed to get NSQ stats: %w", err)
	}
	defer resp.Body.Close()

	var stats NSQStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("failed to decode NSQ stats: %w", err)
	}

	for _, topic := range stats.Topics {
		if topic.TopicName == dlqTopic {
			// Topic depth covers messages not yet claimed by any channel.
			dlqBacklog.Set(float64(topic.Depth))
		}
		for _, channel := range topic.Channels {
			topicDepth.WithLabelValues(topic.TopicName, channel.ChannelName).Set(float64(channel.Depth))
			topicInflight.WithLabelValues(topic.TopicName, channel.ChannelName).Set(float64(channel.InFlightCount))
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
