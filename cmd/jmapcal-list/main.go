package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env"
	"github.com/emersion/go-ical"
	"github.com/sirupsen/logrus"

	"github.com/emersion/go-jmapcal/calendar"
)

type config struct {
	Endpoint string `env:"JMAP_ENDPOINT"`
	Username string `env:"JMAP_USERNAME"`
	Password string `env:"JMAP_PASSWORD"`
	Token    string `env:"JMAP_TOKEN"`
}

// authTransport injects Bearer or Basic credentials into every request.
type authTransport struct {
	cfg  *config
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.Token)
	} else if t.cfg.Username != "" {
		req.SetBasicAuth(t.cfg.Username, t.cfg.Password)
	}
	return t.base.RoundTrip(req)
}

func main() {
	var endpoint string
	var days int
	flag.StringVar(&endpoint, "endpoint", "", "server URL (defaults to $JMAP_ENDPOINT)")
	flag.IntVar(&days, "days", 7, "number of days of upcoming events to list")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [options...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logrus.New()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.WithError(err).Fatal("failed to parse environment")
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if cfg.Endpoint == "" {
		log.Fatal("no endpoint given, set -endpoint or $JMAP_ENDPOINT")
	}

	httpClient := &http.Client{
		Transport: &authTransport{cfg: &cfg, base: http.DefaultTransport},
		Timeout:   30 * time.Second,
	}
	client, err := calendar.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		log.WithError(err).Fatal("failed to create client")
	}

	ctx := context.Background()

	calendars, err := client.FindCalendars(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to list calendars")
	}
	for _, cal := range calendars {
		log.WithFields(logrus.Fields{
			"id":   cal.ID,
			"name": cal.Name,
		}).Info("calendar")
	}

	now := time.Now().UTC()
	objects, err := client.QueryObjects(ctx, &calendar.Filter{
		After:  now.Format("2006-01-02T15:04:05Z"),
		Before: now.AddDate(0, 0, days).Format("2006-01-02T15:04:05Z"),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to query events")
	}
	for _, obj := range objects {
		summary := ""
		for _, child := range obj.Data.Children {
			if child.Name != ical.CompEvent {
				continue
			}
			if prop := child.Props.Get(ical.PropSummary); prop != nil {
				summary, _ = prop.Text()
			}
			break
		}
		log.WithFields(logrus.Fields{
			"id":      obj.ID,
			"uid":     obj.UID(),
			"summary": summary,
		}).Info("event")
	}
}
