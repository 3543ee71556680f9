package services

import (
	"context"
	"strings"

	"shortlify/internal/models"
	"shortlify/internal/repository"

	"github.com/mssola/user_agent"
)

const unknownBucket = "Unknown"

// Breakdown counts events per attribute value.
type Breakdown struct {
	Countries map[string]int `json:"countries"`
	Cities    map[string]int `json:"cities"`
	Referrers map[string]int `json:"referrers"`
	Browsers  map[string]int `json:"browsers"`
	OS        map[string]int `json:"os"`
	Devices   map[string]int `json:"devices"`
}

type Summary struct {
	Clicks    int64                   `json:"clicks"`
	Analytics []models.AnalyticsEvent `json:"analytics"`
	Breakdown Breakdown               `json:"breakdown"`
}

// AnalyticsService is the read side of click capture. It always reads the
// store directly.
type AnalyticsService struct {
	store repository.LinkStore
}

func NewAnalyticsService(store repository.LinkStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Summarize(ctx context.Context, shortID string) (*Summary, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.Summarize")
	defer span.End()

	link, err := s.store.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}

	events := link.Events
	if events == nil {
		events = []models.AnalyticsEvent{}
	}
	return &Summary{
		Clicks:    link.ClickCount,
		Analytics: events,
		Breakdown: breakdownOf(events),
	}, nil
}

func breakdownOf(events []models.AnalyticsEvent) Breakdown {
	b := Breakdown{
		Countries: map[string]int{},
		Cities:    map[string]int{},
		Referrers: map[string]int{},
		Browsers:  map[string]int{},
		OS:        map[string]int{},
		Devices:   map[string]int{},
	}
	for _, ev := range events {
		b.Countries[valueOr(ev.Country)]++
		b.Cities[valueOr(ev.City)]++
		b.Referrers[ev.Referrer]++

		browser, os, device := parseUserAgent(ev.UserAgent)
		b.Browsers[browser]++
		b.OS[os]++
		b.Devices[device]++
	}
	return b
}

func valueOr(s *string) string {
	if s == nil || *s == "" {
		return unknownBucket
	}
	return *s
}

func parseUserAgent(raw string) (browser, os, device string) {
	if strings.TrimSpace(raw) == "" {
		return unknownBucket, unknownBucket, unknownBucket
	}
	ua := user_agent.New(raw)

	browser, _ = ua.Browser()
	if browser == "" {
		browser = unknownBucket
	}
	os = ua.OS()
	if os == "" {
		os = unknownBucket
	}

	switch {
	case ua.Bot():
		device = "Bot"
	case ua.Mobile():
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return browser, os, device
}
