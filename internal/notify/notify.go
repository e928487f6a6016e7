// Package notify delivers health alerts over email and SMS.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajharbinger/freight-ops-api/internal/logger"
)

// Alert is one failing-service notification
type Alert struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Diagnosis string    `json:"diagnosis"`
	Timestamp time.Time `json:"timestamp"`
}

// Subject returns the short alert subject used by both channels
func (a Alert) Subject() string {
	return fmt.Sprintf("[Freight Ops] %s is %s", a.Service, strings.ToUpper(a.Status))
}

// Text renders the plain text alert body
func (a Alert) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", a.Subject())
	if a.Diagnosis != "" {
		fmt.Fprintf(&b, "Cause: %s\n", a.Diagnosis)
	}
	if a.Message != "" {
		fmt.Fprintf(&b, "Detail: %s\n", a.Message)
	}
	fmt.Fprintf(&b, "At: %s", a.Timestamp.UTC().Format(time.RFC3339))
	return b.String()
}

// Channel delivers alerts over one medium
type Channel interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, alert Alert) error
}

// Delivery states for one channel
const (
	DeliverySent    = "sent"
	DeliverySkipped = "skipped"
	DeliveryFailed  = "failed"
)

// ChannelResult is the delivery outcome on one channel
type ChannelResult struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// DispatchResult is the outcome of one alert across all channels
type DispatchResult struct {
	Channels []ChannelResult `json:"channels"`
}

// Attempted reports whether any channel actually tried to deliver
func (r DispatchResult) Attempted() bool {
	for _, c := range r.Channels {
		if c.Status != DeliverySkipped {
			return true
		}
	}
	return false
}

// Sent counts channels that delivered
func (r DispatchResult) Sent() int {
	n := 0
	for _, c := range r.Channels {
		if c.Status == DeliverySent {
			n++
		}
	}
	return n
}

// Dispatcher fans an alert out to every channel. Channels are independent:
// one failing never stops another.
type Dispatcher struct {
	channels []Channel
	logger   logger.Logger
}

// NewDispatcher creates a dispatcher over the given channels
func NewDispatcher(log logger.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, logger: log}
}

// Alert delivers alert on every channel and reports each outcome. Channels
// without configuration are reported as skipped.
func (d *Dispatcher) Alert(ctx context.Context, alert Alert) DispatchResult {
	results := make([]ChannelResult, len(d.channels))

	var g errgroup.Group
	for i, ch := range d.channels {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = d.deliver(ctx, ch, alert)
			return nil
		})
	}
	_ = g.Wait()

	return DispatchResult{Channels: results}
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, alert Alert) (result ChannelResult) {
	result = ChannelResult{Channel: ch.Name()}
	if !ch.Configured() {
		result.Status = DeliverySkipped
		d.logger.Debug("alert channel not configured", "channel", ch.Name(), "service", alert.Service)
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result.Status = DeliveryFailed
			result.Error = fmt.Sprintf("channel panicked: %v", r)
		}
	}()

	if err := ch.Send(ctx, alert); err != nil {
		d.logger.Error("alert delivery failed", err, "channel", ch.Name(), "service", alert.Service)
		result.Status = DeliveryFailed
		result.Error = err.Error()
		return result
	}

	d.logger.Info("alert sent", "channel", ch.Name(), "service", alert.Service, "status", alert.Status)
	result.Status = DeliverySent
	return result
}
