package pubsub

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	kindTopics        = "topics"
	kindSubscriptions = "subscriptions"

	// checkConcurrency bounds parallel admin lookups.
	checkConcurrency = 4
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Resources names what a process needs to exist before it starts. The
// publisher needs topics; the worker needs subscriptions.
type Resources struct {
	Topics        []string
	Subscriptions []string
}

// Client wraps the Pub/Sub v2 client. It remembers the resources it was
// started with so Ping can re-check them for readiness.
type Client struct {
	client    *pubsub.Client
	projectID string
	required  Resources
}

// NewClient connects and verifies every required resource exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, required Resources, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	required = Resources{Topics: uniqueNames(required.Topics), Subscriptions: uniqueNames(required.Subscriptions)}
	if len(required.Topics)+len(required.Subscriptions) == 0 {
		return nil, errors.New("no pubsub topics or subscriptions configured")
	}

	psClient, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: psClient, projectID: projectID, required: required}
	if err := c.verify(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"topics":        required.Topics,
			"subscriptions": required.Subscriptions,
		}), "pubsub client initialized")
	}
	return c, nil
}

// WorkerResources lists the configured subscriptions; blank ones are skipped.
func WorkerResources(cfg config.PubSubConfig) Resources {
	return Resources{Subscriptions: []string{cfg.OrdersSubscription, cfg.PaymentsSubscription}}
}

// verify checks all resources concurrently and reports every missing one,
// not just the first.
func (c *Client) verify(ctx context.Context) error {
	var (
		mu       sync.Mutex
		combined error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)
	check := func(kind, name string) {
		g.Go(func() error {
			if err := c.exists(gctx, kind, name); err != nil {
				mu.Lock()
				combined = multierr.Append(combined, err)
				mu.Unlock()
			}
			return nil
		})
	}
	for _, name := range c.required.Topics {
		check(kindTopics, name)
	}
	for _, name := range c.required.Subscriptions {
		check(kindSubscriptions, name)
	}
	_ = g.Wait()
	return combined
}

func (c *Client) exists(ctx context.Context, kind, name string) error {
	fullName := resourceName(c.projectID, kind, name)
	if fullName == "" {
		return fmt.Errorf("%s %q not configured", kind, name)
	}
	var err error
	switch kind {
	case kindTopics:
		_, err = c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	default:
		_, err = c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: fullName})
	}
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", strings.TrimSuffix(kind, "s"), name)
	default:
		return fmt.Errorf("checking %s: %w", fullName, err)
	}
}

// Publisher returns a publisher handle for a topic ID or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := resourceName(c.projectID, kindTopics, name)
	if fullName == "" {
		return nil
	}
	return c.client.Publisher(fullName)
}

// Subscription returns a subscriber handle for a subscription ID or full
// resource name, or nil when name is blank.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := resourceName(c.projectID, kindSubscriptions, name)
	if fullName == "" {
		return nil
	}
	return c.client.Subscriber(fullName)
}

// Ping re-checks the required resources.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.verify(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// resourceName expands a short ID into projects/<p>/<kind>/<id>. Full
// resource names pass through unchanged.
func resourceName(projectID, kind, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+kind+"/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", p, kind, n)
}
