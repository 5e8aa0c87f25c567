package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"homease-backend/internal/config"
)

// Client bundles the SDK clients built from the project keys. Admin is only
// set when a service-role key is configured.
type Client struct {
	Supabase *supabase.Client
	Admin    *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	c := &Client{
		Supabase: client,
		Config:   cfg,
	}

	if cfg.SupabaseServiceRoleKey != "" {
		admin, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create supabase admin client: %w", err)
		}
		c.Admin = admin
	}

	return c, nil
}

// StorageKey is the key used for storage writes: the service role when
// available so uploads bypass row-level security.
func (c *Client) StorageKey() string {
	if c.Config.SupabaseServiceRoleKey != "" {
		return c.Config.SupabaseServiceRoleKey
	}
	return c.Config.SupabasePublishableKey
}
