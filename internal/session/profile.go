package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/serhq/estimator/internal/models"
)

// Profile returns the persisted business identity. A missing or unreadable
// profile reads as the zero profile rather than an error; the profile is a
// convenience, never a gate.
func (g *Gate) Profile(ctx context.Context) (models.UserProfile, error) {
	var profile models.UserProfile

	raw, ok, err := g.persistent.Get(ctx, keyProfile)
	if err != nil {
		return profile, fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		return profile, nil
	}

	_ = json.Unmarshal([]byte(raw), &profile)
	return profile, nil
}

// SaveProfile persists the business identity as JSON.
func (g *Gate) SaveProfile(ctx context.Context, profile models.UserProfile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := g.persistent.Set(ctx, keyProfile, string(encoded)); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}
