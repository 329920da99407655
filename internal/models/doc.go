// Package models defines the core domain models for the production estimator.
//
// # Models
//
//   - Estimate: one editable cost estimate for a video project
//   - LineItem: a single billable row (labor, equipment, expense)
//   - ProjectDetails: client and business identity attached to an estimate
//   - UserProfile: persisted business identity reused to pre-fill new
//     estimates for Pro members
//   - ShotList / CallSheet: structured documents produced by the AI
//     assistant alongside estimates
//   - User: a registered account for the HTTP API
//
// # Design Principles
//
// 1. **Permissive numerics**: quantity and rate tolerate bad input upstream;
// by the time values land in a LineItem they are plain float64s and
// quantity*rate is always well-defined.
//
// 2. **Flat ownership**: an Estimate owns its LineItems by value. Item order
// is display order only; grouping happens by Category at render time.
//
// 3. **Avoid circular references**: relationships use ID strings, never
// pointers.
package models
