// Package services bundles every orchestration dependency the HTTP layer
// needs, mirroring the teacher's separation of pkg/registry from pkg/api:
// the bundle lives in its own leaf package so both the router (pkg/api)
// and the handlers (pkg/api/handlers) can depend on it without a cycle.
package services

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/bucketinfo"
	"github.com/andrewtheguy/s3browser-sub000/internal/download"
	"github.com/andrewtheguy/s3browser-sub000/internal/listing"
	"github.com/andrewtheguy/s3browser-sub000/internal/mutation"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3client"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3iface"
	"github.com/andrewtheguy/s3browser-sub000/internal/session"
	"github.com/andrewtheguy/s3browser-sub000/internal/upload"
	"github.com/andrewtheguy/s3browser-sub000/internal/vault"
	"github.com/andrewtheguy/s3browser-sub000/pkg/metrics"
)

// Services bundles every orchestration dependency the router's handlers
// need. It replaces the teacher's *registry.Registry, which indexed many
// pluggable metadata/content stores; s3browser has one vault and one
// client factory shared across every connection profile instead. The
// lightweight per-request services (listing, download, mutation,
// bucketinfo) are built per request by the constructor methods below from
// the client this bundle resolves, since those services carry no state
// beyond their client.
type Services struct {
	Vault    *vault.Store
	Sessions *session.Store
	Clients  *s3client.Factory
	Upload   *upload.Service

	Metrics metrics.S3Metrics

	// SeedTestItemsEnabled gates the seed-test-items benchmarking endpoint.
	// spec.md §4.6 requires it be absent entirely from hardened builds, so
	// the router only registers the route when this is true.
	SeedTestItemsEnabled bool
}

// ResolveClient loads connectionID's profile, decrypts its secret, and
// returns an S3 client bound to it plus the profile itself (for metadata
// endpoints that need the endpoint/region for Vendor inference or export).
func (s *Services) ResolveClient(ctx context.Context, connectionID uint, bucket string) (*s3.Client, *vault.ConnectionProfile, error) {
	profile, err := s.Vault.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, nil, err
	}

	secret, err := s.Vault.DecryptSecret(ctx, profile)
	if err != nil {
		return nil, nil, err
	}

	client, err := s.Clients.GetClient(ctx, s3client.ProfileFromVault(profile, secret), bucket)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Vault.TouchLastUsed(ctx, connectionID); err != nil {
		return nil, nil, err
	}

	return client, profile, nil
}

// Listing builds a listing.Service bound to client, instrumented with this
// bundle's metrics.
func (s *Services) Listing(client *s3.Client) *listing.Service {
	return listing.New(s3iface.Instrument(client, s.Metrics))
}

// Download builds a download.Service bound to client, wiring a presign
// client derived from the same *s3.Client so presigned URLs use the
// connection's own endpoint and credentials. Presigning itself issues no
// S3 call, so only the instrumented client — not the presigner — reports
// to metrics.
func (s *Services) Download(profile *vault.ConnectionProfile, client *s3.Client) *download.Service {
	return download.New(s3iface.Instrument(client, s.Metrics), s3.NewPresignClient(client), profile.Endpoint)
}

// Mutation builds a mutation.Service bound to client, sharing this
// bundle's SeedTestItemsEnabled flag.
func (s *Services) Mutation(client *s3.Client) *mutation.Service {
	instrumented := s3iface.Instrument(client, s.Metrics)
	return mutation.New(instrumented, listing.New(instrumented), s.SeedTestItemsEnabled)
}

// BucketInfo builds a bucketinfo.Service bound to client, instrumented
// with this bundle's metrics.
func (s *Services) BucketInfo(client *s3.Client) *bucketinfo.Service {
	return bucketinfo.New(s3iface.Instrument(client, s.Metrics))
}

// Instrumented wraps client with this bundle's metrics, for callers (the
// upload handler) that drive Services.Upload's methods directly instead
// of through one of the constructors above.
func (s *Services) Instrumented(client *s3.Client) s3iface.Client {
	return s3iface.Instrument(client, s.Metrics)
}

// RequireBoundConnection returns the connection id bound to sess, or
// apperr.Forbidden if none is bound — the case spec.md §4.2 calls out for
// endpoints that need a connection beyond bucket-listing.
func RequireBoundConnection(sess *session.Session) (uint, error) {
	if sess.ConnectionID == nil {
		return 0, apperr.New(apperr.Forbidden, "no connection bound to this session")
	}
	return *sess.ConnectionID, nil
}
