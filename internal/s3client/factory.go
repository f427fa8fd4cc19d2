// Package s3client builds and caches *s3.Client instances per connection
// profile and region, and caches region auto-detection results, per
// spec.md §4.3.
package s3client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/vault"
)

// Vendor is the inferred S3-compatible provider behind a connection's
// endpoint, used only for metadata reporting per spec.md §4.7.
type Vendor string

const (
	VendorAWS   Vendor = "aws"
	VendorB2    Vendor = "b2"
	VendorOther Vendor = "other"
)

// Profile is the subset of a vault.ConnectionProfile the factory needs to
// build a client; callers pass it in so the factory never touches the
// vault directly (it owns no decryption key).
type Profile struct {
	ConnectionID uint
	Endpoint     string
	AccessKeyID  string
	Secret       string
	Region       string
	AutoDetect   bool
}

type clientCacheKey struct {
	connectionID uint
	region       string
}

type regionCacheKey struct {
	connectionID uint
	bucket       string
}

// Factory caches *s3.Client instances per (connectionID, region) and
// resolved regions per (connectionID, bucket), both protected by their own
// lock with no I/O held under the lock (spec.md §5).
type Factory struct {
	clientMu sync.Mutex
	clients  map[clientCacheKey]*s3.Client

	regionMu sync.Mutex
	regions  map[regionCacheKey]string
}

// New creates an empty Factory.
func New() *Factory {
	return &Factory{
		clients: make(map[clientCacheKey]*s3.Client),
		regions: make(map[regionCacheKey]string),
	}
}

// GetClient returns a client bound to profile, resolving and caching the
// region first if profile.AutoDetect is set and bucket is non-empty.
func (f *Factory) GetClient(ctx context.Context, profile Profile, bucket string) (*s3.Client, error) {
	region := profile.Region

	if profile.AutoDetect && bucket != "" {
		resolved, err := f.resolveRegion(ctx, profile, bucket)
		if err != nil {
			return nil, err
		}
		region = resolved
	}

	key := clientCacheKey{connectionID: profile.ConnectionID, region: region}

	f.clientMu.Lock()
	if client, ok := f.clients[key]; ok {
		f.clientMu.Unlock()
		return client, nil
	}
	f.clientMu.Unlock()

	client, err := buildClient(ctx, profile, region)
	if err != nil {
		return nil, err
	}

	f.clientMu.Lock()
	if existing, ok := f.clients[key]; ok {
		client = existing
	} else {
		f.clients[key] = client
	}
	f.clientMu.Unlock()

	return client, nil
}

// resolveRegion returns the cached region for (connectionID, bucket),
// calling getBucketLocation and memoizing the result on a cache miss.
func (f *Factory) resolveRegion(ctx context.Context, profile Profile, bucket string) (string, error) {
	key := regionCacheKey{connectionID: profile.ConnectionID, bucket: bucket}

	f.regionMu.Lock()
	if region, ok := f.regions[key]; ok {
		f.regionMu.Unlock()
		return region, nil
	}
	f.regionMu.Unlock()

	// Build a client with whatever region we have (or the SDK default) just
	// to issue GetBucketLocation; GetBucketLocation itself doesn't depend
	// on the client's configured region being correct.
	probe, err := buildClient(ctx, profile, profile.Region)
	if err != nil {
		return "", err
	}

	out, err := probe.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(bucket)})
	if err != nil {
		return "", apperr.Wrap(apperr.S3Error, "resolving bucket region", err)
	}

	region := string(out.LocationConstraint)
	if region == "" {
		region = "us-east-1"
	}

	f.regionMu.Lock()
	if existing, ok := f.regions[key]; ok {
		region = existing
	} else {
		f.regions[key] = region
	}
	f.regionMu.Unlock()

	return region, nil
}

// InvalidateRegion clears any cached region for (connectionID, bucket).
func (f *Factory) InvalidateRegion(connectionID uint, bucket string) {
	f.regionMu.Lock()
	delete(f.regions, regionCacheKey{connectionID: connectionID, bucket: bucket})
	f.regionMu.Unlock()
}

// EvictConnection drops every cached client and cached region for
// connectionID. The connection-delete handler does not call it, so a
// deleted profile's cache entries stay in memory until the process exits.
func (f *Factory) EvictConnection(connectionID uint) {
	f.clientMu.Lock()
	for key := range f.clients {
		if key.connectionID == connectionID {
			delete(f.clients, key)
		}
	}
	f.clientMu.Unlock()

	f.regionMu.Lock()
	for key := range f.regions {
		if key.connectionID == connectionID {
			delete(f.regions, key)
		}
	}
	f.regionMu.Unlock()
}

func buildClient(ctx context.Context, profile Profile, region string) (*s3.Client, error) {
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(profile.AccessKeyID, profile.Secret, "")),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "loading aws config", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if profile.Endpoint != "" {
			o.BaseEndpoint = aws.String(profile.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// ProfileFromVault adapts a vault.ConnectionProfile plus its decrypted
// secret into the Profile the factory consumes.
func ProfileFromVault(cp *vault.ConnectionProfile, secret string) Profile {
	return Profile{
		ConnectionID: cp.ID,
		Endpoint:     cp.Endpoint,
		AccessKeyID:  cp.AccessKeyID,
		Secret:       secret,
		Region:       cp.Region,
		AutoDetect:   cp.AutoDetectRegion,
	}
}

// DetectVendor infers the provider behind endpoint for metadata reporting
// only; it never affects request signing.
func DetectVendor(endpoint string) Vendor {
	u, err := url.Parse(endpoint)
	if err != nil {
		return VendorOther
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case strings.HasSuffix(host, "amazonaws.com"):
		return VendorAWS
	case strings.Contains(host, "backblazeb2.com"):
		return VendorB2
	default:
		return VendorOther
	}
}

// ValidateEndpointScheme rejects any endpoint not using http or https.
func ValidateEndpointScheme(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return apperr.New(apperr.InvalidInput, "endpoint is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.New(apperr.InvalidInput, fmt.Sprintf("unsupported endpoint scheme %q", u.Scheme))
	}
	return nil
}
