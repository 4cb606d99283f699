package trip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pcd-labs/smart-mobility/pkg/cache"
	"github.com/pcd-labs/smart-mobility/pkg/httpclient"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// Driver is the trips-service view of a user record owned by the user service.
type Driver struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	LicenseNumber string `json:"license_number"`
	DriverStatus  string `json:"driver_status"`
}

// VehicleRef is the trips-service view of a vehicle record owned by the
// vehicle service.
type VehicleRef struct {
	ID           string `json:"id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"license_plate"`
	Status       string `json:"status"`
}

// UserDirectory resolves driver references against the user service through a
// TTL cache.
type UserDirectory interface {
	Driver(ctx context.Context, id string) (*Driver, error)
	Invalidate(id string)
}

// VehicleDirectory resolves vehicle references against the vehicle service
// through a TTL cache.
type VehicleDirectory interface {
	Vehicle(ctx context.Context, id string) (*VehicleRef, error)
	Invalidate(id string)
}

type userClient struct {
	http    *http.Client
	baseURL string
	cache   *cache.Cache[Driver]
	log     *zap.Logger
}

func newUserClient(v *viper.Viper, log *zap.Logger) (UserDirectory, error) {
	client, cfg, err := httpclient.ProvideHTTPClient("user-service")(v)
	if err != nil {
		return nil, err
	}
	return &userClient{
		http:    client,
		baseURL: cfg.BaseURL,
		cache:   cache.New[Driver](cacheTTL(v), log),
		log:     log,
	}, nil
}

// Driver returns the cached driver, fetching on miss. An unreachable user
// service yields an uncached "Unknown" placeholder; a confirmed 404 yields nil.
func (c *userClient) Driver(ctx context.Context, id string) (*Driver, error) {
	return c.cache.Get(ctx, id, c.fetch, func(id string) *Driver {
		return &Driver{ID: id, FirstName: "Unknown", LastName: "Unknown"}
	})
}

func (c *userClient) Invalidate(id string) {
	c.cache.Invalidate(id)
}

func (c *userClient) fetch(ctx context.Context, id string) (*Driver, error) {
	var d Driver
	found, err := fetchJSON(ctx, c.http, c.baseURL+"/users/"+id, &d)
	if err != nil || !found {
		return nil, err
	}
	return &d, nil
}

type vehicleClient struct {
	http    *http.Client
	baseURL string
	cache   *cache.Cache[VehicleRef]
	log     *zap.Logger
}

func newVehicleClient(v *viper.Viper, log *zap.Logger) (VehicleDirectory, error) {
	client, cfg, err := httpclient.ProvideHTTPClient("vehicle-service")(v)
	if err != nil {
		return nil, err
	}
	return &vehicleClient{
		http:    client,
		baseURL: cfg.BaseURL,
		cache:   cache.New[VehicleRef](cacheTTL(v), log),
		log:     log,
	}, nil
}

// Vehicle returns the cached vehicle, fetching on miss. An unreachable vehicle
// service yields an uncached "Unknown" placeholder; a confirmed 404 yields nil.
func (c *vehicleClient) Vehicle(ctx context.Context, id string) (*VehicleRef, error) {
	return c.cache.Get(ctx, id, c.fetch, func(id string) *VehicleRef {
		return &VehicleRef{ID: id, Make: "Unknown", Model: "Unknown"}
	})
}

func (c *vehicleClient) Invalidate(id string) {
	c.cache.Invalidate(id)
}

func (c *vehicleClient) fetch(ctx context.Context, id string) (*VehicleRef, error) {
	var v VehicleRef
	found, err := fetchJSON(ctx, c.http, c.baseURL+"/vehicles/"+id, &v)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

// fetchJSON GETs url and decodes the body into out. A 404 reports a confirmed
// absence (false, nil); any other non-2xx status is an error so the caller can
// fall back without caching.
func fetchJSON(ctx context.Context, client *http.Client, url string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}

func cacheTTL(v *viper.Viper) time.Duration {
	if ttl := v.GetDuration("clients.cache-ttl"); ttl > 0 {
		return ttl
	}
	return defaultCacheTTL
}
