package codec

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// SchemaRegistryClient is a read-through client for a remote Avro schema
// registry, adapted from the teacher's AvroSchemaManager. It is a client
// only: it can look schemas up, never create or delete subjects, matching
// spec.md §1's "no schema registry management" Non-goal.
type SchemaRegistryClient struct {
	registryURL string
	cacheMu     sync.RWMutex
	cache       map[string][]byte
	httpClient  *http.Client
}

// NewSchemaRegistryClient builds a client and tests connectivity against
// registryURL. An unreachable registry is reported here, as a
// KindConstruction error, rather than on the first lookup.
func NewSchemaRegistryClient(registryURL string) (*SchemaRegistryClient, error) {
	registryURL = strings.TrimRight(registryURL, "/")
	client := &http.Client{}

	resp, err := client.Get(registryURL)
	if err != nil {
		return nil, dynerr.New(dynerr.KindConstruction, errors.Annotate(err, "schema registry: connectivity check failed"))
	}
	defer resp.Body.Close()

	log.Info("schema registry reachable", zap.String("url", registryURL))

	return &SchemaRegistryClient{
		registryURL: registryURL,
		cache:       make(map[string][]byte),
		httpClient:  client,
	}, nil
}

type lookupResponse struct {
	Name   string `json:"name"`
	ID     int64  `json:"id"`
	Schema string `json:"schema"`
}

// Lookup fetches the latest schema for subject, caching the result. A
// cache hit never makes a network call.
func (c *SchemaRegistryClient) Lookup(subject string) ([]byte, error) {
	c.cacheMu.RLock()
	cached, ok := c.cache[subject]
	c.cacheMu.RUnlock()
	if ok {
		log.Debug("schema registry cache hit", zap.String("subject", subject))
		return cached, nil
	}

	uri := c.registryURL + "/subjects/" + url.QueryEscape(subject) + "/versions/latest"
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return nil, dynerr.New(dynerr.KindTransient, errors.Annotate(err, "schema registry: building lookup request"))
	}
	req.Header.Set("Accept", "application/vnd.schemaregistry.v1+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dynerr.New(dynerr.KindTransient, errors.Annotate(err, "schema registry: lookup request failed"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dynerr.New(dynerr.KindTransient, errors.Annotate(err, "schema registry: reading response"))
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, dynerr.Newf(dynerr.KindConfig, "schema registry: no schema registered for subject %q", subject)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dynerr.Newf(dynerr.KindTransient, "schema registry: unexpected status %d for subject %q", resp.StatusCode, subject)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, dynerr.New(dynerr.KindEncoding, errors.Annotate(err, "schema registry: parsing lookup response"))
	}

	schemaJSON := []byte(parsed.Schema)
	c.cacheMu.Lock()
	c.cache[subject] = schemaJSON
	c.cacheMu.Unlock()

	log.Info("schema registry lookup successful",
		zap.String("subject", subject),
		zap.Int64("id", parsed.ID))

	return schemaJSON, nil
}
