package rescale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tunnelmaker/internal/credentials"
	"tunnelmaker/internal/logger"
)

// Client gives read access to the Rescale v2 REST API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *logger.Logger
}

func NewClient(creds *credentials.Credentials, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(creds.BaseURL, "/"),
		APIKey:     creds.APIKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     log,
	}
}

func (c *Client) authorization() string {
	return "Token " + c.APIKey
}

func (c *Client) getPage(ctx context.Context, pageURL string) (*instancesPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateRequest, err)
	}

	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("GET %s", pageURL)

	resp, err := c.HTTPClient.Do(req)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToSendRequest, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToSendRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Logger.Error("%s", string(body))
		return nil, fmt.Errorf("%w: %s for %s: %s", ErrUnexpectedStatus, resp.Status, pageURL, strings.TrimSpace(string(body)))
	}

	var page instancesPage

	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToDecodePage, err)
	}

	return &page, nil
}

// getAllResultPages follows "next" links starting at firstURL and returns
// the concatenated results in page order.
func (c *Client) getAllResultPages(ctx context.Context, firstURL string) ([]Instance, error) {
	results := []Instance{}
	pageURL := firstURL

	for {
		page, err := c.getPage(ctx, pageURL)

		if err != nil {
			return nil, err
		}

		results = append(results, page.Results...)

		if page.Next == nil || *page.Next == "" {
			return results, nil
		}

		pageURL, err = resolveNext(pageURL, *page.Next)

		if err != nil {
			return nil, err
		}
	}
}

// next links are normally absolute, relative ones are resolved against the current page
func resolveNext(current string, next string) (string, error) {
	base, err := url.Parse(current)

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNextLink, err)
	}

	ref, err := url.Parse(next)

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNextLink, err)
	}

	return base.ResolveReference(ref).String(), nil
}

// ListInstances returns every instance of a job across all result pages.
func (c *Client) ListInstances(ctx context.Context, jobID string) ([]Instance, error) {
	return c.getAllResultPages(ctx, fmt.Sprintf("%s/api/v2/jobs/%s/instances/", c.BaseURL, url.PathEscape(jobID)))
}

// GetHeadNode picks the instance representing the job's entry point: the
// only instance, or the first one with the MPI_MASTER role.
func (c *Client) GetHeadNode(ctx context.Context, jobID string) (*Instance, error) {
	instances, err := c.ListInstances(ctx, jobID)

	if err != nil {
		return nil, err
	}

	head, err := SelectHeadNode(instances)

	switch err {
	case nil:
		c.Logger.Info("Head node of job %q is %s", jobID, head)
	case ErrNoInstances:
		c.Logger.Error("No instances found for JobID %q. Is the cluster running?", jobID)
	case ErrNoPrimaryInstance:
		c.Logger.Error("Job %q has %d instances but none has role %s.", jobID, len(instances), InstanceRoleMPIMaster)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, jobID)
	}

	return head, nil
}

func SelectHeadNode(instances []Instance) (*Instance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	if len(instances) == 1 {
		return &instances[0], nil
	}

	for i := range instances {
		if instances[i].Role == InstanceRoleMPIMaster {
			return &instances[i], nil
		}
	}

	return nil, ErrNoPrimaryInstance
}
