package labtest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/config"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/interfaces"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/logger"
)

// DirectoryClient resolves entity references against the platform's REST
// directory. A 404 means the entity does not exist; any other non-2xx
// response is an error.
type DirectoryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewDirectoryClient creates a new directory client
func NewDirectoryClient(cfg *config.DirectoryConfig, log *logger.Logger) interfaces.DirectoryService {
	return &DirectoryClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log,
	}
}

// PatientExists checks whether a patient id resolves in the directory
func (c *DirectoryClient) PatientExists(id string) (bool, error) {
	return c.exists("patients", id)
}

// ServiceExists checks whether a lab service id resolves in the directory
func (c *DirectoryClient) ServiceExists(id string) (bool, error) {
	return c.exists("services", id)
}

// AppointmentExists checks whether an appointment id resolves in the directory
func (c *DirectoryClient) AppointmentExists(id string) (bool, error) {
	return c.exists("appointments", id)
}

// ConsultantExists checks whether a consultant id resolves in the directory
func (c *DirectoryClient) ConsultantExists(id string) (bool, error) {
	return c.exists("consultants", id)
}

func (c *DirectoryClient) exists(resource, id string) (bool, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, resource, id)

	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build directory request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("directory lookup failed for %s %s: %w", resource, id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		c.logger.WithFields(map[string]interface{}{
			"resource": resource,
			"id":       id,
			"status":   resp.StatusCode,
		}).Error("Unexpected directory response")
		return false, fmt.Errorf("directory returned status %d for %s %s", resp.StatusCode, resource, id)
	}
}
