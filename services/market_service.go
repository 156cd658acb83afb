package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/mf-tracker/models"
)

const DefaultMFAPIBaseURL = "https://api.mfapi.in"

var ErrSchemeNotFound = errors.New("scheme not found")

// MarketService reads scheme metadata and NAV history from mfapi.in.
type MarketService struct {
	BaseURL  string
	Client   *http.Client
	Attempts uint
	Delay    time.Duration
	log      logrus.FieldLogger
}

func NewMarketService(baseURL string, log logrus.FieldLogger) *MarketService {
	if baseURL == "" {
		baseURL = DefaultMFAPIBaseURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MarketService{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: 15 * time.Second},
		Attempts: 4,
		Delay:    500 * time.Millisecond,
		log:      log.WithField("component", "market"),
	}
}

// GetScheme fetches <base>/mf/<code>. Server errors and transport failures
// are retried; a 4xx is returned immediately.
func (m *MarketService) GetScheme(ctx context.Context, code string) (*models.SchemeData, error) {
	if code == "" {
		return nil, errors.New("scheme code is required")
	}
	endpoint := fmt.Sprintf("%s/mf/%s", m.BaseURL, url.PathEscape(code))

	var scheme models.SchemeData
	notFound := false
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("Accept", "application/json")

			start := time.Now()
			resp, err := m.Client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			m.log.WithFields(logrus.Fields{
				"scheme":      code,
				"status_code": resp.StatusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Debug("mfapi request completed")

			switch {
			case resp.StatusCode == http.StatusNotFound:
				notFound = true
				return retry.Unrecoverable(ErrSchemeNotFound)
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				return retry.Unrecoverable(fmt.Errorf("HTTP %d", resp.StatusCode))
			case resp.StatusCode != http.StatusOK:
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			if err := json.NewDecoder(resp.Body).Decode(&scheme); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode scheme: %w", err))
			}
			return nil
		},
		retry.Attempts(m.Attempts),
		retry.Delay(m.Delay),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			m.log.WithError(err).WithField("attempt", n+1).Warn("retrying mfapi request")
		}),
	)
	if notFound {
		return nil, ErrSchemeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scheme %s: %w", code, err)
	}
	return &scheme, nil
}

// Latest trims the NAV history to the newest limit points. mfapi returns
// newest first.
func Latest(scheme *models.SchemeData, limit int) *models.SchemeData {
	if scheme == nil || limit <= 0 || len(scheme.Data) <= limit {
		return scheme
	}
	out := *scheme
	out.Data = scheme.Data[:limit]
	return &out
}
