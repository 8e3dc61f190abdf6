package errx

import (
	"fmt"
	"net/http"
)

// UpstreamError describes a non-2xx answer from the telephony provider.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// WrapUpstream maps a provider failure to a 502. Rejected credentials get
// their own message so operators can tell them apart from outages.
func WrapUpstream(err error, status int) error {
	if err == nil {
		return nil
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return New(err, http.StatusBadGateway, UpstreamAuthMessage)
	}
	return New(err, http.StatusBadGateway, UpstreamErrorMessage)
}
