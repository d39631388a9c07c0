package intercominterface

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tdex-network/notewallet/pkg/intercom"
	"github.com/tdex-network/notewallet/pkg/stats"
)

// MinPasswordLength ...
const MinPasswordLength = 8

type handlerFunc func(ctx context.Context, req Request) (*Response, error)

// withStats decodes the request, skips the ones with unknown type and counts
// the outcome of the others.
func withStats(fn handlerFunc) intercom.RequestHandler {
	return func(
		ctx context.Context, _ intercom.Port, data json.RawMessage,
	) (interface{}, error) {
		req := Request{}
		if err := json.Unmarshal(data, &req); err != nil || req.Type == "" {
			return nil, nil
		}

		res, err := fn(ctx, req)
		if err != nil {
			stats.IntercomRequests.WithLabelValues(string(req.Type), "error").Inc()
			return nil, err
		}
		if res == nil {
			return nil, nil
		}
		stats.IntercomRequests.WithLabelValues(string(req.Type), "ok").Inc()
		return res, nil
	}
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}
