package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/geocoder-bridge/internal/domain"
)

// MethodCall is a named operation with its argument bag, as received from
// the application layer.
type MethodCall struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments"`
}

var errNotImplemented = errors.New("method not implemented")

// decodeRequest maps a method call onto a lookup request. Unknown method
// names return errNotImplemented.
func decodeRequest(call MethodCall) (domain.LookupRequest, error) {
	switch call.Method {
	case domain.MethodFindByQuery:
		address, err := stringArg(call.Arguments, "address")
		if err != nil {
			return nil, err
		}
		return domain.ByQuery{Address: address}, nil

	case domain.MethodFindByCoordinates:
		lat, err := numberArg(call.Arguments, "latitude")
		if err != nil {
			return nil, err
		}
		lon, err := numberArg(call.Arguments, "longitude")
		if err != nil {
			return nil, err
		}
		return domain.ByCoordinates{Latitude: lat, Longitude: lon}, nil

	default:
		return nil, errNotImplemented
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	return s, nil
}

func numberArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", key, v)
	}
}
