package duckdns

import (
	"errors"
	"fmt"
	"strings"
)

// Success is the first line of a verbose update reply.
type Success string

const (
	OK Success = "OK"
	KO Success = "KO"
)

// Status is the fourth line of a verbose update reply.
type Status string

const (
	Updated  Status = "UPDATED"
	NoChange Status = "NOCHANGE"
)

var ErrMalformedResponse = errors.New("malformed update response")

// Response is the decoded reply to a verbose update request.
//
//	OK
//	203.0.113.7
//	2001:db8::7
//	UPDATED
type Response struct {
	Success Success
	IPv4    string
	IPv6    string
	Status  Status
}

// ParseResponse decodes the four newline separated fields of a verbose reply.
func ParseResponse(body string) (Response, error) {
	lines := strings.Split(body, "\n")
	if len(lines) < 4 {
		return Response{}, fmt.Errorf("%w: want 4 lines, got %d", ErrMalformedResponse, len(lines))
	}
	r := Response{
		Success: Success(strings.TrimSpace(lines[0])),
		IPv4:    strings.TrimSpace(lines[1]),
		IPv6:    strings.TrimSpace(lines[2]),
		Status:  Status(strings.TrimSpace(lines[3])),
	}
	switch r.Success {
	case OK, KO:
	default:
		return Response{}, fmt.Errorf("%w: unknown result %q", ErrMalformedResponse, r.Success)
	}
	switch r.Status {
	case Updated, NoChange:
	default:
		return Response{}, fmt.Errorf("%w: unknown status %q", ErrMalformedResponse, r.Status)
	}
	return r, nil
}
